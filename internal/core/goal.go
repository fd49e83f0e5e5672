package core

import (
	"math"
	"strings"
	"time"
)

const (
	ContributionAdd      ContributionDirection = "add"
	ContributionSubtract ContributionDirection = "subtract"
)

// ContributionDirection tells whether money is put into or taken out of a goal.
type ContributionDirection string

func ParseContributionDirection(s string) (ContributionDirection, error) {
	switch ContributionDirection(strings.ToLower(strings.TrimSpace(s))) {
	case "", ContributionAdd:
		return ContributionAdd, nil
	case ContributionSubtract:
		return ContributionSubtract, nil
	}
	return "", Validationf("invalid direction %q: must be add or subtract", s)
}

// Signed returns delta with the sign implied by the direction.
func (d ContributionDirection) Signed(delta Money) Money {
	if d == ContributionSubtract {
		return Money{Cents: -delta.Cents}
	}
	return delta
}

// GoalProgress is the derived state of a savings goal at a point in time.
type GoalProgress struct {
	Percentage     float64
	Remaining      Money
	IsCompleted    bool
	IsOverdue      bool
	DaysToDeadline *int
}

// ComputeGoalProgress derives progress for g as seen at now. Unlike budget
// remaining, goal remaining is floored at zero.
func ComputeGoalProgress(g Goal, now time.Time) GoalProgress {
	p := GoalProgress{
		Percentage:  Percentage(g.CurrentAmount, g.TargetAmount),
		IsCompleted: g.CurrentAmount.Cents >= g.TargetAmount.Cents,
	}
	if rem := g.TargetAmount.Cents - g.CurrentAmount.Cents; rem > 0 {
		p.Remaining = Money{Cents: rem}
	}
	if g.Deadline != nil {
		days := int(math.Ceil(float64(g.Deadline.Sub(now)) / float64(24*time.Hour)))
		p.DaysToDeadline = &days
		p.IsOverdue = now.After(*g.Deadline) && !p.IsCompleted
	}
	return p
}

// ApplyContribution returns the new current amount after moving delta in the
// given direction. Adding past the target or subtracting below zero is
// rejected.
func ApplyContribution(current, target, delta Money, dir ContributionDirection) (Money, error) {
	if delta.Cents <= 0 {
		return current, Validationf("contribution amount must be greater than zero")
	}
	next := current.Add(dir.Signed(delta))
	if next.Cents > target.Cents {
		return current, Validationf("contribution would exceed the goal target by %s", Money{Cents: next.Cents - target.Cents})
	}
	if next.Cents < 0 {
		return current, Validationf("cannot withdraw more than the current amount")
	}
	return next, nil
}

// GoalWithProgress pairs a stored goal with its derived progress.
type GoalWithProgress struct {
	Goal
	Progress GoalProgress
}

type GoalSummary struct {
	GoalCount         int
	TotalTarget       Money
	TotalCurrent      Money
	CompletedCount    int
	OverdueCount      int
	OverallProgress   float64
	AveragePercentage float64
}

// SummarizeGoals aggregates goals. OverallProgress weighs by amount while
// AveragePercentage is the plain mean of each goal's own percentage.
func SummarizeGoals(goals []GoalWithProgress) GoalSummary {
	var s GoalSummary
	var pctSum float64
	for _, g := range goals {
		s.GoalCount++
		s.TotalTarget = s.TotalTarget.Add(g.TargetAmount)
		s.TotalCurrent = s.TotalCurrent.Add(g.CurrentAmount)
		if g.Progress.IsCompleted {
			s.CompletedCount++
		}
		if g.Progress.IsOverdue {
			s.OverdueCount++
		}
		pctSum += g.Progress.Percentage
	}
	s.OverallProgress = Percentage(s.TotalCurrent, s.TotalTarget)
	if s.GoalCount > 0 {
		s.AveragePercentage = round2(pctSum / float64(s.GoalCount))
	}
	return s
}
