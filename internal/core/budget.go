package core

import "time"

// BudgetStatus is the derived spending state of a budget. It is never stored.
type BudgetStatus struct {
	Spent          Money
	Remaining      Money
	PercentageUsed float64
	IsOverBudget   bool
}

// ComputeBudgetStatus derives the status of a budget capped at amount after
// spent has been consumed. Remaining is not floored and goes negative once
// the budget is exceeded.
func ComputeBudgetStatus(amount, spent Money) BudgetStatus {
	return BudgetStatus{
		Spent:          spent,
		Remaining:      amount.Sub(spent),
		PercentageUsed: Percentage(spent, amount),
		IsOverBudget:   spent.Cents > amount.Cents,
	}
}

// NormalizeBudgetRange widens the budget bounds to whole days so both
// boundary days are fully included.
func NormalizeBudgetRange(start, end time.Time) (time.Time, time.Time) {
	return StartOfDay(start), EndOfDay(end)
}

// Overlaps reports whether two closed intervals share at least one instant.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

// FindOverlap returns the first existing budget in the same scope as
// candidate whose interval intersects it. Budgets with the candidate's ID
// are skipped so updates do not collide with themselves.
func FindOverlap(candidate Budget, existing []Budget) (Budget, bool) {
	for _, b := range existing {
		if b.ID == candidate.ID || b.CategoryID != candidate.CategoryID {
			continue
		}
		if Overlaps(candidate.StartDate, candidate.EndDate, b.StartDate, b.EndDate) {
			return b, true
		}
	}
	return Budget{}, false
}

// IsActive reports whether now falls inside the budget's inclusive range.
func (b Budget) IsActive(now time.Time) bool {
	return !now.Before(b.StartDate) && !now.After(b.EndDate)
}

// BudgetOverview aggregates the currently active budgets of a user.
type BudgetOverview struct {
	ActiveCount     int
	TotalBudgeted   Money
	TotalSpent      Money
	TotalRemaining  Money
	OverBudgetCount int
	PercentageUsed  float64
}

// BudgetWithStatus pairs a stored budget with its live status.
type BudgetWithStatus struct {
	Budget
	CategoryName string
	Status       BudgetStatus
}

// SummarizeBudgets folds already-filtered active budgets into an overview.
func SummarizeBudgets(items []BudgetWithStatus) BudgetOverview {
	var ov BudgetOverview
	for _, it := range items {
		ov.ActiveCount++
		ov.TotalBudgeted = ov.TotalBudgeted.Add(it.Amount)
		ov.TotalSpent = ov.TotalSpent.Add(it.Status.Spent)
		if it.Status.IsOverBudget {
			ov.OverBudgetCount++
		}
	}
	ov.TotalRemaining = ov.TotalBudgeted.Sub(ov.TotalSpent)
	ov.PercentageUsed = Percentage(ov.TotalSpent, ov.TotalBudgeted)
	return ov
}
