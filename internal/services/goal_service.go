package services

import (
	"context"
	"strings"
	"time"

	"spendwise/internal/core"
	applog "spendwise/internal/log"
	"spendwise/internal/store"
)

// GoalInput is used for create. CurrentAmount is an optional opening
// balance.
type GoalInput struct {
	Title         string
	TargetAmount  core.Money
	CurrentAmount core.Money
	Deadline      *time.Time
}

// GoalUpdate replaces the editable fields. The current amount only moves
// through Contribute.
type GoalUpdate struct {
	Title        string
	TargetAmount core.Money
	Deadline     *time.Time
}

type GoalService struct {
	goals  store.GoalStore
	now    Clock
	logger *applog.Logger
}

func NewGoalService(goals store.GoalStore, logger *applog.Logger) *GoalService {
	return &GoalService{
		goals:  goals,
		now:    utcNow,
		logger: componentLogger(logger, applog.ComponentGoal),
	}
}

// WithClock pins the service's notion of now. Tests only.
func (s *GoalService) WithClock(now Clock) *GoalService {
	s.now = now
	return s
}

func (s *GoalService) Create(ctx context.Context, userID string, in GoalInput) (core.GoalWithProgress, error) {
	now := s.now()
	g := core.Goal{
		ID:            newID(),
		UserID:        userID,
		Title:         strings.TrimSpace(in.Title),
		TargetAmount:  in.TargetAmount,
		CurrentAmount: in.CurrentAmount,
		Deadline:      utcPtr(in.Deadline),
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := g.Validate(); err != nil {
		return core.GoalWithProgress{}, err
	}
	if err := core.ValidateDeadline(g.Deadline, now); err != nil {
		return core.GoalWithProgress{}, err
	}
	if err := s.goals.CreateGoal(ctx, g); err != nil {
		return core.GoalWithProgress{}, err
	}
	s.logger.InfoContext(ctx, "Goal created", applog.FieldUserID, userID, applog.FieldEntityID, g.ID)
	return s.withProgress(g, now), nil
}

// Update validates a changed deadline against now; an unchanged one may
// already be in the past.
func (s *GoalService) Update(ctx context.Context, userID, id string, in GoalUpdate) (core.GoalWithProgress, error) {
	existing, err := s.goals.GetGoal(ctx, userID, id)
	if err != nil {
		return core.GoalWithProgress{}, err
	}
	now := s.now()

	next := existing
	next.Title = strings.TrimSpace(in.Title)
	next.TargetAmount = in.TargetAmount
	next.Deadline = utcPtr(in.Deadline)
	next.UpdatedAt = now
	if err := next.Validate(); err != nil {
		return core.GoalWithProgress{}, err
	}
	if deadlineChanged(existing.Deadline, next.Deadline) {
		if err := core.ValidateDeadline(next.Deadline, now); err != nil {
			return core.GoalWithProgress{}, err
		}
	}

	saved, err := s.goals.UpdateGoal(ctx, next)
	if err != nil {
		return core.GoalWithProgress{}, err
	}
	return s.withProgress(saved, now), nil
}

// Contribute moves amount into or out of the goal. The store applies the
// change atomically against the stored balance so concurrent contributions
// cannot push it past the target.
func (s *GoalService) Contribute(ctx context.Context, userID, id string, amount core.Money, direction string) (core.GoalWithProgress, error) {
	dir, err := core.ParseContributionDirection(direction)
	if err != nil {
		return core.GoalWithProgress{}, err
	}
	if amount.Cents <= 0 {
		return core.GoalWithProgress{}, core.Validationf("contribution amount must be greater than zero")
	}

	now := s.now()
	g, err := s.goals.AdjustGoal(ctx, userID, id, dir.Signed(amount).Cents, now)
	if err != nil {
		return core.GoalWithProgress{}, err
	}

	out := s.withProgress(g, now)
	s.logger.InfoContext(ctx, "Goal contribution applied",
		applog.FieldUserID, userID,
		applog.FieldEntityID, id,
		applog.FieldAmountCents, dir.Signed(amount).Cents,
		"completed", out.Progress.IsCompleted)
	return out, nil
}

func (s *GoalService) Delete(ctx context.Context, userID, id string) error {
	return s.goals.DeleteGoal(ctx, userID, id)
}

func (s *GoalService) Get(ctx context.Context, userID, id string) (core.GoalWithProgress, error) {
	g, err := s.goals.GetGoal(ctx, userID, id)
	if err != nil {
		return core.GoalWithProgress{}, err
	}
	return s.withProgress(g, s.now()), nil
}

func (s *GoalService) List(ctx context.Context, userID string) ([]core.GoalWithProgress, error) {
	goals, err := s.goals.ListGoals(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]core.GoalWithProgress, len(goals))
	for i, g := range goals {
		out[i] = s.withProgress(g, now)
	}
	return out, nil
}

func (s *GoalService) Summary(ctx context.Context, userID string, now time.Time) (core.GoalSummary, error) {
	goals, err := s.goals.ListGoals(ctx, userID)
	if err != nil {
		return core.GoalSummary{}, err
	}
	items := make([]core.GoalWithProgress, len(goals))
	for i, g := range goals {
		items[i] = s.withProgress(g, now)
	}
	return core.SummarizeGoals(items), nil
}

func (s *GoalService) withProgress(g core.Goal, now time.Time) core.GoalWithProgress {
	return core.GoalWithProgress{Goal: g, Progress: core.ComputeGoalProgress(g, now)}
}

func deadlineChanged(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a != b
	}
	return !a.Equal(*b)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
