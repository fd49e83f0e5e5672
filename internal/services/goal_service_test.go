package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"spendwise/internal/core"
)

func ptr(t time.Time) *time.Time { return &t }

func TestGoalService_CompletedGoal(t *testing.T) {
	e := newEnv(t)
	g, err := e.goals.Create(context.Background(), "u1", GoalInput{
		Title: "Bike", TargetAmount: core.Money{Cents: 500000}, CurrentAmount: core.Money{Cents: 500000},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !g.Progress.IsCompleted || g.Progress.Remaining.Cents != 0 || g.Progress.Percentage != 100 {
		t.Errorf("progress = %+v", g.Progress)
	}
	if g.Progress.DaysToDeadline != nil {
		t.Error("DaysToDeadline set without a deadline")
	}
}

func TestGoalService_CreateValidation(t *testing.T) {
	e := newEnv(t)
	tests := []struct {
		name string
		in   GoalInput
	}{
		{"no title", GoalInput{TargetAmount: core.Money{Cents: 1}}},
		{"zero target", GoalInput{Title: "x"}},
		{"opening balance above target", GoalInput{Title: "x", TargetAmount: core.Money{Cents: 10}, CurrentAmount: core.Money{Cents: 11}}},
		{"deadline in the past", GoalInput{Title: "x", TargetAmount: core.Money{Cents: 10}, Deadline: ptr(day(2024, 1, 1))}},
		{"deadline exactly now", GoalInput{Title: "x", TargetAmount: core.Money{Cents: 10}, Deadline: ptr(testNow)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.goals.Create(context.Background(), "u1", tt.in)
			wantKind(t, err, core.KindValidation)
		})
	}
}

func TestGoalService_Contribute(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	g, err := e.goals.Create(ctx, "u1", GoalInput{Title: "Trip", TargetAmount: core.Money{Cents: 1000}})
	if err != nil {
		t.Fatal(err)
	}

	got, err := e.goals.Contribute(ctx, "u1", g.ID, core.Money{Cents: 600}, "")
	if err != nil {
		t.Fatal(err)
	}
	if got.CurrentAmount.Cents != 600 || got.Progress.Percentage != 60 || got.Version != 2 {
		t.Errorf("after add: %+v", got)
	}

	_, err = e.goals.Contribute(ctx, "u1", g.ID, core.Money{Cents: 401}, "add")
	wantKind(t, err, core.KindValidation)

	got, err = e.goals.Contribute(ctx, "u1", g.ID, core.Money{Cents: 100}, "subtract")
	if err != nil || got.CurrentAmount.Cents != 500 {
		t.Fatalf("after subtract: %+v, %v", got, err)
	}

	_, err = e.goals.Contribute(ctx, "u1", g.ID, core.Money{Cents: 501}, "subtract")
	wantKind(t, err, core.KindValidation)

	_, err = e.goals.Contribute(ctx, "u1", g.ID, core.Money{Cents: 1}, "sideways")
	wantKind(t, err, core.KindValidation)

	_, err = e.goals.Contribute(ctx, "u1", g.ID, core.Money{}, "add")
	wantKind(t, err, core.KindValidation)

	_, err = e.goals.Contribute(ctx, "u2", g.ID, core.Money{Cents: 1}, "add")
	wantKind(t, err, core.KindNotFound)
}

func TestGoalService_ConcurrentContributionsRespectTarget(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	g, err := e.goals.Create(ctx, "u1", GoalInput{Title: "Fund", TargetAmount: core.Money{Cents: 1000}})
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for range 25 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = e.goals.Contribute(ctx, "u1", g.ID, core.Money{Cents: 100}, "add")
		}()
	}
	wg.Wait()

	final, err := e.goals.Get(ctx, "u1", g.ID)
	if err != nil {
		t.Fatal(err)
	}
	if final.CurrentAmount.Cents != 1000 {
		t.Errorf("current = %d, want exactly the target", final.CurrentAmount.Cents)
	}
}

func TestGoalService_UpdateDeadlineRules(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	// create while the deadline is still ahead, then move the clock past it
	g, err := e.goals.Create(ctx, "u1", GoalInput{Title: "Car", TargetAmount: core.Money{Cents: 1000}, Deadline: ptr(day(2024, 2, 1))})
	if err != nil {
		t.Fatal(err)
	}
	later := day(2024, 3, 1)
	e.goals.WithClock(func() time.Time { return later })

	got, err := e.goals.Update(ctx, "u1", g.ID, GoalUpdate{Title: "New car", TargetAmount: core.Money{Cents: 2000}, Deadline: ptr(day(2024, 2, 1))})
	if err != nil {
		t.Fatalf("unchanged past deadline rejected: %v", err)
	}
	if got.Title != "New car" || !got.Progress.IsOverdue || *got.Progress.DaysToDeadline != -29 {
		t.Errorf("Update() = %+v / %+v", got.Goal, got.Progress)
	}

	_, err = e.goals.Update(ctx, "u1", g.ID, GoalUpdate{Title: "Car", TargetAmount: core.Money{Cents: 2000}, Deadline: ptr(day(2024, 2, 20))})
	wantKind(t, err, core.KindValidation)

	// clearing the deadline is always allowed
	got, err = e.goals.Update(ctx, "u1", g.ID, GoalUpdate{Title: "Car", TargetAmount: core.Money{Cents: 2000}})
	if err != nil || got.Deadline != nil {
		t.Errorf("clear deadline: %+v, %v", got.Goal, err)
	}
}

func TestGoalService_UpdateTargetBelowCurrent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	g, err := e.goals.Create(ctx, "u1", GoalInput{Title: "TV", TargetAmount: core.Money{Cents: 1000}, CurrentAmount: core.Money{Cents: 800}})
	if err != nil {
		t.Fatal(err)
	}
	_, err = e.goals.Update(ctx, "u1", g.ID, GoalUpdate{Title: "TV", TargetAmount: core.Money{Cents: 700}})
	wantKind(t, err, core.KindValidation)
}

func TestGoalService_Summary(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for _, in := range []GoalInput{
		{Title: "A", TargetAmount: core.Money{Cents: 1000}, CurrentAmount: core.Money{Cents: 1000}},
		{Title: "B", TargetAmount: core.Money{Cents: 3000}, CurrentAmount: core.Money{Cents: 0}},
	} {
		if _, err := e.goals.Create(ctx, "u1", in); err != nil {
			t.Fatal(err)
		}
	}

	s, err := e.goals.Summary(ctx, "u1", testNow)
	if err != nil {
		t.Fatal(err)
	}
	if s.GoalCount != 2 || s.CompletedCount != 1 || s.OverallProgress != 25 || s.AveragePercentage != 50 {
		t.Errorf("Summary() = %+v", s)
	}

	list, err := e.goals.List(ctx, "u1")
	if err != nil || len(list) != 2 {
		t.Errorf("List() = %d, %v", len(list), err)
	}
	if err := e.goals.Delete(ctx, "u1", list[0].ID); err != nil {
		t.Fatal(err)
	}
	wantKind(t, e.goals.Delete(ctx, "u1", list[0].ID), core.KindNotFound)
}
