package services

import (
	"context"
	"testing"

	"spendwise/internal/core"
)

func TestAnalyticsService_MonthBucket(t *testing.T) {
	e := newEnv(t)
	pay := e.category(t, "u1", "Pay", core.Income)
	food := e.category(t, "u1", "Food", core.Expense)
	e.spend(t, "u1", pay, core.Income, 10000, day(2024, 1, 5))
	e.spend(t, "u1", food, core.Expense, 4000, day(2024, 1, 20))

	rep, err := e.analytics.Trends(context.Background(), "u1", core.Month, core.RangeSelection{}, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Mode != core.PresetRange || rep.Granularity != core.Month {
		t.Errorf("mode/granularity = %v/%v", rep.Mode, rep.Granularity)
	}
	if len(rep.Buckets) != 1 {
		t.Fatalf("buckets = %+v", rep.Buckets)
	}
	b := rep.Buckets[0]
	if b.Key != "2024-01" || b.Income.Cents != 10000 || b.Expenses.Cents != 4000 {
		t.Errorf("bucket = %+v", b)
	}
	if rep.Net.Cents != 6000 {
		t.Errorf("net = %d", rep.Net.Cents)
	}
}

func TestAnalyticsService_DefaultPresets(t *testing.T) {
	e := newEnv(t)
	food := e.category(t, "u1", "Food", core.Expense)
	e.spend(t, "u1", food, core.Expense, 100, day(2024, 1, 15)) // inside 7 days
	e.spend(t, "u1", food, core.Expense, 200, day(2024, 1, 12)) // 8 days back

	tests := []struct {
		g       core.Granularity
		buckets int
		spent   int64
	}{
		{core.Day, 1, 100},
		{core.Week, 2, 300},
	}
	for _, tt := range tests {
		t.Run(string(tt.g), func(t *testing.T) {
			rep, err := e.analytics.Trends(context.Background(), "u1", tt.g, core.RangeSelection{}, testNow)
			if err != nil {
				t.Fatal(err)
			}
			if len(rep.Buckets) != tt.buckets || rep.TotalExpenses.Cents != tt.spent {
				t.Errorf("buckets %+v, expenses %d", rep.Buckets, rep.TotalExpenses.Cents)
			}
		})
	}
}

func TestAnalyticsService_CustomRange(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	food := e.category(t, "u1", "Food", core.Expense)
	e.spend(t, "u1", food, core.Expense, 100, day(2023, 6, 1))

	rep, err := e.analytics.Trends(ctx, "u1", core.Year, core.CustomRange(day(2023, 1, 1), day(2023, 12, 31)), testNow)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Mode != core.CustomRangeMode || len(rep.Buckets) != 1 || rep.Buckets[0].Key != "2023" {
		t.Errorf("report = %+v", rep)
	}

	_, err = e.analytics.Trends(ctx, "u1", core.Year, core.CustomRange(day(2023, 12, 31), day(2023, 1, 1)), testNow)
	wantKind(t, err, core.KindValidation)
}

func TestAnalyticsService_CategoryBreakdown(t *testing.T) {
	e := newEnv(t)
	food := e.category(t, "u1", "Food", core.Expense)
	fun := e.category(t, "u1", "Fun", core.Expense)
	pay := e.category(t, "u1", "Pay", core.Income)
	e.spend(t, "u1", food, core.Expense, 750, day(2024, 1, 2))
	e.spend(t, "u1", fun, core.Expense, 250, day(2024, 1, 3))
	e.spend(t, "u1", pay, core.Income, 5000, day(2024, 1, 3))

	rows, rng, err := e.analytics.CategoryBreakdown(context.Background(), "u1", core.Expense, core.RangeSelection{}, testNow)
	if err != nil {
		t.Fatal(err)
	}
	if !rng.Contains(day(2023, 2, 1)) {
		t.Errorf("default range %v should cover a year", rng)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].Name != "Food" || rows[0].Percentage != 75 || rows[1].Name != "Fun" || rows[1].Percentage != 25 {
		t.Errorf("rows = %+v", rows)
	}

	_, _, err = e.analytics.CategoryBreakdown(context.Background(), "u1", "transfer", core.RangeSelection{}, testNow)
	wantKind(t, err, core.KindValidation)
}
