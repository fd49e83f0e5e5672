package core

import (
	"testing"
	"time"
)

func TestParseTxType(t *testing.T) {
	cases := []struct {
		in   string
		want TxType
		ok   bool
	}{
		{"income", Income, true},
		{"EXPENSE", Expense, true},
		{" Income ", Income, true},
		{"transfer", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseTxType(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q expected %q, got %q (err=%v)", tc.in, tc.want, got, err)
		}
		if !tc.ok && !IsValidation(err) {
			t.Fatalf("%q expected validation error, got %v", tc.in, err)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		CategoryID: "c1",
		Type:       Expense,
		Amount:     Money{Cents: 100},
		Date:       time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Type: Expense, Amount: Money{Cents: 1}, Date: good.Date},
		{CategoryID: "c1", Type: "x", Amount: Money{Cents: 1}, Date: good.Date},
		{CategoryID: "c1", Type: Expense, Amount: Money{Cents: 0}, Date: good.Date},
		{CategoryID: "c1", Type: Expense, Amount: Money{Cents: 1}},
		{CategoryID: "c1", Type: Expense, Amount: Money{Cents: 1}, Date: time.Date(1500, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for i, tx := range bads {
		if err := tx.Validate(); !IsValidation(err) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestBudgetValidate(t *testing.T) {
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jan31 := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	if err := (Budget{Amount: Money{Cents: 1}, StartDate: jan1, EndDate: jan31}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Budget{
		{Amount: Money{Cents: 0}, StartDate: jan1, EndDate: jan31},
		{Amount: Money{Cents: -5}, StartDate: jan1, EndDate: jan31},
		{Amount: Money{Cents: 1}, StartDate: jan31, EndDate: jan1},
		{Amount: Money{Cents: 1}, StartDate: jan1, EndDate: jan1},
		{Amount: Money{Cents: 1}, EndDate: jan31},
		{Amount: Money{Cents: 1}, StartDate: jan1, EndDate: time.Date(2263, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for i, b := range bads {
		if err := b.Validate(); !IsValidation(err) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestGoalValidate(t *testing.T) {
	good := Goal{Title: "Car", TargetAmount: Money{Cents: 500000}}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Goal{
		{Title: " ", TargetAmount: Money{Cents: 1}},
		{Title: "x", TargetAmount: Money{Cents: 0}},
		{Title: "x", TargetAmount: Money{Cents: 10}, CurrentAmount: Money{Cents: -1}},
		{Title: "x", TargetAmount: Money{Cents: 10}, CurrentAmount: Money{Cents: 11}},
	}
	for i, g := range bads {
		if err := g.Validate(); !IsValidation(err) {
			t.Fatalf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestValidateDeadline(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	if err := ValidateDeadline(nil, now); err != nil {
		t.Fatalf("nil deadline should be ok, got %v", err)
	}
	if err := ValidateDeadline(&future, now); err != nil {
		t.Fatalf("future deadline should be ok, got %v", err)
	}
	if err := ValidateDeadline(&past, now); !IsValidation(err) {
		t.Fatalf("past deadline should fail, got %v", err)
	}
	if err := ValidateDeadline(&now, now); !IsValidation(err) {
		t.Fatalf("deadline equal to now should fail, got %v", err)
	}
}

func TestDayBounds(t *testing.T) {
	ts := time.Date(2024, 3, 10, 15, 4, 5, 0, time.UTC)
	if got := StartOfDay(ts); !got.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("StartOfDay = %v", got)
	}
	end := EndOfDay(ts)
	if end.Day() != 10 || !end.Add(time.Nanosecond).Equal(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("EndOfDay = %v", end)
	}
}

func TestErrorKinds(t *testing.T) {
	wrapped := Internal("load budgets", NotFoundf("category missing"))
	if KindOf(wrapped) != KindInternal {
		t.Fatalf("outermost kind should win, got %v", KindOf(wrapped))
	}
	if PublicMessage(wrapped) != "internal server error" {
		t.Fatalf("internal errors must not leak, got %q", PublicMessage(wrapped))
	}
	if PublicMessage(Conflictf("dup")) != "dup" {
		t.Fatalf("conflict message should be public")
	}
	if !IsConflict(Conflictf("x")) || !IsNotFound(NotFoundf("x")) {
		t.Fatalf("kind helpers mismatch")
	}
}

func TestValidateDate(t *testing.T) {
	tests := []struct {
		t  time.Time
		ok bool
	}{
		{time.Date(MinYear, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{time.Date(MaxYear, 12, 31, 23, 59, 0, 0, time.UTC), true},
		{time.Date(MinYear-1, 12, 31, 0, 0, 0, 0, time.UTC), false},
		{time.Date(MaxYear+1, 1, 1, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		if err := ValidateDate(tt.t); (err == nil) != tt.ok {
			t.Errorf("ValidateDate(%v) = %v", tt.t, err)
		}
		// both ends must fit the nanosecond encoding used by storage
		if tt.ok && !time.Unix(0, tt.t.UnixNano()).Equal(tt.t) {
			t.Errorf("%v does not survive UnixNano", tt.t)
		}
	}
}
