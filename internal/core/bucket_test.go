package core

import (
	"math/rand"
	"testing"
	"time"
)

func TestBucketKey(t *testing.T) {
	// 2024-01-10 is a Wednesday; its week starts Sunday 2024-01-07.
	ts := time.Date(2024, 1, 10, 18, 30, 0, 0, time.UTC)
	cases := []struct {
		g    Granularity
		want string
	}{
		{Day, "2024-01-10"},
		{Week, "2024-01-07"},
		{Month, "2024-01"},
		{Year, "2024"},
	}
	for _, tc := range cases {
		if got := BucketKey(ts, tc.g); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.g, got, tc.want)
		}
	}
	// Week crossing a year boundary keeps the Sunday in the previous year.
	if got := BucketKey(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Week); got != "2024-12-29" {
		t.Fatalf("got %q", got)
	}
}

func TestParseGranularity(t *testing.T) {
	if g, _ := ParseGranularity(""); g != Month {
		t.Fatalf("default should be month, got %q", g)
	}
	if g, _ := ParseGranularity("WEEK"); g != Week {
		t.Fatalf("got %q", g)
	}
	if _, err := ParseGranularity("quarter"); !IsValidation(err) {
		t.Fatalf("expected validation error")
	}
}

func TestGroupTransactionsSingleMonth(t *testing.T) {
	txs := []Transaction{
		{Type: Income, Amount: Money{Cents: 10000}, Date: day(2024, 1, 5)},
		{Type: Expense, Amount: Money{Cents: 4000}, Date: day(2024, 1, 20)},
	}
	got := GroupTransactions(txs, Month)
	if len(got) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(got))
	}
	b := got[0]
	if b.Key != "2024-01" || b.Income.Cents != 10000 || b.Expenses.Cents != 4000 || b.Net().Cents != 6000 {
		t.Fatalf("bucket = %+v", b)
	}
}

func TestGroupTransactionsOrderAndTotals(t *testing.T) {
	var txs []Transaction
	var wantIncome, wantExpense int64
	r := rand.New(rand.NewSource(42))
	start := day(2023, 1, 1)
	for i := 0; i < 500; i++ {
		typ := Income
		if r.Intn(2) == 0 {
			typ = Expense
		}
		cents := int64(r.Intn(100000) + 1)
		if typ == Income {
			wantIncome += cents
		} else {
			wantExpense += cents
		}
		txs = append(txs, Transaction{
			Type:   typ,
			Amount: Money{Cents: cents},
			Date:   start.Add(time.Duration(r.Int63n(int64(730 * 24 * time.Hour)))),
		})
	}

	for _, g := range []Granularity{Day, Week, Month, Year} {
		buckets := GroupTransactions(txs, g)
		for i := 1; i < len(buckets); i++ {
			if !buckets[i-1].Start.Before(buckets[i].Start) {
				t.Fatalf("%s: buckets out of order at %d", g, i)
			}
		}
		inc, exp := Totals(buckets)
		if inc.Cents != wantIncome || exp.Cents != wantExpense {
			t.Fatalf("%s: totals %d/%d want %d/%d", g, inc.Cents, exp.Cents, wantIncome, wantExpense)
		}

		shuffled := append([]Transaction(nil), txs...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		again := GroupTransactions(shuffled, g)
		if len(again) != len(buckets) {
			t.Fatalf("%s: shuffled input changed bucket count", g)
		}
		for i := range again {
			if again[i] != buckets[i] {
				t.Fatalf("%s: shuffled input changed bucket %d", g, i)
			}
		}
	}
}

func TestGroupTransactionsEmpty(t *testing.T) {
	if got := GroupTransactions(nil, Day); len(got) != 0 {
		t.Fatalf("expected no buckets, got %d", len(got))
	}
}
