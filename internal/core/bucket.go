package core

import (
	"sort"
	"strings"
	"time"
)

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
	Year  Granularity = "year"
)

// Granularity is the width of the calendar buckets used for trend charts.
type Granularity string

func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case Day, Week, Month, Year:
		return g, nil
	case "":
		return Month, nil
	}
	return "", Validationf("invalid granularity %q: must be day, week, month or year", s)
}

// BucketStart returns the first instant of the bucket containing t.
// Weeks start on Sunday.
func BucketStart(t time.Time, g Granularity) time.Time {
	d := StartOfDay(t)
	switch g {
	case Week:
		return d.AddDate(0, 0, -int(d.Weekday()))
	case Month:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	case Year:
		return time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return d
	}
}

// BucketKey formats the bucket containing t for display.
func BucketKey(t time.Time, g Granularity) string {
	start := BucketStart(t, g)
	switch g {
	case Month:
		return start.Format("2006-01")
	case Year:
		return start.Format("2006")
	default:
		return start.Format("2006-01-02")
	}
}

type Bucket struct {
	Key      string
	Start    time.Time
	Income   Money
	Expenses Money
}

// Net is income minus expenses for the bucket.
func (b Bucket) Net() Money {
	return b.Income.Sub(b.Expenses)
}

type bucketTypeKey struct {
	start time.Time
	typ   TxType
}

// GroupTransactions sums income and expenses per calendar bucket and returns
// one row per non-empty bucket in chronological order. The result does not
// depend on the order of txs.
func GroupTransactions(txs []Transaction, g Granularity) []Bucket {
	sums := make(map[bucketTypeKey]int64)
	for _, tx := range txs {
		k := bucketTypeKey{start: BucketStart(tx.Date, g), typ: tx.Type}
		sums[k] += tx.Amount.Cents
	}

	rows := make(map[time.Time]*Bucket)
	for k, cents := range sums {
		row, ok := rows[k.start]
		if !ok {
			row = &Bucket{Key: BucketKey(k.start, g), Start: k.start}
			rows[k.start] = row
		}
		switch k.typ {
		case Income:
			row.Income.Cents += cents
		case Expense:
			row.Expenses.Cents += cents
		}
	}

	out := make([]Bucket, 0, len(rows))
	for _, row := range rows {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// Totals sums income and expenses across buckets.
func Totals(buckets []Bucket) (income, expenses Money) {
	for _, b := range buckets {
		income = income.Add(b.Income)
		expenses = expenses.Add(b.Expenses)
	}
	return income, expenses
}
