package services

import (
	"context"
	"sort"
	"time"

	"spendwise/internal/core"
	applog "spendwise/internal/log"
	"spendwise/internal/store"
)

// TrendReport is the grouped view of a user's transactions over a range.
type TrendReport struct {
	Granularity   core.Granularity
	Mode          core.RangeMode
	Range         core.DateRange
	Buckets       []core.Bucket
	TotalIncome   core.Money
	TotalExpenses core.Money
	Net           core.Money
}

type AnalyticsService struct {
	transactions store.TransactionStore
	categories   store.CategoryStore
	logger       *applog.Logger
}

func NewAnalyticsService(transactions store.TransactionStore, categories store.CategoryStore, logger *applog.Logger) *AnalyticsService {
	return &AnalyticsService{
		transactions: transactions,
		categories:   categories,
		logger:       componentLogger(logger, applog.ComponentAnalytics),
	}
}

// Trends groups the user's transactions in the selected range. A zero
// selection falls back to the granularity's default preset.
func (s *AnalyticsService) Trends(ctx context.Context, userID string, g core.Granularity, sel core.RangeSelection, now time.Time) (TrendReport, error) {
	rs := core.NewRangeSelector(g)
	switch {
	case sel.IsCustom():
		rs.SelectCustom(sel.CustomStart, sel.CustomEnd)
	case sel.LastDays != 0:
		rs.SelectPreset(sel.LastDays)
	}

	rng, err := rs.Range(now)
	if err != nil {
		return TrendReport{}, err
	}

	txs, err := s.transactions.ListTransactions(ctx, store.TransactionFilter{UserID: userID, From: rng.Start, To: rng.End})
	if err != nil {
		return TrendReport{}, err
	}

	buckets := core.GroupTransactions(txs, rs.Granularity())
	income, expenses := core.Totals(buckets)

	s.logger.DebugContext(ctx, "Trends computed",
		applog.FieldUserID, userID,
		applog.FieldGranularity, string(g),
		"transactions", len(txs),
		"buckets", len(buckets))

	return TrendReport{
		Granularity:   rs.Granularity(),
		Mode:          rs.Mode(),
		Range:         rng,
		Buckets:       buckets,
		TotalIncome:   income,
		TotalExpenses: expenses,
		Net:           income.Sub(expenses),
	}, nil
}

// CategoryBreakdown sums transactions of typ per category over the selected
// range, largest first. Percentages are shares of the range total.
func (s *AnalyticsService) CategoryBreakdown(ctx context.Context, userID string, typ core.TxType, sel core.RangeSelection, now time.Time) ([]core.CategoryAmount, core.DateRange, error) {
	if !typ.Valid() {
		return nil, core.DateRange{}, core.Validationf("invalid type %q: must be income or expense", typ)
	}
	if !sel.IsCustom() && sel.LastDays == 0 {
		sel = core.LastNDays(core.DefaultPresetDays(core.Month))
	}
	rng, err := core.ResolveRange(sel, now)
	if err != nil {
		return nil, core.DateRange{}, err
	}

	txs, err := s.transactions.ListTransactions(ctx, store.TransactionFilter{UserID: userID, Type: typ, From: rng.Start, To: rng.End})
	if err != nil {
		return nil, core.DateRange{}, err
	}
	cats, err := s.categories.ListCategories(ctx, userID, "")
	if err != nil {
		return nil, core.DateRange{}, err
	}
	names := make(map[string]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}

	sums := make(map[string]core.Money)
	var total core.Money
	for _, tx := range txs {
		sums[tx.CategoryID] = sums[tx.CategoryID].Add(tx.Amount)
		total = total.Add(tx.Amount)
	}

	out := make([]core.CategoryAmount, 0, len(sums))
	for id, amount := range sums {
		out = append(out, core.CategoryAmount{
			CategoryID: id,
			Name:       names[id],
			Type:       typ,
			Amount:     amount,
			Percentage: core.Percentage(amount, total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out, rng, nil
}
