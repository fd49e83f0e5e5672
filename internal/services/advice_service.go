package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"spendwise/internal/cache"
	"spendwise/internal/core"
	applog "spendwise/internal/log"
)

// ErrAdviceUnavailable is returned when no model is configured.
var ErrAdviceUnavailable = errors.New("advice is not configured")

const (
	maxQuestionLen  = 500
	adviceCacheSize = 256
	snapshotDays    = 30
)

const advicePrompt = `You are a careful personal finance assistant.
Answer the user's question using only the figures in the snapshot.
Amounts are in the user's single currency with two decimals.
Be concise and practical. Do not invent transactions.`

// Completer produces a reply to a system and user prompt.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type Advice struct {
	Answer      string
	Cached      bool
	GeneratedAt time.Time
}

type AdviceService struct {
	completer Completer
	budgets   *BudgetService
	goals     *GoalService
	analytics *AnalyticsService
	cache     *cache.LRUCache[Advice]
	now       Clock
	logger    *applog.Logger
}

// NewAdviceService wires the service. A nil completer disables advice.
func NewAdviceService(completer Completer, budgets *BudgetService, goals *GoalService, analytics *AnalyticsService, cacheTTL time.Duration, logger *applog.Logger) *AdviceService {
	return &AdviceService{
		completer: completer,
		budgets:   budgets,
		goals:     goals,
		analytics: analytics,
		cache:     cache.NewLRUCache[Advice](adviceCacheSize, cacheTTL),
		now:       utcNow,
		logger:    componentLogger(logger, applog.ComponentAdvice),
	}
}

// Cache exposes the answer cache so the caller can register it for cleanup.
func (s *AdviceService) Cache() *cache.LRUCache[Advice] { return s.cache }

func (s *AdviceService) Enabled() bool { return s.completer != nil }

// Ask answers question with the user's current figures. Identical questions
// from the same user are served from cache until the TTL runs out.
func (s *AdviceService) Ask(ctx context.Context, userID, question string) (Advice, error) {
	if s.completer == nil {
		return Advice{}, ErrAdviceUnavailable
	}
	question = strings.TrimSpace(question)
	if question == "" || len(question) > maxQuestionLen {
		return Advice{}, core.Validationf("question is required (max %d characters)", maxQuestionLen)
	}

	key := userID + "|" + strings.ToLower(question)
	if cached, ok := s.cache.Get(key); ok {
		cached.Cached = true
		return cached, nil
	}

	now := s.now()
	snapshot, err := s.snapshot(ctx, userID, now)
	if err != nil {
		return Advice{}, err
	}

	answer, err := s.completer.Complete(ctx, advicePrompt, snapshot+"\nQuestion: "+question)
	if err != nil {
		return Advice{}, core.Internal("advice model request failed", err)
	}

	out := Advice{Answer: answer, GeneratedAt: now}
	s.cache.Set(key, out)
	s.logger.InfoContext(ctx, "Advice generated", applog.FieldUserID, userID, "answer_len", len(answer))
	return out, nil
}

// snapshot gathers budgets, goals and recent totals in parallel and renders
// them as plain text for the prompt.
func (s *AdviceService) snapshot(ctx context.Context, userID string, now time.Time) (string, error) {
	var (
		overview  core.BudgetOverview
		budgets   []core.BudgetWithStatus
		goals     core.GoalSummary
		trends    TrendReport
		breakdown []core.CategoryAmount
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		overview, budgets, err = s.budgets.Overview(gctx, userID, now)
		return err
	})
	g.Go(func() (err error) {
		goals, err = s.goals.Summary(gctx, userID, now)
		return err
	})
	g.Go(func() (err error) {
		trends, err = s.analytics.Trends(gctx, userID, core.Day, core.LastNDays(snapshotDays), now)
		return err
	})
	g.Go(func() (err error) {
		breakdown, _, err = s.analytics.CategoryBreakdown(gctx, userID, core.Expense, core.LastNDays(snapshotDays), now)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Snapshot as of %s\n", now.Format(time.DateOnly))
	fmt.Fprintf(&b, "Last %d days: income %s, expenses %s, net %s\n",
		snapshotDays, trends.TotalIncome, trends.TotalExpenses, trends.Net)

	if len(breakdown) > 0 {
		b.WriteString("Top expense categories:\n")
		for i, c := range breakdown {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "- %s: %s (%.2f%%)\n", c.Name, c.Amount, c.Percentage)
		}
	}

	fmt.Fprintf(&b, "Active budgets: %d, budgeted %s, spent %s, over budget %d\n",
		overview.ActiveCount, overview.TotalBudgeted, overview.TotalSpent, overview.OverBudgetCount)
	for _, it := range budgets {
		name := it.CategoryName
		if it.IsOverall() {
			name = "Overall"
		}
		fmt.Fprintf(&b, "- %s: %s of %s used (%.2f%%)\n", name, it.Status.Spent, it.Amount, it.Status.PercentageUsed)
	}

	fmt.Fprintf(&b, "Goals: %d, saved %s of %s (%.2f%%), completed %d, overdue %d\n",
		goals.GoalCount, goals.TotalCurrent, goals.TotalTarget, goals.OverallProgress, goals.CompletedCount, goals.OverdueCount)
	return b.String(), nil
}
