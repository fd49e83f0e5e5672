package services

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	applog "spendwise/internal/log"
	"spendwise/internal/store/memory"
)

var testNow = time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Output: io.Discard, Component: applog.ComponentApp})
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.TransactionEvent
	err    error
}

func (p *recordingPublisher) PublishTransactionEvent(_ context.Context, evt amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return p.err
}

type env struct {
	store        *memory.Store
	events       *recordingPublisher
	categories   *CategoryService
	transactions *TransactionService
	budgets      *BudgetService
	goals        *GoalService
	analytics    *AnalyticsService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	st := memory.New()
	pub := &recordingPublisher{}
	log := quietLogger()
	clock := func() time.Time { return testNow }

	e := &env{
		store:        st,
		events:       pub,
		categories:   NewCategoryService(st, st, log),
		transactions: NewTransactionService(st, st, pub, log),
		budgets:      NewBudgetService(st, st, st, log),
		goals:        NewGoalService(st, log).WithClock(clock),
		analytics:    NewAnalyticsService(st, st, log),
	}
	e.transactions.now = clock
	e.budgets.now = clock
	return e
}

func (e *env) category(t *testing.T, userID, name string, typ core.TxType) core.Category {
	t.Helper()
	c, err := e.categories.Create(context.Background(), userID, name, string(typ))
	if err != nil {
		t.Fatalf("create category %s: %v", name, err)
	}
	return c
}

func (e *env) spend(t *testing.T, userID string, cat core.Category, typ core.TxType, cents int64, date time.Time) core.Transaction {
	t.Helper()
	tx, err := e.transactions.Create(context.Background(), userID, TransactionInput{
		CategoryID: cat.ID,
		Type:       string(typ),
		Amount:     core.Money{Cents: cents},
		Date:       date,
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return tx
}

func wantKind(t *testing.T, err error, kind core.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", kind)
	}
	if got := core.KindOf(err); got != kind {
		t.Fatalf("error kind = %s (%v), want %s", got, err, kind)
	}
}
