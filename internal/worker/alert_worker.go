// Package worker consumes transaction events off the queue. For every change
// it re-evaluates the user's active budgets and raises alerts, and it can
// mirror the transaction into a spreadsheet.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	applog "spendwise/internal/log"
	"spendwise/internal/sheets/google"
	"spendwise/internal/store"
)

const (
	LevelWarning  AlertLevel = "warning"
	LevelExceeded AlertLevel = "exceeded"

	// DefaultWarnPercent is the share of a budget that triggers a warning.
	DefaultWarnPercent = 80.0
)

type AlertLevel string

// Alert reports a budget crossing a threshold.
type Alert struct {
	UserID         string
	BudgetID       string
	CategoryName   string
	Level          AlertLevel
	Amount         core.Money
	Spent          core.Money
	PercentageUsed float64
}

// Notifier delivers alerts.
type Notifier interface {
	Notify(ctx context.Context, a Alert) error
}

// BudgetOverviewer is satisfied by *services.BudgetService.
type BudgetOverviewer interface {
	Overview(ctx context.Context, userID string, now time.Time) (core.BudgetOverview, []core.BudgetWithStatus, error)
}

// Mirror is satisfied by *google.Client.
type Mirror interface {
	Upsert(ctx context.Context, row google.Row) (string, error)
	Delete(ctx context.Context, transactionID string) error
}

type Config struct {
	WarnPercent float64
	Notifier    Notifier
	// Mirror and Categories are optional; without a mirror nothing is
	// written to the spreadsheet.
	Mirror     Mirror
	Categories store.CategoryStore
	Now        func() time.Time
}

// AlertWorker handles TransactionEvents. Alerts fire once per budget and
// level; a budget that drops back under a threshold can fire again later.
type AlertWorker struct {
	budgets     BudgetOverviewer
	notifier    Notifier
	mirror      Mirror
	categories  store.CategoryStore
	warnPercent float64
	now         func() time.Time
	logger      *applog.Logger

	mu    sync.Mutex
	fired map[string]AlertLevel
}

func NewAlertWorker(budgets BudgetOverviewer, cfg Config, logger *applog.Logger) *AlertWorker {
	if logger == nil {
		logger = applog.New(applog.Config{Handler: slog.Default().Handler(), Component: applog.ComponentWorker})
	} else {
		logger = logger.WithComponent(applog.ComponentWorker)
	}
	w := &AlertWorker{
		budgets:     budgets,
		notifier:    cfg.Notifier,
		mirror:      cfg.Mirror,
		categories:  cfg.Categories,
		warnPercent: cfg.WarnPercent,
		now:         cfg.Now,
		logger:      logger,
		fired:       make(map[string]AlertLevel),
	}
	if w.warnPercent <= 0 {
		w.warnPercent = DefaultWarnPercent
	}
	if w.now == nil {
		w.now = func() time.Time { return time.Now().UTC() }
	}
	if w.notifier == nil {
		w.notifier = &LogNotifier{logger: logger}
	}
	return w
}

// HandleTransactionEvent is an amqp.EventHandler. A returned error requeues
// the message.
func (w *AlertWorker) HandleTransactionEvent(ctx context.Context, evt *amqp.TransactionEvent) error {
	log := w.logger.With(applog.FieldUserID, evt.UserID, applog.FieldEntityID, evt.TransactionID)
	log.InfoContext(ctx, "Processing transaction event", "action", evt.Action)

	if w.mirror != nil {
		if err := w.syncMirror(ctx, evt); err != nil {
			return fmt.Errorf("mirror transaction: %w", err)
		}
	}

	// income never moves a budget
	if evt.TxType == string(core.Income) && evt.Action != amqp.ActionUpdated {
		return nil
	}
	return w.CheckBudgets(ctx, evt.UserID)
}

// CheckBudgets recomputes the user's active budgets and notifies about any
// that newly crossed the warning or exceeded threshold.
func (w *AlertWorker) CheckBudgets(ctx context.Context, userID string) error {
	_, items, err := w.budgets.Overview(ctx, userID, w.now())
	if err != nil {
		return fmt.Errorf("budget overview: %w", err)
	}

	for _, it := range items {
		level := w.levelFor(it.Status)
		if !w.transition(it.ID, level) {
			continue
		}
		a := Alert{
			UserID:         userID,
			BudgetID:       it.ID,
			CategoryName:   it.CategoryName,
			Level:          level,
			Amount:         it.Amount,
			Spent:          it.Status.Spent,
			PercentageUsed: it.Status.PercentageUsed,
		}
		if a.CategoryName == "" {
			a.CategoryName = "Overall"
		}
		if err := w.notifier.Notify(ctx, a); err != nil {
			// forget the transition so a retry notifies again
			w.forget(it.ID)
			return fmt.Errorf("notify: %w", err)
		}
	}
	return nil
}

func (w *AlertWorker) levelFor(st core.BudgetStatus) AlertLevel {
	switch {
	case st.IsOverBudget:
		return LevelExceeded
	case st.PercentageUsed >= w.warnPercent:
		return LevelWarning
	default:
		return ""
	}
}

// transition records level for the budget and reports whether it is a new
// alert worth sending.
func (w *AlertWorker) transition(budgetID string, level AlertLevel) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	prev := w.fired[budgetID]
	if level == "" {
		delete(w.fired, budgetID)
		return false
	}
	w.fired[budgetID] = level
	return prev != level
}

func (w *AlertWorker) forget(budgetID string) {
	w.mu.Lock()
	delete(w.fired, budgetID)
	w.mu.Unlock()
}

func (w *AlertWorker) syncMirror(ctx context.Context, evt *amqp.TransactionEvent) error {
	if evt.Action == amqp.ActionDeleted {
		return w.mirror.Delete(ctx, evt.TransactionID)
	}

	tx := evt.Transaction()
	category := tx.CategoryID
	if w.categories != nil {
		if c, err := w.categories.GetCategory(ctx, tx.UserID, tx.CategoryID); err == nil {
			category = c.Name
		} else if !core.IsNotFound(err) {
			return err
		}
	}

	ref, err := w.mirror.Upsert(ctx, google.Row{
		TransactionID: tx.ID,
		Date:          tx.Date,
		Type:          tx.Type,
		Category:      category,
		Amount:        tx.Amount,
		Note:          tx.Note,
		UserID:        tx.UserID,
	})
	if err != nil {
		return err
	}
	w.logger.DebugContext(ctx, "Transaction mirrored", applog.FieldEntityID, tx.ID, "sheets_ref", ref)
	return nil
}

// LogNotifier writes alerts to the structured log.
type LogNotifier struct {
	logger *applog.Logger
}

func NewLogNotifier(logger *applog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, a Alert) error {
	attrs := []any{
		applog.FieldUserID, a.UserID,
		applog.FieldEntityID, a.BudgetID,
		"category", a.CategoryName,
		"budget", a.Amount.String(),
		"spent", a.Spent.String(),
		"percentage_used", a.PercentageUsed,
	}
	if a.Level == LevelExceeded {
		n.logger.WarnContext(ctx, "Budget exceeded", attrs...)
	} else {
		n.logger.InfoContext(ctx, "Budget nearly used up", attrs...)
	}
	return nil
}
