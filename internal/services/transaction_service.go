package services

import (
	"context"
	"strings"
	"time"

	"spendwise/internal/amqp"
	"spendwise/internal/core"
	applog "spendwise/internal/log"
	"spendwise/internal/store"
)

const (
	defaultPageSize = 100
	maxPageSize     = 500
)

// EventPublisher announces transaction changes. *amqp.Client satisfies it.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, evt amqp.TransactionEvent) error
}

// TransactionInput is the writable part of a transaction. An empty Type
// takes the category's type.
type TransactionInput struct {
	CategoryID string
	Type       string
	Amount     core.Money
	Note       string
	// Date defaults to now when zero.
	Date time.Time
}

type TransactionService struct {
	transactions store.TransactionStore
	categories   store.CategoryStore
	events       EventPublisher
	now          Clock
	logger       *applog.Logger
}

// NewTransactionService wires the service. events may be nil, in which case
// nothing is published.
func NewTransactionService(transactions store.TransactionStore, categories store.CategoryStore, events EventPublisher, logger *applog.Logger) *TransactionService {
	return &TransactionService{
		transactions: transactions,
		categories:   categories,
		events:       events,
		now:          utcNow,
		logger:       componentLogger(logger, applog.ComponentTransaction),
	}
}

func (s *TransactionService) Create(ctx context.Context, userID string, in TransactionInput) (core.Transaction, error) {
	now := s.now()
	tx, err := s.build(ctx, userID, in, now)
	if err != nil {
		return core.Transaction{}, err
	}
	tx.ID = newID()
	tx.CreatedAt = now

	if err := s.transactions.CreateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, err
	}
	s.publish(ctx, amqp.ActionCreated, tx)
	return tx, nil
}

func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	return s.transactions.GetTransaction(ctx, userID, id)
}

// Update replaces every writable field of the transaction.
func (s *TransactionService) Update(ctx context.Context, userID, id string, in TransactionInput) (core.Transaction, error) {
	existing, err := s.transactions.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}
	tx, err := s.build(ctx, userID, in, s.now())
	if err != nil {
		return core.Transaction{}, err
	}
	tx.ID = existing.ID
	tx.CreatedAt = existing.CreatedAt

	if err := s.transactions.UpdateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, err
	}
	s.publish(ctx, amqp.ActionUpdated, tx)
	return tx, nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	existing, err := s.transactions.GetTransaction(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.transactions.DeleteTransaction(ctx, userID, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.ActionDeleted, existing)
	return nil
}

// List returns the user's transactions newest first. The page size defaults
// to 100 and is capped at 500.
func (s *TransactionService) List(ctx context.Context, f store.TransactionFilter) ([]core.Transaction, int, error) {
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return nil, 0, core.Validationf("to must not be before from")
	}

	txs, err := s.transactions.ListTransactions(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.transactions.CountTransactions(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

// build validates input and resolves defaults. The category must belong to
// the user; the stored type is whatever the caller chose, defaulting to the
// category's type.
func (s *TransactionService) build(ctx context.Context, userID string, in TransactionInput, now time.Time) (core.Transaction, error) {
	categoryID := strings.TrimSpace(in.CategoryID)
	if categoryID == "" {
		return core.Transaction{}, core.Validationf("category is required")
	}
	cat, err := s.categories.GetCategory(ctx, userID, categoryID)
	if err != nil {
		return core.Transaction{}, err
	}

	typ := cat.Type
	if strings.TrimSpace(in.Type) != "" {
		if typ, err = core.ParseTxType(in.Type); err != nil {
			return core.Transaction{}, err
		}
	}

	date := in.Date
	if date.IsZero() {
		date = now
	}

	tx := core.Transaction{
		UserID:     userID,
		CategoryID: cat.ID,
		Type:       typ,
		Amount:     in.Amount,
		Note:       strings.TrimSpace(in.Note),
		Date:       date.UTC(),
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

// publish is fire-and-forget: the write already succeeded.
func (s *TransactionService) publish(ctx context.Context, action amqp.Action, tx core.Transaction) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(action, tx)); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish transaction event",
			applog.FieldError, err,
			applog.FieldUserID, tx.UserID,
			applog.FieldEntityID, tx.ID,
			"action", action)
	}
}
