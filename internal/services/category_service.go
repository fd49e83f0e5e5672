package services

import (
	"context"
	"fmt"
	"strings"

	"spendwise/internal/core"
	applog "spendwise/internal/log"
	"spendwise/internal/store"
)

// CategoryInUseError is carried inside the conflict returned when a category
// still has transactions and the delete was not forced.
type CategoryInUseError struct {
	TransactionCount int
}

func (e *CategoryInUseError) Error() string {
	return fmt.Sprintf("category has %d transactions", e.TransactionCount)
}

type CategoryService struct {
	categories   store.CategoryStore
	transactions store.TransactionStore
	logger       *applog.Logger
}

func NewCategoryService(categories store.CategoryStore, transactions store.TransactionStore, logger *applog.Logger) *CategoryService {
	return &CategoryService{
		categories:   categories,
		transactions: transactions,
		logger:       componentLogger(logger, applog.ComponentCategory),
	}
}

// List returns the user's categories, optionally only one type.
func (s *CategoryService) List(ctx context.Context, userID, typ string) ([]core.Category, error) {
	var t core.TxType
	if strings.TrimSpace(typ) != "" {
		parsed, err := core.ParseTxType(typ)
		if err != nil {
			return nil, err
		}
		t = parsed
	}
	return s.categories.ListCategories(ctx, userID, t)
}

func (s *CategoryService) Create(ctx context.Context, userID, name, typ string) (core.Category, error) {
	t, err := core.ParseTxType(typ)
	if err != nil {
		return core.Category{}, err
	}
	c := core.Category{ID: newID(), UserID: userID, Name: strings.TrimSpace(name), Type: t}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.categories.CreateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

// Rename changes the display name. The type of a category is fixed.
func (s *CategoryService) Rename(ctx context.Context, userID, id, name string) (core.Category, error) {
	c, err := s.categories.GetCategory(ctx, userID, id)
	if err != nil {
		return core.Category{}, err
	}
	c.Name = strings.TrimSpace(name)
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.categories.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

// Delete removes a category. Without force a category that still has
// transactions is kept and a conflict wrapping CategoryInUseError is
// returned. With force its transactions and budgets are removed as well and
// the number of deleted transactions is returned.
func (s *CategoryService) Delete(ctx context.Context, userID, id string, force bool) (int, error) {
	if _, err := s.categories.GetCategory(ctx, userID, id); err != nil {
		return 0, err
	}

	if !force {
		n, err := s.transactions.CountTransactions(ctx, store.TransactionFilter{UserID: userID, CategoryID: id})
		if err != nil {
			return 0, err
		}
		if n > 0 {
			return 0, inUse(n)
		}
	}

	removed, err := s.categories.DeleteCategory(ctx, userID, id, force)
	if err != nil {
		// a transaction may have landed between the count and the delete
		if core.IsConflict(err) && !force {
			n, cerr := s.transactions.CountTransactions(ctx, store.TransactionFilter{UserID: userID, CategoryID: id})
			if cerr == nil {
				return 0, inUse(n)
			}
		}
		return 0, err
	}

	s.logger.InfoContext(ctx, "Category deleted",
		applog.FieldUserID, userID,
		applog.FieldCategoryID, id,
		"removed_transactions", removed)
	return removed, nil
}

func inUse(n int) error {
	return &core.Error{
		Kind:    core.KindConflict,
		Message: fmt.Sprintf("category has %d transactions; delete with force=true to remove them too", n),
		Err:     &CategoryInUseError{TransactionCount: n},
	}
}
