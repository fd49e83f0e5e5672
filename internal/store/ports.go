// Package store defines the persistence ports used by the services. Every
// read and write is scoped to a user; rows owned by someone else behave as if
// they did not exist.
package store

import (
	"context"
	"time"

	"spendwise/internal/core"
)

// TransactionFilter narrows transaction queries. Zero values mean "any".
// From and To are inclusive.
type TransactionFilter struct {
	UserID     string
	CategoryID string
	Type       core.TxType
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

// Match reports whether tx passes the filter, ignoring pagination.
func (f TransactionFilter) Match(tx core.Transaction) bool {
	if tx.UserID != f.UserID {
		return false
	}
	if f.CategoryID != "" && tx.CategoryID != f.CategoryID {
		return false
	}
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if !f.From.IsZero() && tx.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && tx.Date.After(f.To) {
		return false
	}
	return true
}

// Ports for persistence adapters.
type (
	UserStore interface {
		// CreateUser fails with a conflict when the email is taken,
		// compared case-insensitively.
		CreateUser(ctx context.Context, u core.User) error
		GetUser(ctx context.Context, id string) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
	}

	CategoryStore interface {
		// CreateCategory fails with a conflict when the user already has a
		// category with the same name (case-insensitive) and type.
		CreateCategory(ctx context.Context, c core.Category) error
		CreateCategories(ctx context.Context, cs []core.Category) error
		GetCategory(ctx context.Context, userID, id string) (core.Category, error)
		// ListCategories returns categories ordered by type then name. An
		// empty typ returns both kinds.
		ListCategories(ctx context.Context, userID string, typ core.TxType) ([]core.Category, error)
		UpdateCategory(ctx context.Context, c core.Category) error
		// DeleteCategory removes the category. When transactions reference
		// it and force is false nothing is deleted and a conflict carrying
		// the count is returned. With force the category's transactions and
		// budgets go with it. The number of removed transactions is returned.
		DeleteCategory(ctx context.Context, userID, id string, force bool) (int, error)
	}

	TransactionStore interface {
		CreateTransaction(ctx context.Context, tx core.Transaction) error
		GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
		UpdateTransaction(ctx context.Context, tx core.Transaction) error
		DeleteTransaction(ctx context.Context, userID, id string) error
		// ListTransactions returns matches newest first.
		ListTransactions(ctx context.Context, f TransactionFilter) ([]core.Transaction, error)
		// SumTransactions adds up the amounts of every match. Pagination
		// fields are ignored.
		SumTransactions(ctx context.Context, f TransactionFilter) (core.Money, error)
		CountTransactions(ctx context.Context, f TransactionFilter) (int, error)
	}

	BudgetStore interface {
		CreateBudget(ctx context.Context, b core.Budget) error
		GetBudget(ctx context.Context, userID, id string) (core.Budget, error)
		UpdateBudget(ctx context.Context, b core.Budget) error
		DeleteBudget(ctx context.Context, userID, id string) error
		// ListBudgets returns the user's budgets, latest start first.
		ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
	}

	GoalStore interface {
		CreateGoal(ctx context.Context, g core.Goal) error
		GetGoal(ctx context.Context, userID, id string) (core.Goal, error)
		// UpdateGoal replaces title, target and deadline. It fails with a
		// validation error if the stored current amount would exceed the
		// new target.
		UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error)
		DeleteGoal(ctx context.Context, userID, id string) error
		// ListGoals returns goals newest first.
		ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
		// AdjustGoal atomically moves the current amount by delta cents.
		// The change is rejected with a validation error when the result
		// would leave [0, target].
		AdjustGoal(ctx context.Context, userID, id string, delta int64, at time.Time) (core.Goal, error)
	}

	// Store is the full persistence surface a backend provides.
	Store interface {
		UserStore
		CategoryStore
		TransactionStore
		BudgetStore
		GoalStore
		Ping(ctx context.Context) error
		Close() error
	}
)
