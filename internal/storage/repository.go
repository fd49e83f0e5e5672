package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/store"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ store.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Run migrations before opening the main pool
	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; one connection keeps conditional
	// updates serialized instead of failing with SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func toNanos(t time.Time) int64 { return t.UTC().UnixNano() }

func fromNanos(n int64) time.Time { return time.Unix(0, n).UTC() }

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// notFound maps sql.ErrNoRows to a domain not-found error and wraps anything
// else as internal.
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.NotFoundf("%s not found", what)
	}
	return core.Internal("get "+what, err)
}

// Users

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User) error {
	err := r.queries.CreateUser(ctx, UserRow{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    toNanos(u.CreatedAt),
	})
	if isUniqueViolation(err) {
		return core.Conflictf("email already registered")
	}
	if err != nil {
		return core.Internal("create user", err)
	}
	return nil
}

func userFromRow(u UserRow) core.User {
	return core.User{ID: u.ID, Name: u.Name, Email: u.Email, PasswordHash: u.PasswordHash, CreatedAt: fromNanos(u.CreatedAt)}
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	u, err := r.queries.GetUser(ctx, id)
	if err != nil {
		return core.User{}, notFound(err, "user")
	}
	return userFromRow(u), nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	u, err := r.queries.GetUserByEmail(ctx, email)
	if err != nil {
		return core.User{}, notFound(err, "user")
	}
	return userFromRow(u), nil
}

// Categories

func categoryRow(c core.Category) CategoryRow {
	return CategoryRow{ID: c.ID, UserID: c.UserID, Name: c.Name, Type: string(c.Type)}
}

func categoryFromRow(c CategoryRow) core.Category {
	return core.Category{ID: c.ID, UserID: c.UserID, Name: c.Name, Type: core.TxType(c.Type)}
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	err := r.queries.CreateCategory(ctx, categoryRow(c))
	if isUniqueViolation(err) {
		return core.Conflictf("category %q already exists", c.Name)
	}
	if err != nil {
		return core.Internal("create category", err)
	}
	return nil
}

// CreateCategories inserts all categories or none.
func (r *SQLiteRepository) CreateCategories(ctx context.Context, cs []core.Category) error {
	return r.inTx(ctx, func(q *Queries) error {
		for _, c := range cs {
			err := q.CreateCategory(ctx, categoryRow(c))
			if isUniqueViolation(err) {
				return core.Conflictf("category %q already exists", c.Name)
			}
			if err != nil {
				return core.Internal("create category", err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, userID, id string) (core.Category, error) {
	c, err := r.queries.GetCategory(ctx, userID, id)
	if err != nil {
		return core.Category{}, notFound(err, "category")
	}
	return categoryFromRow(c), nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string, typ core.TxType) ([]core.Category, error) {
	rows, err := r.queries.ListCategories(ctx, userID, string(typ))
	if err != nil {
		return nil, core.Internal("list categories", err)
	}
	out := make([]core.Category, len(rows))
	for i, c := range rows {
		out[i] = categoryFromRow(c)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	n, err := r.queries.UpdateCategory(ctx, categoryRow(c))
	if isUniqueViolation(err) {
		return core.Conflictf("category %q already exists", c.Name)
	}
	if err != nil {
		return core.Internal("update category", err)
	}
	if n == 0 {
		return core.NotFoundf("category not found")
	}
	return nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, id string, force bool) (int, error) {
	var removed int
	err := r.inTx(ctx, func(q *Queries) error {
		if _, err := q.GetCategory(ctx, userID, id); err != nil {
			return notFound(err, "category")
		}
		count, err := q.CountTransactions(ctx, TransactionWhere{UserID: userID, CategoryID: id})
		if err != nil {
			return core.Internal("count category transactions", err)
		}
		removed = int(count)
		if count > 0 && !force {
			return core.Conflictf("category has %d transactions", count)
		}
		if _, err := q.DeleteTransactionsByCategory(ctx, userID, id); err != nil {
			return core.Internal("delete category transactions", err)
		}
		if err := q.DeleteBudgetsByCategory(ctx, userID, id); err != nil {
			return core.Internal("delete category budgets", err)
		}
		if _, err := q.DeleteCategory(ctx, userID, id); err != nil {
			return core.Internal("delete category", err)
		}
		return nil
	})
	if err != nil {
		return removed, err
	}

	slog.InfoContext(ctx, "Category deleted from SQLite", "id", id, "removed_transactions", removed)
	return removed, nil
}

// Transactions

func transactionRow(t core.Transaction) TransactionRow {
	return TransactionRow{
		ID:          t.ID,
		UserID:      t.UserID,
		CategoryID:  t.CategoryID,
		Type:        string(t.Type),
		AmountCents: t.Amount.Cents,
		Note:        t.Note,
		OccurredAt:  toNanos(t.Date),
		CreatedAt:   toNanos(t.CreatedAt),
	}
}

func transactionFromRow(t TransactionRow) core.Transaction {
	return core.Transaction{
		ID:         t.ID,
		UserID:     t.UserID,
		CategoryID: t.CategoryID,
		Type:       core.TxType(t.Type),
		Amount:     core.Money{Cents: t.AmountCents},
		Note:       t.Note,
		Date:       fromNanos(t.OccurredAt),
		CreatedAt:  fromNanos(t.CreatedAt),
	}
}

func whereFromFilter(f store.TransactionFilter) TransactionWhere {
	w := TransactionWhere{UserID: f.UserID, CategoryID: f.CategoryID, Type: string(f.Type)}
	if !f.From.IsZero() {
		from := toNanos(f.From)
		w.From = &from
	}
	if !f.To.IsZero() {
		to := toNanos(f.To)
		w.To = &to
	}
	return w
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) error {
	n, err := r.queries.CreateTransaction(ctx, transactionRow(t))
	if err != nil {
		return core.Internal("create transaction", err)
	}
	if n == 0 {
		return core.NotFoundf("category not found")
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"type", t.Type,
		"amount_cents", t.Amount.Cents)
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	t, err := r.queries.GetTransaction(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, notFound(err, "transaction")
	}
	return transactionFromRow(t), nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	n, err := r.queries.UpdateTransaction(ctx, transactionRow(t))
	if err != nil {
		return core.Internal("update transaction", err)
	}
	if n > 0 {
		return nil
	}
	if _, err := r.queries.GetTransaction(ctx, t.UserID, t.ID); err != nil {
		return notFound(err, "transaction")
	}
	return core.NotFoundf("category not found")
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	n, err := r.queries.DeleteTransaction(ctx, userID, id)
	if err != nil {
		return core.Internal("delete transaction", err)
	}
	if n == 0 {
		return core.NotFoundf("transaction not found")
	}
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, f store.TransactionFilter) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx, whereFromFilter(f), f.Limit, f.Offset)
	if err != nil {
		return nil, core.Internal("list transactions", err)
	}
	out := make([]core.Transaction, len(rows))
	for i, t := range rows {
		out[i] = transactionFromRow(t)
	}
	return out, nil
}

func (r *SQLiteRepository) SumTransactions(ctx context.Context, f store.TransactionFilter) (core.Money, error) {
	total, err := r.queries.SumTransactions(ctx, whereFromFilter(f))
	if err != nil {
		return core.Money{}, core.Internal("sum transactions", err)
	}
	return core.Money{Cents: total}, nil
}

func (r *SQLiteRepository) CountTransactions(ctx context.Context, f store.TransactionFilter) (int, error) {
	n, err := r.queries.CountTransactions(ctx, whereFromFilter(f))
	if err != nil {
		return 0, core.Internal("count transactions", err)
	}
	return int(n), nil
}

// Budgets

func budgetRow(b core.Budget) BudgetRow {
	return BudgetRow{
		ID:          b.ID,
		UserID:      b.UserID,
		CategoryID:  sql.NullString{String: b.CategoryID, Valid: b.CategoryID != ""},
		AmountCents: b.Amount.Cents,
		StartAt:     toNanos(b.StartDate),
		EndAt:       toNanos(b.EndDate),
		CreatedAt:   toNanos(b.CreatedAt),
	}
}

func budgetFromRow(b BudgetRow) core.Budget {
	return core.Budget{
		ID:         b.ID,
		UserID:     b.UserID,
		CategoryID: b.CategoryID.String,
		Amount:     core.Money{Cents: b.AmountCents},
		StartDate:  fromNanos(b.StartAt),
		EndDate:    fromNanos(b.EndAt),
		CreatedAt:  fromNanos(b.CreatedAt),
	}
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) error {
	n, err := r.queries.CreateBudget(ctx, budgetRow(b))
	if err != nil {
		return core.Internal("create budget", err)
	}
	if n == 0 {
		return core.NotFoundf("category not found")
	}
	return nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	b, err := r.queries.GetBudget(ctx, userID, id)
	if err != nil {
		return core.Budget{}, notFound(err, "budget")
	}
	return budgetFromRow(b), nil
}

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, b core.Budget) error {
	n, err := r.queries.UpdateBudget(ctx, budgetRow(b))
	if err != nil {
		return core.Internal("update budget", err)
	}
	if n == 0 {
		return core.NotFoundf("budget not found")
	}
	return nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id string) error {
	n, err := r.queries.DeleteBudget(ctx, userID, id)
	if err != nil {
		return core.Internal("delete budget", err)
	}
	if n == 0 {
		return core.NotFoundf("budget not found")
	}
	return nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.queries.ListBudgets(ctx, userID)
	if err != nil {
		return nil, core.Internal("list budgets", err)
	}
	out := make([]core.Budget, len(rows))
	for i, b := range rows {
		out[i] = budgetFromRow(b)
	}
	return out, nil
}

// Goals

func goalRow(g core.Goal) GoalRow {
	row := GoalRow{
		ID:           g.ID,
		UserID:       g.UserID,
		Title:        g.Title,
		TargetCents:  g.TargetAmount.Cents,
		CurrentCents: g.CurrentAmount.Cents,
		Version:      g.Version,
		CreatedAt:    toNanos(g.CreatedAt),
		UpdatedAt:    toNanos(g.UpdatedAt),
	}
	if g.Deadline != nil {
		row.DeadlineAt = sql.NullInt64{Int64: toNanos(*g.Deadline), Valid: true}
	}
	return row
}

func goalFromRow(g GoalRow) core.Goal {
	out := core.Goal{
		ID:            g.ID,
		UserID:        g.UserID,
		Title:         g.Title,
		TargetAmount:  core.Money{Cents: g.TargetCents},
		CurrentAmount: core.Money{Cents: g.CurrentCents},
		Version:       g.Version,
		CreatedAt:     fromNanos(g.CreatedAt),
		UpdatedAt:     fromNanos(g.UpdatedAt),
	}
	if g.DeadlineAt.Valid {
		d := fromNanos(g.DeadlineAt.Int64)
		out.Deadline = &d
	}
	return out
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, g core.Goal) error {
	if err := r.queries.CreateGoal(ctx, goalRow(g)); err != nil {
		return core.Internal("create goal", err)
	}
	return nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, userID, id string) (core.Goal, error) {
	g, err := r.queries.GetGoal(ctx, userID, id)
	if err != nil {
		return core.Goal{}, notFound(err, "goal")
	}
	return goalFromRow(g), nil
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, g core.Goal) (core.Goal, error) {
	row, err := r.queries.UpdateGoal(ctx, goalRow(g))
	if err == nil {
		return goalFromRow(row), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, core.Internal("update goal", err)
	}
	cur, err := r.GetGoal(ctx, g.UserID, g.ID)
	if err != nil {
		return core.Goal{}, err
	}
	return core.Goal{}, core.Validationf("target amount cannot be below the current amount %s", cur.CurrentAmount)
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, id string) error {
	n, err := r.queries.DeleteGoal(ctx, userID, id)
	if err != nil {
		return core.Internal("delete goal", err)
	}
	if n == 0 {
		return core.NotFoundf("goal not found")
	}
	return nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := r.queries.ListGoals(ctx, userID)
	if err != nil {
		return nil, core.Internal("list goals", err)
	}
	out := make([]core.Goal, len(rows))
	for i, g := range rows {
		out[i] = goalFromRow(g)
	}
	return out, nil
}

func (r *SQLiteRepository) AdjustGoal(ctx context.Context, userID, id string, delta int64, at time.Time) (core.Goal, error) {
	if delta == 0 {
		return core.Goal{}, core.Validationf("contribution amount must be greater than zero")
	}
	row, err := r.queries.AdjustGoal(ctx, userID, id, delta, toNanos(at))
	if err == nil {
		slog.InfoContext(ctx, "Goal progress updated", "id", id, "current_cents", row.CurrentCents, "version", row.Version)
		return goalFromRow(row), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, core.Internal("adjust goal", err)
	}

	// No row matched: either the goal is missing or the bounds rejected
	// the change. Re-run the rule on the stored row to report which.
	cur, err := r.GetGoal(ctx, userID, id)
	if err != nil {
		return core.Goal{}, err
	}
	dir := core.ContributionAdd
	if delta < 0 {
		dir, delta = core.ContributionSubtract, -delta
	}
	if _, err := core.ApplyContribution(cur.CurrentAmount, cur.TargetAmount, core.Money{Cents: delta}, dir); err != nil {
		return core.Goal{}, err
	}
	return core.Goal{}, core.Conflictf("goal was modified concurrently, retry")
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Internal("begin transaction", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return core.Internal("commit transaction", err)
	}
	return nil
}
