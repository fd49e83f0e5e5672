package storage

import (
	"context"
	"database/sql"
	"strings"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Row types mirror the table columns.
type (
	UserRow struct {
		ID           string
		Name         string
		Email        string
		PasswordHash string
		CreatedAt    int64
	}

	CategoryRow struct {
		ID     string
		UserID string
		Name   string
		Type   string
	}

	TransactionRow struct {
		ID          string
		UserID      string
		CategoryID  string
		Type        string
		AmountCents int64
		Note        string
		OccurredAt  int64
		CreatedAt   int64
	}

	BudgetRow struct {
		ID          string
		UserID      string
		CategoryID  sql.NullString
		AmountCents int64
		StartAt     int64
		EndAt       int64
		CreatedAt   int64
	}

	GoalRow struct {
		ID           string
		UserID       string
		Title        string
		TargetCents  int64
		CurrentCents int64
		DeadlineAt   sql.NullInt64
		Version      int64
		CreatedAt    int64
		UpdatedAt    int64
	}
)

const createUser = `INSERT INTO users (id, name, email, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`

func (q *Queries) CreateUser(ctx context.Context, u UserRow) error {
	_, err := q.db.ExecContext(ctx, createUser, u.ID, u.Name, u.Email, u.PasswordHash, u.CreatedAt)
	return err
}

const getUser = `SELECT id, name, email, password_hash, created_at FROM users WHERE id = ?`

func (q *Queries) GetUser(ctx context.Context, id string) (UserRow, error) {
	var u UserRow
	err := q.db.QueryRowContext(ctx, getUser, id).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

const getUserByEmail = `SELECT id, name, email, password_hash, created_at FROM users WHERE email = ?`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (UserRow, error) {
	var u UserRow
	err := q.db.QueryRowContext(ctx, getUserByEmail, email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt)
	return u, err
}

const createCategory = `INSERT INTO categories (id, user_id, name, type) VALUES (?, ?, ?, ?)`

func (q *Queries) CreateCategory(ctx context.Context, c CategoryRow) error {
	_, err := q.db.ExecContext(ctx, createCategory, c.ID, c.UserID, c.Name, c.Type)
	return err
}

const getCategory = `SELECT id, user_id, name, type FROM categories WHERE id = ? AND user_id = ?`

func (q *Queries) GetCategory(ctx context.Context, userID, id string) (CategoryRow, error) {
	var c CategoryRow
	err := q.db.QueryRowContext(ctx, getCategory, id, userID).Scan(&c.ID, &c.UserID, &c.Name, &c.Type)
	return c, err
}

const listCategories = `SELECT id, user_id, name, type FROM categories
WHERE user_id = ? AND (? = '' OR type = ?)
ORDER BY type, name COLLATE NOCASE`

func (q *Queries) ListCategories(ctx context.Context, userID, typ string) ([]CategoryRow, error) {
	rows, err := q.db.QueryContext(ctx, listCategories, userID, typ, typ)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []CategoryRow{}
	for rows.Next() {
		var c CategoryRow
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Type); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const updateCategory = `UPDATE categories SET name = ?, type = ? WHERE id = ? AND user_id = ?`

func (q *Queries) UpdateCategory(ctx context.Context, c CategoryRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateCategory, c.Name, c.Type, c.ID, c.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteCategory = `DELETE FROM categories WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteCategory(ctx context.Context, userID, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteCategory, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTransactionsByCategory = `DELETE FROM transactions WHERE category_id = ? AND user_id = ?`

func (q *Queries) DeleteTransactionsByCategory(ctx context.Context, userID, categoryID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransactionsByCategory, categoryID, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteBudgetsByCategory = `DELETE FROM budgets WHERE category_id = ? AND user_id = ?`

func (q *Queries) DeleteBudgetsByCategory(ctx context.Context, userID, categoryID string) error {
	_, err := q.db.ExecContext(ctx, deleteBudgetsByCategory, categoryID, userID)
	return err
}

// createTransaction only inserts when the category belongs to the same user.
const createTransaction = `INSERT INTO transactions (id, user_id, category_id, type, amount_cents, note, occurred_at, created_at)
SELECT ?, ?, ?, ?, ?, ?, ?, ?
WHERE EXISTS (SELECT 1 FROM categories WHERE id = ? AND user_id = ?)`

func (q *Queries) CreateTransaction(ctx context.Context, t TransactionRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, createTransaction,
		t.ID, t.UserID, t.CategoryID, t.Type, t.AmountCents, t.Note, t.OccurredAt, t.CreatedAt,
		t.CategoryID, t.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const transactionColumns = `id, user_id, category_id, type, amount_cents, note, occurred_at, created_at`

func scanTransaction(sc interface{ Scan(...any) error }) (TransactionRow, error) {
	var t TransactionRow
	err := sc.Scan(&t.ID, &t.UserID, &t.CategoryID, &t.Type, &t.AmountCents, &t.Note, &t.OccurredAt, &t.CreatedAt)
	return t, err
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ? AND user_id = ?`

func (q *Queries) GetTransaction(ctx context.Context, userID, id string) (TransactionRow, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id, userID))
}

const updateTransaction = `UPDATE transactions
SET category_id = ?, type = ?, amount_cents = ?, note = ?, occurred_at = ?
WHERE id = ? AND user_id = ?
  AND EXISTS (SELECT 1 FROM categories WHERE id = ? AND user_id = ?)`

func (q *Queries) UpdateTransaction(ctx context.Context, t TransactionRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransaction,
		t.CategoryID, t.Type, t.AmountCents, t.Note, t.OccurredAt,
		t.ID, t.UserID, t.CategoryID, t.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteTransaction = `DELETE FROM transactions WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteTransaction(ctx context.Context, userID, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// TransactionWhere is a dynamic filter over the transactions table.
type TransactionWhere struct {
	UserID     string
	CategoryID string
	Type       string
	From       *int64
	To         *int64
}

func (w TransactionWhere) build() (string, []any) {
	clauses := []string{"user_id = ?"}
	args := []any{w.UserID}
	if w.CategoryID != "" {
		clauses = append(clauses, "category_id = ?")
		args = append(args, w.CategoryID)
	}
	if w.Type != "" {
		clauses = append(clauses, "type = ?")
		args = append(args, w.Type)
	}
	if w.From != nil {
		clauses = append(clauses, "occurred_at >= ?")
		args = append(args, *w.From)
	}
	if w.To != nil {
		clauses = append(clauses, "occurred_at <= ?")
		args = append(args, *w.To)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (q *Queries) ListTransactions(ctx context.Context, w TransactionWhere, limit, offset int) ([]TransactionRow, error) {
	where, args := w.build()
	query := `SELECT ` + transactionColumns + ` FROM transactions` + where +
		` ORDER BY occurred_at DESC, created_at DESC`
	if limit > 0 || offset > 0 {
		if limit <= 0 {
			limit = -1
		}
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []TransactionRow{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (q *Queries) SumTransactions(ctx context.Context, w TransactionWhere) (int64, error) {
	where, args := w.build()
	var total int64
	err := q.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount_cents), 0) FROM transactions`+where, args...).Scan(&total)
	return total, err
}

func (q *Queries) CountTransactions(ctx context.Context, w TransactionWhere) (int64, error) {
	where, args := w.build()
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`+where, args...).Scan(&n)
	return n, err
}

// createBudget checks category ownership the same way createTransaction does.
const createBudget = `INSERT INTO budgets (id, user_id, category_id, amount_cents, start_at, end_at, created_at)
SELECT ?, ?, ?, ?, ?, ?, ?
WHERE ? IS NULL OR EXISTS (SELECT 1 FROM categories WHERE id = ? AND user_id = ?)`

func (q *Queries) CreateBudget(ctx context.Context, b BudgetRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, createBudget,
		b.ID, b.UserID, b.CategoryID, b.AmountCents, b.StartAt, b.EndAt, b.CreatedAt,
		b.CategoryID, b.CategoryID, b.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const budgetColumns = `id, user_id, category_id, amount_cents, start_at, end_at, created_at`

func scanBudget(sc interface{ Scan(...any) error }) (BudgetRow, error) {
	var b BudgetRow
	err := sc.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.AmountCents, &b.StartAt, &b.EndAt, &b.CreatedAt)
	return b, err
}

const getBudget = `SELECT ` + budgetColumns + ` FROM budgets WHERE id = ? AND user_id = ?`

func (q *Queries) GetBudget(ctx context.Context, userID, id string) (BudgetRow, error) {
	return scanBudget(q.db.QueryRowContext(ctx, getBudget, id, userID))
}

const listBudgets = `SELECT ` + budgetColumns + ` FROM budgets WHERE user_id = ? ORDER BY start_at DESC`

func (q *Queries) ListBudgets(ctx context.Context, userID string) ([]BudgetRow, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []BudgetRow{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

const updateBudget = `UPDATE budgets SET category_id = ?, amount_cents = ?, start_at = ?, end_at = ?
WHERE id = ? AND user_id = ?`

func (q *Queries) UpdateBudget(ctx context.Context, b BudgetRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateBudget, b.CategoryID, b.AmountCents, b.StartAt, b.EndAt, b.ID, b.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteBudget = `DELETE FROM budgets WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteBudget(ctx context.Context, userID, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteBudget, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const createGoal = `INSERT INTO goals (id, user_id, title, target_cents, current_cents, deadline_at, version, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`

func (q *Queries) CreateGoal(ctx context.Context, g GoalRow) error {
	_, err := q.db.ExecContext(ctx, createGoal, g.ID, g.UserID, g.Title, g.TargetCents, g.CurrentCents, g.DeadlineAt, g.CreatedAt, g.UpdatedAt)
	return err
}

const goalColumns = `id, user_id, title, target_cents, current_cents, deadline_at, version, created_at, updated_at`

func scanGoal(sc interface{ Scan(...any) error }) (GoalRow, error) {
	var g GoalRow
	err := sc.Scan(&g.ID, &g.UserID, &g.Title, &g.TargetCents, &g.CurrentCents, &g.DeadlineAt, &g.Version, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

const getGoal = `SELECT ` + goalColumns + ` FROM goals WHERE id = ? AND user_id = ?`

func (q *Queries) GetGoal(ctx context.Context, userID, id string) (GoalRow, error) {
	return scanGoal(q.db.QueryRowContext(ctx, getGoal, id, userID))
}

const listGoals = `SELECT ` + goalColumns + ` FROM goals WHERE user_id = ? ORDER BY created_at DESC`

func (q *Queries) ListGoals(ctx context.Context, userID string) ([]GoalRow, error) {
	rows, err := q.db.QueryContext(ctx, listGoals, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []GoalRow{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, rows.Err()
}

// updateGoal refuses to lower the target below what has been saved so far.
const updateGoal = `UPDATE goals
SET title = ?, target_cents = ?, deadline_at = ?, updated_at = ?, version = version + 1
WHERE id = ? AND user_id = ? AND current_cents <= ?
RETURNING ` + goalColumns

func (q *Queries) UpdateGoal(ctx context.Context, g GoalRow) (GoalRow, error) {
	return scanGoal(q.db.QueryRowContext(ctx, updateGoal, g.Title, g.TargetCents, g.DeadlineAt, g.UpdatedAt, g.ID, g.UserID, g.TargetCents))
}

// adjustGoal moves current_cents in one statement so concurrent
// contributions cannot overshoot the target or go negative.
const adjustGoal = `UPDATE goals
SET current_cents = current_cents + ?1, version = version + 1, updated_at = ?2
WHERE id = ?3 AND user_id = ?4
  AND current_cents + ?1 >= 0
  AND current_cents + ?1 <= target_cents
RETURNING ` + goalColumns

func (q *Queries) AdjustGoal(ctx context.Context, userID, id string, delta, updatedAt int64) (GoalRow, error) {
	return scanGoal(q.db.QueryRowContext(ctx, adjustGoal, delta, updatedAt, id, userID))
}

const deleteGoal = `DELETE FROM goals WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteGoal(ctx context.Context, userID, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteGoal, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
