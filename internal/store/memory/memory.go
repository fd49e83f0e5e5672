// Package memory is an in-process Store used for development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/store"
)

type Store struct {
	mu           sync.RWMutex
	users        map[string]core.User
	categories   map[string]core.Category
	transactions map[string]core.Transaction
	budgets      map[string]core.Budget
	goals        map[string]core.Goal
}

var _ store.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:        map[string]core.User{},
		categories:   map[string]core.Category{},
		transactions: map[string]core.Transaction{},
		budgets:      map[string]core.Budget{},
		goals:        map[string]core.Goal{},
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

// Users

func (s *Store) CreateUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return core.Conflictf("email already registered")
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.NotFoundf("user not found")
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return core.User{}, core.NotFoundf("user not found")
}

// Categories

func (s *Store) nameTaken(c core.Category) bool {
	for _, existing := range s.categories {
		if existing.ID != c.ID && existing.UserID == c.UserID && existing.Type == c.Type &&
			strings.EqualFold(existing.Name, c.Name) {
			return true
		}
	}
	return false
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(c) {
		return core.Conflictf("category %q already exists", c.Name)
	}
	s.categories[c.ID] = c
	return nil
}

func (s *Store) CreateCategories(_ context.Context, cs []core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cs {
		if s.nameTaken(c) {
			return core.Conflictf("category %q already exists", c.Name)
		}
	}
	for _, c := range cs {
		s.categories[c.ID] = c
	}
	return nil
}

func (s *Store) GetCategory(_ context.Context, userID, id string) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return core.Category{}, core.NotFoundf("category not found")
	}
	return c, nil
}

func (s *Store) ListCategories(_ context.Context, userID string, typ core.TxType) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []core.Category{}
	for _, c := range s.categories {
		if c.UserID == userID && (typ == "" || c.Type == typ) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.categories[c.ID]
	if !ok || cur.UserID != c.UserID {
		return core.NotFoundf("category not found")
	}
	if s.nameTaken(c) {
		return core.Conflictf("category %q already exists", c.Name)
	}
	s.categories[c.ID] = c
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, userID, id string, force bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return 0, core.NotFoundf("category not found")
	}
	var used []string
	for txID, tx := range s.transactions {
		if tx.CategoryID == id {
			used = append(used, txID)
		}
	}
	if len(used) > 0 && !force {
		return len(used), core.Conflictf("category has %d transactions", len(used))
	}
	for _, txID := range used {
		delete(s.transactions, txID)
	}
	for bID, b := range s.budgets {
		if b.CategoryID == id {
			delete(s.budgets, bID)
		}
	}
	delete(s.categories, id)
	return len(used), nil
}

// Transactions

func (s *Store) CreateTransaction(_ context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.categories[tx.CategoryID]; !ok || c.UserID != tx.UserID {
		return core.NotFoundf("category not found")
	}
	s.transactions[tx.ID] = tx
	return nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[id]
	if !ok || tx.UserID != userID {
		return core.Transaction{}, core.NotFoundf("transaction not found")
	}
	return tx, nil
}

func (s *Store) UpdateTransaction(_ context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.transactions[tx.ID]
	if !ok || cur.UserID != tx.UserID {
		return core.NotFoundf("transaction not found")
	}
	if c, ok := s.categories[tx.CategoryID]; !ok || c.UserID != tx.UserID {
		return core.NotFoundf("category not found")
	}
	tx.CreatedAt = cur.CreatedAt
	s.transactions[tx.ID] = tx
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok || tx.UserID != userID {
		return core.NotFoundf("transaction not found")
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) matching(f store.TransactionFilter) []core.Transaction {
	var out []core.Transaction
	for _, tx := range s.transactions {
		if f.Match(tx) {
			out = append(out, tx)
		}
	}
	return out
}

func (s *Store) ListTransactions(_ context.Context, f store.TransactionFilter) ([]core.Transaction, error) {
	s.mu.RLock()
	out := s.matching(f)
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []core.Transaction{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	if out == nil {
		out = []core.Transaction{}
	}
	return out, nil
}

func (s *Store) SumTransactions(_ context.Context, f store.TransactionFilter) (core.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total core.Money
	for _, tx := range s.matching(f) {
		total = total.Add(tx.Amount)
	}
	return total, nil
}

func (s *Store) CountTransactions(_ context.Context, f store.TransactionFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matching(f)), nil
}

// Budgets

func (s *Store) CreateBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.CategoryID != "" {
		if c, ok := s.categories[b.CategoryID]; !ok || c.UserID != b.UserID {
			return core.NotFoundf("category not found")
		}
	}
	s.budgets[b.ID] = b
	return nil
}

func (s *Store) GetBudget(_ context.Context, userID, id string) (core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return core.Budget{}, core.NotFoundf("budget not found")
	}
	return b, nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.budgets[b.ID]
	if !ok || cur.UserID != b.UserID {
		return core.NotFoundf("budget not found")
	}
	b.CreatedAt = cur.CreatedAt
	s.budgets[b.ID] = b
	return nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return core.NotFoundf("budget not found")
	}
	delete(s.budgets, id)
	return nil
}

func (s *Store) ListBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []core.Budget{}
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

// Goals

func (s *Store) CreateGoal(_ context.Context, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[g.ID] = g
	return nil
}

func (s *Store) GetGoal(_ context.Context, userID, id string) (core.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return core.Goal{}, core.NotFoundf("goal not found")
	}
	return g, nil
}

func (s *Store) UpdateGoal(_ context.Context, g core.Goal) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.goals[g.ID]
	if !ok || cur.UserID != g.UserID {
		return core.Goal{}, core.NotFoundf("goal not found")
	}
	if cur.CurrentAmount.Cents > g.TargetAmount.Cents {
		return core.Goal{}, core.Validationf("target amount cannot be below the current amount %s", cur.CurrentAmount)
	}
	cur.Title = g.Title
	cur.TargetAmount = g.TargetAmount
	cur.Deadline = g.Deadline
	cur.UpdatedAt = g.UpdatedAt
	cur.Version++
	s.goals[g.ID] = cur
	return cur, nil
}

func (s *Store) DeleteGoal(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return core.NotFoundf("goal not found")
	}
	delete(s.goals, id)
	return nil
}

func (s *Store) ListGoals(_ context.Context, userID string) ([]core.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []core.Goal{}
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) AdjustGoal(_ context.Context, userID, id string, delta int64, at time.Time) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return core.Goal{}, core.NotFoundf("goal not found")
	}
	dir := core.ContributionAdd
	if delta < 0 {
		dir = core.ContributionSubtract
		delta = -delta
	}
	next, err := core.ApplyContribution(g.CurrentAmount, g.TargetAmount, core.Money{Cents: delta}, dir)
	if err != nil {
		return core.Goal{}, err
	}
	g.CurrentAmount = next
	g.UpdatedAt = at
	g.Version++
	s.goals[id] = g
	return g, nil
}
