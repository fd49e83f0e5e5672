// Package storetest holds behaviour checks shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"spendwise/internal/core"
	"spendwise/internal/store"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Run exercises s against the store contract. newStore must return an empty
// store each time it is called.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("categories", func(t *testing.T) { testCategories(t, newStore(t)) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
	t.Run("category delete", func(t *testing.T) { testCategoryDelete(t, newStore(t)) })
	t.Run("budgets", func(t *testing.T) { testBudgets(t, newStore(t)) })
	t.Run("goals", func(t *testing.T) { testGoals(t, newStore(t)) })
	t.Run("concurrent contributions", func(t *testing.T) { testConcurrentAdjust(t, newStore(t)) })
}

func seedUser(t *testing.T, s store.Store, id, email string) {
	t.Helper()
	if err := s.CreateUser(context.Background(), core.User{ID: id, Name: id, Email: email, PasswordHash: "x", CreatedAt: day(2024, 1, 1)}); err != nil {
		t.Fatalf("create user: %v", err)
	}
}

func seedCategory(t *testing.T, s store.Store, userID, id, name string, typ core.TxType) {
	t.Helper()
	if err := s.CreateCategory(context.Background(), core.Category{ID: id, UserID: userID, Name: name, Type: typ}); err != nil {
		t.Fatalf("create category: %v", err)
	}
}

func seedTx(t *testing.T, s store.Store, userID, id, catID string, typ core.TxType, cents int64, date time.Time) {
	t.Helper()
	err := s.CreateTransaction(context.Background(), core.Transaction{
		ID: id, UserID: userID, CategoryID: catID, Type: typ,
		Amount: core.Money{Cents: cents}, Date: date, CreatedAt: date,
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	seedUser(t, s, "u1", "Ana@Example.com")

	if err := s.CreateUser(ctx, core.User{ID: "u2", Email: "ana@example.com", PasswordHash: "x"}); !core.IsConflict(err) {
		t.Fatalf("duplicate email should conflict, got %v", err)
	}
	u, err := s.GetUserByEmail(ctx, "ANA@example.com")
	if err != nil || u.ID != "u1" {
		t.Fatalf("lookup by email: %+v %v", u, err)
	}
	if _, err := s.GetUser(ctx, "nope"); !core.IsNotFound(err) {
		t.Fatalf("missing user should be not found, got %v", err)
	}
}

func testCategories(t *testing.T, s store.Store) {
	ctx := context.Background()
	seedUser(t, s, "u1", "a@x.io")
	seedUser(t, s, "u2", "b@x.io")

	seedCategory(t, s, "u1", "c1", "Food", core.Expense)
	seedCategory(t, s, "u1", "c2", "Food", core.Income)
	seedCategory(t, s, "u2", "c3", "Food", core.Expense)

	if err := s.CreateCategory(ctx, core.Category{ID: "c4", UserID: "u1", Name: "food", Type: core.Expense}); !core.IsConflict(err) {
		t.Fatalf("same name and type should conflict, got %v", err)
	}

	all, err := s.ListCategories(ctx, "u1", "")
	if err != nil || len(all) != 2 {
		t.Fatalf("list all: %v %v", all, err)
	}
	exp, _ := s.ListCategories(ctx, "u1", core.Expense)
	if len(exp) != 1 || exp[0].ID != "c1" {
		t.Fatalf("list expense: %v", exp)
	}

	if _, err := s.GetCategory(ctx, "u2", "c1"); !core.IsNotFound(err) {
		t.Fatalf("other user's category should be hidden, got %v", err)
	}

	if err := s.UpdateCategory(ctx, core.Category{ID: "c1", UserID: "u1", Name: "Groceries", Type: core.Expense}); err != nil {
		t.Fatalf("update: %v", err)
	}
	c, _ := s.GetCategory(ctx, "u1", "c1")
	if c.Name != "Groceries" {
		t.Fatalf("update not applied: %+v", c)
	}

	batch := []core.Category{
		{ID: "c5", UserID: "u2", Name: "Salary", Type: core.Income},
		{ID: "c6", UserID: "u2", Name: "Rent", Type: core.Expense},
	}
	if err := s.CreateCategories(ctx, batch); err != nil {
		t.Fatalf("batch create: %v", err)
	}
	u2, _ := s.ListCategories(ctx, "u2", "")
	if len(u2) != 3 {
		t.Fatalf("expected 3 categories for u2, got %d", len(u2))
	}
}

func testTransactions(t *testing.T, s store.Store) {
	ctx := context.Background()
	seedUser(t, s, "u1", "a@x.io")
	seedUser(t, s, "u2", "b@x.io")
	seedCategory(t, s, "u1", "food", "Food", core.Expense)
	seedCategory(t, s, "u1", "pay", "Salary", core.Income)
	seedCategory(t, s, "u2", "other", "Food", core.Expense)

	seedTx(t, s, "u1", "t1", "food", core.Expense, 1000, day(2024, 1, 1))
	seedTx(t, s, "u1", "t2", "food", core.Expense, 2500, day(2024, 1, 31).Add(23 * time.Hour))
	seedTx(t, s, "u1", "t3", "pay", core.Income, 500000, day(2024, 1, 15))
	seedTx(t, s, "u1", "t4", "food", core.Expense, 700, day(2024, 2, 1))
	seedTx(t, s, "u2", "t5", "other", core.Expense, 99999, day(2024, 1, 10))

	err := s.CreateTransaction(ctx, core.Transaction{ID: "bad", UserID: "u1", CategoryID: "other", Type: core.Expense, Amount: core.Money{Cents: 1}, Date: day(2024, 1, 1)})
	if !core.IsNotFound(err) {
		t.Fatalf("using another user's category should fail, got %v", err)
	}

	jan := store.TransactionFilter{UserID: "u1", From: core.StartOfDay(day(2024, 1, 1)), To: core.EndOfDay(day(2024, 1, 31))}

	list, err := s.ListTransactions(ctx, jan)
	if err != nil || len(list) != 3 {
		t.Fatalf("january list: %d %v", len(list), err)
	}
	if list[0].ID != "t2" || list[2].ID != "t1" {
		t.Fatalf("expected newest first, got %s..%s", list[0].ID, list[2].ID)
	}

	spentF := jan
	spentF.Type = core.Expense
	spent, err := s.SumTransactions(ctx, spentF)
	if err != nil || spent.Cents != 3500 {
		t.Fatalf("january expenses = %d %v", spent.Cents, err)
	}

	catF := jan
	catF.CategoryID = "pay"
	if inc, _ := s.SumTransactions(ctx, catF); inc.Cents != 500000 {
		t.Fatalf("category sum = %d", inc.Cents)
	}

	if n, _ := s.CountTransactions(ctx, store.TransactionFilter{UserID: "u1", CategoryID: "food"}); n != 3 {
		t.Fatalf("count = %d", n)
	}

	page, _ := s.ListTransactions(ctx, store.TransactionFilter{UserID: "u1", Limit: 2, Offset: 1})
	if len(page) != 2 || page[0].ID != "t2" {
		t.Fatalf("page = %v", page)
	}

	if _, err := s.GetTransaction(ctx, "u2", "t1"); !core.IsNotFound(err) {
		t.Fatalf("other user's transaction should be hidden, got %v", err)
	}

	upd := list[2]
	upd.Amount = core.Money{Cents: 1500}
	upd.Note = "lunch"
	if err := s.UpdateTransaction(ctx, upd); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := s.GetTransaction(ctx, "u1", "t1")
	if got.Amount.Cents != 1500 || got.Note != "lunch" {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := s.DeleteTransaction(ctx, "u2", "t1"); !core.IsNotFound(err) {
		t.Fatalf("cross-user delete should fail, got %v", err)
	}
	if err := s.DeleteTransaction(ctx, "u1", "t1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetTransaction(ctx, "u1", "t1"); !core.IsNotFound(err) {
		t.Fatalf("deleted transaction still present")
	}
}

func testCategoryDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	seedUser(t, s, "u1", "a@x.io")
	seedCategory(t, s, "u1", "food", "Food", core.Expense)
	seedCategory(t, s, "u1", "empty", "Empty", core.Expense)
	seedTx(t, s, "u1", "t1", "food", core.Expense, 100, day(2024, 1, 1))
	seedTx(t, s, "u1", "t2", "food", core.Expense, 200, day(2024, 1, 2))
	start, end := core.NormalizeBudgetRange(day(2024, 1, 1), day(2024, 1, 31))
	if err := s.CreateBudget(ctx, core.Budget{ID: "b1", UserID: "u1", CategoryID: "food", Amount: core.Money{Cents: 1}, StartDate: start, EndDate: end}); err != nil {
		t.Fatalf("create budget: %v", err)
	}

	n, err := s.DeleteCategory(ctx, "u1", "food", false)
	if !core.IsConflict(err) || n != 2 {
		t.Fatalf("expected conflict with 2 transactions, got %d %v", n, err)
	}
	if _, err := s.GetCategory(ctx, "u1", "food"); err != nil {
		t.Fatalf("category removed despite conflict: %v", err)
	}

	if n, err := s.DeleteCategory(ctx, "u1", "empty", false); err != nil || n != 0 {
		t.Fatalf("unused category delete: %d %v", n, err)
	}

	n, err = s.DeleteCategory(ctx, "u1", "food", true)
	if err != nil || n != 2 {
		t.Fatalf("forced delete: %d %v", n, err)
	}
	if c, _ := s.CountTransactions(ctx, store.TransactionFilter{UserID: "u1"}); c != 0 {
		t.Fatalf("transactions left behind: %d", c)
	}
	if _, err := s.GetBudget(ctx, "u1", "b1"); !core.IsNotFound(err) {
		t.Fatalf("budget left behind: %v", err)
	}
	if _, err := s.DeleteCategory(ctx, "u1", "food", true); !core.IsNotFound(err) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}

func testBudgets(t *testing.T, s store.Store) {
	ctx := context.Background()
	seedUser(t, s, "u1", "a@x.io")
	seedCategory(t, s, "u1", "food", "Food", core.Expense)

	janS, janE := core.NormalizeBudgetRange(day(2024, 1, 1), day(2024, 1, 31))
	febS, febE := core.NormalizeBudgetRange(day(2024, 2, 1), day(2024, 2, 29))
	for _, b := range []core.Budget{
		{ID: "b1", UserID: "u1", CategoryID: "food", Amount: core.Money{Cents: 100000}, StartDate: janS, EndDate: janE, CreatedAt: janS},
		{ID: "b2", UserID: "u1", Amount: core.Money{Cents: 300000}, StartDate: febS, EndDate: febE, CreatedAt: febS},
	} {
		if err := s.CreateBudget(ctx, b); err != nil {
			t.Fatalf("create budget %s: %v", b.ID, err)
		}
	}

	list, err := s.ListBudgets(ctx, "u1")
	if err != nil || len(list) != 2 || list[0].ID != "b2" {
		t.Fatalf("list = %v %v", list, err)
	}
	if !list[0].IsOverall() || list[1].IsOverall() {
		t.Fatalf("overall flag lost in storage")
	}
	got, _ := s.GetBudget(ctx, "u1", "b1")
	if !got.StartDate.Equal(janS) || !got.EndDate.Equal(janE) {
		t.Fatalf("bounds not preserved: %v..%v", got.StartDate, got.EndDate)
	}

	got.Amount = core.Money{Cents: 150000}
	if err := s.UpdateBudget(ctx, got); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = s.GetBudget(ctx, "u1", "b1")
	if got.Amount.Cents != 150000 {
		t.Fatalf("update not applied")
	}

	if _, err := s.GetBudget(ctx, "u2", "b1"); !core.IsNotFound(err) {
		t.Fatalf("other user's budget should be hidden")
	}
	if err := s.DeleteBudget(ctx, "u1", "b1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.DeleteBudget(ctx, "u1", "b1"); !core.IsNotFound(err) {
		t.Fatalf("second delete should be not found, got %v", err)
	}
}

func testGoals(t *testing.T, s store.Store) {
	ctx := context.Background()
	seedUser(t, s, "u1", "a@x.io")
	deadline := day(2030, 1, 1)
	g := core.Goal{ID: "g1", UserID: "u1", Title: "Car", TargetAmount: core.Money{Cents: 1000}, Deadline: &deadline, CreatedAt: day(2024, 1, 1), UpdatedAt: day(2024, 1, 1)}
	if err := s.CreateGoal(ctx, g); err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if err := s.CreateGoal(ctx, core.Goal{ID: "g2", UserID: "u1", Title: "Trip", TargetAmount: core.Money{Cents: 50}, CreatedAt: day(2024, 2, 1)}); err != nil {
		t.Fatalf("create goal: %v", err)
	}

	got, err := s.AdjustGoal(ctx, "u1", "g1", 400, day(2024, 3, 1))
	if err != nil || got.CurrentAmount.Cents != 400 {
		t.Fatalf("adjust: %+v %v", got, err)
	}
	if _, err := s.AdjustGoal(ctx, "u1", "g1", 601, day(2024, 3, 1)); !core.IsValidation(err) {
		t.Fatalf("exceeding target should fail, got %v", err)
	}
	if _, err := s.AdjustGoal(ctx, "u1", "g1", -401, day(2024, 3, 1)); !core.IsValidation(err) {
		t.Fatalf("going negative should fail, got %v", err)
	}
	if _, err := s.AdjustGoal(ctx, "u2", "g1", 1, day(2024, 3, 1)); !core.IsNotFound(err) {
		t.Fatalf("other user's goal should be hidden, got %v", err)
	}
	got, _ = s.GetGoal(ctx, "u1", "g1")
	if got.CurrentAmount.Cents != 400 || got.Deadline == nil || !got.Deadline.Equal(deadline) {
		t.Fatalf("stored goal = %+v", got)
	}

	if _, err := s.UpdateGoal(ctx, core.Goal{ID: "g1", UserID: "u1", Title: "Car", TargetAmount: core.Money{Cents: 300}}); !core.IsValidation(err) {
		t.Fatalf("target below current should fail, got %v", err)
	}
	upd, err := s.UpdateGoal(ctx, core.Goal{ID: "g1", UserID: "u1", Title: "New car", TargetAmount: core.Money{Cents: 2000}})
	if err != nil || upd.Title != "New car" || upd.CurrentAmount.Cents != 400 || upd.Deadline != nil {
		t.Fatalf("update = %+v %v", upd, err)
	}

	list, _ := s.ListGoals(ctx, "u1")
	if len(list) != 2 || list[0].ID != "g2" {
		t.Fatalf("list = %v", list)
	}
	if err := s.DeleteGoal(ctx, "u1", "g2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetGoal(ctx, "u1", "g2"); !core.IsNotFound(err) {
		t.Fatalf("deleted goal still present")
	}
}

func testConcurrentAdjust(t *testing.T, s store.Store) {
	ctx := context.Background()
	seedUser(t, s, "u1", "a@x.io")
	if err := s.CreateGoal(ctx, core.Goal{ID: "g", UserID: "u1", Title: "Fund", TargetAmount: core.Money{Cents: 1000}, CreatedAt: day(2024, 1, 1)}); err != nil {
		t.Fatalf("create goal: %v", err)
	}

	// 20 workers each try to add 100 to a goal capped at 1000: exactly ten
	// must succeed and the cap must hold.
	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AdjustGoal(ctx, "u1", "g", 100, day(2024, 1, 2)); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	g, _ := s.GetGoal(ctx, "u1", "g")
	if ok != 10 || g.CurrentAmount.Cents != 1000 {
		t.Fatalf("successes=%d current=%d", ok, g.CurrentAmount.Cents)
	}
}
