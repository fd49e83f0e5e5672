package services

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"spendwise/internal/core"
	applog "spendwise/internal/log"
	"spendwise/internal/store"
)

// statusWorkers bounds concurrent spend queries for one request.
const statusWorkers = 4

// BudgetInput is the writable part of a budget. An empty CategoryID makes an
// overall budget.
type BudgetInput struct {
	CategoryID string
	Amount     core.Money
	StartDate  time.Time
	EndDate    time.Time
}

type BudgetService struct {
	budgets      store.BudgetStore
	categories   store.CategoryStore
	transactions store.TransactionStore
	now          Clock
	logger       *applog.Logger
}

func NewBudgetService(budgets store.BudgetStore, categories store.CategoryStore, transactions store.TransactionStore, logger *applog.Logger) *BudgetService {
	return &BudgetService{
		budgets:      budgets,
		categories:   categories,
		transactions: transactions,
		now:          utcNow,
		logger:       componentLogger(logger, applog.ComponentBudget),
	}
}

func (s *BudgetService) Create(ctx context.Context, userID string, in BudgetInput) (core.BudgetWithStatus, error) {
	b, name, err := s.validate(ctx, userID, "", in)
	if err != nil {
		return core.BudgetWithStatus{}, err
	}
	b.ID = newID()
	b.CreatedAt = s.now()

	if err := s.budgets.CreateBudget(ctx, b); err != nil {
		return core.BudgetWithStatus{}, err
	}
	s.logger.InfoContext(ctx, "Budget created",
		applog.FieldUserID, userID,
		applog.FieldEntityID, b.ID,
		applog.FieldAmountCents, b.Amount.Cents)
	return s.withStatus(ctx, b, name)
}

func (s *BudgetService) Update(ctx context.Context, userID, id string, in BudgetInput) (core.BudgetWithStatus, error) {
	existing, err := s.budgets.GetBudget(ctx, userID, id)
	if err != nil {
		return core.BudgetWithStatus{}, err
	}
	b, name, err := s.validate(ctx, userID, id, in)
	if err != nil {
		return core.BudgetWithStatus{}, err
	}
	b.ID = existing.ID
	b.CreatedAt = existing.CreatedAt

	if err := s.budgets.UpdateBudget(ctx, b); err != nil {
		return core.BudgetWithStatus{}, err
	}
	return s.withStatus(ctx, b, name)
}

func (s *BudgetService) Delete(ctx context.Context, userID, id string) error {
	return s.budgets.DeleteBudget(ctx, userID, id)
}

func (s *BudgetService) Get(ctx context.Context, userID, id string) (core.BudgetWithStatus, error) {
	b, err := s.budgets.GetBudget(ctx, userID, id)
	if err != nil {
		return core.BudgetWithStatus{}, err
	}
	name, err := s.categoryName(ctx, userID, b.CategoryID)
	if err != nil {
		return core.BudgetWithStatus{}, err
	}
	return s.withStatus(ctx, b, name)
}

// List returns every budget of the user with live spend, latest start first.
func (s *BudgetService) List(ctx context.Context, userID string) ([]core.BudgetWithStatus, error) {
	budgets, err := s.budgets.ListBudgets(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withStatuses(ctx, userID, budgets)
}

// Overview summarizes the budgets active at now.
func (s *BudgetService) Overview(ctx context.Context, userID string, now time.Time) (core.BudgetOverview, []core.BudgetWithStatus, error) {
	budgets, err := s.budgets.ListBudgets(ctx, userID)
	if err != nil {
		return core.BudgetOverview{}, nil, err
	}
	active := budgets[:0:0]
	for _, b := range budgets {
		if b.IsActive(now) {
			active = append(active, b)
		}
	}
	items, err := s.withStatuses(ctx, userID, active)
	if err != nil {
		return core.BudgetOverview{}, nil, err
	}
	return core.SummarizeBudgets(items), items, nil
}

// Spent is what counts against b: every transaction of its category in
// range, or every expense in range for an overall budget.
func (s *BudgetService) Spent(ctx context.Context, b core.Budget) (core.Money, error) {
	f := store.TransactionFilter{UserID: b.UserID, From: b.StartDate, To: b.EndDate}
	if b.IsOverall() {
		f.Type = core.Expense
	} else {
		f.CategoryID = b.CategoryID
	}
	return s.transactions.SumTransactions(ctx, f)
}

// validate checks in and returns the normalized budget plus the category
// name. selfID is skipped during the overlap check.
func (s *BudgetService) validate(ctx context.Context, userID, selfID string, in BudgetInput) (core.Budget, string, error) {
	b := core.Budget{
		ID:         selfID,
		UserID:     userID,
		CategoryID: strings.TrimSpace(in.CategoryID),
		Amount:     in.Amount,
		StartDate:  in.StartDate.UTC(),
		EndDate:    in.EndDate.UTC(),
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, "", err
	}

	name, err := s.categoryName(ctx, userID, b.CategoryID)
	if err != nil {
		return core.Budget{}, "", err
	}

	b.StartDate, b.EndDate = core.NormalizeBudgetRange(b.StartDate, b.EndDate)

	existing, err := s.budgets.ListBudgets(ctx, userID)
	if err != nil {
		return core.Budget{}, "", err
	}
	if other, clash := core.FindOverlap(b, existing); clash {
		return core.Budget{}, "", core.Conflictf("budget overlaps an existing budget for the same scope (%s to %s)",
			other.StartDate.Format(time.DateOnly), other.EndDate.Format(time.DateOnly))
	}
	return b, name, nil
}

func (s *BudgetService) categoryName(ctx context.Context, userID, categoryID string) (string, error) {
	if categoryID == "" {
		return "", nil
	}
	c, err := s.categories.GetCategory(ctx, userID, categoryID)
	if err != nil {
		return "", err
	}
	return c.Name, nil
}

func (s *BudgetService) withStatus(ctx context.Context, b core.Budget, name string) (core.BudgetWithStatus, error) {
	spent, err := s.Spent(ctx, b)
	if err != nil {
		return core.BudgetWithStatus{}, err
	}
	return core.BudgetWithStatus{
		Budget:       b,
		CategoryName: name,
		Status:       core.ComputeBudgetStatus(b.Amount, spent),
	}, nil
}

// withStatuses computes spend for each budget concurrently, keeping order.
func (s *BudgetService) withStatuses(ctx context.Context, userID string, budgets []core.Budget) ([]core.BudgetWithStatus, error) {
	out := make([]core.BudgetWithStatus, len(budgets))
	if len(budgets) == 0 {
		return out, nil
	}

	cats, err := s.categories.ListCategories(ctx, userID, "")
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statusWorkers)
	for i, b := range budgets {
		g.Go(func() error {
			item, err := s.withStatus(gctx, b, names[b.CategoryID])
			if err != nil {
				return err
			}
			out[i] = item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
