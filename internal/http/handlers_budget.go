package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"spendwise/internal/core"
	"spendwise/internal/services"
)

// budgetRequest leaves categoryId null or absent for an overall budget.
type budgetRequest struct {
	CategoryID *string    `json:"categoryId"`
	Amount     core.Money `json:"amount"`
	StartDate  *Date      `json:"startDate"`
	EndDate    *Date      `json:"endDate"`
}

func (req budgetRequest) input() (services.BudgetInput, error) {
	if req.StartDate == nil || req.EndDate == nil {
		return services.BudgetInput{}, core.Validationf("startDate and endDate are required")
	}
	in := services.BudgetInput{
		Amount:    req.Amount,
		StartDate: req.StartDate.value(),
		EndDate:   req.EndDate.value(),
	}
	if req.CategoryID != nil {
		in.CategoryID = *req.CategoryID
	}
	return in, nil
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Budgets.List(r.Context(), userID(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	OK(w, toBudgetViews(items))
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		WriteError(w, r, err)
		return
	}
	b, err := s.deps.Budgets.Create(r.Context(), userID(r), in)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	Created(w, "budget created", toBudgetView(b))
}

func (s *Server) handleBudgetOverview(w http.ResponseWriter, r *http.Request) {
	ov, items, err := s.deps.Budgets.Overview(r.Context(), userID(r), s.now())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	OK(w, budgetOverviewView{
		ActiveBudgets:   ov.ActiveCount,
		TotalBudgeted:   ov.TotalBudgeted,
		TotalSpent:      ov.TotalSpent,
		TotalRemaining:  ov.TotalRemaining,
		OverBudgetCount: ov.OverBudgetCount,
		PercentageUsed:  ov.PercentageUsed,
		Budgets:         toBudgetViews(items),
	})
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	b, err := s.deps.Budgets.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	OK(w, toBudgetView(b))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	in, err := req.input()
	if err != nil {
		WriteError(w, r, err)
		return
	}
	b, err := s.deps.Budgets.Update(r.Context(), userID(r), chi.URLParam(r, "id"), in)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	OK(w, toBudgetView(b))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Budgets.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		WriteError(w, r, err)
		return
	}
	NewResponse().Message("budget deleted").Write(w)
}
