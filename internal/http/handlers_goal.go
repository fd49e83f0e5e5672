package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"spendwise/internal/core"
	"spendwise/internal/services"
)

type goalRequest struct {
	Title         string     `json:"title"`
	TargetAmount  core.Money `json:"targetAmount"`
	CurrentAmount core.Money `json:"currentAmount"`
	Deadline      *Date      `json:"deadline"`
}

// goalUpdateRequest has no currentAmount; the saved amount only moves
// through the progress endpoint.
type goalUpdateRequest struct {
	Title        string     `json:"title"`
	TargetAmount core.Money `json:"targetAmount"`
	Deadline     *Date      `json:"deadline"`
}

type progressRequest struct {
	Amount    core.Money `json:"amount"`
	Direction string     `json:"direction"`
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.deps.Goals.List(r.Context(), userID(r))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	out := make([]goalView, len(goals))
	for i, g := range goals {
		out[i] = toGoalView(g)
	}
	OK(w, out)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	g, err := s.deps.Goals.Create(r.Context(), userID(r), services.GoalInput{
		Title:         sanitizeInput(req.Title),
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		Deadline:      req.Deadline.ptr(),
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	Created(w, "goal created", toGoalView(g))
}

func (s *Server) handleGoalSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.deps.Goals.Summary(r.Context(), userID(r), s.now())
	if err != nil {
		WriteError(w, r, err)
		return
	}
	OK(w, goalSummaryView{
		GoalCount:         sum.GoalCount,
		TotalTarget:       sum.TotalTarget,
		TotalCurrent:      sum.TotalCurrent,
		CompletedCount:    sum.CompletedCount,
		OverdueCount:      sum.OverdueCount,
		OverallProgress:   sum.OverallProgress,
		AveragePercentage: sum.AveragePercentage,
	})
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	g, err := s.deps.Goals.Get(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	OK(w, toGoalView(g))
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	var req goalUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	g, err := s.deps.Goals.Update(r.Context(), userID(r), chi.URLParam(r, "id"), services.GoalUpdate{
		Title:        sanitizeInput(req.Title),
		TargetAmount: req.TargetAmount,
		Deadline:     req.Deadline.ptr(),
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	OK(w, toGoalView(g))
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if err := decodeJSON(r, &req); err != nil {
		WriteError(w, r, err)
		return
	}
	g, err := s.deps.Goals.Contribute(r.Context(), userID(r), chi.URLParam(r, "id"), req.Amount, req.Direction)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	OK(w, toGoalView(g))
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Goals.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		WriteError(w, r, err)
		return
	}
	NewResponse().Message("goal deleted").Write(w)
}
