package http

import (
	"fmt"
	"net/http"
	"strconv"

	"spendwise/internal/core"
	"spendwise/internal/services"
)

// trendReport parses granularity and range from the query and runs the
// report for the caller.
func (s *Server) trendReport(r *http.Request) (services.TrendReport, error) {
	q := r.URL.Query()
	g, err := core.ParseGranularity(q.Get("granularity"))
	if err != nil {
		return services.TrendReport{}, err
	}
	sel, err := ParseRangeSelection(q)
	if err != nil {
		return services.TrendReport{}, err
	}
	return s.deps.Analytics.Trends(r.Context(), userID(r), g, sel, s.now())
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	rep, err := s.trendReport(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	OK(w, toTrendsView(rep))
}

func (s *Server) handleTrendsChart(w http.ResponseWriter, r *http.Request) {
	rep, err := s.trendReport(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	title := fmt.Sprintf("Income and expenses by %s", rep.Granularity)
	img, err := s.deps.Charts.Trend(title, rep.Granularity, rep.Buckets)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writePNG(w, img)
}

func (s *Server) categoryBreakdown(r *http.Request) (breakdownView, []core.CategoryAmount, error) {
	q := r.URL.Query()
	typ := core.Expense
	if v := q.Get("type"); v != "" {
		t, err := core.ParseTxType(v)
		if err != nil {
			return breakdownView{}, nil, err
		}
		typ = t
	}
	sel, err := ParseRangeSelection(q)
	if err != nil {
		return breakdownView{}, nil, err
	}
	rows, rng, err := s.deps.Analytics.CategoryBreakdown(r.Context(), userID(r), typ, sel, s.now())
	if err != nil {
		return breakdownView{}, nil, err
	}
	view := breakdownView{Type: typ, Range: toRangeView(rng), Categories: make([]categoryAmountView, len(rows))}
	for i, row := range rows {
		view.Categories[i] = categoryAmountView{
			CategoryID: row.CategoryID,
			Name:       row.Name,
			Amount:     row.Amount,
			Percentage: row.Percentage,
		}
	}
	return view, rows, nil
}

func (s *Server) handleCategoryBreakdown(w http.ResponseWriter, r *http.Request) {
	view, _, err := s.categoryBreakdown(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	OK(w, view)
}

func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	view, rows, err := s.categoryBreakdown(r)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	img, err := s.deps.Charts.CategoryPie(fmt.Sprintf("%s by category", view.Type), rows)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writePNG(w, img)
}

func writePNG(w http.ResponseWriter, img []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}
