package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"spendwise/internal/auth"
	applog "spendwise/internal/log"
	"spendwise/internal/middleware/ratelimit"
	"spendwise/internal/services"
	"spendwise/internal/store/memory"
)

var testNow = time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC)

type stubCompleter struct{}

func (stubCompleter) Complete(context.Context, string, string) (string, error) {
	return "keep going", nil
}

type serverOpts struct {
	rateLimit int
	completer services.Completer
}

func newTestServer(t *testing.T, opts serverOpts) *Server {
	t.Helper()
	st := memory.New()
	log := applog.New(applog.Config{Output: io.Discard, Component: applog.ComponentHTTP})

	authSvc := services.NewAuthService(st, st, auth.NewTokenManager("test-secret", time.Hour), log).
		WithHashCost(bcrypt.MinCost)
	budgets := services.NewBudgetService(st, st, st, log)
	goals := services.NewGoalService(st, log).WithClock(func() time.Time { return testNow })
	analytics := services.NewAnalyticsService(st, st, log)

	deps := Deps{
		Auth:         authSvc,
		Categories:   services.NewCategoryService(st, st, log),
		Transactions: services.NewTransactionService(st, st, nil, log),
		Budgets:      budgets,
		Goals:        goals,
		Analytics:    analytics,
		Advice:       services.NewAdviceService(opts.completer, budgets, goals, analytics, time.Minute, log),
		Store:        st,
		Logger:       log,
		Now:          func() time.Time { return testNow },
	}
	if opts.rateLimit > 0 {
		deps.RateLimit = ratelimit.Config{RequestsPerMinute: opts.rateLimit}
	}
	srv := NewServer(":0", deps)
	t.Cleanup(srv.limiter.Stop)
	return srv
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, srv *Server, method, path, token, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)

	var env envelope
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
			t.Fatalf("%s %s: bad envelope %q: %v", method, path, rr.Body.String(), err)
		}
	}
	return rr, env
}

func decodeData(t *testing.T, env envelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

func register(t *testing.T, srv *Server, email string) string {
	t.Helper()
	rr, env := do(t, srv, http.MethodPost, "/api/v1/auth/register", "",
		`{"name":"Sam","email":"`+email+`","password":"correct horse"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status = %d: %s", rr.Code, rr.Body.String())
	}
	var res authView
	decodeData(t, env, &res)
	return res.Token
}

func createID(t *testing.T, srv *Server, path, token, body string) string {
	t.Helper()
	rr, env := do(t, srv, http.MethodPost, path, token, body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("POST %s status = %d: %s", path, rr.Code, rr.Body.String())
	}
	var out struct {
		ID string `json:"id"`
	}
	decodeData(t, env, &out)
	return out.ID
}

func TestAuthFlow(t *testing.T) {
	srv := newTestServer(t, serverOpts{})
	token := register(t, srv, "Sam@Example.com")

	rr, env := do(t, srv, http.MethodGet, "/api/v1/auth/me", token, "")
	if rr.Code != http.StatusOK || !env.Success {
		t.Fatalf("me status = %d", rr.Code)
	}
	var me userView
	decodeData(t, env, &me)
	if me.Email != "sam@example.com" || me.Name != "Sam" {
		t.Errorf("me = %+v", me)
	}

	rr, _ = do(t, srv, http.MethodPost, "/api/v1/auth/login", "", `{"email":"sam@example.com","password":"correct horse"}`)
	if rr.Code != http.StatusOK {
		t.Errorf("login status = %d", rr.Code)
	}

	rr, env = do(t, srv, http.MethodPost, "/api/v1/auth/login", "", `{"email":"sam@example.com","password":"wrong horse"}`)
	if rr.Code != http.StatusUnauthorized || env.Success {
		t.Errorf("bad password status = %d, success = %v", rr.Code, env.Success)
	}

	rr, _ = do(t, srv, http.MethodPost, "/api/v1/auth/register", "", `{"name":"Sam","email":"sam@example.com","password":"correct horse"}`)
	if rr.Code != http.StatusConflict {
		t.Errorf("duplicate register status = %d", rr.Code)
	}

	// registration seeds default categories
	rr, env = do(t, srv, http.MethodGet, "/api/v1/categories", token, "")
	var cats []categoryView
	decodeData(t, env, &cats)
	if rr.Code != http.StatusOK || len(cats) == 0 {
		t.Errorf("categories status = %d, count = %d", rr.Code, len(cats))
	}
}

func TestRequireAuth(t *testing.T) {
	srv := newTestServer(t, serverOpts{})
	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"garbage token", "not-a-jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, env := do(t, srv, http.MethodGet, "/api/v1/budgets", tt.token, "")
			if rr.Code != http.StatusUnauthorized || env.Success {
				t.Errorf("status = %d, success = %v", rr.Code, env.Success)
			}
			if rr.Header().Get("WWW-Authenticate") != "Bearer" {
				t.Error("missing WWW-Authenticate header")
			}
		})
	}
}

func TestBudgetOverlapConflict(t *testing.T) {
	srv := newTestServer(t, serverOpts{})
	token := register(t, srv, "b@example.com")
	catID := createID(t, srv, "/api/v1/categories", token, `{"name":"Pantry","type":"expense"}`)

	createID(t, srv, "/api/v1/budgets", token,
		`{"categoryId":"`+catID+`","amount":500,"startDate":"2024-01-15","endDate":"2024-02-15"}`)

	rr, env := do(t, srv, http.MethodPost, "/api/v1/budgets", token,
		`{"categoryId":"`+catID+`","amount":500,"startDate":"2024-01-01","endDate":"2024-01-31"}`)
	if rr.Code != http.StatusConflict || env.Success || env.Message == "" {
		t.Errorf("overlap status = %d, envelope = %+v", rr.Code, env)
	}
}

func TestBudgetOverview(t *testing.T) {
	srv := newTestServer(t, serverOpts{})
	token := register(t, srv, "o@example.com")
	catID := createID(t, srv, "/api/v1/categories", token, `{"name":"Pantry","type":"expense"}`)
	createID(t, srv, "/api/v1/transactions", token, `{"categoryId":"`+catID+`","amount":"12.50","date":"2024-01-10"}`)
	createID(t, srv, "/api/v1/budgets", token,
		`{"categoryId":"`+catID+`","amount":50,"startDate":"2024-01-01","endDate":"2024-01-31"}`)

	rr, env := do(t, srv, http.MethodGet, "/api/v1/budgets/overview", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var ov budgetOverviewView
	decodeData(t, env, &ov)
	if ov.ActiveBudgets != 1 || ov.TotalSpent.Cents != 1250 || ov.PercentageUsed != 25 || len(ov.Budgets) != 1 {
		t.Errorf("overview = %+v", ov)
	}
	if ov.Budgets[0].CategoryName != "Pantry" || ov.Budgets[0].Remaining.Cents != 3750 {
		t.Errorf("budget = %+v", ov.Budgets[0])
	}
}

func TestDeleteCategoryInUse(t *testing.T) {
	srv := newTestServer(t, serverOpts{})
	token := register(t, srv, "c@example.com")
	catID := createID(t, srv, "/api/v1/categories", token, `{"name":"Hobbies","type":"expense"}`)
	createID(t, srv, "/api/v1/transactions", token, `{"categoryId":"`+catID+`","amount":9.99,"date":"2024-01-05"}`)

	rr, env := do(t, srv, http.MethodDelete, "/api/v1/categories/"+catID, token, "")
	if rr.Code != http.StatusConflict {
		t.Fatalf("delete status = %d", rr.Code)
	}
	var inUse struct {
		TransactionCount int `json:"transactionCount"`
	}
	decodeData(t, env, &inUse)
	if inUse.TransactionCount != 1 {
		t.Errorf("transactionCount = %d", inUse.TransactionCount)
	}

	rr, env = do(t, srv, http.MethodDelete, "/api/v1/categories/"+catID+"?force=true", token, "")
	if rr.Code != http.StatusOK || !env.Success {
		t.Fatalf("forced delete status = %d", rr.Code)
	}
	rr, env = do(t, srv, http.MethodGet, "/api/v1/transactions", token, "")
	var page transactionPage
	decodeData(t, env, &page)
	if rr.Code != http.StatusOK || page.Total != 0 {
		t.Errorf("transactions left after forced delete: %+v", page)
	}
}

func TestRequestBodyErrors(t *testing.T) {
	srv := newTestServer(t, serverOpts{})
	token := register(t, srv, "v@example.com")
	catID := createID(t, srv, "/api/v1/categories", token, `{"name":"Books","type":"expense"}`)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"categoryId":`, http.StatusBadRequest},
		{"empty body", ``, http.StatusBadRequest},
		{"unknown field", `{"categoryId":"` + catID + `","amount":1,"colour":"red"}`, http.StatusBadRequest},
		{"zero amount", `{"categoryId":"` + catID + `","amount":0}`, http.StatusUnprocessableEntity},
		{"negative amount", `{"categoryId":"` + catID + `","amount":-5}`, http.StatusUnprocessableEntity},
		{"bad date", `{"categoryId":"` + catID + `","amount":1,"date":"15/01/2024"}`, http.StatusUnprocessableEntity},
		{"date before storable years", `{"categoryId":"` + catID + `","amount":1,"date":"1500-01-01"}`, http.StatusUnprocessableEntity},
		{"unknown category", `{"categoryId":"nope","amount":1}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, env := do(t, srv, http.MethodPost, "/api/v1/transactions", token, tt.body)
			if rr.Code != tt.want || env.Success {
				t.Errorf("status = %d, want %d (%s)", rr.Code, tt.want, rr.Body.String())
			}
		})
	}
}

func TestGoalProgress(t *testing.T) {
	srv := newTestServer(t, serverOpts{})
	token := register(t, srv, "g@example.com")
	id := createID(t, srv, "/api/v1/goals", token, `{"title":"Laptop","targetAmount":100,"deadline":"2024-06-01"}`)

	rr, env := do(t, srv, http.MethodPut, "/api/v1/goals/"+id+"/progress", token, `{"amount":60,"direction":"add"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("progress status = %d: %s", rr.Code, rr.Body.String())
	}
	var g goalView
	decodeData(t, env, &g)
	if g.Percentage != 60 || g.CurrentAmount.Cents != 6000 || g.Deadline == nil || g.DaysToDeadline == nil {
		t.Errorf("goal = %+v", g)
	}

	rr, _ = do(t, srv, http.MethodPut, "/api/v1/goals/"+id+"/progress", token, `{"amount":50}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("over target status = %d", rr.Code)
	}

	rr, _ = do(t, srv, http.MethodPut, "/api/v1/goals/"+id, token, `{"title":"Laptop","targetAmount":100,"currentAmount":1}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("update with currentAmount status = %d", rr.Code)
	}

	rr, env = do(t, srv, http.MethodGet, "/api/v1/goals/summary", token, "")
	var sum goalSummaryView
	decodeData(t, env, &sum)
	if rr.Code != http.StatusOK || sum.GoalCount != 1 || sum.OverallProgress != 60 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestAnalyticsEndpoints(t *testing.T) {
	srv := newTestServer(t, serverOpts{})
	token := register(t, srv, "a@example.com")
	pay := createID(t, srv, "/api/v1/categories", token, `{"name":"Payroll","type":"income"}`)
	food := createID(t, srv, "/api/v1/categories", token, `{"name":"Takeaway","type":"expense"}`)
	createID(t, srv, "/api/v1/transactions", token, `{"categoryId":"`+pay+`","amount":100,"date":"2024-01-15"}`)
	createID(t, srv, "/api/v1/transactions", token, `{"categoryId":"`+food+`","amount":40,"date":"2024-01-18"}`)

	rr, env := do(t, srv, http.MethodGet, "/api/v1/analytics/trends?granularity=day&days=7", token, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("trends status = %d: %s", rr.Code, rr.Body.String())
	}
	var tr trendsView
	decodeData(t, env, &tr)
	if len(tr.Buckets) != 2 || tr.Buckets[0].Key != "2024-01-15" || tr.Net.Cents != 6000 || tr.Mode != "preset" {
		t.Errorf("trends = %+v", tr)
	}

	rr, _ = do(t, srv, http.MethodGet, "/api/v1/analytics/trends.png?granularity=day&days=7", token, "")
	if rr.Code != http.StatusOK || rr.Header().Get("Content-Type") != "image/png" {
		t.Errorf("chart status = %d, type = %q", rr.Code, rr.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(rr.Body.String(), "\x89PNG\r\n\x1a\n") {
		t.Error("chart body is not a PNG")
	}

	rr, _ = do(t, srv, http.MethodGet, "/api/v1/analytics/trends?granularity=fortnight", token, "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad granularity status = %d", rr.Code)
	}

	rr, env = do(t, srv, http.MethodGet, "/api/v1/analytics/categories?type=expense", token, "")
	var bd breakdownView
	decodeData(t, env, &bd)
	if rr.Code != http.StatusOK || len(bd.Categories) != 1 || bd.Categories[0].Name != "Takeaway" || bd.Categories[0].Percentage != 100 {
		t.Errorf("breakdown = %+v", bd)
	}
}

func TestAdvice(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		srv := newTestServer(t, serverOpts{})
		token := register(t, srv, "d@example.com")
		rr, env := do(t, srv, http.MethodPost, "/api/v1/advice", token, `{"question":"help?"}`)
		if rr.Code != http.StatusServiceUnavailable || env.Success {
			t.Errorf("status = %d", rr.Code)
		}
	})

	t.Run("enabled", func(t *testing.T) {
		srv := newTestServer(t, serverOpts{completer: stubCompleter{}})
		token := register(t, srv, "e@example.com")
		rr, env := do(t, srv, http.MethodPost, "/api/v1/advice", token, `{"question":"help?"}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rr.Code, rr.Body.String())
		}
		var adv adviceView
		decodeData(t, env, &adv)
		if adv.Answer != "keep going" || adv.Cached {
			t.Errorf("advice = %+v", adv)
		}
	})
}

func TestOpsEndpoints(t *testing.T) {
	srv := newTestServer(t, serverOpts{})

	for _, path := range []string{"/healthz", "/readyz"} {
		rr, env := do(t, srv, http.MethodGet, path, "", "")
		if rr.Code != http.StatusOK || !env.Success {
			t.Errorf("%s status = %d", path, rr.Code)
		}
	}

	rr, _ := do(t, srv, http.MethodGet, "/metrics", "", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "http_requests_total 3") {
		t.Errorf("metrics = %s", rr.Body.String())
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}

	rr, env := do(t, srv, http.MethodGet, "/nowhere", "", "")
	if rr.Code != http.StatusNotFound || env.Success {
		t.Errorf("unknown route status = %d", rr.Code)
	}
}

func TestRateLimit(t *testing.T) {
	srv := newTestServer(t, serverOpts{rateLimit: 2})
	for i := range 2 {
		if rr, _ := do(t, srv, http.MethodGet, "/healthz", "", ""); rr.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rr.Code)
		}
	}
	rr, env := do(t, srv, http.MethodGet, "/healthz", "", "")
	if rr.Code != http.StatusTooManyRequests || env.Success {
		t.Errorf("status = %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
}
