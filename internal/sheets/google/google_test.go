package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"spendwise/internal/core"
	applog "spendwise/internal/log"
)

type fakeSheet struct {
	mu      sync.Mutex
	ids     [][]any
	appends [][]any
	updates map[string][]any
	cleared []string
}

func (f *fakeSheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	switch {
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"values": f.ids})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		var vr gsheet.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.appends = append(f.appends, vr.Values...)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"updates": map[string]any{"updatedRange": "Transactions!A9:G9"},
		})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		f.cleared = append(f.cleared, path)
		_, _ = io.WriteString(w, `{}`)
	case r.Method == http.MethodPut:
		var vr gsheet.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		if f.updates == nil {
			f.updates = map[string][]any{}
		}
		f.updates[path] = vr.Values[0]
		_, _ = io.WriteString(w, `{}`)
	default:
		http.Error(w, "unexpected "+r.Method+" "+path, http.StatusBadRequest)
	}
}

func newTestClient(t *testing.T, sheet *fakeSheet) *Client {
	t.Helper()
	srv := httptest.NewServer(sheet)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	logger := applog.New(applog.Config{Output: io.Discard})
	return New(svc, "sheet-1", "", logger)
}

func testRow(id string) Row {
	return Row{
		TransactionID: id,
		Date:          time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		Type:          core.Expense,
		Category:      "Groceries",
		Amount:        core.Money{Cents: 1234},
		Note:          "weekly shop",
		UserID:        "u1",
	}
}

func TestUpsert_AppendsNewRow(t *testing.T) {
	sheet := &fakeSheet{ids: [][]any{{"Transaction"}, {"tx-0"}}}
	c := newTestClient(t, sheet)

	ref, err := c.Upsert(context.Background(), testRow("tx-1"))
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if ref != "Transactions!A9:G9" {
		t.Errorf("ref = %q", ref)
	}
	if len(sheet.appends) != 1 {
		t.Fatalf("appends = %v", sheet.appends)
	}
	got := sheet.appends[0]
	if got[0] != "tx-1" || got[1] != "2024-01-05" || got[3] != "Groceries" || got[4] != 12.34 {
		t.Errorf("appended row = %v", got)
	}
}

func TestUpsert_UpdatesExistingRow(t *testing.T) {
	sheet := &fakeSheet{ids: [][]any{{"Transaction"}, {"tx-0"}, {"tx-1"}}}
	c := newTestClient(t, sheet)

	ref, err := c.Upsert(context.Background(), testRow("tx-1"))
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if ref != "Transactions!A3:G3" {
		t.Errorf("ref = %q, want line 3", ref)
	}
	if len(sheet.appends) != 0 || len(sheet.updates) != 1 {
		t.Errorf("appends=%d updates=%d", len(sheet.appends), len(sheet.updates))
	}
}

func TestUpsert_RejectsIncompleteRow(t *testing.T) {
	c := newTestClient(t, &fakeSheet{})
	if _, err := c.Upsert(context.Background(), Row{TransactionID: "x"}); err == nil {
		t.Error("expected error for row without date")
	}
}

func TestDelete(t *testing.T) {
	sheet := &fakeSheet{ids: [][]any{{"Transaction"}, {"tx-1"}}}
	c := newTestClient(t, sheet)

	if err := c.Delete(context.Background(), "tx-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(sheet.cleared) != 1 {
		t.Errorf("cleared = %v", sheet.cleared)
	}

	// unknown ids are a no-op
	if err := c.Delete(context.Background(), "tx-404"); err != nil {
		t.Fatalf("Delete(unknown) error = %v", err)
	}
	if len(sheet.cleared) != 1 {
		t.Errorf("cleared = %v", sheet.cleared)
	}
}

func TestNilService(t *testing.T) {
	c := &Client{}
	if _, err := c.Upsert(context.Background(), testRow("a")); err == nil {
		t.Error("Upsert() with nil service should fail")
	}
	if err := c.Delete(context.Background(), "a"); err == nil {
		t.Error("Delete() with nil service should fail")
	}
}

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	_, err := NewFromEnv(context.Background(), " ", "", nil)
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("error = %v", err)
	}
}

func TestNewFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := NewFromEnv(context.Background(), "sheet-1", "", nil)
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("error = %v", err)
	}
}

func TestFindLine(t *testing.T) {
	values := [][]any{{"Transaction"}, {}, {" tx-2 "}, {"tx-3"}}
	tests := []struct {
		id   string
		want int
	}{
		{"tx-2", 3},
		{"tx-3", 4},
		{"tx-9", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := findLine(values, tt.id); got != tt.want {
			t.Errorf("findLine(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
}
