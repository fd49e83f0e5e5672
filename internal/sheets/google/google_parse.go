package google

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"spendwise/internal/core"
)

// lastColumn is the rightmost column a Row occupies (A..G).
const lastColumn = "G"

// Row is one mirrored transaction.
type Row struct {
	TransactionID string
	Date          time.Time
	Type          core.TxType
	Category      string
	Amount        core.Money
	Note          string
	UserID        string
}

func (r Row) Validate() error {
	if strings.TrimSpace(r.TransactionID) == "" {
		return errors.New("row needs a transaction id")
	}
	if r.Date.IsZero() {
		return errors.New("row needs a date")
	}
	return nil
}

func (r Row) values() []any {
	return []any{
		r.TransactionID,
		r.Date.UTC().Format(time.DateOnly),
		string(r.Type),
		r.Category,
		r.Amount.Float(),
		r.Note,
		r.UserID,
	}
}

func findLine(values [][]any, id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0
	}
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}
