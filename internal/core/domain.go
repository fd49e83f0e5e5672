package core

import (
	"strings"
	"time"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

type (
	// TxType classifies a category or a transaction as money in or money out.
	TxType string

	Money struct {
		Cents int64
	}

	User struct {
		ID           string
		Name         string
		Email        string
		PasswordHash string
		CreatedAt    time.Time
	}

	Category struct {
		ID     string
		UserID string
		Name   string
		Type   TxType
	}

	Transaction struct {
		ID         string
		UserID     string
		CategoryID string
		Type       TxType
		Amount     Money
		Note       string
		Date       time.Time
		CreatedAt  time.Time
	}

	// Budget caps spending over [StartDate, EndDate]. An empty CategoryID
	// makes it an overall budget across every expense.
	Budget struct {
		ID         string
		UserID     string
		CategoryID string
		Amount     Money
		StartDate  time.Time
		EndDate    time.Time
		CreatedAt  time.Time
	}

	Goal struct {
		ID            string
		UserID        string
		Title         string
		TargetAmount  Money
		CurrentAmount Money
		Deadline      *time.Time
		Version       int64
		CreatedAt     time.Time
		UpdatedAt     time.Time
	}
)

// ParseTxType accepts "income" or "expense" in any case.
func ParseTxType(s string) (TxType, error) {
	switch TxType(strings.ToLower(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	}
	return "", Validationf("invalid type %q: must be income or expense", s)
}

func (t TxType) Valid() bool {
	return t == Income || t == Expense
}

func (c Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return Validationf("category name is required")
	}
	if len(name) > 50 {
		return Validationf("category name too long (max 50 characters)")
	}
	if !c.Type.Valid() {
		return Validationf("invalid category type %q", c.Type)
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.CategoryID) == "" {
		return Validationf("category is required")
	}
	if !t.Type.Valid() {
		return Validationf("invalid transaction type %q", t.Type)
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.Date.IsZero() {
		return Validationf("date is required")
	}
	if err := ValidateDate(t.Date); err != nil {
		return err
	}
	if len(t.Note) > 200 {
		return Validationf("note too long (max 200 characters)")
	}
	return nil
}

// Stored timestamps are Unix nanoseconds, which only cover these years.
const (
	MinYear = 1900
	MaxYear = 2200
)

// ValidateDate rejects dates whose year falls outside MinYear..MaxYear.
func ValidateDate(t time.Time) error {
	if y := t.UTC().Year(); y < MinYear || y > MaxYear {
		return Validationf("date %s out of range (years %d-%d)", t.UTC().Format(time.DateOnly), MinYear, MaxYear)
	}
	return nil
}

// Validate checks the creation invariants of a budget.
func (b Budget) Validate() error {
	if b.Amount.Cents <= 0 {
		return Validationf("budget amount must be greater than zero")
	}
	if b.StartDate.IsZero() || b.EndDate.IsZero() {
		return Validationf("start and end dates are required")
	}
	if !b.EndDate.After(b.StartDate) {
		return Validationf("end date must be after start date")
	}
	if err := ValidateDate(b.StartDate); err != nil {
		return err
	}
	if err := ValidateDate(b.EndDate); err != nil {
		return err
	}
	return nil
}

// IsOverall reports whether the budget spans every expense category.
func (b Budget) IsOverall() bool {
	return b.CategoryID == ""
}

// Validate checks the amount invariants of a goal. Deadline rules depend on
// the caller (create vs update) and live in ValidateDeadline.
func (g Goal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return Validationf("goal title is required")
	}
	if len(g.Title) > 100 {
		return Validationf("goal title too long (max 100 characters)")
	}
	if g.TargetAmount.Cents <= 0 {
		return Validationf("target amount must be greater than zero")
	}
	if g.CurrentAmount.Cents < 0 {
		return Validationf("current amount cannot be negative")
	}
	if g.CurrentAmount.Cents > g.TargetAmount.Cents {
		return Validationf("current amount cannot exceed target amount")
	}
	return nil
}

// ValidateDeadline rejects a deadline that is not strictly after now.
func ValidateDeadline(deadline *time.Time, now time.Time) error {
	if deadline == nil {
		return nil
	}
	if !deadline.After(now) {
		return Validationf("deadline must be in the future")
	}
	return ValidateDate(*deadline)
}

// StartOfDay returns midnight UTC of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
