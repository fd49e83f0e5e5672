package http

import (
	"time"

	"spendwise/internal/core"
	"spendwise/internal/services"
)

// JSON shapes of the API. Domain types stay free of transport tags.

type userView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type authView struct {
	User      userView  `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type categoryView struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Type core.TxType `json:"type"`
}

type transactionView struct {
	ID         string      `json:"id"`
	CategoryID string      `json:"categoryId"`
	Type       core.TxType `json:"type"`
	Amount     core.Money  `json:"amount"`
	Note       string      `json:"note,omitempty"`
	Date       Date        `json:"date"`
	CreatedAt  time.Time   `json:"createdAt"`
}

type transactionPage struct {
	Items  []transactionView `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

type budgetView struct {
	ID             string     `json:"id"`
	CategoryID     *string    `json:"categoryId"`
	CategoryName   string     `json:"categoryName,omitempty"`
	Amount         core.Money `json:"amount"`
	StartDate      Date       `json:"startDate"`
	EndDate        Date       `json:"endDate"`
	Spent          core.Money `json:"spent"`
	Remaining      core.Money `json:"remaining"`
	PercentageUsed float64    `json:"percentageUsed"`
	IsOverBudget   bool       `json:"isOverBudget"`
}

type budgetOverviewView struct {
	ActiveBudgets   int          `json:"activeBudgets"`
	TotalBudgeted   core.Money   `json:"totalBudgeted"`
	TotalSpent      core.Money   `json:"totalSpent"`
	TotalRemaining  core.Money   `json:"totalRemaining"`
	OverBudgetCount int          `json:"overBudgetCount"`
	PercentageUsed  float64      `json:"percentageUsed"`
	Budgets         []budgetView `json:"budgets"`
}

type goalView struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	TargetAmount   core.Money `json:"targetAmount"`
	CurrentAmount  core.Money `json:"currentAmount"`
	Deadline       *Date      `json:"deadline"`
	Version        int64      `json:"version"`
	Percentage     float64    `json:"percentage"`
	Remaining      core.Money `json:"remaining"`
	IsCompleted    bool       `json:"isCompleted"`
	IsOverdue      bool       `json:"isOverdue"`
	DaysToDeadline *int       `json:"daysToDeadline"`
}

type goalSummaryView struct {
	GoalCount         int        `json:"goalCount"`
	TotalTarget       core.Money `json:"totalTarget"`
	TotalCurrent      core.Money `json:"totalCurrent"`
	CompletedCount    int        `json:"completedCount"`
	OverdueCount      int        `json:"overdueCount"`
	OverallProgress   float64    `json:"overallProgress"`
	AveragePercentage float64    `json:"averagePercentage"`
}

type bucketView struct {
	Key      string     `json:"key"`
	Income   core.Money `json:"income"`
	Expenses core.Money `json:"expenses"`
	Net      core.Money `json:"net"`
}

type rangeView struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

type trendsView struct {
	Granularity   core.Granularity `json:"granularity"`
	Mode          string           `json:"mode"`
	Range         rangeView        `json:"range"`
	Buckets       []bucketView     `json:"buckets"`
	TotalIncome   core.Money       `json:"totalIncome"`
	TotalExpenses core.Money       `json:"totalExpenses"`
	Net           core.Money       `json:"net"`
}

type categoryAmountView struct {
	CategoryID string     `json:"categoryId"`
	Name       string     `json:"name"`
	Amount     core.Money `json:"amount"`
	Percentage float64    `json:"percentage"`
}

type breakdownView struct {
	Type       core.TxType          `json:"type"`
	Range      rangeView            `json:"range"`
	Categories []categoryAmountView `json:"categories"`
}

type adviceView struct {
	Answer      string    `json:"answer"`
	Cached      bool      `json:"cached"`
	GeneratedAt time.Time `json:"generatedAt"`
}

func toUserView(u core.User) userView {
	return userView{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

func toAuthView(res services.AuthResult) authView {
	return authView{User: toUserView(res.User), Token: res.Token, ExpiresAt: res.ExpiresAt}
}

func toCategoryView(c core.Category) categoryView {
	return categoryView{ID: c.ID, Name: c.Name, Type: c.Type}
}

func toTransactionView(tx core.Transaction) transactionView {
	return transactionView{
		ID:         tx.ID,
		CategoryID: tx.CategoryID,
		Type:       tx.Type,
		Amount:     tx.Amount,
		Note:       tx.Note,
		Date:       Date{tx.Date},
		CreatedAt:  tx.CreatedAt,
	}
}

func toBudgetView(b core.BudgetWithStatus) budgetView {
	v := budgetView{
		ID:             b.ID,
		CategoryName:   b.CategoryName,
		Amount:         b.Amount,
		StartDate:      Date{b.StartDate},
		EndDate:        Date{b.EndDate},
		Spent:          b.Status.Spent,
		Remaining:      b.Status.Remaining,
		PercentageUsed: b.Status.PercentageUsed,
		IsOverBudget:   b.Status.IsOverBudget,
	}
	if !b.IsOverall() {
		id := b.CategoryID
		v.CategoryID = &id
	}
	return v
}

func toBudgetViews(items []core.BudgetWithStatus) []budgetView {
	out := make([]budgetView, len(items))
	for i, it := range items {
		out[i] = toBudgetView(it)
	}
	return out
}

func toGoalView(g core.GoalWithProgress) goalView {
	v := goalView{
		ID:             g.ID,
		Title:          g.Title,
		TargetAmount:   g.TargetAmount,
		CurrentAmount:  g.CurrentAmount,
		Version:        g.Version,
		Percentage:     g.Progress.Percentage,
		Remaining:      g.Progress.Remaining,
		IsCompleted:    g.Progress.IsCompleted,
		IsOverdue:      g.Progress.IsOverdue,
		DaysToDeadline: g.Progress.DaysToDeadline,
	}
	if g.Deadline != nil {
		v.Deadline = &Date{*g.Deadline}
	}
	return v
}

func toRangeView(r core.DateRange) rangeView {
	return rangeView{Start: Date{r.Start}, End: Date{r.End}}
}

func toTrendsView(rep services.TrendReport) trendsView {
	buckets := make([]bucketView, len(rep.Buckets))
	for i, b := range rep.Buckets {
		buckets[i] = bucketView{Key: b.Key, Income: b.Income, Expenses: b.Expenses, Net: b.Net()}
	}
	return trendsView{
		Granularity:   rep.Granularity,
		Mode:          rep.Mode.String(),
		Range:         toRangeView(rep.Range),
		Buckets:       buckets,
		TotalIncome:   rep.TotalIncome,
		TotalExpenses: rep.TotalExpenses,
		Net:           rep.Net,
	}
}
