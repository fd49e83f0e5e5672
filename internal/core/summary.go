package core

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	CategoryID string
	Name       string
	Type       TxType
	Amount     Money
	Percentage float64
}

// DefaultCategories is seeded for every new user.
var DefaultCategories = []struct {
	Name string
	Type TxType
}{
	{"Salary", Income},
	{"Freelance", Income},
	{"Investments", Income},
	{"Gifts", Income},
	{"Refunds", Income},
	{"Other Income", Income},
	{"Housing", Expense},
	{"Utilities", Expense},
	{"Groceries", Expense},
	{"Dining Out", Expense},
	{"Transportation", Expense},
	{"Healthcare", Expense},
	{"Insurance", Expense},
	{"Entertainment", Expense},
	{"Shopping", Expense},
	{"Education", Expense},
	{"Travel", Expense},
	{"Subscriptions", Expense},
	{"Personal Care", Expense},
	{"Other Expenses", Expense},
}
