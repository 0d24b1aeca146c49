package core

// CategoryTotal is an amount aggregated by category.
type CategoryTotal struct {
	CategoryID int64   `json:"categoryId,omitempty"`
	Category   string  `json:"category"`
	Icon       string  `json:"icon,omitempty"`
	Total      float64 `json:"total"`
}

// DailyTotal holds both directions for one calendar day.
type DailyTotal struct {
	Date    Date    `json:"date"`
	Expense float64 `json:"expense"`
	Income  float64 `json:"income"`
}

// GoalBrief is the goal shape handed to the advisory gateway.
type GoalBrief struct {
	Name          string  `json:"name"`
	TargetAmount  float64 `json:"targetAmount"`
	CurrentAmount float64 `json:"currentAmount"`
	Deadline      Date    `json:"deadline"`
}

// FinancialData is the fixed-shape aggregate consumed by the advisor.
// SavingsGoals and Goals carry the same list under both historical keys.
type FinancialData struct {
	TotalIncome       float64            `json:"total_income"`
	TotalExpense      float64            `json:"total_expense"`
	MonthlyAvgIncome  float64            `json:"monthly_avg_income"`
	MonthlyAvgExpense float64            `json:"monthly_avg_expense"`
	CurrentSavings    float64            `json:"current_savings"`
	SavingsGoals      []GoalBrief        `json:"savings_goals"`
	Goals             []GoalBrief        `json:"goals"`
	ExpenseByCategory map[string]float64 `json:"expense_by_category"`
	PeriodMonths      int                `json:"period_months"`
}

// PlanInput is the financial snapshot used for a savings plan.
type PlanInput struct {
	MonthlyIncome  float64     `json:"monthly_income"`
	MonthlyExpense float64     `json:"monthly_expense"`
	OtherGoals     []GoalBrief `json:"other_goals"`
}

// ImportResult reports a statement import.
type ImportResult struct {
	Imported     int              `json:"imported"`
	Errors       []RowImportError `json:"errors"`
	Transactions []Transaction    `json:"transactions"`
}

// Dashboard bundles the analysis views of a month.
type Dashboard struct {
	Month    string          `json:"month"`
	Expenses []CategoryTotal `json:"expenses"`
	Incomes  []CategoryTotal `json:"incomes"`
	Daily    []DailyTotal    `json:"daily"`
}

// Brief converts a goal into its advisory shape.
func (g SavingsGoal) Brief() GoalBrief {
	return GoalBrief{
		Name:          g.Name,
		TargetAmount:  g.TargetAmount,
		CurrentAmount: g.CurrentAmount,
		Deadline:      g.Deadline,
	}
}
