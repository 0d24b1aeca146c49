package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tietkiem/internal/core"
	"tietkiem/internal/storage"
)

const (
	// DefaultFinancialMonths is the trailing window used for advisor data.
	DefaultFinancialMonths = 6
	uncategorized          = "Khác"
)

// SavingsService manages savings goals and their progress.
type SavingsService struct {
	gw  *storage.Gateway
	now func() time.Time
}

func NewSavingsService(gw *storage.Gateway) *SavingsService {
	return &SavingsService{gw: gw, now: time.Now}
}

// CreateGoal validates and stores a new goal with a zero current amount.
func (s *SavingsService) CreateGoal(ctx context.Context, name string, target float64, deadline core.Date, userID int64) (core.SavingsGoal, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.SavingsGoal{}, core.Invalid("name", "Tên mục tiêu không được để trống")
	}
	if target <= 0 {
		return core.SavingsGoal{}, core.Invalid("targetAmount", "Số tiền mục tiêu phải lớn hơn 0")
	}

	g, err := s.gw.Goals.Create(ctx, core.SavingsGoal{
		Name:         name,
		TargetAmount: target,
		Deadline:     deadline,
		UserID:       userID,
	})
	if err != nil {
		return core.SavingsGoal{}, fmt.Errorf("create goal: %w", err)
	}
	return g, nil
}

// UpdateGoal applies a partial update. Absent fields keep their values.
func (s *SavingsService) UpdateGoal(ctx context.Context, id int64, p core.GoalPatch) (core.SavingsGoal, error) {
	if p.Name != nil {
		trimmed := strings.TrimSpace(*p.Name)
		if trimmed == "" {
			return core.SavingsGoal{}, core.Invalid("name", "Tên mục tiêu không được để trống")
		}
		p.Name = &trimmed
	}
	if p.TargetAmount != nil && *p.TargetAmount <= 0 {
		return core.SavingsGoal{}, core.Invalid("targetAmount", "Số tiền mục tiêu phải lớn hơn 0")
	}
	return s.gw.Goals.Update(ctx, id, p)
}

func (s *SavingsService) DeleteGoal(ctx context.Context, id int64) error {
	if err := s.gw.Goals.Delete(ctx, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Goal deleted", "id", id)
	return nil
}

// AddAmount deposits into a goal with a single-statement increment.
func (s *SavingsService) AddAmount(ctx context.Context, id int64, amount float64) (core.GoalProgress, error) {
	if amount <= 0 {
		return core.GoalProgress{}, core.Invalid("amount", "Số tiền phải lớn hơn 0")
	}
	g, err := s.gw.Goals.AddAmount(ctx, id, amount)
	if err != nil {
		return core.GoalProgress{}, err
	}
	return core.CalculateProgress(g), nil
}

func (s *SavingsService) GetGoal(ctx context.Context, id int64) (core.GoalProgress, error) {
	g, err := s.gw.Goals.ByID(ctx, id)
	if err != nil {
		return core.GoalProgress{}, err
	}
	return core.CalculateProgress(g), nil
}

// ListGoals returns progress-augmented goals. userID 0 lists all goals.
func (s *SavingsService) ListGoals(ctx context.Context, userID int64) ([]core.GoalProgress, error) {
	goals, err := s.gw.Goals.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]core.GoalProgress, 0, len(goals))
	for _, g := range goals {
		out = append(out, core.CalculateProgress(g))
	}
	return out, nil
}

// Summary aggregates every goal of a user, or all goals when userID is 0.
func (s *SavingsService) Summary(ctx context.Context, userID int64) (core.GoalSummary, error) {
	goals, err := s.gw.Goals.List(ctx, userID)
	if err != nil {
		return core.GoalSummary{}, err
	}
	return core.Summarize(goals), nil
}

// FinancialData builds the advisor aggregate over the trailing months*30 days.
// Storage failures degrade to zero totals and empty lists.
func (s *SavingsService) FinancialData(ctx context.Context, userID int64, months int) core.FinancialData {
	if months <= 0 {
		months = DefaultFinancialMonths
	}
	data := core.FinancialData{
		SavingsGoals:      []core.GoalBrief{},
		Goals:             []core.GoalBrief{},
		ExpenseByCategory: map[string]float64{},
		PeriodMonths:      months,
	}

	today := s.now().UTC()
	to := core.NewDate(today.Year(), int(today.Month()), today.Day())
	from := core.Date{Time: to.AddDate(0, 0, -months*30)}

	txs, err := s.gw.Transactions.Range(ctx, userID, from, to)
	if err != nil {
		slog.WarnContext(ctx, "Failed to load transactions for financial data", "user_id", userID, "error", err)
		txs = nil
	}
	for _, t := range txs {
		switch t.Type {
		case core.Income:
			data.TotalIncome += t.Amount
		case core.Expense:
			data.TotalExpense += t.Amount
			cat := t.Category
			if cat == "" {
				cat = uncategorized
			}
			data.ExpenseByCategory[cat] += t.Amount
		}
	}
	data.MonthlyAvgIncome = data.TotalIncome / float64(months)
	data.MonthlyAvgExpense = data.TotalExpense / float64(months)

	goals, err := s.gw.Goals.List(ctx, userID)
	if err != nil {
		slog.WarnContext(ctx, "Failed to load goals for financial data", "user_id", userID, "error", err)
		goals = nil
	}
	for _, g := range goals {
		data.CurrentSavings += g.CurrentAmount
		data.SavingsGoals = append(data.SavingsGoals, g.Brief())
	}
	data.Goals = append(data.Goals, data.SavingsGoals...)

	return data
}

// SavingsPlanInput returns the goal and the financial snapshot used to plan it.
func (s *SavingsService) SavingsPlanInput(ctx context.Context, goalID, userID int64, months int) (core.SavingsGoal, core.PlanInput, error) {
	goal, err := s.gw.Goals.ByID(ctx, goalID)
	if err != nil {
		return core.SavingsGoal{}, core.PlanInput{}, err
	}
	if userID == 0 {
		userID = goal.UserID
	}

	data := s.FinancialData(ctx, userID, months)
	in := core.PlanInput{
		MonthlyIncome:  data.MonthlyAvgIncome,
		MonthlyExpense: data.MonthlyAvgExpense,
		OtherGoals:     []core.GoalBrief{},
	}

	others, err := s.gw.Goals.List(ctx, userID)
	if err != nil {
		slog.WarnContext(ctx, "Failed to load other goals", "goal_id", goalID, "error", err)
	}
	for _, g := range others {
		if g.ID != goalID {
			in.OtherGoals = append(in.OtherGoals, g.Brief())
		}
	}
	return goal, in, nil
}
