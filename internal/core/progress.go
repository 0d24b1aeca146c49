package core

// GoalProgress is a goal augmented with derived progress figures.
type GoalProgress struct {
	SavingsGoal
	Progress   float64 `json:"progress"`
	Remaining  float64 `json:"remaining"`
	IsComplete bool    `json:"isComplete"`
}

// GoalSummary aggregates every goal of an owner.
type GoalSummary struct {
	TotalGoals      int            `json:"totalGoals"`
	CompletedGoals  int            `json:"completedGoals"`
	TotalTarget     float64        `json:"totalTarget"`
	TotalCurrent    float64        `json:"totalCurrent"`
	OverallProgress float64        `json:"overallProgress"`
	Goals           []GoalProgress `json:"goals"`
}

// ProgressPercent returns current/target as a percentage clamped to [0, 100]
// and rounded to one decimal. A non-positive target yields 0.
func ProgressPercent(current, target float64) float64 {
	if target <= 0 {
		return 0
	}
	p := current / target * 100
	if p < 0 {
		p = 0
	}
	if p > 100 {
		p = 100
	}
	return Round1(p)
}

// CalculateProgress derives progress, remaining amount and completion.
func CalculateProgress(g SavingsGoal) GoalProgress {
	remaining := g.TargetAmount - g.CurrentAmount
	if remaining < 0 {
		remaining = 0
	}
	return GoalProgress{
		SavingsGoal: g,
		Progress:    ProgressPercent(g.CurrentAmount, g.TargetAmount),
		Remaining:   remaining,
		IsComplete:  g.CurrentAmount >= g.TargetAmount,
	}
}

// Summarize folds goals into a GoalSummary. Goals is never nil.
func Summarize(goals []SavingsGoal) GoalSummary {
	s := GoalSummary{Goals: make([]GoalProgress, 0, len(goals))}
	for _, g := range goals {
		p := CalculateProgress(g)
		s.TotalTarget += g.TargetAmount
		s.TotalCurrent += g.CurrentAmount
		if p.IsComplete {
			s.CompletedGoals++
		}
		s.Goals = append(s.Goals, p)
	}
	s.TotalGoals = len(goals)
	s.OverallProgress = ProgressPercent(s.TotalCurrent, s.TotalTarget)
	return s
}
