package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"tietkiem/internal/core"
	"tietkiem/internal/storage"
)

// AnalysisService provides read-only monthly views for charts and dashboards.
type AnalysisService struct {
	gw  *storage.Gateway
	now func() time.Time
}

func NewAnalysisService(gw *storage.Gateway) *AnalysisService {
	return &AnalysisService{gw: gw, now: time.Now}
}

func (s *AnalysisService) CategorySummary(ctx context.Context, userID int64, month string, typ core.TxType) ([]core.CategoryTotal, error) {
	month, err := resolveMonth(month, s.now)
	if err != nil {
		return nil, err
	}
	if !typ.Valid() {
		return nil, core.Invalid("type", "Loại giao dịch phải là expense hoặc income")
	}
	totals, err := s.gw.Transactions.CategoryTotals(ctx, userID, month, typ)
	if err != nil {
		return nil, err
	}
	return labelTotals(totals), nil
}

// DailySummary returns expense and income per active day, oldest first.
// A direction without entries on a day is reported as 0.
func (s *AnalysisService) DailySummary(ctx context.Context, userID int64, month string) ([]core.DailyTotal, error) {
	month, err := resolveMonth(month, s.now)
	if err != nil {
		return nil, err
	}
	days, err := s.gw.Transactions.DailyTotals(ctx, userID, month)
	if err != nil {
		return nil, err
	}
	if days == nil {
		days = []core.DailyTotal{}
	}
	return days, nil
}

// Dashboard loads both category breakdowns and the daily series concurrently.
func (s *AnalysisService) Dashboard(ctx context.Context, userID int64, month string) (core.Dashboard, error) {
	month, err := resolveMonth(month, s.now)
	if err != nil {
		return core.Dashboard{}, err
	}

	d := core.Dashboard{Month: month}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		d.Expenses, err = s.CategorySummary(gctx, userID, month, core.Expense)
		return err
	})
	g.Go(func() error {
		var err error
		d.Incomes, err = s.CategorySummary(gctx, userID, month, core.Income)
		return err
	})
	g.Go(func() error {
		var err error
		d.Daily, err = s.DailySummary(gctx, userID, month)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Dashboard{}, err
	}
	return d, nil
}
