package http

import (
	"errors"
	"fmt"
	"net/http"

	"tietkiem/internal/charts"
	"tietkiem/internal/core"
	applog "tietkiem/internal/log"
)

func summaryKey(userID int64, month, view string) string {
	return fmt.Sprintf("%s%d:%s:%s", summaryKeyPrefix, userID, month, view)
}

// monthParams reads user_id and month; month defaults to the current one.
func (s *Server) monthParams(r *http.Request) (int64, string, error) {
	userID, err := queryInt64(r, "user_id")
	if err != nil {
		return 0, "", err
	}
	return userID, queryMonth(r, s.now()), nil
}

func (s *Server) categoryTotals(r *http.Request, userID int64, month string, typ core.TxType) ([]core.CategoryTotal, error) {
	key := summaryKey(userID, month, "categories:"+string(typ))
	if totals, ok := s.categoryCache.Get(key); ok {
		return totals, nil
	}
	totals, err := s.svc.Analysis.CategorySummary(r.Context(), userID, month, typ)
	if err != nil {
		return nil, err
	}
	s.categoryCache.Set(key, totals)
	return totals, nil
}

func (s *Server) dailyTotals(r *http.Request, userID int64, month string) ([]core.DailyTotal, error) {
	key := summaryKey(userID, month, "daily")
	if days, ok := s.dailyCache.Get(key); ok {
		return days, nil
	}
	days, err := s.svc.Analysis.DailySummary(r.Context(), userID, month)
	if err != nil {
		return nil, err
	}
	s.dailyCache.Set(key, days)
	return days, nil
}

func (s *Server) handleCategoryAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, month, err := s.monthParams(r)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	typ, err := queryType(r, core.Expense)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	totals, err := s.categoryTotals(r, userID, month, typ)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Body(totals).Write(w)
}

func (s *Server) handleDailyAnalysis(w http.ResponseWriter, r *http.Request) {
	userID, month, err := s.monthParams(r)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	days, err := s.dailyTotals(r, userID, month)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	NewJSONResponse().Body(days).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, month, err := s.monthParams(r)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	key := summaryKey(userID, month, "dashboard")
	if d, ok := s.dashboardCache.Get(key); ok {
		NewJSONResponse().Header("X-Cache", "hit").Body(d).Write(w)
		return
	}
	d, err := s.svc.Analysis.Dashboard(r.Context(), userID, month)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	s.dashboardCache.Set(key, d)
	NewJSONResponse().Header("X-Cache", "miss").Body(d).Write(w)
}

func (s *Server) handleDailyChart(w http.ResponseWriter, r *http.Request) {
	userID, month, err := s.monthParams(r)
	if err != nil {
		writeError(w, r, applog.OpRender, err)
		return
	}
	days, err := s.dailyTotals(r, userID, month)
	if err != nil {
		writeError(w, r, applog.OpRender, err)
		return
	}
	s.writeChart(w, r, func() ([]byte, error) { return charts.DailyChart(days) })
}

func (s *Server) handleCategoryChart(w http.ResponseWriter, r *http.Request) {
	userID, month, err := s.monthParams(r)
	if err != nil {
		writeError(w, r, applog.OpRender, err)
		return
	}
	typ, err := queryType(r, core.Expense)
	if err != nil {
		writeError(w, r, applog.OpRender, err)
		return
	}
	totals, err := s.categoryTotals(r, userID, month, typ)
	if err != nil {
		writeError(w, r, applog.OpRender, err)
		return
	}
	s.writeChart(w, r, func() ([]byte, error) { return charts.CategoryPie(totals) })
}

func (s *Server) writeChart(w http.ResponseWriter, r *http.Request, render func() ([]byte, error)) {
	png, err := render()
	if errors.Is(err, charts.ErrNoData) {
		NotFoundError("Không có dữ liệu để vẽ biểu đồ").Write(w)
		return
	}
	if err != nil {
		writeError(w, r, applog.OpRender, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=60")
	_, _ = w.Write(png)
}
