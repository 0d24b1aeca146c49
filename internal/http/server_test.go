package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tietkiem/internal/core"
	applog "tietkiem/internal/log"
	"tietkiem/internal/services"
	"tietkiem/internal/storage"
)

type testServer struct {
	t   *testing.T
	srv *Server
	gw  *storage.Gateway
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()
	gw, err := storage.Open(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)

	accounts := services.NewAccountService(gw)
	svc := Services{
		Users:        services.NewUserService(gw),
		Categories:   services.NewCategoryService(gw),
		Savings:      services.NewSavingsService(gw),
		Accounts:     accounts,
		Transactions: services.NewTransactionService(gw, accounts, nil),
		Analysis:     services.NewAnalysisService(gw),
	}
	logger := applog.New(applog.Config{Output: io.Discard})
	srv := NewServer(":0", svc, Options{Logger: logger, Ready: gw, RateLimitPerMinute: rateLimit})

	t.Cleanup(func() {
		_ = srv.Shutdown(context.Background())
		_ = gw.Close()
	})
	return &testServer{t: t, srv: srv, gw: gw}
}

func (ts *testServer) do(method, target string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		payload, err := json.Marshal(b)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	req.RemoteAddr = "192.0.2.10:5000"
	rec := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t, 60)

	rec := ts.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = ts.do(http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"advisor":false`)

	require.NoError(t, ts.gw.Close())
	rec = ts.do(http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t, 60)

	rec := ts.do(http.MethodPost, "/api/users", map[string]string{"username": "lan", "password": "bimat123", "email": "lan@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decode[core.User](t, rec)
	assert.NotContains(t, rec.Body.String(), "bimat123")

	rec = ts.do(http.MethodPost, "/api/users", map[string]string{"username": "lan", "password": "bimat123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "username", decode[ErrorBody](t, rec).Field)

	rec = ts.do(http.MethodPost, "/api/login", map[string]string{"username": "lan", "password": "bimat123"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPost, "/api/login", map[string]string{"username": "lan", "password": "wrong-pass"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/categories?type=income&user_id="+itoa(user.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	cats := decode[[]core.Category](t, rec)
	require.NotEmpty(t, cats)
	for _, c := range cats {
		assert.Equal(t, core.Income, c.Type)
	}
}

func TestGoalLifecycle(t *testing.T) {
	ts := newTestServer(t, 60)

	rec := ts.do(http.MethodPost, "/api/goals", map[string]any{"name": "Xe máy", "targetAmount": 20000000, "deadline": "2025-12-31"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	goal := decode[map[string]any](t, rec)
	id := int64(goal["id"].(float64))
	assert.Equal(t, "20,000,000 đ", goal["targetAmount_display"])
	assert.Equal(t, "31/12/2025", goal["deadline_display"])

	rec = ts.do(http.MethodPost, "/api/goals/"+itoa(id)+"/deposit", map[string]any{"amount": 8000000})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	progress := decode[core.GoalProgress](t, rec)
	assert.Equal(t, 40.0, progress.Progress)
	assert.Equal(t, 12000000.0, progress.Remaining)

	rec = ts.do(http.MethodPost, "/api/goals/"+itoa(id)+"/deposit", map[string]any{"amount": -5})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPut, "/api/goals/"+itoa(id), map[string]any{"deadline": ""})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "deadline_display")

	rec = ts.do(http.MethodPut, "/api/goals/"+itoa(id), map[string]any{"deadline": "2026-06-30"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(http.MethodPut, "/api/goals/"+itoa(id), map[string]any{"name": "Xe máy mới"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "30/06/2026", decode[map[string]any](t, rec)["deadline_display"], "absent deadline is unchanged")

	rec = ts.do(http.MethodPut, "/api/goals/"+itoa(id), `{"deadline": null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cleared := decode[map[string]any](t, rec)
	assert.Nil(t, cleared["deadline"])
	assert.NotContains(t, cleared, "deadline_display")

	rec = ts.do(http.MethodPut, "/api/goals/"+itoa(id), map[string]any{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/goals/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[core.GoalSummary](t, rec)
	assert.Equal(t, 1, summary.TotalGoals)
	assert.Equal(t, 40.0, summary.OverallProgress)

	rec = ts.do(http.MethodDelete, "/api/goals/"+itoa(id), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(http.MethodGet, "/api/goals/"+itoa(id), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Không tìm thấy mục tiêu", decode[ErrorBody](t, rec).Message)

	rec = ts.do(http.MethodGet, "/api/goals/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAccountImportAndRecalculate(t *testing.T) {
	ts := newTestServer(t, 60)

	rec := ts.do(http.MethodPost, "/api/accounts", map[string]any{"name": "Vietcombank", "bank": "VCB"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	account := decode[core.Account](t, rec)
	path := "/api/accounts/" + itoa(account.ID)

	csv := "Ngày,Mô tả,Số tiền,Danh mục\n" +
		"01/05/2024,Lương tháng 5,\"15,000,000\",Lương\n" +
		"02/05/2024,Ăn trưa,\"-150,000đ\",Ăn uống\n" +
		"03/05/2024,Lỗi,abc,Khác\n"
	rec = ts.do(http.MethodPost, path+"/import", csv)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[core.ImportResult](t, rec)
	assert.Equal(t, 2, result.Imported)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 4, result.Errors[0].Row)

	rec = ts.do(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 14850000.0, decode[core.Account](t, rec).Balance)

	rec = ts.do(http.MethodPost, path+"/transactions", map[string]any{"amount": 850000, "type": "expense", "category": "Hóa đơn", "date": "2024-05-05"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodGet, path+"/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[[]core.Transaction](t, rec)
	require.Len(t, listed, 3)
	assert.Equal(t, "2024-05-05", listed[0].Date.String())

	rec = ts.do(http.MethodGet, "/api/accounts/999/transactions", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPost, path+"/recalculate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"balance":14000000`)
	assert.Contains(t, rec.Body.String(), `14,000,000 đ`)

	rec = ts.do(http.MethodPost, "/api/accounts/999/recalculate", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImportOversizedStatementStops(t *testing.T) {
	ts := newTestServer(t, 60)

	rec := ts.do(http.MethodPost, "/api/accounts", map[string]any{"name": "Techcombank"})
	require.Equal(t, http.StatusCreated, rec.Code)
	account := decode[core.Account](t, rec)

	csv := "date,amount,description\n2024-06-01,-200000,Điện\n2024-06-02,-1," +
		strings.Repeat("x", maxCSVBody+(1<<20)) + "\n"

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() { done <- ts.do(http.MethodPost, "/api/accounts/"+itoa(account.ID)+"/import", csv) }()

	select {
	case rec = <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("oversized import did not return")
	}
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[core.ImportResult](t, rec)
	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Row)
}

func TestTransactionsAndCachedDashboard(t *testing.T) {
	ts := newTestServer(t, 60)

	rec := ts.do(http.MethodPost, "/api/users", map[string]string{"username": "minh", "password": "matkhau1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	user := decode[core.User](t, rec)
	uid := itoa(user.ID)

	rec = ts.do(http.MethodGet, "/api/categories?type=expense&user_id="+uid, nil)
	cats := decode[[]core.Category](t, rec)
	require.NotEmpty(t, cats)

	dashboard := "/api/analysis/dashboard?month=2024-05&user_id=" + uid
	rec = ts.do(http.MethodGet, dashboard, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "miss", rec.Header().Get("X-Cache"))
	rec = ts.do(http.MethodGet, dashboard, nil)
	assert.Equal(t, "hit", rec.Header().Get("X-Cache"))

	rec = ts.do(http.MethodPost, "/api/transactions", map[string]any{
		"user_id": user.ID, "category_id": cats[0].ID, "amount": 120000, "type": "expense", "date": "2024-05-10", "note": "cơm",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tx := decode[core.Transaction](t, rec)

	rec = ts.do(http.MethodGet, dashboard, nil)
	assert.Equal(t, "miss", rec.Header().Get("X-Cache"), "writes invalidate cached summaries")
	d := decode[core.Dashboard](t, rec)
	require.Len(t, d.Expenses, 1)
	assert.Equal(t, 120000.0, d.Expenses[0].Total)

	rec = ts.do(http.MethodGet, "/api/transactions?month=2024-05&user_id="+uid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]core.Transaction](t, rec), 1)

	rec = ts.do(http.MethodGet, "/api/transactions/summary?month=2024-05&type=expense&user_id="+uid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]core.CategoryTotal](t, rec), 1)

	rec = ts.do(http.MethodGet, "/api/transactions/summary?month=2024-13&user_id="+uid, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/charts/daily.png?month=2024-05&user_id="+uid, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	rec = ts.do(http.MethodGet, "/api/charts/categories.png?month=2023-01&user_id="+uid, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodDelete, "/api/transactions/"+itoa(tx.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(http.MethodDelete, "/api/transactions/"+itoa(tx.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdvisorDisabledDegrades(t *testing.T) {
	ts := newTestServer(t, 60)

	rec := ts.do(http.MethodGet, "/api/advisor/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, false, body["success"])
	assert.NotEmpty(t, body["message"])

	rec = ts.do(http.MethodPost, "/api/advisor/goals/42/plan", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPost, "/api/advisor/ask", map[string]any{"question": "Tôi nên tiết kiệm bao nhiêu?"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode[map[string]any](t, rec)["success"])
}

func TestRateLimitAppliesToWritesOnly(t *testing.T) {
	ts := newTestServer(t, 1)

	rec := ts.do(http.MethodPost, "/api/accounts", map[string]any{"name": "Tiền mặt"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	rec = ts.do(http.MethodPost, "/api/accounts", map[string]any{"name": "Tiền mặt 2"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", decode[ErrorBody](t, rec).Error)

	for i := 0; i < 3; i++ {
		rec = ts.do(http.MethodGet, "/api/accounts", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestSuspiciousRequestBlocked(t *testing.T) {
	ts := newTestServer(t, 60)
	rec := ts.do(http.MethodGet, "/api/goals?q=<script>", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
