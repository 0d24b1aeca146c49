package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"tietkiem/internal/advisor"
	"tietkiem/internal/cache"
	"tietkiem/internal/core"
	applog "tietkiem/internal/log"
	"tietkiem/internal/middleware/ratelimit"
	"tietkiem/internal/middleware/security"
	"tietkiem/internal/middleware/trace"
	"tietkiem/internal/services"
)

const (
	summaryCacheSize = 200
	summaryCacheTTL  = 5 * time.Minute
	cacheCleanup     = 10 * time.Minute
	summaryKeyPrefix = "summary:"
)

// Services are the collaborators behind the routes.
type Services struct {
	Users        *services.UserService
	Categories   *services.CategoryService
	Savings      *services.SavingsService
	Accounts     *services.AccountService
	Transactions *services.TransactionService
	Analysis     *services.AnalysisService
	Advisor      *advisor.Gateway
}

// Pinger reports database readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Logger              *applog.Logger
	Ready               Pinger
	RateLimitPerMinute  int
	FinancialDataMonths int
}

type Server struct {
	http.Server
	svc     Services
	opts    Options
	logger  *applog.Logger
	limiter *ratelimit.Limiter
	caches  *cache.Manager
	now     func() time.Time

	// month views keyed by "summary:<user>:<month>:<view>"
	categoryCache  *cache.LRUCache[[]core.CategoryTotal]
	dailyCache     *cache.LRUCache[[]core.DailyTotal]
	dashboardCache *cache.LRUCache[core.Dashboard]

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc Services, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.FinancialDataMonths <= 0 {
		opts.FinancialDataMonths = services.DefaultFinancialMonths
	}
	if svc.Advisor == nil {
		svc.Advisor = advisor.Disabled(opts.Logger)
	}

	s := &Server{
		svc:            svc,
		opts:           opts,
		logger:         opts.Logger.WithComponent(applog.ComponentHTTP),
		limiter:        ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		caches:         cache.NewManager(),
		now:            time.Now,
		categoryCache:  cache.NewLRUCache[[]core.CategoryTotal](summaryCacheSize, summaryCacheTTL),
		dailyCache:     cache.NewLRUCache[[]core.DailyTotal](summaryCacheSize, summaryCacheTTL),
		dashboardCache: cache.NewLRUCache[core.Dashboard](summaryCacheSize, summaryCacheTTL),
	}
	s.caches.Register(s.categoryCache)
	s.caches.Register(s.dailyCache)
	s.caches.Register(s.dashboardCache)
	s.caches.StartCleanup(cacheCleanup)

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.middleware(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/users", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)

	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("GET /api/goals/summary", s.handleGoalSummary)
	mux.HandleFunc("GET /api/goals/{id}", s.handleGetGoal)
	mux.HandleFunc("PUT /api/goals/{id}", s.handleUpdateGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)
	mux.HandleFunc("POST /api/goals/{id}/deposit", s.handleDeposit)

	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /api/accounts/{id}", s.handleGetAccount)
	mux.HandleFunc("POST /api/accounts/{id}/recalculate", s.handleRecalculate)
	mux.HandleFunc("POST /api/accounts/{id}/import", s.handleImport)
	mux.HandleFunc("GET /api/accounts/{id}/transactions", s.handleListAccountTransactions)
	mux.HandleFunc("POST /api/accounts/{id}/transactions", s.handleCreateAccountTransaction)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/summary", s.handleTransactionSummary)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/analysis/categories", s.handleCategoryAnalysis)
	mux.HandleFunc("GET /api/analysis/daily", s.handleDailyAnalysis)
	mux.HandleFunc("GET /api/analysis/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/charts/daily.png", s.handleDailyChart)
	mux.HandleFunc("GET /api/charts/categories.png", s.handleCategoryChart)

	mux.HandleFunc("GET /api/advisor/health", s.handleAdvisorHealth)
	mux.HandleFunc("POST /api/advisor/goals/{id}/plan", s.handleAdvisorPlan)
	mux.HandleFunc("POST /api/advisor/ask", s.handleAdvisorAsk)
}

// middleware applies trace, security headers, attack detection and, for
// writes only, rate limiting.
func (s *Server) middleware(next http.Handler) http.Handler {
	detector := security.NewDetector()
	limited := s.limiter.Middleware(detector.ExtractClientIP, s.onRateLimit)(next)

	writesLimited := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
			limited.ServeHTTP(w, r)
		default:
			next.ServeHTTP(w, r)
		}
	})

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(s.logger, detector.ExtractClientIP)
	return tracer.Middleware(headers.Middleware(detector.Middleware(writesLimited)))
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(),
		"Rate limit exceeded", applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "rate_limited", "Quá nhiều yêu cầu, vui lòng thử lại sau").Write(w)
}

// Shutdown stops background cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// invalidateSummaries drops every cached month view after a transaction write.
func (s *Server) invalidateSummaries() {
	n := s.categoryCache.DeletePrefix(summaryKeyPrefix) +
		s.dailyCache.DeletePrefix(summaryKeyPrefix) +
		s.dashboardCache.DeletePrefix(summaryKeyPrefix)
	if n > 0 {
		s.logger.Debug("Summary cache invalidated", "entries", n)
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Ready.Ping(ctx); err != nil {
			s.logger.ErrorContext(r.Context(), "Readiness check failed", applog.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "not_ready", "database unavailable").Write(w)
			return
		}
	}
	NewJSONResponse().Body(map[string]any{"status": "ready", "advisor": s.svc.Advisor.Enabled()}).Write(w)
}
