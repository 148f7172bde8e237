package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/backend-lims/internal/app"
	"github.com/noah-isme/backend-lims/internal/common"
	"github.com/noah-isme/backend-lims/internal/config"
	"github.com/noah-isme/backend-lims/internal/health"
	"github.com/noah-isme/backend-lims/internal/invoice"
	"github.com/noah-isme/backend-lims/internal/obs"
	"github.com/noah-isme/backend-lims/internal/order"
	"github.com/noah-isme/backend-lims/internal/qc"
	"github.com/noah-isme/backend-lims/internal/ratelimit"
	"github.com/noah-isme/backend-lims/internal/report"
	"github.com/noah-isme/backend-lims/internal/repo"
	"github.com/noah-isme/backend-lims/internal/security"
)

const serviceName = "lims-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	deps, err := app.New(startCtx, cfg, serviceName)
	cancel()
	if err != nil {
		panic(err)
	}
	logger := deps.Logger
	defer deps.Close(context.Background())

	if cfg.MigrateOnStart {
		if err := deps.Migrate(); err != nil {
			logger.Fatal().Err(err).Msg("migrate on start")
		}
	}

	orders := deps.Orders()
	workflowRepo := repo.WorkflowRepo{DB: deps.DB}
	manager := deps.InvoiceManager()

	orderHandler := &order.Handler{
		Repo:      orders,
		Settings:  cfg,
		Workflow:  workflowRepo,
		Directory: repo.UserDirectory{DB: deps.DB},
	}
	qcHandler := &qc.Handler{Repo: orders}
	invoiceHandler := &invoice.Handler{
		Orders:   orders,
		Manager:  manager,
		Queue:    deps.InvoiceTasks(),
		Validate: deps.Validator,
	}
	reportHandler := &report.Handler{Svc: deps.ReportService(), Validate: deps.Validator, Location: cfg.Location}

	idem := common.Idem{R: deps.Redis, TTL: cfg.IdempotencyTTL}

	limiterStore, err := ratelimit.NewRedisStore(deps.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limit store")
	}
	reportLimiter, err := ratelimit.New(limiterStore, cfg.ReportRateLimit)
	if err != nil {
		logger.Fatal().Err(err).Str("rate", cfg.ReportRateLimit).Msg("parse report rate limit")
	}
	reportLimit := ratelimit.Handler{
		Limiter: reportLimiter,
		Key:     ratelimit.ByClientIP("reports"),
		OnError: func(err error) { logger.Warn().Err(err).Msg("rate limit store unavailable") },
	}

	var httpMetrics *obs.HTTPMetrics
	if cfg.MetricsEnabled {
		httpMetrics = obs.NewHTTPMetrics(cfg.MetricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBuckets), nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.TracingEnabled {
		r.Use(obs.RouteSpanNamer)
	}
	if httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{EnableHSTS: cfg.IsProduction()}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key"},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if cfg.PprofEnabled {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), cfg.PprofUser, cfg.PprofPassword))
	}

	healthHandler := health.Handler{
		Checker:      health.Probes{DB: deps.DB, Redis: deps.Redis},
		DBTimeout:    cfg.ReadyDBTimeout,
		RedisTimeout: cfg.ReadyRedisTimeout,
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/orders/{orderID}", func(o chi.Router) {
			o.Get("/valuation", orderHandler.Valuation)
			o.Get("/overview", orderHandler.Overview)
			o.Get("/qc", qcHandler.List)
			o.With(idem.Middleware).Post("/invoice", invoiceHandler.IssueOrder)
		})
		v.With(idem.Middleware).Post("/invoices/ad-hoc", invoiceHandler.EnqueueAdHoc)
		v.With(reportLimit.Middleware).Get("/reports/samples-received", reportHandler.SamplesReceived)
	})

	var handler http.Handler = r
	if cfg.TracingEnabled {
		handler = otelhttp.NewHandler(r, serviceName)
	}
	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
		return
	case <-ctx.Done():
	}

	health.SetReady(false)
	logger.Info().Msg("server draining")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		mux.Handle("/"+name, pprof.Handler(name))
	}
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
