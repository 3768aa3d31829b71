package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/trademarket/backend-market/internal/catalog"
	"github.com/trademarket/backend-market/internal/config"
	"github.com/trademarket/backend-market/internal/customer"
	"github.com/trademarket/backend-market/internal/events"
	"github.com/trademarket/backend-market/internal/health"
	"github.com/trademarket/backend-market/internal/lock"
	"github.com/trademarket/backend-market/internal/obs"
	"github.com/trademarket/backend-market/internal/ratelimit"
	"github.com/trademarket/backend-market/internal/receipt"
	"github.com/trademarket/backend-market/internal/security"
	"github.com/trademarket/backend-market/internal/stats"
	"github.com/trademarket/backend-market/internal/store/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)

	if cfg.TracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "market-api",
			Endpoint:      cfg.TracingEndpoint,
			SamplingRatio: cfg.TracingSampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "market-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	st := postgres.New(pool)
	validate := validator.New()

	bus := &events.Bus{
		Store:     st,
		Notifiers: []events.Notifier{events.LogNotifier{Logger: logger}},
	}
	locker := lock.Locker{R: redisClient}

	catalogSvc := &catalog.Service{Q: st}
	catalogHandler := &catalog.Handler{Svc: catalogSvc, Validate: validate}

	customerSvc := &customer.Service{Q: st}
	customerHandler := &customer.Handler{Svc: customerSvc, Validate: validate}

	receiptSvc := &receipt.Service{
		Q:       st,
		Lock:    locker,
		LockTTL: cfg.ReceiptLockTTL,
		Events:  bus,
	}
	receiptHandler := &receipt.Handler{Svc: receiptSvc, Validate: validate}

	statsSvc := &stats.Service{Q: st, R: redisClient, TTL: cfg.StatsCacheTTL}
	statsHandler := &stats.Handler{Svc: statsSvc}

	buckets := obs.ParseBucketsCSV(cfg.MetricsBuckets)
	httpMetrics := obs.NewHTTPMetrics(cfg.MetricsNamespace, buckets, nil)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if cfg.TracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(security.Headers{Enable: cfg.SecurityHeaders, EnableHSTS: true}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)
	if cfg.RateLimitMax > 0 {
		r.Use(ratelimit.Handler{
			Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "rl:"},
			Config: ratelimit.Config{
				Key:    ratelimit.ByClientIP,
				Window: cfg.RateLimitWindow,
				Max:    cfg.RateLimitMax,
			},
			OnError: func(err error) { logger.Error().Err(err).Msg("rate limiter") },
		}.Middleware)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	if cfg.EnablePprof {
		r.Mount("/debug/pprof", newPprofMux())
	}

	healthHandler := health.Handler{Checker: readinessChecker{db: pool, redis: redisClient}}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/categories", func(c chi.Router) {
			c.Get("/", catalogHandler.Categories)
			c.Post("/", catalogHandler.CreateCategory)
			c.Route("/{id}", func(child chi.Router) {
				child.Get("/", catalogHandler.Category)
				child.Put("/", catalogHandler.UpdateCategory)
				child.Delete("/", catalogHandler.DeleteCategory)
			})
		})

		v.Route("/products", func(p chi.Router) {
			p.Get("/", catalogHandler.Products)
			p.Post("/", catalogHandler.CreateProduct)
			p.Route("/{id}", func(child chi.Router) {
				child.Get("/", catalogHandler.Product)
				child.Put("/", catalogHandler.UpdateProduct)
				child.Delete("/", catalogHandler.DeleteProduct)
			})
		})

		v.Route("/customers", func(c chi.Router) {
			c.Get("/", customerHandler.List)
			c.Post("/", customerHandler.Create)
			c.Get("/products/{productId}", customerHandler.ByProduct)
			c.Route("/{id}", func(child chi.Router) {
				child.Get("/", customerHandler.Get)
				child.Put("/", customerHandler.Update)
				child.Delete("/", customerHandler.Delete)
			})
		})

		v.Route("/receipts", func(rr chi.Router) {
			rr.Get("/", receiptHandler.List)
			rr.Post("/", receiptHandler.Create)
			rr.Get("/period", receiptHandler.ByPeriod)
			rr.Route("/{id}", func(child chi.Router) {
				child.Get("/", receiptHandler.Get)
				child.Put("/", receiptHandler.Update)
				child.Delete("/", receiptHandler.Delete)
				child.Get("/details", receiptHandler.Details)
				child.Get("/sum", receiptHandler.Sum)
				child.Post("/checkout", receiptHandler.CheckOut)
				child.Post("/products/{productId}/add/{quantity}", receiptHandler.AddProduct)
				child.Post("/products/{productId}/remove/{quantity}", receiptHandler.RemoveProduct)
			})
		})

		v.Route("/statistics", func(s chi.Router) {
			s.Get("/popular-products", statsHandler.PopularProducts)
			s.Get("/customers/{id}/popular-products", statsHandler.CustomerPopularProducts)
			s.Get("/income/{categoryId}", statsHandler.CategoryIncome)
			s.Get("/activity", statsHandler.ValuableCustomers)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("shutting down")
	health.SetReady(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/allocs", pprof.Handler("allocs"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/mutex", pprof.Handler("mutex"))
	return mux
}
