package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/multierr"

	"github.com/empowerfit/backend/internal/auth"
	"github.com/empowerfit/backend/internal/cache"
	"github.com/empowerfit/backend/internal/config"
	"github.com/empowerfit/backend/internal/db"
	"github.com/empowerfit/backend/internal/gymstats/exercises"
	"github.com/empowerfit/backend/internal/gymstats/weight"
	"github.com/empowerfit/backend/internal/gymstats/workouts"
	"github.com/empowerfit/backend/internal/middleware"
	"github.com/empowerfit/backend/internal/misc"
	"github.com/empowerfit/backend/internal/telemetry/metrics"
	"github.com/empowerfit/backend/internal/telemetry/tracing"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config         *config.Config
	dbPool         *pgxpool.Pool
	redisClient    *redis.Client
	tokenChecker   *auth.TokenChecker
	exercisesCache *cache.JSONCache
	now            func() time.Time

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config      *config.Config
	VersionInfo string
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	if cfg.JWTSecret == "" {
		return nil, errors.New("jwt secret not set")
	}

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		DBUser:         cfg.PostgresUser,
		DBPassword:     cfg.PostgresPassword,
		TracingEnabled: cfg.HoneycombEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	} else if err := db.Migrate(ctx, dbPool); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": cfg.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("backend", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(cfg.HoneycombEnabled, "empowerfit-backend", rdb)
	if err != nil {
		dbPool.Close()
		return nil, err
	}

	return &Server{
		config:      cfg,
		versionInfo: params.VersionInfo,
		dbPool:      dbPool,
		redisClient: rdb,
		tokenChecker: auth.NewTokenChecker(
			auth.NewTokenVerifier([]byte(cfg.JWTSecret), cfg.JWTIssuer),
			auth.NewRevocationStore(rdb),
		),
		exercisesCache: cache.NewJSONCache(cfg.ExercisesCacheSizeMB, cfg.ExercisesCacheTTL.Duration),
		now:            time.Now,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	var dbPinger interface{ Ping(ctx context.Context) error }
	if s.dbPool != nil {
		dbPinger = s.dbPool
	}
	miscHandler := misc.NewHandler(s.versionInfo, dbPinger, func(ctx context.Context) error {
		return s.redisClient.Ping(ctx).Err()
	})
	miscHandler.SetupRoutes(r)

	authHandler := auth.NewHandler(s.tokenChecker)
	r.HandleFunc("/auth/logout", authHandler.HandleLogout).Methods("POST", "OPTIONS").Name("logout")

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
	exportRateLimit := middleware.RateLimit(reqRateLimiter, s.metricsManager, "weight-export", s.config.ExportRateLimitPerMin)
	importRateLimit := middleware.RateLimit(reqRateLimiter, s.metricsManager, "weight-import", s.config.ImportRateLimitPerMin)

	weightHandler := weight.NewHandler(weight.NewRepo(s.dbPool), s.metricsManager, s.now)
	r.HandleFunc("/weight/entries", weightHandler.HandleList).Methods("GET", "OPTIONS").Name("list-weight-entries")
	r.HandleFunc("/weight/entries", weightHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-weight-entry")
	r.HandleFunc("/weight/entries/{id}", weightHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-weight-entry")
	r.HandleFunc("/weight/entries/{id}", weightHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-weight-entry")
	r.HandleFunc("/weight/chart", weightHandler.HandleChart).Methods("GET", "OPTIONS").Name("weight-chart")
	r.HandleFunc("/weight/chart/png", weightHandler.HandleChartPNG).Methods("GET", "OPTIONS").Name("weight-chart-png")
	r.Handle("/weight/export/{format}", exportRateLimit(http.HandlerFunc(weightHandler.HandleExport))).
		Methods("GET", "OPTIONS").Name("weight-export")
	r.Handle("/weight/import", importRateLimit(http.HandlerFunc(weightHandler.HandleImport))).
		Methods("POST", "OPTIONS").Name("weight-import")

	exercisesHandler := exercises.NewHandler(exercises.NewRepo(s.dbPool), s.exercisesCache)
	r.HandleFunc("/exercises", exercisesHandler.HandleList).Methods("GET", "OPTIONS").Name("list-exercises")
	r.HandleFunc("/exercises", exercisesHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-exercise")
	r.HandleFunc("/exercises/{id}", exercisesHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-exercise")

	workoutsHandler := workouts.NewHandler(
		workouts.NewService(workouts.NewRepo(s.dbPool), s.metricsManager),
		s.now,
	)
	r.HandleFunc("/workouts", workoutsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-workouts")
	r.HandleFunc("/workouts", workoutsHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-workout")
	r.HandleFunc("/workouts/quick", workoutsHandler.HandleQuickLog).Methods("POST", "OPTIONS").Name("quick-log")
	r.HandleFunc("/workouts/stats", workoutsHandler.HandleStats).Methods("GET", "OPTIONS").Name("workout-stats")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "DELETE", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.tokenChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) Serve(host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.MetricsHost, s.config.MetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() error {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	// stop taking requests before the stores go away
	var err error
	if s.httpServer != nil {
		if shutdownErr := s.httpServer.Shutdown(ctx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("shutdown http server: %w", shutdownErr))
		}
		log.Warnln("server shut down")
	}
	if s.metricsHttpServer != nil {
		if shutdownErr := s.metricsHttpServer.Shutdown(ctx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("shutdown metrics server: %w", shutdownErr))
		}
		log.Warnln("metrics server shut down")
	}

	if s.otelShutdown != nil {
		s.otelShutdown()
		log.Trace("otel shut down ...")
	}

	if s.redisClient != nil {
		if closeErr := s.redisClient.Close(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("close redis client: %w", closeErr))
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	return err
}
