package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/sdelgado/gymtracker/internal/auth"
	"github.com/sdelgado/gymtracker/internal/config"
	"github.com/sdelgado/gymtracker/internal/db"
	"github.com/sdelgado/gymtracker/internal/exercises"
	"github.com/sdelgado/gymtracker/internal/middleware"
	"github.com/sdelgado/gymtracker/internal/musclegroups"
	"github.com/sdelgado/gymtracker/internal/stats"
	"github.com/sdelgado/gymtracker/internal/telemetry/metrics"
	"github.com/sdelgado/gymtracker/internal/telemetry/tracing"
	"github.com/sdelgado/gymtracker/internal/users"
	"github.com/sdelgado/gymtracker/internal/workouts"
	"github.com/sdelgado/gymtracker/pkg"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config *config.Config
	dbPool *pgxpool.Pool

	tokenService   *auth.TokenService
	googleVerifier *auth.GoogleVerifier

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
	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.Config.TracingEnabled, "gymtracker-backend")
	if err != nil {
		return nil, err
	}

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		ConnString:     params.Config.DatabaseURL,
		TracingEnabled: params.Config.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": "gymtracker_db"},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("gymtracker", "backend", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	return &Server{
		versionInfo: params.VersionInfo,
		config:      params.Config,
		dbPool:      dbPool,

		tokenService:   auth.NewTokenService(params.Config.JWTSecret, auth.DefaultTTL),
		googleVerifier: auth.NewGoogleVerifier(params.Config.GoogleClientID, params.Config.GoogleClientSecret),

		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("gymtracker-router"))

	r.HandleFunc("/", s.handleIndex).Methods("GET", "OPTIONS").Name("index")

	usersHandler := users.NewHandler(
		users.NewRepo(s.dbPool),
		s.googleVerifier,
		s.tokenService,
		s.metricsManager,
	)
	r.HandleFunc("/auth/google", usersHandler.HandleGoogleAuth).Methods("POST", "OPTIONS").Name("google-auth")
	r.HandleFunc("/auth/me", usersHandler.HandleMe).Methods("GET", "OPTIONS").Name("me")

	groupsRepo := musclegroups.NewRepo(s.dbPool)
	groupsHandler := musclegroups.NewHandler(groupsRepo)
	r.HandleFunc("/muscle-groups", groupsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-muscle-groups")
	r.HandleFunc("/muscle-groups", groupsHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-muscle-group")
	r.HandleFunc("/muscle-groups/{id}", groupsHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-muscle-group")
	r.HandleFunc("/muscle-groups/{id}", groupsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("remove-muscle-group")

	templatesRepo := exercises.NewRepo(s.dbPool)
	exercisesHandler := exercises.NewHandler(templatesRepo, groupsRepo)
	r.HandleFunc("/exercises", exercisesHandler.HandleList).Methods("GET", "OPTIONS").Name("list-exercises")
	r.HandleFunc("/exercises", exercisesHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-exercise")
	r.HandleFunc("/exercises/{id}", exercisesHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-exercise")
	r.HandleFunc("/exercises/{id}", exercisesHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("remove-exercise")

	workoutsHandler := workouts.NewHandler(
		workouts.NewRepo(s.dbPool),
		workouts.NewTemplateResolver(templatesRepo, groupsRepo, s.metricsManager),
		s.metricsManager,
	)
	r.HandleFunc("/workouts", workoutsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-workouts")
	r.HandleFunc("/workouts", workoutsHandler.HandleAdd).Methods("POST", "OPTIONS").Name("new-workout")
	r.HandleFunc("/workouts/{id}", workoutsHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-workout")
	r.HandleFunc("/workouts/{id}/exercises", workoutsHandler.HandleAppendExercises).Methods("POST", "OPTIONS").Name("append-workout-exercises")
	r.HandleFunc("/workouts/{id}", workoutsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("remove-workout")

	statsHandler := stats.NewHandler(stats.NewRepo(s.dbPool))
	r.HandleFunc("/stats/ranking", statsHandler.HandleRanking).Methods("GET", "OPTIONS").Name("exercise-ranking")

	// all the rest - unhandled paths
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteJSONError(w, "route not found", http.StatusNotFound)
	})

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.tokenService)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	index := map[string]interface{}{
		"message": "gymtracker api",
		"version": s.versionInfo,
		"endpoints": []string{
			"POST /auth/google",
			"GET /auth/me",
			"GET /muscle-groups",
			"POST /muscle-groups",
			"PUT /muscle-groups/{id}",
			"DELETE /muscle-groups/{id}",
			"GET /exercises",
			"POST /exercises",
			"PUT /exercises/{id}",
			"DELETE /exercises/{id}",
			"GET /workouts",
			"POST /workouts",
			"GET /workouts/{id}",
			"POST /workouts/{id}/exercises",
			"DELETE /workouts/{id}",
			"GET /stats/ranking",
		},
	}

	indexJson, err := json.Marshal(index)
	if err != nil {
		log.Errorf("marshal api index: %s", err)
		pkg.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, indexJson)
}

func (s *Server) Serve(_ context.Context, host string, port int) {
	router := s.routerSetup()

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("gymtracker service, listen and serve: %s", err)
		}
	}()

	if s.config.RuntimeMode == config.RuntimeModeServer {
		metricsRouter := mux.NewRouter()
		metricsRouter.Handle("/metrics", promhttp.HandlerFor(
			s.promRegistry,
			promhttp.HandlerOpts{},
		))
		metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
		s.metricsHttpServer = &http.Server{
			Addr:    metricsAddr,
			Handler: metricsRouter,
		}

		go func() {
			log.Debugf(" > metrics listening on: [%s]", metricsAddr)
			err := s.metricsHttpServer.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatalf("metrics service, listen and serve: %s", err)
			}
		}()
	}

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error(" >>> failed to gracefully shutdown http server")
	}
	log.Warnln("server shut down")

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
