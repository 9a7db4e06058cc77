package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/adaptive-routing/banditsim/internal/api"
	"github.com/adaptive-routing/banditsim/internal/engine"
	"github.com/adaptive-routing/banditsim/internal/metrics"
	"github.com/adaptive-routing/banditsim/internal/session"
	botel "github.com/adaptive-routing/banditsim/pkg/otel"
)

const (
	tracerName  = "banditsim.server"
	maxRunSteps = 100_000
)

type Server struct {
	store   *session.Store
	metrics *metrics.Metrics
	limiter *rate.Limiter
	logger  zerolog.Logger
}

func init() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}
}

func main() {
	lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)
	logger := log.With().Str("component", "server").Logger()

	// Session store
	sessionLimit := getEnvInt("SESSION_LIMIT", 64)
	sessionTTL := time.Duration(getEnvInt("SESSION_TTL_MIN", 120)) * time.Minute
	store, err := session.NewStore(sessionLimit, sessionTTL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create session store")
	}

	// Metrics and rate limiting
	m := metrics.New()
	tokenRate := getEnvInt("TOKEN_RATE", 100)
	limiter := rate.NewLimiter(rate.Limit(tokenRate), tokenRate*2)

	// Optional tracing
	if getEnv("OTEL_ENABLED", "") == "1" {
		cfg := botel.DefaultConfig("banditsim")
		cfg.CollectorEndpoint = getEnv("OTEL_COLLECTOR", cfg.CollectorEndpoint)
		tp, err := botel.InitTracer(context.Background(), cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize tracing")
		}
		defer func() {
			if err := botel.Shutdown(context.Background(), tp); err != nil {
				logger.Error().Err(err).Msg("tracer shutdown error")
			}
		}()
	}

	srv := &Server{
		store:   store,
		metrics: m,
		limiter: limiter,
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/simulations", srv.handleCreate)
	mux.HandleFunc("GET /v1/simulations/{id}", srv.handleState)
	mux.HandleFunc("POST /v1/simulations/{id}/step", srv.handleStep)
	mux.HandleFunc("POST /v1/simulations/{id}/run", srv.handleRun)
	mux.HandleFunc("PUT /v1/simulations/{id}/parameters", srv.handleUpdateParameters)
	mux.HandleFunc("DELETE /v1/simulations/{id}", srv.handleDelete)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", handleHealth)

	port := getEnv("PORT", "8080")
	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info().Str("port", port).Msg("starting server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-shutdown
	logger.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	logger.Info().Msg("server stopped")
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w) {
		return
	}
	s.metrics.RequestsTotal.WithLabelValues("create").Inc()

	params := api.DefaultSimParams()
	if err := decodeBody(r, &params); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	eng, err := engine.New(params, s.logger.With().Str("component", "engine").Logger())
	if err != nil {
		s.respondError(w, err)
		return
	}

	sess := s.store.Create(eng)
	s.observeStore()
	s.logger.Info().Str("simulation_id", sess.ID).Msg("simulation created")

	respondJSON(w, http.StatusCreated, map[string]string{"id": sess.ID})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w) {
		return
	}
	s.metrics.RequestsTotal.WithLabelValues("state").Inc()

	sess, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		http.Error(w, "Simulation not found", http.StatusNotFound)
		return
	}

	var state api.EngineState
	_ = sess.Do(func(e *engine.Engine) error {
		state = e.Snapshot()
		return nil
	})
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w) {
		return
	}
	s.metrics.RequestsTotal.WithLabelValues("step").Inc()

	sess, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		http.Error(w, "Simulation not found", http.StatusNotFound)
		return
	}

	_, span := botel.StartSpan(r.Context(), tracerName, "simulation.step",
		botel.AttrSimulationID.String(sess.ID))
	defer span.End()

	var state api.EngineState
	_ = sess.Do(func(e *engine.Engine) error {
		selected := e.Step()
		span.SetAttributes(botel.AttrModel.String(selected))
		state = e.Snapshot()
		return nil
	})

	s.metrics.StepsTotal.Inc()
	s.metrics.ObserveState(state)
	span.SetAttributes(botel.AttrIteration.Int(state.CurrentIteration))
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w) {
		return
	}
	s.metrics.RequestsTotal.WithLabelValues("run").Inc()

	sess, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		http.Error(w, "Simulation not found", http.StatusNotFound)
		return
	}

	var req struct {
		Steps int `json:"steps"`
	}
	if err := decodeBody(r, &req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Steps < 1 || req.Steps > maxRunSteps {
		http.Error(w, "steps must be between 1 and 100000", http.StatusBadRequest)
		return
	}

	ctx, span := botel.StartSpan(r.Context(), tracerName, "simulation.run",
		botel.AttrSimulationID.String(sess.ID),
		botel.AttrSteps.Int(req.Steps))
	defer span.End()

	var (
		state     api.EngineState
		completed int
	)
	err := sess.Do(func(e *engine.Engine) error {
		// Client disconnect cancels between steps.
		n, err := e.Run(ctx, req.Steps)
		completed = n
		state = e.Snapshot()
		return err
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		botel.RecordError(span, err)
		s.respondError(w, err)
		return
	}

	s.metrics.StepsTotal.Add(float64(completed))
	s.metrics.ObserveState(state)
	span.SetAttributes(botel.AttrIteration.Int(state.CurrentIteration))
	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleUpdateParameters(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w) {
		return
	}
	s.metrics.RequestsTotal.WithLabelValues("update").Inc()

	sess, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		http.Error(w, "Simulation not found", http.StatusNotFound)
		return
	}

	var params api.UpdateParams
	if err := decodeBody(r, &params); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := sess.Do(func(e *engine.Engine) error {
		return e.UpdateParameters(params)
	}); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.allow(w) {
		return
	}
	s.metrics.RequestsTotal.WithLabelValues("delete").Inc()

	s.store.Delete(r.PathValue("id"))
	s.observeStore()
	w.WriteHeader(http.StatusNoContent)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) allow(w http.ResponseWriter) bool {
	if !s.limiter.Allow() {
		w.Header().Set("Retry-After", "10")
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return false
	}
	return true
}

func (s *Server) observeStore() {
	_, _, evicted := s.store.Stats()
	s.metrics.SessionsLive.Set(float64(s.store.Len()))
	s.metrics.SessionsEvicted.Set(float64(evicted))
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, api.ErrInvalidParameter) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Error().Err(err).Msg("internal error")
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func decodeBody(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
