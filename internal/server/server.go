package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"edgekit/internal/balancer"
	"edgekit/internal/breaker"
	"edgekit/internal/cache"
	"edgekit/internal/clock"
	"edgekit/internal/cluster"
	"edgekit/internal/consistency"
)

// Options configures a Server.
type Options struct {
	Logger        *zap.Logger
	ListenAddress string
	Cache         *cache.Cache
	Balancer      *balancer.Balancer
	Consistency   *consistency.Manager
	Breaker       *breaker.Breaker

	// Registry receives the server's collectors; a fresh registry is used
	// when nil.
	Registry *prometheus.Registry
}

// Server is the HTTP surface over the cache, balancer, consistency manager
// and breaker.
type Server struct {
	logger      *zap.Logger
	listenAddr  string
	cache       *cache.Cache
	balancer    *balancer.Balancer
	consistency *consistency.Manager
	breaker     *breaker.Breaker
	metrics     *Metrics

	router     *mux.Router
	httpServer *http.Server
}

// New builds a server and its routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	s := &Server{
		logger:      logger,
		listenAddr:  opts.ListenAddress,
		cache:       opts.Cache,
		balancer:    opts.Balancer,
		consistency: opts.Consistency,
		breaker:     opts.Breaker,
		metrics:     NewMetrics(registry),
	}

	r := mux.NewRouter()
	r.Use(s.requestLogger)
	r.HandleFunc("/v1/cache/{key}", s.handleGetKey).Methods(http.MethodGet)
	r.HandleFunc("/v1/cache/{key}", s.handlePutKey).Methods(http.MethodPut)
	r.HandleFunc("/v1/route", s.handleRoute).Methods(http.MethodGet)
	r.HandleFunc("/v1/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	s.router = r

	return s
}

// Router returns the handler, mainly for tests.
func (s *Server) Router() http.Handler { return s.router }

// ListenAndServe serves until Shutdown or a listener error.
func (s *Server) ListenAndServe() error {
	s.httpServer = &http.Server{
		Handler:      s.router,
		Addr:         s.listenAddr,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

type statusCodeResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusCodeResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// requestLogger tags every request with an ID and logs its outcome.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)

		statusW := &statusCodeResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(statusW, r)

		s.logger.Debug("handled request",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", statusW.statusCode),
			zap.Duration("elapsed", time.Since(start)))
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Debug("failed to write response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

type getKeyResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Node  string `json:"node"`
}

func (s *Server) handleGetKey(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	value, ok := s.cache.Get(key)
	if !ok {
		s.metrics.CacheMisses.Inc()
		s.writeError(w, http.StatusNotFound, "key not found")
		return
	}

	s.metrics.CacheHits.Inc()
	s.writeJSON(w, http.StatusOK, getKeyResponse{
		Key:   key,
		Value: value,
		Node:  s.cache.Owner(key).ID(),
	})
}

type putKeyRequest struct {
	Value string `json:"value"`
}

type putKeyResponse struct {
	Key      string   `json:"key"`
	Primary  string   `json:"primary"`
	Replicas []string `json:"replicas"`
	Version  string   `json:"version"`
}

func (s *Server) handlePutKey(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	var req putKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	primary := s.cache.Owner(key)
	result, err := s.breaker.Call(func() (any, error) {
		v := s.consistency.Write(key, req.Value, primary.ID())
		s.cache.Set(key, req.Value)
		return v, nil
	})
	s.metrics.BreakerState.Set(float64(s.breaker.State()))
	if err != nil {
		if errors.Is(err, breaker.ErrCircuitOpen) {
			s.metrics.OpenRejections.Inc()
			s.writeError(w, http.StatusServiceUnavailable, "circuit open")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	replicas := s.cache.Replicas(key)
	replicaIDs := make([]string, 0, len(replicas))
	for _, n := range replicas {
		replicaIDs = append(replicaIDs, n.ID())
	}

	version, _ := result.(clock.VectorClock)

	s.metrics.CacheWrites.Inc()
	s.writeJSON(w, http.StatusOK, putKeyResponse{
		Key:      key,
		Primary:  primary.ID(),
		Replicas: replicaIDs,
		Version:  version.String(),
	})
}

type routeResponse struct {
	Node      string  `json:"node"`
	Region    string  `json:"region"`
	LatencyMS float64 `json:"latency_ms"`
	Fallback  bool    `json:"fallback"`
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	if region == "" {
		s.writeError(w, http.StatusBadRequest, "region query parameter is required")
		return
	}
	service := r.URL.Query().Get("service")

	route := s.balancer.RouteRequest(cluster.Region(region), service)
	s.metrics.RouteRequests.Inc()
	if route.Fallback {
		s.metrics.RouteFallbacks.Inc()
	}

	s.writeJSON(w, http.StatusOK, routeResponse{
		Node:      route.Node.ID(),
		Region:    string(route.Node.Region()),
		LatencyMS: float64(route.Latency.Microseconds()) / 1000,
		Fallback:  route.Fallback,
	})
}

type healthEntry struct {
	Healthy   bool    `json:"healthy"`
	LoadRatio float64 `json:"load_ratio"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.balancer.HealthCheck()

	body := make(map[string]healthEntry, len(report))
	for id, h := range report {
		body[id] = healthEntry{Healthy: h.Healthy, LoadRatio: h.LoadRatio}
	}
	s.writeJSON(w, http.StatusOK, body)
}
