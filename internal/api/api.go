package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"classroom-backend/internal/api/middleware"
	"classroom-backend/internal/classroom"
	"classroom-backend/internal/identity"
	"classroom-backend/internal/queue"

	"github.com/prometheus/client_golang/prometheus"
)

type RouteRegistrar func(mux *http.ServeMux, s *APIServer)

// ServerOptions configures the HTTP listener. A nil Registry means the
// process-wide Prometheus registry.
type ServerOptions struct {
	ListenAddr      string
	WebsocketPath   string
	CORSOrigins     []string
	ShutdownTimeout time.Duration
	Registry        *prometheus.Registry
}

type APIServer struct {
	listenAddr          string
	websocketPath       string
	corsOrigins         []string
	shutdownTimeout     time.Duration
	requestQueueManager *queue.RequestQueueManager
	hub                 *classroom.Hub
	verifier            identity.Verifier
	routeRegistrars     []RouteRegistrar
	handler             http.Handler
	metrics             *metrics
}

func NewAPIServer(opts ServerOptions, rqm *queue.RequestQueueManager, hub *classroom.Hub, handler http.Handler, verifier identity.Verifier, registrars ...RouteRegistrar) *APIServer {
	var reg prometheus.Registerer = prometheus.DefaultRegisterer
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if opts.Registry != nil {
		reg, gatherer = opts.Registry, opts.Registry
	}

	return &APIServer{
		listenAddr:          opts.ListenAddr,
		websocketPath:       opts.WebsocketPath,
		corsOrigins:         opts.CORSOrigins,
		shutdownTimeout:     opts.ShutdownTimeout,
		requestQueueManager: rqm,
		hub:                 hub,
		verifier:            verifier,
		handler:             handler,
		routeRegistrars:     registrars,
		metrics:             newMetrics(reg, gatherer, opts.ListenAddr, rqm),
	}
}

// Routes builds the full request handler. Requests for the websocket path go
// to the room handler untouched by the metrics recorder; everything else,
// including upgrade requests for other paths, goes to the ordinary mux.
func (s *APIServer) Routes() http.Handler {
	mux := http.NewServeMux()

	for _, reg := range s.routeRegistrars {
		reg(mux, s)
	}

	mux.Handle("/metrics", s.metrics.metricsHandler())

	instrumented := s.metrics.instrument(mux)
	if s.handler == nil || s.websocketPath == "" {
		return instrumented
	}

	upgrade := middleware.Logging()(s.handler.ServeHTTP)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == s.websocketPath {
			upgrade(w, r)
			return
		}
		instrumented.ServeHTTP(w, r)
	})
}

// Run serves until ctx is cancelled, then shuts the listener down. Hijacked
// websocket connections are not tracked by the HTTP server; the Hub closes
// them when its own context ends.
func (s *APIServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.listenAddr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("[API]: server listening on http://localhost%s", s.listenAddr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.shutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	log.Printf("[API]: shutting down server on %s", s.listenAddr)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *APIServer) Hub() *classroom.Hub {
	return s.hub
}

func (s *APIServer) Verifier() identity.Verifier {
	return s.verifier
}
