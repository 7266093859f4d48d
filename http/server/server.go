package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gclaussn/go-bpmn-query/http/common"
	"github.com/gclaussn/go-bpmn-query/ingest"
	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/gclaussn/go-bpmn-query/projection/pg"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func New(store projection.Store, consumer *ingest.Consumer, customizers ...func(*Options)) (*Server, error) {
	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	var handler http.Handler
	if options.ApiKeyManager != nil {
		handler = &authHandler{
			apiKeyManager: options.ApiKeyManager,
			handler:       mux,
			logger:        options.Logger,
		}
	} else {
		handler = &basicAuthHandler{
			username: options.BasicAuthUsername,
			password: options.BasicAuthPassword,
			handler:  mux,
			logger:   options.Logger,
		}
	}

	// server-wide context for incoming requests
	httpServerCtx, httpServerCancel := context.WithCancel(context.Background())

	httpServer := http.Server{
		Addr: options.BindAddress,
		BaseContext: func(_ net.Listener) context.Context {
			return httpServerCtx
		},
		Handler:      http.TimeoutHandler(handler, options.HandlerTimeout, "handler timed out"),
		IdleTimeout:  options.IdleTimeout,
		ReadTimeout:  options.ReadTimeout,
		WriteTimeout: options.WriteTimeout,
	}

	if options.Configure != nil {
		options.Configure(&httpServer)
	}

	server := Server{
		store:            store,
		consumer:         consumer,
		httpServer:       &httpServer,
		httpServerCtx:    httpServerCtx,
		httpServerCancel: httpServerCancel,
		logger:           options.Logger,
		options:          options,
	}

	gatherer := options.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// operations:start
	mux.HandleFunc("POST "+common.PathEvents, server.consumeEvents)

	mux.HandleFunc("DELETE "+common.PathKind, server.deleteAll)
	mux.HandleFunc("GET "+common.PathKindId, server.findById)
	mux.HandleFunc("POST "+common.PathKindQuery, server.query)

	mux.Handle("GET "+common.PathMetrics, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET "+common.PathReadiness, server.checkReadiness)
	// operations:end

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	return &server, nil
}

func NewOptions() Options {
	return Options{
		BindAddress: "127.0.0.1:8080",

		HandlerTimeout: 30 * time.Second,
		IdleTimeout:    60 * time.Second,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   35 * time.Second,

		ShutdownDelay:       5 * time.Second,
		ShutdownPeriod:      30 * time.Second,
		ShutdownForcePeriod: 5 * time.Second,

		Logger: zap.NewNop(),
	}
}

type Options struct {
	BindAddress string // TCP address for the server to listen on.

	HandlerTimeout time.Duration // Time limit for HTTP handler - when reached, the handler responds with HTTP 503.
	IdleTimeout    time.Duration // Maximum amount of time to wait for the next request, when keep-alives are enabled - see http.Server#IdleTimeout
	ReadTimeout    time.Duration // Maximum duration for reading the entire request - see http.Server#ReadTimeout
	WriteTimeout   time.Duration // Maximum duration before timing out writing the response - see http.Server#WriteTimeout

	ShutdownDelay       time.Duration // Delay between the shutdown signal and the actual shutdown, used to propagate readiness.
	ShutdownPeriod      time.Duration // Period for a graceful shutdown without interrupting ongoing requests.
	ShutdownForcePeriod time.Duration // Period for a forced shutdown, where ongoing requests are canceled.

	ApiKeyManager     pg.ApiKeyManager // Used for API key based authorization.
	BasicAuthUsername string           // Only required if ApiKeyManager is not configured.
	BasicAuthPassword string           // Only required if ApiKeyManager is not configured.

	DeleteAllEnabled bool // Determines if the deletion of all entities of a kind is permitted.

	Gatherer prometheus.Gatherer // Gatherer, exposed via the metrics endpoint. If nil, the default gatherer is used.
	Logger   *zap.Logger

	Configure func(*http.Server) // Optional function, used to configure the underlying HTTP server if needed.
}

func (o Options) Validate() error {
	if o.ApiKeyManager == nil && (o.BasicAuthUsername == "" || o.BasicAuthPassword == "") {
		return errors.New("api key manager or basic auth username and password must be provided")
	}
	if o.Logger == nil {
		return errors.New("logger is nil")
	}
	return nil
}

type Server struct {
	store            projection.Store
	consumer         *ingest.Consumer
	httpServer       *http.Server
	httpServerCtx    context.Context    // server-wide base context for incoming requests
	httpServerCancel context.CancelFunc // invoked after server shutdown to cancel to ongoing requests
	isShuttingDown   atomic.Bool
	logger           *zap.Logger
	options          Options
}

func (s *Server) ListenAndServe() {
	go func() {
		s.logger.Info("server listening", zap.String("address", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Fatal("failed to listen and serve HTTP", zap.Error(err))
		}
	}()
}

// Shutdown shuts the HTTP server down gracefully, followed by the consumer and the store.
func (s *Server) Shutdown() {
	s.isShuttingDown.Store(true)
	s.logger.Info("server is shutting down")

	time.Sleep(s.options.ShutdownDelay)
	s.logger.Info("server is shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.options.ShutdownPeriod)
	defer shutdownCancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.httpServerCancel()
	if err != nil {
		s.logger.Error("failed to shutdown HTTP server", zap.Error(err))
		time.Sleep(s.options.ShutdownForcePeriod)
	}

	s.consumer.Shutdown()
	s.store.Shutdown()
	s.logger.Info("server shut down")
}

// command handler

func (s *Server) consumeEvents(w http.ResponseWriter, r *http.Request) {
	var reqBody common.ConsumeReq
	if err := decodeJSONRequestBody(w, r, &reqBody); err != nil {
		s.encodeJSONProblemResponseBody(w, r, err)
		return
	}

	result, err := s.consumer.Consume(r.Context(), reqBody.Events)
	if err != nil && result.Audited == 0 && result.AuditError == "" {
		// batch has been rejected
		s.encodeJSONProblemResponseBody(w, r, err)
		return
	}

	s.encodeJSONResponseBody(w, r, result, http.StatusOK)
}

func (s *Server) deleteAll(w http.ResponseWriter, r *http.Request) {
	if !s.options.DeleteAllEnabled {
		w.WriteHeader(http.StatusForbidden)
		return
	}

	kind, err := parseKind(r)
	if err != nil {
		s.encodeJSONProblemResponseBody(w, r, err)
		return
	}

	if err := s.store.DeleteAll(r.Context(), kind); err != nil {
		s.encodeJSONProblemResponseBody(w, r, err)
		return
	}

	s.logger.Info("deleted all entities", zap.Stringer("kind", kind))
	w.WriteHeader(http.StatusNoContent)
}

// query handler

func (s *Server) findById(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r)
	if err != nil {
		s.encodeJSONProblemResponseBody(w, r, err)
		return
	}

	entity, err := s.store.FindById(r.Context(), kind, r.PathValue("id"))
	if err != nil {
		s.encodeJSONProblemResponseBody(w, r, err)
		return
	}

	s.encodeJSONResponseBody(w, r, entity, http.StatusOK)
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r)
	if err != nil {
		s.encodeJSONProblemResponseBody(w, r, err)
		return
	}

	options, err := parseQueryOptions(r)
	if err != nil {
		s.encodeJSONProblemResponseBody(w, r, err)
		return
	}

	var filters map[string]string
	if r.ContentLength != 0 {
		if err := decodeJSONRequestBody(w, r, &filters); err != nil {
			s.encodeJSONProblemResponseBody(w, r, err)
			return
		}
	}

	results, err := projection.Find(r.Context(), s.store, kind, filters, options)
	if err != nil {
		s.encodeJSONProblemResponseBody(w, r, err)
		return
	}

	resBody := common.QueryRes{
		Count:   len(results),
		Results: make([]json.RawMessage, len(results)),
	}

	for i, result := range results {
		b, err := json.Marshal(result)
		if err != nil {
			s.encodeJSONProblemResponseBody(w, r, fmt.Errorf("failed to marshal %s: %v", kind, err))
			return
		}
		resBody.Results[i] = b
	}

	s.encodeJSONResponseBody(w, r, resBody, http.StatusOK)
}

// management

func (s *Server) checkReadiness(w http.ResponseWriter, r *http.Request) {
	if s.isShuttingDown.Load() {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("ready"))
}
