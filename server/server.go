// Package server exposes the session actions over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/YuminosukeSato/automl/pkg/log"
	"github.com/YuminosukeSato/automl/session"
)

// APIVersion is the version prefix of every action route.
const APIVersion = "v1"

// Options configures a Server.
type Options struct {
	Addr           string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxUploadBytes int64
	// DefaultTrainFraction is used when a training request omits train_fraction.
	DefaultTrainFraction float64
}

// Server routes HTTP requests to a session coordinator.
type Server struct {
	coord  *session.Coordinator
	router *mux.Router
	logger log.Logger
	opts   Options
	http   *http.Server
}

// New builds the router. A nil logger uses the global logger.
func New(coord *session.Coordinator, logger log.Logger, opts Options) *Server {
	if logger == nil {
		logger = log.GetLoggerWithName("http")
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 200 << 20
	}
	if opts.DefaultTrainFraction <= 0 || opts.DefaultTrainFraction >= 1 {
		opts.DefaultTrainFraction = 0.7
	}
	s := &Server{
		coord:  coord,
		router: mux.NewRouter(),
		logger: logger,
		opts:   opts,
	}
	s.setupRoutes()
	s.http = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.router,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoveryMiddleware)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/api/" + APIVersion).Subrouter()
	v1.Use(versionMiddleware(APIVersion))

	v1.HandleFunc("/signin", s.handleSignIn).Methods(http.MethodPost)
	v1.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	v1.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)

	v1.HandleFunc("/dataset", s.handleUpload).Methods(http.MethodPost)
	v1.HandleFunc("/dataset", s.handleDataset).Methods(http.MethodGet)
	v1.HandleFunc("/dataset/profile", s.handleProfile).Methods(http.MethodGet)
	v1.HandleFunc("/dataset/profile/{column}/histogram.png", s.handleHistogram).Methods(http.MethodGet)

	v1.HandleFunc("/features/ignore", s.handleIgnore).Methods(http.MethodPost)
	v1.HandleFunc("/features/restore", s.handleRestore).Methods(http.MethodPost)

	v1.HandleFunc("/training/preview", s.handlePreview).Methods(http.MethodGet)
	v1.HandleFunc("/training", s.handleTrain).Methods(http.MethodPost)
	v1.HandleFunc("/training/result", s.handleResult).Methods(http.MethodGet)

	v1.HandleFunc("/models/{kind}", s.handleDownload).Methods(http.MethodGet)
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until Shutdown is called. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("Starting server", "addr", s.opts.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.http.Shutdown(ctx)
}
