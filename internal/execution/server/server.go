// Package server wires the execution service's domain, application, and
// adapter layers into a runnable HTTP server, following the functional-
// options construction pattern shared by every service under cmd/services.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/linkflow-ai/linkflow-ai/internal/credential"
	"github.com/linkflow-ai/linkflow-ai/internal/execution/adapters/filestore"
	"github.com/linkflow-ai/linkflow-ai/internal/execution/adapters/http/handlers"
	"github.com/linkflow-ai/linkflow-ai/internal/execution/adapters/queue"
	"github.com/linkflow-ai/linkflow-ai/internal/execution/adapters/repository/postgres"
	"github.com/linkflow-ai/linkflow-ai/internal/execution/app/service"
	domainservice "github.com/linkflow-ai/linkflow-ai/internal/execution/domain/service"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/cache"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/config"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/database"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/logger"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/messaging/kafka"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/metrics"
)

// Server represents the execution service server: an HTTP API over
// ExecutionService, plus the two background loops (InputHandler,
// OutputHandler) that actually drive workflow runs forward.
type Server struct {
	config     *config.Config
	logger     logger.Logger
	telemetry  interface{}
	httpServer *http.Server
	metrics    *metrics.Metrics

	db             *database.DB
	cache          *cache.RedisCache
	eventPublisher *kafka.EventPublisher
	engineQueue    queue.EngineQueue
	resultQueue    resultFetcherCloser

	executionService *service.ExecutionService
	inputHandler     *service.InputHandler
	outputHandler    *service.OutputHandler
}

// resultFetcherCloser is satisfied by both queue.ResultQueue implementations;
// the output handler only needs the Poll half, but the server needs Close
// too during shutdown.
type resultFetcherCloser interface {
	service.ResultFetcher
	Close() error
}

// Option is a server configuration option.
type Option func(*Server)

// WithConfig sets the server config.
func WithConfig(cfg *config.Config) Option {
	return func(s *Server) { s.config = cfg }
}

// WithLogger sets the server logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Server) { s.logger = log }
}

// WithTelemetry sets the server telemetry handle.
func WithTelemetry(telemetry interface{}) Option {
	return func(s *Server) { s.telemetry = telemetry }
}

// New builds and initializes an execution server from the given options.
func New(opts ...Option) (*Server, error) {
	s := &Server{}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize server: %w", err)
	}

	return s, nil
}

func (s *Server) initialize() error {
	db, err := database.New(s.config.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	s.db = db

	// Cache is optional: StartExecution/GetExecution degrade to always
	// hitting Postgres if Redis is unreachable at startup.
	if s.config.Redis.Host != "" {
		redisCache, err := cache.NewRedisCache(cache.Config{
			Host: s.config.Redis.Host, Port: s.config.Redis.Port,
			Password: s.config.Redis.Password, DB: s.config.Redis.DB,
			KeyPrefix: "execution",
		})
		if err != nil {
			s.logger.Warn("failed to initialize redis cache", "error", err)
		} else {
			s.cache = redisCache
		}
	}

	// Event publishing is optional for the same reason: a missing broker
	// at startup degrades to "no lifecycle events published", not a crash.
	if len(s.config.Kafka.Brokers) > 0 {
		publisher, err := kafka.NewEventPublisher(&kafka.Config{
			Brokers: s.config.Kafka.Brokers, Topic: "execution-events",
		})
		if err != nil {
			s.logger.Warn("failed to initialize kafka publisher", "error", err)
		} else {
			s.eventPublisher = publisher
		}
	}

	encryptor, err := credential.NewEncryptor(&credential.EncryptionConfig{
		Key: s.config.Encryption.Key, KeyType: s.config.Encryption.KeyType,
		Salt: s.config.Encryption.Salt, Iterations: s.config.Encryption.Iterations,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize credential encryptor: %w", err)
	}

	files, err := filestore.NewS3FileStore(context.Background(), filestore.Config{
		Region: s.config.FileStore.Region, Endpoint: s.config.FileStore.Endpoint,
		AccessKeyID: s.config.FileStore.AccessKeyID, SecretAccessKey: s.config.FileStore.SecretAccessKey,
		UsePathStyle: s.config.FileStore.UsePathStyle,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize file store: %w", err)
	}

	executions := postgres.NewExecutionRepository()
	inputs := postgres.NewExecutionInputRepository()
	outputs := postgres.NewExecutionOutputRepository()
	workflows := postgres.NewWorkflowRepository()
	triggers := postgres.NewTriggerRepository()
	nodes := postgres.NewNodeRepository()
	edges := postgres.NewEdgeRepository()
	scripts := postgres.NewScriptRepository()
	customScripts := postgres.NewCustomScriptRepository()
	resources := postgres.NewResourceRepository(db, encryptor, files)

	resolver := domainservice.NewReferenceResolver(resources, outputs)
	launcher := domainservice.NewLauncher(executions, inputs, workflows, triggers, nodes, edges, scripts, customScripts)
	inputScheduler := domainservice.NewInputScheduler(executions, inputs, nodes, resolver)
	outputScheduler := domainservice.NewOutputScheduler(executions, inputs, outputs, edges)

	if err := s.initQueues(); err != nil {
		return fmt.Errorf("failed to initialize queues: %w", err)
	}

	s.executionService = service.NewExecutionService(db, executions, launcher, s.eventPublisher, s.cache, s.logger)

	s.inputHandler = service.NewInputHandler(db, inputScheduler, s.engineQueue, service.InputHandlerConfig{
		BatchSize: s.config.InputHandler.BatchSize, MaxWorkers: s.config.InputHandler.MaxWorkers,
		MinInterval: s.config.InputHandler.MinPollInterval, MaxInterval: s.config.InputHandler.MaxPollInterval,
		SubmitMaxRetries: s.config.InputHandler.SubmitMaxRetries, SubmitBackoff: s.config.InputHandler.SubmitBackoff,
	}, s.logger)

	s.outputHandler = service.NewOutputHandler(db, outputScheduler, s.resultQueue, service.OutputHandlerConfig{
		BatchSize: s.config.OutputHandler.BatchSize, MaxWorkers: s.config.OutputHandler.MaxWorkers,
		MinInterval: s.config.OutputHandler.MinPollInterval, MaxInterval: s.config.OutputHandler.MaxPollInterval,
	}, s.logger)

	s.metrics = metrics.NewMetrics("execution")
	s.metrics.Register()

	s.setupHTTPServer()

	return nil
}

// initQueues picks the engine/result queue transport per config.EngineQueue.Backend.
// "redis" shares one connection namespace across every engine worker process;
// "memory" only makes sense for a single-process deployment or tests.
func (s *Server) initQueues() error {
	switch s.config.EngineQueue.Backend {
	case "redis":
		redisCfg := queue.RedisEngineQueueConfig{
			Addr: s.config.Redis.Addr(), Password: s.config.Redis.Password,
			DB: s.config.Redis.DB, QueueName: s.config.EngineQueue.QueueName,
		}
		engineQueue, err := queue.NewRedisEngineQueue(redisCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize redis engine queue: %w", err)
		}
		resultQueue, err := queue.NewRedisResultQueue(redisCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize redis result queue: %w", err)
		}
		s.engineQueue = engineQueue
		s.resultQueue = resultQueue
	default:
		s.engineQueue = queue.NewInMemoryEngineQueue()
		s.resultQueue = queue.NewInMemoryResultQueue()
	}
	return nil
}

func (s *Server) setupHTTPServer() {
	router := mux.NewRouter()

	router.Use(s.loggingMiddleware)
	router.Use(s.recoveryMiddleware)
	router.Use(s.metrics.HTTPMetricsMiddleware())

	router.HandleFunc("/health/live", s.handleLiveness).Methods("GET")
	router.HandleFunc("/health/ready", s.handleReadiness).Methods("GET")
	router.Handle("/metrics", s.metrics.Handler()).Methods("GET")

	apiRouter := router.PathPrefix("/api/v1").Subrouter()

	executionHandler := handlers.NewExecutionHandler(s.executionService, s.logger)
	executionHandler.RegisterRoutes(apiRouter)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.HTTP.Port),
		Handler:      router,
		ReadTimeout:  s.config.HTTP.ReadTimeout,
		WriteTimeout: s.config.HTTP.WriteTimeout,
		IdleTimeout:  s.config.HTTP.IdleTimeout,
	}
}

// Start launches the background handler loops and blocks on the HTTP server.
func (s *Server) Start() error {
	ctx := context.Background()
	s.inputHandler.Start(ctx)
	s.outputHandler.Start(ctx)

	s.logger.Info("starting HTTP server", "port", s.config.HTTP.Port)
	return s.httpServer.ListenAndServe()
}

// Handler returns the HTTP handler for the server, for tests that want to
// drive it without binding a port.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Shutdown stops the background loops, then the HTTP server, then closes
// every resource the server opened.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down execution server")

	s.inputHandler.Stop()
	s.outputHandler.Stop()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("http server shutdown error", "error", err)
	}

	if s.engineQueue != nil {
		_ = s.engineQueue.Close()
	}
	if s.resultQueue != nil {
		_ = s.resultQueue.Close()
	}
	if s.eventPublisher != nil {
		_ = s.eventPublisher.Close()
	}
	if s.cache != nil {
		_ = s.cache.Close()
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		}
	}

	return nil
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"alive"}`)
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if err := s.db.HealthCheck(r.Context()); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintf(w, `{"status":"not ready","error":"%s"}`, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ready"}`)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("http request completed",
			"method", r.Method, "path", r.URL.Path, "duration_ms", time.Since(start).Milliseconds())
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic recovered", "error", err)
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"error":"internal server error"}`)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
