package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/model"
	domainservice "github.com/linkflow-ai/linkflow-ai/internal/execution/domain/service"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/database"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/logger"
)

var (
	outputHandlerPollsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "miniflow", Subsystem: "output_handler", Name: "polls_total",
		Help: "Total number of output handler poll ticks.",
	})
	outputHandlerProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "miniflow", Subsystem: "output_handler", Name: "results_processed_total",
		Help: "Total number of task results processed, labeled by status.",
	}, []string{"status"})
	outputHandlerIntervalSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "miniflow", Subsystem: "output_handler", Name: "poll_interval_seconds",
		Help: "Current adaptive poll interval.",
	})
)

// ResultFetcher abstracts fetching TaskResults; in this engine, results and
// tasks travel over the same transport but in opposite directions, so a
// dedicated queue/topic implements this over whatever the deployment uses
// (a second Redis list, a Kafka consumer group, etc).
type ResultFetcher interface {
	PollResults(ctx context.Context, max int) ([]model.TaskResult, error)
}

// OutputHandlerConfig bounds the loop's concurrency, batch sizing and
// adaptive polling envelope (§5, §6).
type OutputHandlerConfig struct {
	BatchSize   int
	MaxWorkers  int
	MinInterval time.Duration
	MaxInterval time.Duration
}

// OutputHandler is the long-lived loop that ingests TaskResults and drives
// the OutputScheduler's result-propagation logic (§4.4).
type OutputHandler struct {
	db        *database.DB
	scheduler *domainservice.OutputScheduler
	results   ResultFetcher
	cfg       OutputHandlerConfig
	logger    logger.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewOutputHandler wires the loop over an already-constructed
// OutputScheduler and result source.
func NewOutputHandler(db *database.DB, scheduler *domainservice.OutputScheduler, results ResultFetcher, cfg OutputHandlerConfig, log logger.Logger) *OutputHandler {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 4
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 200 * time.Millisecond
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = 5 * time.Second
	}
	return &OutputHandler{db: db, scheduler: scheduler, results: results, cfg: cfg, logger: log}
}

// Start launches the polling goroutine.
func (h *OutputHandler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.wg.Add(1)
	go h.run(ctx)
}

// Stop signals the loop to exit and waits for its current tick to finish.
func (h *OutputHandler) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
	h.wg.Wait()
}

func (h *OutputHandler) run(ctx context.Context) {
	defer h.wg.Done()

	interval := h.cfg.MinInterval
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			outputHandlerPollsTotal.Inc()
			processed, err := h.tick(ctx)
			if err != nil {
				h.logger.Error("output handler tick failed", "error", err)
			}

			if processed > 0 {
				interval = maxDuration(h.cfg.MinInterval, time.Duration(float64(interval)*0.8))
			} else {
				interval = minDuration(h.cfg.MaxInterval, time.Duration(float64(interval)*1.2))
			}
			outputHandlerIntervalSeconds.Set(interval.Seconds())
			timer.Reset(interval)
		}
	}
}

// tick pulls up to BatchSize results and processes each within its own
// transaction, bounded by MaxWorkers concurrent ingestions. Failures
// processing one result never block the others.
func (h *OutputHandler) tick(ctx context.Context) (int, error) {
	results, err := h.results.PollResults(ctx, h.cfg.BatchSize)
	if err != nil {
		return 0, model.ResultProcessingError("", "", err)
	}
	if len(results) == 0 {
		return 0, nil
	}

	sem := make(chan struct{}, h.cfg.MaxWorkers)
	var wg sync.WaitGroup
	var processed int32Counter

	for _, result := range results {
		result := result
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			var outcome *domainservice.ProcessResultOutcome
			err := h.db.Transaction(ctx, func(tx *sql.Tx) error {
				var err error
				outcome, err = h.scheduler.ProcessExecutionResult(ctx, tx, result)
				return err
			})
			if err != nil {
				h.logger.Error("failed to process task result",
					"execution_id", result.ExecutionID, "node_id", result.NodeID, "error", err)
				return
			}

			outputHandlerProcessedTotal.WithLabelValues(outcome.Status).Inc()
			processed.add(1)
		}()
	}
	wg.Wait()

	return processed.get(), nil
}

// int32Counter is a tiny race-free counter for the tick's processed count,
// incremented concurrently by worker goroutines.
type int32Counter struct {
	mu  sync.Mutex
	val int
}

func (c *int32Counter) add(n int) {
	c.mu.Lock()
	c.val += n
	c.mu.Unlock()
}

func (c *int32Counter) get() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.val
}
