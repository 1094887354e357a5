package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/linkflow-ai/linkflow-ai/internal/execution/adapters/queue"
	"github.com/linkflow-ai/linkflow-ai/internal/execution/domain/model"
	domainservice "github.com/linkflow-ai/linkflow-ai/internal/execution/domain/service"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/database"
	"github.com/linkflow-ai/linkflow-ai/internal/platform/logger"
)

var (
	inputHandlerPollsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "miniflow", Subsystem: "input_handler", Name: "polls_total",
		Help: "Total number of input handler poll ticks.",
	})
	inputHandlerDispatchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "miniflow", Subsystem: "input_handler", Name: "dispatched_total",
		Help: "Total number of ExecutionInput rows successfully submitted to the engine queue.",
	})
	inputHandlerIntervalSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "miniflow", Subsystem: "input_handler", Name: "poll_interval_seconds",
		Help: "Current adaptive poll interval.",
	})
	inputHandlerSubmissionExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "miniflow", Subsystem: "input_handler", Name: "submission_exhausted_total",
		Help: "Total number of batches that exhausted all engine submission retries. Their ExecutionInput rows remain undeleted and are retried on the next tick.",
	})
)

// InputHandlerConfig bounds the loop's concurrency, batch sizing, adaptive
// polling envelope, and engine submission retries (§5, §6 configuration).
type InputHandlerConfig struct {
	BatchSize       int
	MaxWorkers      int
	MinInterval     time.Duration
	MaxInterval     time.Duration
	SubmitMaxRetries int
	SubmitBackoff   time.Duration
}

// InputHandler is the long-lived loop that selects ready ExecutionInput
// rows, resolves their parameters, and submits them to the engine queue,
// deleting each ExecutionInput only after a durable submission (§4.2).
type InputHandler struct {
	db        *database.DB
	scheduler *domainservice.InputScheduler
	engine    queue.EngineQueue
	cfg       InputHandlerConfig
	logger    logger.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewInputHandler wires the loop over an already-constructed InputScheduler
// and engine queue.
func NewInputHandler(db *database.DB, scheduler *domainservice.InputScheduler, engine queue.EngineQueue, cfg InputHandlerConfig, log logger.Logger) *InputHandler {
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
	if cfg.SubmitMaxRetries <= 0 {
		cfg.SubmitMaxRetries = 3
	}
	if cfg.SubmitBackoff <= 0 {
		cfg.SubmitBackoff = 100 * time.Millisecond
	}
	return &InputHandler{db: db, scheduler: scheduler, engine: engine, cfg: cfg, logger: log}
}

// Start launches the polling goroutine. Call Stop to shut it down cleanly.
func (h *InputHandler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.wg.Add(1)
	go h.run(ctx)
}

// Stop signals the loop to exit and waits for its current tick to finish.
func (h *InputHandler) Stop() {
	if h.cancel != nil {
		h.cancel()
	}
	h.wg.Wait()
}

// run drives the adaptive-interval poll loop: an idle tick (nothing ready)
// backs the interval off by ×1.2 up to MaxInterval, a productive tick
// (something was dispatched) speeds it back up by ×0.8 down to MinInterval
// (§5 adaptive polling backpressure).
func (h *InputHandler) run(ctx context.Context) {
	defer h.wg.Done()

	interval := h.cfg.MinInterval
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			inputHandlerPollsTotal.Inc()
			dispatched, err := h.tick(ctx)
			if err != nil {
				h.logger.Error("input handler tick failed", "error", err)
			}

			if dispatched > 0 {
				interval = maxDuration(h.cfg.MinInterval, time.Duration(float64(interval)*0.8))
			} else {
				interval = minDuration(h.cfg.MaxInterval, time.Duration(float64(interval)*1.2))
			}
			inputHandlerIntervalSeconds.Set(interval.Seconds())
			timer.Reset(interval)
		}
	}
}

// tick runs one selection-resolve-submit-cleanup cycle and returns how many
// ExecutionInput rows it successfully dispatched.
func (h *InputHandler) tick(ctx context.Context) (int, error) {
	var ready []*model.ExecutionInput
	err := h.db.Transaction(ctx, func(tx *sql.Tx) error {
		var err error
		ready, err = h.scheduler.GetReadyExecutionInputs(ctx, tx, h.cfg.BatchSize)
		return err
	})
	if err != nil {
		return 0, err
	}
	if len(ready) == 0 {
		return 0, nil
	}

	sem := make(chan struct{}, h.cfg.MaxWorkers)
	var mu sync.Mutex
	var wg sync.WaitGroup
	payloads := make([]model.TaskPayload, 0, len(ready))
	var okInputs []*model.ExecutionInput

	for _, input := range ready {
		input := input
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			var payload *model.TaskPayload
			err := h.db.Transaction(ctx, func(tx *sql.Tx) error {
				var err error
				payload, err = h.scheduler.CreateExecutionContext(ctx, tx, input)
				return err
			})
			if err != nil {
				h.logger.Error("failed to build execution context", "execution_input_id", input.ID, "error", err)
				return
			}

			mu.Lock()
			payloads = append(payloads, *payload)
			okInputs = append(okInputs, input)
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(payloads) == 0 {
		return 0, nil
	}

	if err := h.submitWithRetry(ctx, payloads); err != nil {
		h.logger.Error("engine submission exhausted retries", "payload_count", len(payloads), "error", err)
		return 0, err
	}

	ids := make([]model.ExecutionInputID, 0, len(okInputs))
	for _, in := range okInputs {
		ids = append(ids, in.ID)
	}
	if err := h.db.Transaction(ctx, func(tx *sql.Tx) error {
		return h.scheduler.RemoveProcessedExecutionInputs(ctx, tx, ids)
	}); err != nil {
		return 0, err
	}

	inputHandlerDispatchedTotal.Add(float64(len(ids)))
	return len(ids), nil
}

// submitWithRetry retries put_bulk with a fixed backoff, surfacing
// ENGINE_SUBMISSION_ERROR once exhausted. Per §5, ExecutionInput rows are
// never deleted before a submission succeeds — a retry exhaustion here
// simply leaves them to be retried on the next tick.
func (h *InputHandler) submitWithRetry(ctx context.Context, payloads []model.TaskPayload) error {
	var lastErr error
	for attempt := 1; attempt <= h.cfg.SubmitMaxRetries; attempt++ {
		ok, err := h.engine.PutBulk(ctx, payloads)
		if err == nil && ok {
			return nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(h.cfg.SubmitBackoff * time.Duration(attempt)):
		}
	}
	inputHandlerSubmissionExhaustedTotal.Inc()
	return model.EngineSubmissionError(len(payloads), h.cfg.SubmitMaxRetries, lastErr)
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
