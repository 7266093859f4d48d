package ingest

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gclaussn/go-bpmn-query/projection"
	"github.com/go-playground/validator/v10"
	"github.com/mohae/deepcopy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// aggregateLocks is the number of locks, aggregates are mapped to.
const aggregateLocks = 256

// ErrShutdown is returned, when a batch is consumed after the consumer has been shut down.
var ErrShutdown = errors.New("consumer is shut down")

func NewConsumer(store projection.Store, customizers ...func(*Options)) (*Consumer, error) {
	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	metrics, err := newMetrics(options.Registerer)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %v", err)
	}

	logger := options.Logger

	consumer := Consumer{
		store:    store,
		logger:   logger,
		metrics:  metrics,
		validate: newValidate(),
		jobs:     make(chan job),
		locks:    make([]sync.Mutex, aggregateLocks),
	}

	consumer.breaker = gobreaker.NewCircuitBreaker[[]projection.AuditEvent](gobreaker.Settings{
		Name:    "audit-log",
		Timeout: options.AuditBreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= options.AuditBreakerFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	for range options.Workers {
		consumer.wg.Add(1)
		go consumer.work()
	}

	return &consumer, nil
}

func NewOptions() Options {
	return Options{
		Workers: runtime.NumCPU(),

		AuditBreakerFailures: 5,
		AuditBreakerTimeout:  30 * time.Second,

		Logger: zap.NewNop(),
	}
}

type Options struct {
	Workers int // Number of workers, projecting batches of distinct aggregates in parallel.

	AuditBreakerFailures uint32        // Number of consecutive audit log failures, which open the circuit breaker.
	AuditBreakerTimeout  time.Duration // Time, the circuit breaker stays open, before it lets a trial append pass.

	Logger     *zap.Logger
	Registerer prometheus.Registerer // Optional registerer for consumer metrics.
}

func (o Options) Validate() error {
	if o.Workers < 1 {
		return errors.New("workers must be greater than or equal to 1")
	}
	if o.AuditBreakerFailures < 1 {
		return errors.New("audit breaker failures must be greater than or equal to 1")
	}
	if o.AuditBreakerTimeout <= 0 {
		return errors.New("audit breaker timeout must be greater than 0")
	}
	if o.Logger == nil {
		return errors.New("logger is nil")
	}
	return nil
}

// ConsumeResult summarizes the outcome of a consumed batch.
type ConsumeResult struct {
	MessageId  string `json:"messageId,omitempty"`  // Message ID, assigned to the batch by the audit log.
	Audited    int    `json:"audited"`              // Number of audited events.
	AuditError string `json:"auditError,omitempty"` // Error, if the batch could not be appended to the audit log.

	projection.ProjectResult
}

// A Consumer appends event batches to the audit log and projects them.
type Consumer struct {
	store projection.Store

	breaker  *gobreaker.CircuitBreaker[[]projection.AuditEvent]
	logger   *zap.Logger
	metrics  *metrics
	validate *validator.Validate

	mutex    sync.RWMutex
	shutdown bool
	jobs     chan job
	locks    []sync.Mutex // guard aggregates, a batch affects
	wg       sync.WaitGroup
}

// Consume validates a batch of events, appends it to the audit log and projects it.
//
// If any event envelope is invalid, an error of type [projection.ErrorValidation] is returned and the batch is neither audited nor projected.
// A rejected batch is indicated by a zero [ConsumeResult].
// Otherwise the batch is audited and projected independently of each other and the returned error joins the errors of both steps.
func (c *Consumer) Consume(ctx context.Context, events []projection.Event) (ConsumeResult, error) {
	if len(events) == 0 {
		return ConsumeResult{}, nil
	}

	if err := c.validateEvents(events); err != nil {
		return ConsumeResult{}, err
	}

	c.mutex.RLock()
	defer c.mutex.RUnlock()

	if c.shutdown {
		return ConsumeResult{}, ErrShutdown
	}

	start := time.Now()

	var result ConsumeResult

	auditEvents, auditErr := c.breaker.Execute(func() ([]projection.AuditEvent, error) {
		return c.store.Append(ctx, events)
	})
	if auditErr != nil {
		c.metrics.auditFailures.Inc()
		c.logger.Error("failed to append events to audit log",
			zap.Int("count", len(events)),
			zap.Error(auditErr),
		)
		auditErr = fmt.Errorf("failed to append events to audit log: %w", auditErr)
		result.AuditError = auditErr.Error()
	} else if len(auditEvents) != 0 {
		result.MessageId = auditEvents[0].MessageId
		result.Audited = len(auditEvents)
	}

	projectResult, projectErr := c.project(ctx, events)
	result.ProjectResult = projectResult

	c.metrics.observe(events, projectResult, time.Since(start))

	return result, errors.Join(auditErr, projectErr)
}

// Shutdown waits for all running projections and stops the workers.
func (c *Consumer) Shutdown() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.shutdown {
		return
	}

	c.shutdown = true
	close(c.jobs)

	c.wg.Wait()
}

// project hands a batch over to a worker, which projects its events in batch order.
// The batch is handed over as a copy, so that the caller's events are never shared with a worker.
func (c *Consumer) project(ctx context.Context, events []projection.Event) (projection.ProjectResult, error) {
	results := make(chan jobResult, 1)

	j := job{
		ctx:     ctx,
		events:  deepcopy.Copy(events).([]projection.Event),
		locks:   c.lockIndices(events),
		results: results,
	}

	select {
	case c.jobs <- j:
	case <-ctx.Done():
		var result projection.ProjectResult
		for _, event := range events {
			result.Failed = append(result.Failed, projection.NewEventFailure(event, ctx.Err()))
		}
		return result, fmt.Errorf("failed to dispatch %d events: %w", len(events), ctx.Err())
	}

	r := <-results

	sortFailures(events, r.result.Failed)

	return r.result, r.err
}

// lockIndices returns the sorted indices of the locks, guarding the aggregates of a batch.
// Concurrent batches, which share an aggregate, are serialized, while batches of distinct aggregates are projected in parallel.
// Events without aggregate are guarded by the lock of the empty ID.
func (c *Consumer) lockIndices(events []projection.Event) []int {
	var indices []int
	for _, event := range events {
		ids := event.AggregateIds()
		if len(ids) == 0 {
			ids = []string{""}
		}

		for _, id := range ids {
			i := int(xxhash.Sum64String(id) % uint64(len(c.locks)))
			if !slices.Contains(indices, i) {
				indices = append(indices, i)
			}
		}
	}

	// a global order prevents deadlocks between batches
	slices.Sort(indices)
	return indices
}

func (c *Consumer) validateEvents(events []projection.Event) error {
	var causes []projection.ErrorCause
	for i, event := range events {
		err := c.validate.Struct(event)
		if err == nil {
			continue
		}

		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return fmt.Errorf("failed to validate event %d: %v", i, err)
		}

		for _, fieldError := range validationErrors {
			causes = append(causes, projection.ErrorCause{
				Pointer: fmt.Sprintf("/events/%d/%s", i, fieldError.Field()),
				Type:    fieldError.Tag(),
				Detail:  fmt.Sprintf("field %s is invalid", fieldError.Field()),
			})
		}
	}

	if len(causes) == 0 {
		return nil
	}

	return projection.Error{
		Type:   projection.ErrorValidation,
		Title:  "failed to validate events",
		Detail: fmt.Sprintf("batch of %d events contains invalid events", len(events)),
		Causes: causes,
	}
}

func (c *Consumer) work() {
	defer c.wg.Done()

	for j := range c.jobs {
		for _, i := range j.locks {
			c.locks[i].Lock()
		}

		result, err := c.store.Project(j.ctx, j.events)

		for _, i := range slices.Backward(j.locks) {
			c.locks[i].Unlock()
		}

		for _, failure := range result.Failed {
			fields := []zap.Field{
				zap.String("eventId", failure.EventId),
				zap.String("eventType", failure.EventType),
				zap.String("errorType", failure.ErrorType.String()),
				zap.String("error", failure.Error),
			}

			switch failure.ErrorType {
			case projection.ErrorNotFound:
				c.logger.Warn("event references an unknown entity", fields...)
			case projection.ErrorConflict:
				c.logger.Error("event conflicts with the projected state", fields...)
			default:
				c.logger.Error("failed to project event", fields...)
			}
		}

		j.results <- jobResult{result: result, err: err}
	}
}

type job struct {
	ctx     context.Context
	events  []projection.Event
	locks   []int
	results chan<- jobResult
}

type jobResult struct {
	result projection.ProjectResult
	err    error
}

func newValidate() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return validate
}

// sortFailures sorts failures by the batch position of their events.
func sortFailures(events []projection.Event, failures []projection.EventFailure) {
	if len(failures) < 2 {
		return
	}

	positions := make(map[string]int, len(events))
	for i := len(events) - 1; i >= 0; i-- {
		positions[events[i].Id] = i
	}

	slices.SortStableFunc(failures, func(a, b projection.EventFailure) int {
		return positions[a.EventId] - positions[b.EventId]
	})
}
