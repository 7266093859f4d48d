package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adhocore/gronx"
	"github.com/gclaussn/go-bpmn-query/projection"
	"go.uber.org/zap"
)

func NewHousekeeper(auditLog projection.AuditLog, customizers ...func(*HousekeeperOptions)) (*Housekeeper, error) {
	options := NewHousekeeperOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	return &Housekeeper{
		auditLog: auditLog,
		options:  options,
	}, nil
}

func NewHousekeeperOptions() HousekeeperOptions {
	return HousekeeperOptions{
		Schedule:  "0 3 * * *",
		Retention: 30 * 24 * time.Hour,
		Timeout:   time.Minute,

		Logger: zap.NewNop(),
	}
}

type HousekeeperOptions struct {
	Schedule  string        // Cron expression, determining when audit events are purged.
	Retention time.Duration // Period, audit events are kept.
	Timeout   time.Duration // Timeout of a single purge.

	Logger *zap.Logger
}

func (o HousekeeperOptions) Validate() error {
	if !gronx.New().IsValid(o.Schedule) {
		return fmt.Errorf("schedule %q is not a valid cron expression", o.Schedule)
	}
	if o.Retention <= 0 {
		return errors.New("retention must be greater than 0")
	}
	if o.Timeout <= 0 {
		return errors.New("timeout must be greater than 0")
	}
	if o.Logger == nil {
		return errors.New("logger is nil")
	}
	return nil
}

// A Housekeeper purges audit events, which exceed the retention period.
type Housekeeper struct {
	auditLog projection.AuditLog
	options  HousekeeperOptions

	cancel context.CancelFunc
	done   chan struct{}
}

// Next returns the time of the next purge after a specific time.
func (h *Housekeeper) Next(after time.Time) (time.Time, error) {
	return gronx.NextTickAfter(h.options.Schedule, after, false)
}

// Purge deletes all audit events, which have been appended before now minus the retention period.
func (h *Housekeeper) Purge(ctx context.Context, now time.Time) (int, error) {
	before := now.Add(-h.options.Retention)

	count, err := h.auditLog.Purge(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("failed to purge audit events: %v", err)
	}

	return count, nil
}

// Start purges the audit log periodically, until the housekeeper is stopped.
func (h *Housekeeper) Start() {
	ctx, cancel := context.WithCancel(context.Background())

	h.cancel = cancel
	h.done = make(chan struct{})

	go func() {
		defer close(h.done)

		for {
			next, err := h.Next(time.Now())
			if err != nil {
				h.options.Logger.Error("failed to evaluate schedule", zap.String("schedule", h.options.Schedule), zap.Error(err))
				return
			}

			timer := time.NewTimer(time.Until(next))

			select {
			case now := <-timer.C:
				h.purge(ctx, now)
			case <-ctx.Done():
				timer.Stop()
				return
			}
		}
	}()
}

// Stop stops the housekeeper and waits for a running purge.
func (h *Housekeeper) Stop() {
	if h.cancel == nil {
		return
	}

	h.cancel()
	<-h.done
}

func (h *Housekeeper) purge(ctx context.Context, now time.Time) {
	purgeCtx, cancel := context.WithTimeout(ctx, h.options.Timeout)
	defer cancel()

	count, err := h.Purge(purgeCtx, now)
	if err != nil {
		h.options.Logger.Error("failed to purge audit log", zap.Error(err))
		return
	}

	h.options.Logger.Info("purged audit log", zap.Int("count", count), zap.Time("before", now.Add(-h.options.Retention)))
}
