package notifications

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"payledger/internal/platform/jobs"
	"payledger/internal/platform/logger"
	"payledger/internal/platform/metrics"
)

// Dispatcher delivers notifications off the request path. A failed or dropped
// delivery is logged and counted but never reported to the caller.
type Dispatcher struct {
	Jobs    *jobs.Service
	Sink    Sink
	Metrics *metrics.Collector
	Now     func() time.Time
}

func NewDispatcher(jobsSvc *jobs.Service, sink Sink, collector *metrics.Collector) *Dispatcher {
	return &Dispatcher{Jobs: jobsSvc, Sink: sink, Metrics: collector, Now: time.Now}
}

func (d *Dispatcher) Notify(ctx context.Context, msg Message) {
	if d == nil || d.Sink == nil {
		return
	}
	if strings.TrimSpace(msg.Token) == "" {
		d.Metrics.Notification("skipped")
		return
	}
	msg.RequestID = logger.RequestID(ctx)
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = d.Now().UTC()
	}

	deliver := func(runCtx context.Context) error {
		if err := d.Sink.Deliver(runCtx, msg); err != nil {
			d.Metrics.Notification("failed")
			zap.L().Warn("notification delivery failed",
				zap.String("kind", msg.Kind), zap.String("requestId", msg.RequestID), zap.Error(err))
			return err
		}
		d.Metrics.Notification("delivered")
		return nil
	}

	if d.Jobs == nil {
		_ = deliver(context.WithoutCancel(ctx))
		return
	}
	if !d.Jobs.Enqueue(jobs.JobNotification, msg.Kind, deliver) {
		d.Metrics.Notification("dropped")
	}
}
