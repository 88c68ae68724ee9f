package notifications

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payledger/internal/platform/jobs"
	"payledger/internal/platform/logger"
	"payledger/internal/platform/metrics"
)

type recordingSink struct {
	mu   sync.Mutex
	msgs []Message
	err  error
	done chan struct{}
}

func (s *recordingSink) Deliver(_ context.Context, msg Message) error {
	s.mu.Lock()
	s.msgs = append(s.msgs, msg)
	s.mu.Unlock()
	if s.done != nil {
		s.done <- struct{}{}
	}
	return s.err
}

func TestNotifyDeliversThroughQueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q := jobs.New(8, time.Second, nil)
	q.Start(ctx, 1)

	sink := &recordingSink{done: make(chan struct{}, 1)}
	d := NewDispatcher(q, sink, metrics.New())

	reqCtx := logger.WithRequestID(context.Background(), "req-1")
	d.Notify(reqCtx, Message{Token: "tok", Kind: KindAdvanceDecided, Title: "Advance approved"})

	select {
	case <-sink.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification not delivered")
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.msgs, 1)
	assert.Equal(t, "req-1", sink.msgs[0].RequestID)
	assert.False(t, sink.msgs[0].CreatedAt.IsZero())
}

func TestNotifySkipsEmptyToken(t *testing.T) {
	sink := &recordingSink{}
	collector := metrics.New()
	d := NewDispatcher(nil, sink, collector)

	d.Notify(context.Background(), Message{Token: "  ", Kind: KindSalaryPaid})
	assert.Empty(t, sink.msgs)
}

func TestNotifyFailureIsSwallowed(t *testing.T) {
	sink := &recordingSink{err: errors.New("gateway down")}
	collector := metrics.New()
	d := NewDispatcher(nil, sink, collector)

	d.Notify(context.Background(), Message{Token: "tok", Kind: KindSalaryPaid})

	require.Len(t, sink.msgs, 1)
	count, err := testutil.GatherAndCount(collector.Registry(), "payledger_notifications_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
