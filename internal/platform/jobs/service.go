package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	JobNotification = "notification"
)

// Service runs fire-and-forget side effects on a bounded in-process queue.
type Service struct {
	queue   chan job
	timeout time.Duration
	log     *zap.Logger
	wg      sync.WaitGroup
}

type job struct {
	Type string
	Key  string
	Run  func(context.Context) error
}

func New(size int, timeout time.Duration, log *zap.Logger) *Service {
	if size <= 0 {
		size = 128
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		queue:   make(chan job, size),
		timeout: timeout,
		log:     log,
	}
}

func (s *Service) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}
}

// Wait blocks until every worker has drained the queue and returned after ctx
// cancellation.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Enqueue never blocks the caller; when the queue is full the job is dropped.
func (s *Service) Enqueue(jobType, key string, run func(context.Context) error) bool {
	select {
	case s.queue <- job{Type: jobType, Key: key, Run: run}:
		return true
	default:
		s.log.Warn("job queue full", zap.String("jobType", jobType), zap.String("key", key))
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, key string, run func(context.Context) error) error {
	return s.runJob(ctx, job{Type: jobType, Key: key, Run: run})
}

// worker runs jobs until ctx is cancelled, then drains what is still queued.
// Jobs run on a context detached from ctx so a shutdown does not abort them;
// each is still bounded by the service timeout.
func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()
	runCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			s.drain(runCtx)
			return
		case j := <-s.queue:
			s.run(runCtx, j)
		}
	}
}

func (s *Service) drain(ctx context.Context) {
	for {
		select {
		case j := <-s.queue:
			s.run(ctx, j)
		default:
			return
		}
	}
}

func (s *Service) run(ctx context.Context, j job) {
	if err := s.runJob(ctx, j); err != nil {
		s.log.Warn("job run failed", zap.String("jobType", j.Type), zap.String("key", j.Key), zap.Error(err))
	}
}

func (s *Service) runJob(ctx context.Context, j job) error {
	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return j.Run(runCtx)
}
