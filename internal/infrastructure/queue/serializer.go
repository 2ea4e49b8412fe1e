package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

const defaultBuffer = 64

// ErrStopped is returned for jobs submitted after the worker has exited.
var ErrStopped = errors.New("queue: serializer stopped")

type job struct {
	fn   func(ctx context.Context) error
	ctx  context.Context
	done chan error
	// claimed is set once by whichever side owns the job: the worker when
	// it starts running it, or Do when the caller gives up while queued.
	claimed *atomic.Bool
}

// Serializer runs submitted jobs one at a time on a single worker goroutine.
// Everything a job touches is therefore owned by that goroutine for the
// duration of the job.
type Serializer struct {
	jobs    chan job
	stopped chan struct{}
	once    sync.Once
	log     zerolog.Logger
}

// NewSerializer creates a Serializer with a job buffer of size buffer.
// If buffer <= 0, defaultBuffer is used.
func NewSerializer(buffer int, log zerolog.Logger) *Serializer {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Serializer{
		jobs:    make(chan job, buffer),
		stopped: make(chan struct{}),
		log:     log,
	}
}

// Start launches the worker goroutine. The worker stops when ctx is
// cancelled; queued jobs that never ran then fail with ErrStopped.
// Calling Start more than once has no effect.
func (s *Serializer) Start(ctx context.Context) {
	s.once.Do(func() {
		go s.run(ctx)
	})
}

// Do enqueues fn and blocks until it has run, returning its error. If ctx
// ends while fn is still queued, fn is skipped and Do returns ctx.Err().
// Once the worker has started fn, Do waits for it so the result reported
// always matches what was applied.
func (s *Serializer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	j := job{fn: fn, ctx: ctx, done: make(chan error, 1), claimed: new(atomic.Bool)}

	select {
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	case s.jobs <- j:
	}

	select {
	case err := <-j.done:
		return err
	case <-s.stopped:
		return s.stoppedResult(j)
	case <-ctx.Done():
		if j.claimed.CompareAndSwap(false, true) {
			return ctx.Err()
		}
	}

	// The worker owns the job; wait for its outcome.
	select {
	case err := <-j.done:
		return err
	case <-s.stopped:
		return s.stoppedResult(j)
	}
}

// stoppedResult reports the outcome of j after the worker exited. The
// worker may have finished it just before stopping.
func (s *Serializer) stoppedResult(j job) error {
	select {
	case err := <-j.done:
		return err
	default:
		return ErrStopped
	}
}

func (s *Serializer) run(ctx context.Context) {
	defer close(s.stopped)
	for {
		select {
		case <-ctx.Done():
			s.log.Debug().Msg("serializer stopped")
			return
		case j := <-s.jobs:
			if !j.claimed.CompareAndSwap(false, true) {
				// The caller gave up while the job was queued.
				continue
			}
			if err := j.ctx.Err(); err != nil {
				j.done <- err
				continue
			}
			j.done <- s.exec(j)
		}
	}
}

// exec runs a single job, converting a panic into an error so one bad
// mutation cannot take down the writer.
func (s *Serializer) exec(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("serializer job panicked")
			err = errors.New("queue: job panicked")
		}
	}()
	return j.fn(j.ctx)
}
