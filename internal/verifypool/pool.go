package verifypool

import (
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"QuorumCore/internal/crypto"
	"QuorumCore/internal/logger"
	"QuorumCore/internal/quorum"
)

const (
	// defaultQueueSize is the number of tasks buffered ahead of the workers.
	defaultQueueSize = 1024
)

// ErrClosed is returned by Close when the pool was already closed.
var ErrClosed = errors.New("verification pool closed")

// job pairs a task with the future it resolves.
type job struct {
	task   quorum.Task
	result *quorum.Future
}

// Stats counts tasks seen by the pool.
type Stats struct {
	Submitted uint64 // Submitted is the number of accepted tasks
	Verified  uint64 // Verified is the number of tasks that passed
	Failed    uint64 // Failed is the number of tasks that did not pass
	Rejected  uint64 // Rejected is the number of tasks refused after Close
}

// Pool verifies signatures on a fixed set of workers.
// Tasks are picked up in submission order. The verifying context is shared
// read-only by all workers.
type Pool struct {
	vctx    *crypto.Context
	workers int
	queue   chan job
	log     *slog.Logger

	mu     sync.RWMutex // mu guards closed against concurrent Submit
	closed bool

	group *errgroup.Group

	submitted atomic.Uint64
	verified  atomic.Uint64
	failed    atomic.Uint64
	rejected  atomic.Uint64
}

// Option configures a Pool during creation.
type Option func(*Pool)

// WithWorkers sets the number of workers.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithQueueSize sets how many tasks may wait for a worker.
// Submit blocks while the queue is full.
func WithQueueSize(n int) Option {
	return func(p *Pool) {
		if n >= 0 {
			p.queue = make(chan job, n)
		}
	}
}

// New starts a pool verifying under vctx.
func New(vctx *crypto.Context, opts ...Option) *Pool {
	p := &Pool{
		vctx:    vctx,
		workers: runtime.NumCPU(),
		queue:   make(chan job, defaultQueueSize),
		log:     logger.With("module", "verifypool"),
	}

	for _, opt := range opts {
		opt(p)
	}

	if vctx.Role() != crypto.RoleVerify {
		p.log.Warn("pool context cannot verify, every task will fail", "role", vctx.Role())
	}

	p.group = &errgroup.Group{}

	for i := 0; i < p.workers; i++ {
		p.group.Go(p.work)
	}

	p.log.Debug("verification pool started", "workers", p.workers, "queue", cap(p.queue))

	return p
}

// Submit queues task and returns its future.
// After Close the future is already resolved to false.
func (p *Pool) Submit(task quorum.Task) *quorum.Future {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.rejected.Add(1)
		p.log.Warn("task submitted to closed pool", "obj_hash", task.Digest.Short())
		return quorum.Resolved(false)
	}

	j := job{task: task, result: quorum.NewFuture()}
	p.submitted.Add(1)
	p.queue <- j

	return j.result
}

// work runs tasks until the queue is closed and drained.
func (p *Pool) work() error {
	for j := range p.queue {
		ok := j.task.Run(p.vctx)
		if ok {
			p.verified.Add(1)
		} else {
			p.failed.Add(1)
		}

		j.result.Resolve(ok)
	}

	return nil
}

// Close stops accepting tasks, runs everything already queued and waits
// for the workers to exit.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	err := p.group.Wait()

	s := p.Stats()
	p.log.Debug("verification pool stopped",
		"submitted", s.Submitted,
		"verified", s.Verified,
		"failed", s.Failed,
		"rejected", s.Rejected,
	)

	return err
}

// Stats returns a snapshot of the task counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Submitted: p.submitted.Load(),
		Verified:  p.verified.Load(),
		Failed:    p.failed.Load(),
		Rejected:  p.rejected.Load(),
	}
}

var _ quorum.Pool = (*Pool)(nil)
