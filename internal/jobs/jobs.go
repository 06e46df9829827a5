// Package jobs runs comparisons in the background and keeps their outcome
// for a while after they finish.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/juju/errors"
	"go.uber.org/zap"

	"comparador/internal/compare"
)

type Status string

const (
	Pending Status = "pending"
	Running Status = "running"
	Done    Status = "done"
	Failed  Status = "failed"
)

// Func produces the report of a job. It should return promptly once ctx is
// cancelled.
type Func func(ctx context.Context) (*compare.Report, error)

// Job is a snapshot of a submitted comparison.
type Job struct {
	ID       string          `json:"id"`
	Status   Status          `json:"status"`
	Created  time.Time       `json:"created"`
	Finished *time.Time      `json:"finished,omitempty"`
	Report   *compare.Report `json:"report,omitempty"`
	Error    string          `json:"error,omitempty"`
	Err      error           `json:"-"`
}

type entry struct {
	mu   sync.Mutex
	job  Job
	done chan struct{}
}

func (e *entry) snapshot() Job {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.job
}

// Manager owns running jobs. Finished jobs expire after the configured TTL;
// running ones never do.
type Manager struct {
	cache  *ttlcache.Cache[string, *entry]
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	// mu orders Submit against Close
	mu     sync.Mutex
	closed bool
}

func NewManager(ttl time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cache: ttlcache.New(
			ttlcache.WithTTL[string, *entry](ttl),
			ttlcache.WithDisableTouchOnHit[string, *entry](),
		),
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
	go m.cache.Start()
	return m
}

// Submit starts fn in its own goroutine and returns the job id.
func (m *Manager) Submit(fn Func) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", errors.New("gerenciador encerrado")
	}
	id := uuid.New().String()
	e := &entry{
		job:  Job{ID: id, Status: Pending, Created: time.Now()},
		done: make(chan struct{}),
	}
	m.cache.Set(id, e, ttlcache.NoTTL)
	m.wg.Add(1)
	go m.run(id, e, fn)
	return id, nil
}

func (m *Manager) run(id string, e *entry, fn Func) {
	defer m.wg.Done()
	defer close(e.done)

	e.mu.Lock()
	e.job.Status = Running
	e.mu.Unlock()
	m.logger.Info("Job iniciado", zap.String("job", id))

	report, err := m.call(fn)

	finished := time.Now()
	e.mu.Lock()
	e.job.Finished = &finished
	if err != nil {
		e.job.Status, e.job.Err, e.job.Error = Failed, err, err.Error()
	} else {
		e.job.Status, e.job.Report = Done, report
	}
	elapsed := finished.Sub(e.job.Created)
	e.mu.Unlock()

	// the expiry clock starts once the job is over
	m.cache.Set(id, e, ttlcache.DefaultTTL)
	if err != nil {
		m.logger.Warn("Job falhou", zap.String("job", id), zap.Error(err), zap.Duration("duration", elapsed))
		return
	}
	m.logger.Info("Job concluído", zap.String("job", id), zap.Duration("duration", elapsed))
}

func (m *Manager) call(fn Func) (report *compare.Report, err error) {
	defer func() {
		if r := recover(); r != nil {
			report, err = nil, errors.Errorf("panic: %v", r)
		}
	}()
	return fn(m.ctx)
}

// Get returns the current state of job id.
func (m *Manager) Get(id string) (Job, bool) {
	item := m.cache.Get(id)
	if item == nil {
		return Job{}, false
	}
	return item.Value().snapshot(), true
}

// Done returns a channel closed when job id finishes.
func (m *Manager) Done(id string) (<-chan struct{}, bool) {
	item := m.cache.Get(id)
	if item == nil {
		return nil, false
	}
	return item.Value().done, true
}

// Wait blocks until job id finishes or ctx is done.
func (m *Manager) Wait(ctx context.Context, id string) (Job, error) {
	done, ok := m.Done(id)
	if !ok {
		return Job{}, errors.NotFoundf("job %q", id)
	}
	select {
	case <-done:
	case <-ctx.Done():
		return Job{}, errors.Trace(ctx.Err())
	}
	job, ok := m.Get(id)
	if !ok {
		return Job{}, errors.NotFoundf("job %q", id)
	}
	return job, nil
}

// Len is the number of jobs held, running or not.
func (m *Manager) Len() int {
	return m.cache.Len()
}

// Close cancels running jobs, waits for them and stops expiry.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.mu.Unlock()
	m.cancel()
	m.wg.Wait()
	m.cache.Stop()
}
