package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrJobNotFound is returned for an unknown or discarded job id.
var ErrJobNotFound = errors.New("job not found")

// JobKind selects the engine operation a job runs.
type JobKind string

const (
	JobGenerate  JobKind = "generate"
	JobHistory   JobKind = "history"
	JobLinked    JobKind = "linked"
	JobEcosystem JobKind = "ecosystem"
)

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

// JobSpec describes the work of a job. Exactly one request matching Kind
// must be set.
type JobSpec struct {
	Kind      JobKind
	Generate  *GenerateRequest
	History   *HistoryRequest
	Linked    *LinkedRequest
	Ecosystem *EcosystemRequest
}

func (s JobSpec) validate() error {
	var ok bool
	switch s.Kind {
	case JobGenerate:
		ok = s.Generate != nil
	case JobHistory:
		ok = s.History != nil
	case JobLinked:
		ok = s.Linked != nil
	case JobEcosystem:
		ok = s.Ecosystem != nil
	default:
		return fmt.Errorf("%w: unknown job kind %q", ErrInvalidRequest, s.Kind)
	}
	if !ok {
		return fmt.Errorf("%w: %s job without request", ErrInvalidRequest, s.Kind)
	}
	return nil
}

// JobInfo is a point-in-time view of a job.
type JobInfo struct {
	ID         string         `json:"id"`
	Kind       JobKind        `json:"kind"`
	Status     JobStatus      `json:"status"`
	Tables     map[string]int `json:"tables,omitempty"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}

type job struct {
	info    JobInfo
	results map[string]*RecordSet
	cancel  context.CancelFunc
	done    chan struct{}
}

// JobSink receives the results of a finished job, e.g. to write them out.
type JobSink func(ctx context.Context, info JobInfo, results map[string]*RecordSet) error

// JobRunner runs engine calls in the background, bounded by a JobLimiter.
// The engine itself stays synchronous; a job is cancelled by discarding it.
// Finished jobs are forgotten once they are older than the retention.
type JobRunner struct {
	engine    *Engine
	limiter   *JobLimiter
	sink      JobSink
	retention time.Duration
	now       func() time.Time

	mu   sync.RWMutex
	jobs map[string]*job
}

// RunnerOption configures a JobRunner.
type RunnerOption func(*JobRunner)

// WithRetention sets how long finished jobs and their results are kept.
// Zero keeps them until discarded.
func WithRetention(d time.Duration) RunnerOption {
	return func(r *JobRunner) { r.retention = d }
}

// WithRunnerClock overrides the clock used for job timestamps and eviction.
func WithRunnerClock(now func() time.Time) RunnerOption {
	return func(r *JobRunner) { r.now = now }
}

// NewJobRunner creates a runner. sink may be nil.
func NewJobRunner(engine *Engine, limiter *JobLimiter, sink JobSink, opts ...RunnerOption) *JobRunner {
	r := &JobRunner{
		engine:  engine,
		limiter: limiter,
		sink:    sink,
		now:     time.Now,
		jobs:    make(map[string]*job),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// evict drops finished jobs past the retention.
func (r *JobRunner) evict() {
	if r.retention <= 0 {
		return
	}
	cutoff := r.now().UTC().Add(-r.retention)

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, j := range r.jobs {
		if fin := j.info.FinishedAt; fin != nil && fin.Before(cutoff) {
			delete(r.jobs, id)
			slog.Debug("evicted generation job", "job_id", id, "finished_at", *fin)
		}
	}
}

// Limiter returns the runner's limiter.
func (r *JobRunner) Limiter() *JobLimiter {
	return r.limiter
}

// Submit reserves a slot (waiting up to the limiter timeout) and starts the
// job. It returns ErrTooManyJobs when no slot frees up.
func (r *JobRunner) Submit(ctx context.Context, spec JobSpec) (JobInfo, error) {
	if err := spec.validate(); err != nil {
		return JobInfo{}, err
	}
	r.evict()
	if err := r.limiter.Acquire(ctx); err != nil {
		return JobInfo{}, err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	j := &job{
		info: JobInfo{
			ID:        uuid.NewString(),
			Kind:      spec.Kind,
			Status:    JobRunning,
			CreatedAt: r.now().UTC(),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	r.mu.Lock()
	r.jobs[j.info.ID] = j
	r.mu.Unlock()

	go r.run(runCtx, j, spec)
	return j.info, nil
}

func (r *JobRunner) run(ctx context.Context, j *job, spec JobSpec) {
	defer close(j.done)
	defer r.limiter.Release()
	defer func() {
		if p := recover(); p != nil {
			slog.Error("panic in generation job", "job_id", j.info.ID, "panic", p)
			r.finish(j, nil, fmt.Errorf("job panicked: %v", p))
		}
	}()

	results, err := r.execute(ctx, spec)
	if err == nil && r.sink != nil {
		err = r.sink(ctx, r.snapshot(j, results), results)
	}
	r.finish(j, results, err)
}

func (r *JobRunner) execute(ctx context.Context, spec JobSpec) (map[string]*RecordSet, error) {
	switch spec.Kind {
	case JobGenerate:
		rs, err := r.engine.Generate(ctx, *spec.Generate)
		if err != nil {
			return nil, err
		}
		return map[string]*RecordSet{rs.Table().String(): rs}, nil
	case JobHistory:
		rs, err := r.engine.GenerateWithHistory(ctx, *spec.History)
		if err != nil {
			return nil, err
		}
		return map[string]*RecordSet{rs.Table().String(): rs}, nil
	case JobEcosystem:
		return r.engine.GenerateEcosystem(ctx, *spec.Ecosystem)
	default:
		return r.engine.GenerateLinked(ctx, *spec.Linked)
	}
}

func (r *JobRunner) snapshot(j *job, results map[string]*RecordSet) JobInfo {
	info := j.info
	info.Tables = make(map[string]int, len(results))
	for name, rs := range results {
		info.Tables[name] = rs.Len()
	}
	return info
}

func (r *JobRunner) finish(j *job, results map[string]*RecordSet, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	defer j.cancel()

	if j.info.Status == JobCancelled {
		return
	}
	now := r.now().UTC()
	j.info = r.snapshot(j, results)
	j.info.FinishedAt = &now
	j.results = results
	switch {
	case errors.Is(err, context.Canceled):
		j.info.Status = JobCancelled
	case err != nil:
		j.info.Status = JobFailed
		j.info.Error = FormatUserError(err)
	default:
		j.info.Status = JobSucceeded
	}

	slog.Info("generation job finished",
		"job_id", j.info.ID,
		"kind", j.info.Kind,
		"status", j.info.Status,
		"tables", len(results),
	)
}

// Get returns the current view of a job.
func (r *JobRunner) Get(id string) (JobInfo, error) {
	r.evict()
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return JobInfo{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return j.info, nil
}

// Results returns the record sets of a finished job. Partial results of a
// linked job with failed secondaries are returned too.
func (r *JobRunner) Results(id string) (map[string]*RecordSet, error) {
	r.evict()
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return j.results, nil
}

// Wait blocks until the job finishes or ctx is done.
func (r *JobRunner) Wait(ctx context.Context, id string) (JobInfo, error) {
	r.mu.RLock()
	j, ok := r.jobs[id]
	r.mu.RUnlock()
	if !ok {
		return JobInfo{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	select {
	case <-j.done:
		return r.Get(id)
	case <-ctx.Done():
		return JobInfo{}, ctx.Err()
	}
}

// List returns all known jobs, oldest first.
func (r *JobRunner) List() []JobInfo {
	r.evict()
	r.mu.RLock()
	out := make([]JobInfo, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, j.info)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, k int) bool {
		if !out[i].CreatedAt.Equal(out[k].CreatedAt) {
			return out[i].CreatedAt.Before(out[k].CreatedAt)
		}
		return out[i].ID < out[k].ID
	})
	return out
}

// Discard cancels a job and forgets it together with its results.
func (r *JobRunner) Discard(id string) error {
	r.mu.Lock()
	j, ok := r.jobs[id]
	if ok {
		if j.info.Status == JobRunning {
			j.info.Status = JobCancelled
		}
		delete(r.jobs, id)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	j.cancel()
	return nil
}

// Shutdown cancels every running job and waits for their slots to drain.
func (r *JobRunner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	for _, j := range r.jobs {
		j.cancel()
	}
	r.mu.Unlock()
	return r.limiter.WaitForDrain(ctx)
}
