package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Runner executes submitted jobs on a fixed pool of workers.
type Runner struct {
	store    Store
	log      *zap.Logger
	queue    chan string
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	mu       sync.RWMutex // Guards closed; held for reading while queueing
	closed   bool
	hmu      sync.RWMutex
	handlers map[Kind]Handler
	doneMu   sync.Mutex
	done     map[string]chan struct{}
}

// NewRunner starts workers goroutines reading from a queue of queueSize jobs.
func NewRunner(store Store, workers, queueSize int, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if workers < 1 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		store:    store,
		log:      log,
		queue:    make(chan string, queueSize),
		ctx:      ctx,
		cancel:   cancel,
		handlers: make(map[Kind]Handler),
		done:     make(map[string]chan struct{}),
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.work()
	}
	return r
}

// Handle registers the handler for a job kind.
func (r *Runner) Handle(kind Kind, h Handler) {
	r.hmu.Lock()
	defer r.hmu.Unlock()
	r.handlers[kind] = h
}

// Submit stores a queued job and hands it to the workers.
func (r *Runner) Submit(ctx context.Context, kind Kind, payload any) (Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return Job{}, ErrClosed
	}
	r.hmu.RLock()
	_, ok := r.handlers[kind]
	r.hmu.RUnlock()
	if !ok {
		return Job{}, fmt.Errorf("%s: %w", kind, ErrUnknownKind)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Job{}, fmt.Errorf("failed to marshal %s payload: %w", kind, err)
	}

	job := Job{
		ID:        uuid.New().String(),
		Kind:      kind,
		State:     StateQueued,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.Save(ctx, job); err != nil {
		return Job{}, err
	}

	r.doneMu.Lock()
	r.done[job.ID] = make(chan struct{})
	r.doneMu.Unlock()

	select {
	case r.queue <- job.ID:
	case <-ctx.Done():
		r.finish(job.ID)
		job.State = StateFailed
		job.Error = fmt.Sprintf("not queued: %v", ctx.Err())
		_ = r.store.Save(context.Background(), job)
		return Job{}, ctx.Err()
	}
	r.log.Debug("job queued", zap.String("job", job.ID), zap.String("kind", string(kind)))
	return job, nil
}

// Get returns the stored state of a job.
func (r *Runner) Get(ctx context.Context, id string) (Job, error) {
	return r.store.Get(ctx, id)
}

// Wait blocks until the job has finished or ctx is done.
func (r *Runner) Wait(ctx context.Context, id string) (Job, error) {
	r.doneMu.Lock()
	done, ok := r.done[id]
	r.doneMu.Unlock()

	if ok {
		select {
		case <-done:
		case <-ctx.Done():
			return Job{}, ctx.Err()
		}
	}
	return r.store.Get(ctx, id)
}

// Close stops accepting jobs and waits for queued jobs to finish. If ctx
// expires first, running handlers are cancelled and ctx's error returned.
func (r *Runner) Close(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		<-finished
		return ctx.Err()
	}
}

func (r *Runner) work() {
	defer r.wg.Done()
	for id := range r.queue {
		r.run(id)
	}
}

func (r *Runner) run(id string) {
	defer r.finish(id)
	log := r.log.With(zap.String("job", id))

	// Jobs drained after Close gave up still run with a cancelled r.ctx, so
	// store access uses its own context and the job always reaches a final state.
	job, err := r.store.Get(context.Background(), id)
	if err != nil {
		log.Error("failed to load job", zap.Error(err))
		return
	}

	r.hmu.RLock()
	handler := r.handlers[job.Kind]
	r.hmu.RUnlock()

	job.State = StateRunning
	job.StartedAt = time.Now().UTC()
	if err := r.store.Save(context.Background(), job); err != nil {
		log.Error("failed to mark job running", zap.Error(err))
	}

	result, err := safeCall(r.ctx, handler, job.Payload)
	job.FinishedAt = time.Now().UTC()
	if err == nil {
		job.Result, err = json.Marshal(result)
	}
	if err != nil {
		job.State = StateFailed
		job.Error = err.Error()
		log.Warn("job failed", zap.String("kind", string(job.Kind)), zap.Error(err))
	} else {
		job.State = StateSucceeded
		log.Info("job succeeded",
			zap.String("kind", string(job.Kind)),
			zap.Duration("took", job.FinishedAt.Sub(job.StartedAt)))
	}

	if err := r.store.Save(context.Background(), job); err != nil {
		log.Error("failed to store job result", zap.Error(err))
	}
}

func (r *Runner) finish(id string) {
	r.doneMu.Lock()
	defer r.doneMu.Unlock()
	if done, ok := r.done[id]; ok {
		close(done)
		delete(r.done, id)
	}
}

func safeCall(ctx context.Context, h Handler, payload json.RawMessage) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panicked: %v", p)
		}
	}()
	return h(ctx, payload)
}
