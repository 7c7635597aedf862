// Package jobs runs long operations on a worker pool and keeps their state
// in a job store.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrJobNotFound = errors.New("job not found")
	ErrUnknownKind = errors.New("unknown job kind")
	ErrClosed      = errors.New("job runner closed")
)

// Kind names the work a job performs.
type Kind string

const (
	KindOptimize           Kind = "optimize"
	KindRecalculateWeights Kind = "recalculate-weights"
	KindParseDrawing       Kind = "parse-drawing"
)

// State is the lifecycle of a job: queued, running, then succeeded or failed.
type State string

const (
	StateQueued    State = "queued"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Done reports whether the job has finished.
func (s State) Done() bool {
	return s == StateSucceeded || s == StateFailed
}

// Job is one unit of background work.
type Job struct {
	ID         string          `json:"id"`
	Kind       Kind            `json:"kind"`
	State      State           `json:"state"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	StartedAt  time.Time       `json:"started_at,omitempty"`
	FinishedAt time.Time       `json:"finished_at,omitempty"`
}

// DecodeResult unmarshals the job result into v.
func (j Job) DecodeResult(v any) error {
	if len(j.Result) == 0 {
		return errors.New("job has no result")
	}
	return json.Unmarshal(j.Result, v)
}

// Handler performs a job. The returned value is stored as the job result.
type Handler func(ctx context.Context, payload json.RawMessage) (any, error)

// Store persists jobs.
type Store interface {
	Save(ctx context.Context, job Job) error
	Get(ctx context.Context, id string) (Job, error)
	List(ctx context.Context) ([]Job, error)
}
