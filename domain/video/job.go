package video

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind is the type of work a job performs
type Kind string

const (
	KindTrim     Kind = "trim"
	KindCompress Kind = "compress"
)

// State is a job lifecycle state
type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateRunning    State = "running"
	StateCompleted  State = "completed"
	StateCancelled  State = "cancelled"
	StateFailed     State = "failed"
)

// IsTerminal reports whether no further transitions can happen
func (s State) IsTerminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// CanTransition enforces the allowed state machine edges
func (s State) CanTransition(to State) bool {
	switch s {
	case StateIdle:
		return to == StateValidating
	case StateValidating:
		return to == StateRunning || to == StateFailed || to == StateCancelled
	case StateRunning:
		return to == StateCompleted || to == StateFailed || to == StateCancelled
	default:
		return false
	}
}

// Job is one trim or compress request plus its derived state
type Job struct {
	ID          string
	Kind        Kind
	SourcePath  string
	Trim        TrimOptions
	Compress    CompressOptions
	Interactive bool
	OutputPath  string
	State       State
	CreatedAt   time.Time
}

// NewTrimJob creates an idle trim job with a fresh session id
func NewTrimJob(sourcePath string, opts TrimOptions) *Job {
	return &Job{
		ID:         uuid.NewString(),
		Kind:       KindTrim,
		SourcePath: sourcePath,
		Trim:       opts,
		State:      StateIdle,
		CreatedAt:  time.Now().UTC(),
	}
}

// NewCompressJob creates an idle compress job with a fresh session id
func NewCompressJob(opts CompressOptions) *Job {
	return &Job{
		ID:         uuid.NewString(),
		Kind:       KindCompress,
		SourcePath: opts.InputPath,
		Compress:   opts,
		State:      StateIdle,
		CreatedAt:  time.Now().UTC(),
	}
}

// Validate range-checks the kind-specific options
func (j *Job) Validate() error {
	if j.SourcePath == "" {
		return &Error{Kind: KindInvalidInput, Code: CodeFileNotFound, Message: "source path is required"}
	}
	switch j.Kind {
	case KindTrim:
		return j.Trim.Validate()
	case KindCompress:
		return j.Compress.Validate()
	default:
		return InvalidOptions("unknown job kind %q", j.Kind)
	}
}

// Transition moves the job to a new state if the edge is allowed
func (j *Job) Transition(to State) error {
	if !j.State.CanTransition(to) {
		return fmt.Errorf("invalid transition: %s -> %s", j.State, to)
	}
	j.State = to
	return nil
}
