package pipeline

import (
	"context"

	"video-processing/domain/video"
)

// Handle is the caller's view of one accepted job
type Handle struct {
	op *operation
}

// ID returns the job id, which is also the event session id
func (h *Handle) ID() string {
	return h.op.job.ID
}

// Kind returns the job kind
func (h *Handle) Kind() video.Kind {
	return h.op.job.Kind
}

// State returns the current job state
func (h *Handle) State() video.State {
	return h.op.state()
}

// OutputPath returns the allocated output path, empty until the job runs
func (h *Handle) OutputPath() string {
	return h.op.outputPath()
}

// Cancel requests cancellation and returns immediately
func (h *Handle) Cancel() {
	h.op.Cancel()
}

// Done is closed once the job reaches a terminal state
func (h *Handle) Done() <-chan struct{} {
	return h.op.done
}

// Wait blocks until the job is terminal or ctx is done. A completed or
// cancelled job returns a result; a failed job returns a *video.Error.
func (h *Handle) Wait(ctx context.Context) (*video.Result, error) {
	select {
	case <-h.op.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	h.op.mu.Lock()
	defer h.op.mu.Unlock()
	if h.op.err != nil {
		return nil, h.op.err
	}
	return h.op.result, nil
}
