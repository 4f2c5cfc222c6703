package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"video-processing/application/events"
	"video-processing/application/pipeline"
	"video-processing/domain/event"
	"video-processing/domain/video"

	"github.com/dustin/go-humanize"
)

// EventSource is the part of the event bus commands listen on
type EventSource interface {
	SubscribeAll(handler events.Handler) *events.Subscription
	Flush(ctx context.Context) error
}

// OutputWriter allows capturing output in tests
type OutputWriter interface {
	Write(p []byte) (n int, err error)
}

// lockedWriter serialises writes from the bus dispatcher and the command
type lockedWriter struct {
	mu  sync.Mutex
	out io.Writer
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.out.Write(p)
}

// watchProgress prints Statistics and warning/error Log events for one job
// until the returned stop function is called
func watchProgress(src EventSource, out io.Writer, jobID func() string) func() {
	sub := src.SubscribeAll(func(e event.Event) {
		if id := jobID(); id != "" && e.SessionID != id {
			return
		}
		switch p := e.Payload.(type) {
		case event.Statistics:
			fmt.Fprintf(out, "  progress: frame=%d time=%s size=%s speed=%.2fx\n",
				p.VideoFrameNumber,
				video.TimestampFromMilliseconds(p.Time).String(),
				humanize.IBytes(uint64(p.Size)),
				p.Speed)
		case event.Log:
			if p.Level == string(video.LogLevelWarning) || p.Level == string(video.LogLevelError) || p.Level == string(video.LogLevelFatal) {
				fmt.Fprintf(out, "  ffmpeg %s: %s\n", p.Level, p.Message)
			}
		}
	})
	return func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = src.Flush(flushCtx)
		sub.Remove()
	}
}

// awaitJob waits for the job to finish. Cancelling ctx cancels the job, and
// the wait continues until the job has cleaned up.
func awaitJob(ctx context.Context, h *pipeline.Handle) (*video.Result, error) {
	select {
	case <-h.Done():
	case <-ctx.Done():
		h.Cancel()
	}
	return h.Wait(context.Background())
}

// interruptContext cancels on SIGINT or SIGTERM
func interruptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
