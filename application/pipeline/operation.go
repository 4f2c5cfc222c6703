package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"video-processing/domain/event"
	"video-processing/domain/storage"
	"video-processing/domain/video"
)

// maxDiagnostics is how many codec error lines a failure message keeps
const maxDiagnostics = 5

// operation drives one job from Idle to a terminal state
type operation struct {
	c      *Coordinator
	job    *video.Job
	key    string
	editor *EditorSession
	logger *slog.Logger
	span   trace.Span

	mu        sync.Mutex
	cancelled bool
	committed bool
	cancelCh  chan struct{}
	done      chan struct{}
	result    *video.Result
	err       error
	diag      []string
}

func newOperation(c *Coordinator, job *video.Job, key string) *operation {
	return &operation{
		c:        c,
		job:      job,
		key:      key,
		logger:   c.logger.With("job_id", job.ID, "kind", job.Kind, "source", job.SourcePath),
		cancelCh: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Cancel requests cancellation. From this call on no Statistics or Log
// event is published for the job. Ignored once the outcome is decided.
func (o *operation) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancelled || o.committed || o.job.State.IsTerminal() {
		return
	}
	o.cancelled = true
	close(o.cancelCh)
	o.logger.Info("cancel requested", "state", o.job.State)
}

func (o *operation) state() video.State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.job.State
}

func (o *operation) outputPath() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.job.OutputPath
}

func (o *operation) isCancelled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cancelled
}

func (o *operation) transition(to video.State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.job.Transition(to); err != nil {
		o.logger.Error("state transition rejected", "error", err)
	}
}

func (o *operation) run(ctx context.Context) {
	ctx, o.span = o.c.tracer.Start(ctx, "pipeline."+string(o.job.Kind),
		trace.WithAttributes(
			attribute.String("job.id", o.job.ID),
			attribute.String("job.kind", string(o.job.Kind)),
			attribute.String("job.source", o.job.SourcePath),
		))
	defer o.span.End()

	go func() {
		select {
		case <-ctx.Done():
			o.Cancel()
		case <-o.done:
		}
	}()

	o.transition(video.StateValidating)
	info, err := o.validate(ctx)

	// cancelled while validating: no output is reserved and nothing is
	// loaded, only the start and cancel pair is published
	if o.isCancelled() {
		o.publish(startKind(o.job.Kind), nil)
		o.finishCancelled()
		return
	}
	if err != nil {
		o.fail(err)
		return
	}

	origin := originFor(o.job.Kind)
	out, err := o.c.store.AllocateOutputPath(origin)
	if err != nil {
		o.fail(err)
		return
	}

	o.mu.Lock()
	o.job.OutputPath = out
	o.mu.Unlock()
	o.transition(video.StateRunning)
	o.span.SetAttributes(attribute.String("job.output", out))
	o.logger.Info("job started", "output", out, "duration_ms", info.DurationMs, "width", info.Width, "height", info.Height)

	o.publish(startKind(o.job.Kind), nil)
	o.publish(event.KindLoad, event.Load{Duration: info.DurationMs, Width: info.Width, Height: info.Height})

	if o.isCancelled() {
		o.removeOutput()
		o.finishCancelled()
		return
	}

	// the codec outlives ctx so a cancelled caller still gets the grace period
	runCtx, kill := context.WithCancel(context.WithoutCancel(ctx))
	defer kill()

	session, err := o.c.codec.Start(runCtx, video.EncodeRequest{Job: o.job, OutputPath: out, Source: info})
	if err != nil {
		o.removeOutput()
		o.fail(video.NewError(video.KindNativeFailure, video.CodeNativeFailure,
			fmt.Sprintf("failed to start codec: %v", err), err))
		return
	}

	pumped := make(chan struct{})
	go func() {
		defer close(pumped)
		for u := range session.Updates() {
			o.forward(u)
		}
	}()

	waitCh := make(chan error, 1)
	go func() {
		waitCh <- session.Wait()
	}()

	var waitErr error
	select {
	case waitErr = <-waitCh:
	case <-o.cancelCh:
		session.Cancel()
		o.awaitStop(waitCh, kill)
		o.finishCancelled()
		return
	}

	select {
	case <-pumped:
	case <-o.cancelCh:
	}

	o.mu.Lock()
	cancelled := o.cancelled
	if !cancelled {
		o.committed = true
	}
	o.mu.Unlock()

	if cancelled {
		o.removeOutput()
		o.finishCancelled()
		return
	}

	if waitErr != nil {
		o.removeOutput()
		o.fail(video.NewError(video.KindNativeFailure, video.CodeNativeFailure, o.failureMessage(waitErr), waitErr))
		return
	}

	o.complete(ctx, origin, info)
}

// awaitStop gives the codec the grace period to exit, then kills it. The
// partial output is removed now and again once a killed codec has exited.
func (o *operation) awaitStop(waitCh <-chan error, kill context.CancelFunc) {
	timer := time.NewTimer(o.c.grace)
	defer timer.Stop()

	select {
	case <-waitCh:
		o.removeOutput()
	case <-timer.C:
		o.logger.Warn("codec ignored cancel, killing it", "grace", o.c.grace)
		kill()
		o.removeOutput()
		go func() {
			<-waitCh
			o.removeOutput()
		}()
	}
}

func (o *operation) validate(ctx context.Context) (video.MediaInfo, error) {
	if err := o.c.store.Validate(o.job.SourcePath); err != nil {
		return video.MediaInfo{}, err
	}
	if err := o.job.Validate(); err != nil {
		return video.MediaInfo{}, err
	}

	info, err := o.c.prober.Probe(ctx, o.job.SourcePath)
	if err != nil {
		return video.MediaInfo{}, video.NewError(video.KindInvalidInput, video.CodeFileUnreadable,
			fmt.Sprintf("failed to probe %s: %v", o.job.SourcePath, err), err)
	}

	if o.job.Kind == video.KindTrim {
		if err := o.job.Trim.ValidateAgainst(info.DurationMs); err != nil {
			return video.MediaInfo{}, err
		}
	}
	return info, nil
}

// forward turns one codec update into a Statistics or Log event unless the
// job has been cancelled
func (o *operation) forward(u video.Update) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if u.Log != nil && (u.Log.Level == video.LogLevelError || u.Log.Level == video.LogLevelFatal) {
		o.diag = append(o.diag, u.Log.Message)
		if len(o.diag) > maxDiagnostics {
			o.diag = o.diag[len(o.diag)-maxDiagnostics:]
		}
	}
	if o.cancelled || o.committed {
		return
	}

	switch {
	case u.Progress != nil:
		p := u.Progress
		o.c.bus.Publish(event.Event{
			Kind:      event.KindStatistics,
			SessionID: o.job.ID,
			Payload: event.Statistics{
				SessionID:        o.job.ID,
				VideoFrameNumber: p.FrameNumber,
				VideoFps:         p.FPS,
				VideoQuality:     p.Quality,
				Size:             p.SizeBytes,
				Time:             p.TimeMs,
				Bitrate:          p.BitrateKbps,
				Speed:            p.Speed,
			},
		})
	case u.Log != nil:
		o.c.bus.Publish(event.Event{
			Kind:      event.KindLog,
			SessionID: o.job.ID,
			Payload: event.Log{
				Level:     string(u.Log.Level),
				Message:   u.Log.Message,
				SessionID: o.job.ID,
			},
		})
	}
}

func (o *operation) failureMessage(err error) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.diag) == 0 {
		return fmt.Sprintf("codec failed: %v", err)
	}
	return fmt.Sprintf("codec failed: %v: %s", err, strings.Join(o.diag, "; "))
}

func (o *operation) complete(ctx context.Context, origin storage.Origin, info video.MediaInfo) {
	out := o.outputPath()
	entry, err := o.c.store.Register(out, origin)
	if err != nil {
		o.removeOutput()
		o.fail(err)
		return
	}

	result := &video.Result{JobID: o.job.ID, Kind: o.job.Kind, State: video.StateCompleted}
	var finish event.Event

	switch o.job.Kind {
	case video.KindTrim:
		opts := o.job.Trim
		tr := &video.TrimResult{
			OutputPath: entry.Path,
			StartTime:  opts.StartTimeMs,
			EndTime:    opts.EndTimeMs,
			Duration:   opts.DurationMs(),
		}
		if opts.SaveToLibrary {
			tr.LibraryLocation = o.saveToLibrary(ctx, entry.Path)
		}
		result.Trim = tr
		finish = event.Event{Kind: event.KindFinishTrimming, Payload: event.FinishTrimming{
			OutputPath: tr.OutputPath,
			StartTime:  tr.StartTime,
			EndTime:    tr.EndTime,
			Duration:   tr.Duration,
		}}
	case video.KindCompress:
		cr := video.NewCompressResult(entry.Path, info.SizeBytes, entry.Size, info.DurationMs)
		result.Compress = &cr
		finish = event.Event{Kind: event.KindFinishCompressing, Payload: event.FinishCompressing{
			OutputPath:       cr.OutputPath,
			OriginalSize:     cr.OriginalSize,
			CompressedSize:   cr.CompressedSize,
			CompressionRatio: cr.RatioPercent(),
			Duration:         cr.Duration,
		}}
	}

	o.logger.Info("job completed", "output", entry.Path, "size", entry.Size)
	o.span.SetStatus(codes.Ok, "")
	o.finish(video.StateCompleted, result, nil, finish)
}

// saveToLibrary publishes the output. Failure is reported as an error Log
// event and does not fail the job.
func (o *operation) saveToLibrary(ctx context.Context, path string) string {
	if o.c.library == nil {
		o.publishLog(video.LogLevelError, "save to library requested but no library is configured")
		return ""
	}
	location, err := o.c.library.Save(ctx, path)
	if err != nil {
		o.logger.Error("library save failed", "error", err)
		o.span.RecordError(err)
		o.publishLog(video.LogLevelError, fmt.Sprintf("failed to save to library: %v", err))
		return ""
	}
	o.logger.Info("saved to library", "location", location)
	return location
}

func (o *operation) publishLog(level video.LogLevel, message string) {
	o.publish(event.KindLog, event.Log{Level: string(level), Message: message, SessionID: o.job.ID})
}

func (o *operation) fail(err error) {
	verr := video.AsError(err)
	o.logger.Error("job failed", "code", verr.Code, "error", verr.Message)
	o.span.RecordError(verr)
	o.span.SetStatus(codes.Error, verr.Code)
	o.finish(video.StateFailed, nil, verr, event.Event{
		Kind:    event.KindError,
		Payload: event.Error{Message: verr.Message, ErrorCode: verr.Code},
	})
}

func (o *operation) finishCancelled() {
	o.logger.Info("job cancelled")
	o.span.SetAttributes(attribute.Bool("job.cancelled", true))
	o.finish(video.StateCancelled,
		&video.Result{JobID: o.job.ID, Kind: o.job.Kind, State: video.StateCancelled}, nil,
		event.Event{Kind: cancelKind(o.job.Kind)})
}

// finish records the outcome and publishes the single terminal event
func (o *operation) finish(state video.State, result *video.Result, err error, terminal event.Event) {
	o.mu.Lock()
	if jerr := o.job.Transition(state); jerr != nil {
		o.logger.Error("state transition rejected", "error", jerr)
		o.job.State = state
	}
	o.result = result
	o.err = err
	o.mu.Unlock()

	terminal.SessionID = o.job.ID
	o.c.bus.Publish(terminal)
	o.c.release(o)
	close(o.done)
	o.c.wg.Done()
}

func (o *operation) publish(kind event.Kind, payload any) {
	o.c.bus.Publish(event.Event{Kind: kind, SessionID: o.job.ID, Payload: payload})
}

func (o *operation) removeOutput() {
	if err := o.c.store.Remove(o.outputPath()); err != nil {
		o.logger.Warn("failed to remove partial output", "error", err)
	}
}

func originFor(kind video.Kind) storage.Origin {
	if kind == video.KindCompress {
		return storage.OriginCompressOutput
	}
	return storage.OriginTrimOutput
}

func startKind(kind video.Kind) event.Kind {
	if kind == video.KindCompress {
		return event.KindStartCompressing
	}
	return event.KindStartTrimming
}

func cancelKind(kind video.Kind) event.Kind {
	if kind == video.KindCompress {
		return event.KindCancelCompressing
	}
	return event.KindCancelTrimming
}
