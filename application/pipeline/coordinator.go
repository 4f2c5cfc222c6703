package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"video-processing/domain/event"
	"video-processing/domain/storage"
	"video-processing/domain/video"
)

// DefaultCancelGrace is how long a cancelled codec may take to stop before
// it is killed
const DefaultCancelGrace = 5 * time.Second

var (
	// ErrEditorAlreadyOpen matches the error returned when a second editor is opened
	ErrEditorAlreadyOpen = video.ErrAlreadyOpen

	// ErrSourceBusy matches the error returned for a source that already has a live job
	ErrSourceBusy = video.ErrSourceBusy

	// ErrNoEditorOpen is returned when closing or using an editor that is not open
	ErrNoEditorOpen = errors.New("no editor is open")

	// ErrShutdown is returned for requests made after Shutdown
	ErrShutdown = errors.New("coordinator is shut down")
)

// Publisher is the part of the event bus the pipeline needs
type Publisher interface {
	Publish(e event.Event) event.Event
}

// Coordinator accepts trim and compress requests, enforces the editor and
// per-source rules, and owns every live operation
type Coordinator struct {
	store    storage.FileStore
	codec    video.Codec
	prober   video.Prober
	bus      Publisher
	library  video.Library
	logger   *slog.Logger
	tracer   trace.Tracer
	grace    time.Duration
	defaults video.CompressDefaults

	mu      sync.Mutex
	editor  *EditorSession
	sources map[string]*operation
	live    map[string]*operation
	closed  bool
	wg      sync.WaitGroup
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithLibrary sets where saveToLibrary outputs are published
func WithLibrary(library video.Library) Option {
	return func(c *Coordinator) {
		c.library = library
	}
}

// WithLogger sets the coordinator logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithTracer sets the tracer used for operation spans
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Coordinator) {
		c.tracer = tracer
	}
}

// WithCancelGrace sets how long a cancelled codec may run before it is killed
func WithCancelGrace(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.grace = d
		}
	}
}

// WithCompressDefaults sets the values used for unset compress options
func WithCompressDefaults(d video.CompressDefaults) Option {
	return func(c *Coordinator) {
		c.defaults = d
	}
}

// NewCoordinator creates a coordinator
func NewCoordinator(store storage.FileStore, codec video.Codec, prober video.Prober, bus Publisher, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:    store,
		codec:    codec,
		prober:   prober,
		bus:      bus,
		logger:   slog.Default(),
		tracer:   otel.Tracer("video-processing/pipeline"),
		grace:    DefaultCancelGrace,
		defaults: video.CompressDefaults{CRF: 23, EncoderPreset: "medium", AudioBitrate: "128k"},
		sources:  make(map[string]*operation),
		live:     make(map[string]*operation),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Trim starts a non-interactive trim of source. The call returns once the
// job is accepted; the outcome is delivered through the handle and events.
func (c *Coordinator) Trim(ctx context.Context, source string, opts video.TrimOptions) (*Handle, error) {
	return c.start(ctx, video.NewTrimJob(source, opts), nil)
}

// Compress starts a compression job. Unset options take the configured
// defaults.
func (c *Coordinator) Compress(ctx context.Context, opts video.CompressOptions) (*Handle, error) {
	return c.start(ctx, video.NewCompressJob(opts.WithDefaults(c.defaults)), nil)
}

func (c *Coordinator) start(ctx context.Context, job *video.Job, editor *EditorSession) (*Handle, error) {
	key := sourceKey(job.SourcePath)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrShutdown
	}
	if editor != nil {
		if c.editor != editor {
			return nil, ErrNoEditorOpen
		}
	} else if c.editor != nil && c.editor.key == key {
		return nil, video.NewError(video.KindAlreadyOpen, video.CodeAlreadyOpen,
			fmt.Sprintf("an editor is open on %s", job.SourcePath), nil)
	}
	if busy, ok := c.sources[key]; ok {
		return nil, video.NewError(video.KindAlreadyOpen, video.CodeSourceBusy,
			fmt.Sprintf("job %s is already processing %s", busy.job.ID, job.SourcePath), nil)
	}

	op := newOperation(c, job, key)
	op.editor = editor
	if editor != nil {
		editor.current = op
	}
	c.sources[key] = op
	c.live[job.ID] = op
	c.wg.Add(1)

	go op.run(ctx)
	return &Handle{op: op}, nil
}

// release drops a finished operation from the registries
func (c *Coordinator) release(op *operation) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sources[op.key] == op {
		delete(c.sources, op.key)
	}
	delete(c.live, op.job.ID)
	if op.editor != nil && op.editor.current == op {
		op.editor.current = nil
	}
}

// Cancel cancels the live job with the given id
func (c *Coordinator) Cancel(jobID string) bool {
	c.mu.Lock()
	op, ok := c.live[jobID]
	c.mu.Unlock()
	if ok {
		op.Cancel()
	}
	return ok
}

// IsValidFile reports whether path can be used as a source
func (c *Coordinator) IsValidFile(path string) bool {
	return c.store.Validate(path) == nil
}

// ListFiles returns the paths in the working directory, oldest first
func (c *Coordinator) ListFiles() ([]string, error) {
	entries, err := c.store.List()
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	return paths, nil
}

// Files returns the working directory entries, oldest first
func (c *Coordinator) Files() ([]storage.Entry, error) {
	return c.store.List()
}

// CleanFiles deletes every file in the working directory it can
func (c *Coordinator) CleanFiles() (int, error) {
	removed, err := c.store.CleanAll()
	if err != nil {
		c.logger.Warn("clean finished with errors", "removed", removed, "error", err)
	}
	return removed, err
}

// DeleteFile removes one file from the working directory
func (c *Coordinator) DeleteFile(path string) error {
	return c.store.Delete(path)
}

// Shutdown cancels every live job and waits for them to reach a terminal
// state. The bus is closed when it supports it.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	ops := make([]*operation, 0, len(c.live))
	for _, op := range c.live {
		ops = append(ops, op)
	}
	editor := c.editor
	c.mu.Unlock()

	if editor != nil {
		_ = c.closeEditor(editor)
	}
	for _, op := range ops {
		op.Cancel()
	}

	waited := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(waited)
	}()

	select {
	case <-waited:
	case <-ctx.Done():
		return fmt.Errorf("waiting for jobs to stop: %w", ctx.Err())
	}

	if closer, ok := c.bus.(interface{ Close() }); ok {
		closer.Close()
	}
	return nil
}

// sourceKey normalises a source so different spellings of one file collide
func sourceKey(path string) string {
	lower := strings.ToLower(path)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return path
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
