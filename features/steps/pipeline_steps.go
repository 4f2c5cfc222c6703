//go:build integration

package steps

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"video-processing/application/events"
	"video-processing/application/pipeline"
	"video-processing/domain/event"
	"video-processing/domain/video"
	"video-processing/infrastructure/filesystem"

	"github.com/cucumber/godog"
)

// scriptedCodec writes outputSize bytes after a few progress reports, or
// blocks until cancelled when block is set
type scriptedCodec struct {
	mu         sync.Mutex
	outputSize int
	block      bool
	requests   []video.EncodeRequest
	running    chan struct{}
}

func (c *scriptedCodec) Start(ctx context.Context, req video.EncodeRequest) (video.Session, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	block, size, running := c.block, c.outputSize, c.running
	c.mu.Unlock()

	s := &scriptedSession{updates: make(chan video.Update, 16), cancel: make(chan struct{}), done: make(chan struct{})}
	go func() {
		defer close(s.done)
		defer close(s.updates)
		for i := int64(1); i <= 3; i++ {
			s.updates <- video.Update{Progress: &video.Progress{FrameNumber: i * 10, TimeMs: i * 1000, SizeBytes: i * 512, Speed: 1}}
		}
		if block {
			_ = os.WriteFile(req.OutputPath, []byte("partial"), 0644)
			running <- struct{}{}
			<-s.cancel
			s.err = errors.New("exit status 255")
			return
		}
		s.err = os.WriteFile(req.OutputPath, make([]byte, size), 0644)
	}()
	return s, nil
}

func (c *scriptedCodec) lastRequest() (video.EncodeRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.requests) == 0 {
		return video.EncodeRequest{}, fmt.Errorf("the encoder was never started")
	}
	return c.requests[len(c.requests)-1], nil
}

type scriptedSession struct {
	updates    chan video.Update
	cancel     chan struct{}
	cancelOnce sync.Once
	done       chan struct{}
	err        error
}

func (s *scriptedSession) Updates() <-chan video.Update { return s.updates }

func (s *scriptedSession) Cancel() {
	s.cancelOnce.Do(func() { close(s.cancel) })
}

func (s *scriptedSession) Wait() error {
	<-s.done
	return s.err
}

type fixedProber struct {
	mu   sync.Mutex
	info video.MediaInfo
}

func (p *fixedProber) Probe(ctx context.Context, path string) (video.MediaInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	info := p.info
	if st, err := os.Stat(path); err == nil {
		info.SizeBytes = st.Size()
	}
	return info, nil
}

// pipelineContext holds the pipeline shared by trim, compress, editor and
// files scenarios
type pipelineContext struct {
	workDir   string
	sourceDir string
	store     *filesystem.Store
	bus       *events.Bus
	codec     *scriptedCodec
	prober    *fixedProber
	coord     *pipeline.Coordinator

	mu     sync.Mutex
	events []event.Event

	handle  *pipeline.Handle
	handles []*pipeline.Handle
	result  *video.Result
	err     error
	editor  *pipeline.EditorSession
}

// SharedPipelineContext is reset before each scenario via Before hook
var SharedPipelineContext *pipelineContext

func getPipelineContext() *pipelineContext {
	return SharedPipelineContext
}

func newPipelineContext() (*pipelineContext, error) {
	workDir, err := os.MkdirTemp("", "video-processing-work-*")
	if err != nil {
		return nil, err
	}
	sourceDir, err := os.MkdirTemp("", "video-processing-src-*")
	if err != nil {
		return nil, err
	}
	store, err := filesystem.NewStore(workDir)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := &pipelineContext{
		workDir:   workDir,
		sourceDir: sourceDir,
		store:     store,
		bus:       events.NewBus(events.WithLogger(logger)),
		codec:     &scriptedCodec{outputSize: 400, running: make(chan struct{}, 4)},
		prober:    &fixedProber{info: video.MediaInfo{DurationMs: 60000, Width: 1920, Height: 1080}},
	}
	p.bus.SubscribeAll(p.record)
	p.coord = pipeline.NewCoordinator(store, p.codec, p.prober, p.bus,
		pipeline.WithLogger(logger),
		pipeline.WithCancelGrace(time.Second))
	return p, nil
}

func (p *pipelineContext) record(e event.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

// recorded flushes the bus and returns the events seen so far
func (p *pipelineContext) recorded() ([]event.Event, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.bus.Flush(ctx); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.Event(nil), p.events...), nil
}

func (p *pipelineContext) sourcePath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(p.sourceDir, name)
}

// track records a start attempt. A rejected attempt keeps the previous
// handle so the running job can still be cancelled.
func (p *pipelineContext) track(h *pipeline.Handle, err error) {
	p.err = err
	if h != nil {
		p.handle = h
		p.handles = append(p.handles, h)
	}
}

func (p *pipelineContext) wait() error {
	if p.handle == nil {
		return p.err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	p.result, p.err = p.handle.Wait(ctx)
	return nil
}

func InitializePipelineScenario(ctx *godog.ScenarioContext) {
	ctx.Before(func(c context.Context, sc *godog.Scenario) (context.Context, error) {
		p, err := newPipelineContext()
		if err != nil {
			return c, err
		}
		SharedPipelineContext = p
		return c, nil
	})

	ctx.After(func(c context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		p := getPipelineContext()
		if p != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			_ = p.coord.Shutdown(shutdownCtx)
			cancel()
			os.RemoveAll(p.workDir)
			os.RemoveAll(p.sourceDir)
		}
		SharedPipelineContext = nil
		return c, nil
	})

	ctx.Step(`^a source video "([^"]*)" of (\d+) bytes lasting (\d+) ms$`, aSourceVideoOfBytesLasting)
	ctx.Step(`^a source video "([^"]*)"$`, aSourceVideo)
	ctx.Step(`^the encoder keeps running until cancelled$`, theEncoderKeepsRunningUntilCancelled)
	ctx.Step(`^the encoder writes (\d+) bytes$`, theEncoderWritesBytes)
	ctx.Step(`^I cancel the job$`, iCancelTheJob)
	ctx.Step(`^the job should be cancelled$`, theJobShouldBeCancelled)
	ctx.Step(`^the job should fail with code "([^"]*)"$`, theJobShouldFailWithCode)
	ctx.Step(`^the request should be rejected with code "([^"]*)"$`, theRequestShouldBeRejectedWithCode)
	ctx.Step(`^the events should be:$`, theEventsShouldBe)
	ctx.Step(`^exactly one terminal event should be published for the job$`, exactlyOneTerminalEventShouldBePublished)
	ctx.Step(`^the working directory should contain (\d+) files?$`, theWorkingDirectoryShouldContainFiles)
}

func aSourceVideoOfBytesLasting(name string, size, durationMs int) error {
	p := getPipelineContext()
	if err := os.WriteFile(p.sourcePath(name), make([]byte, size), 0644); err != nil {
		return err
	}
	p.prober.mu.Lock()
	p.prober.info.DurationMs = int64(durationMs)
	p.prober.mu.Unlock()
	return nil
}

func aSourceVideo(name string) error {
	return aSourceVideoOfBytesLasting(name, 1000, 60000)
}

func theEncoderKeepsRunningUntilCancelled() error {
	p := getPipelineContext()
	p.codec.mu.Lock()
	p.codec.block = true
	p.codec.mu.Unlock()
	return nil
}

func theEncoderWritesBytes(size int) error {
	p := getPipelineContext()
	p.codec.mu.Lock()
	p.codec.outputSize = size
	p.codec.mu.Unlock()
	return nil
}

func iCancelTheJob() error {
	p := getPipelineContext()
	if p.handle == nil {
		return fmt.Errorf("no job was started: %v", p.err)
	}
	select {
	case <-p.codec.running:
	case <-time.After(5 * time.Second):
		return fmt.Errorf("the encoder never started")
	}
	p.handle.Cancel()
	return p.wait()
}

func theJobShouldBeCancelled() error {
	p := getPipelineContext()
	if p.err != nil {
		return fmt.Errorf("expected cancellation, got error: %v", p.err)
	}
	if !p.result.Cancelled() {
		return fmt.Errorf("expected cancelled result, got %+v", p.result)
	}
	return nil
}

func theJobShouldFailWithCode(code string) error {
	p := getPipelineContext()
	if err := p.wait(); err != nil {
		return err
	}
	return expectCode(p.err, code)
}

func theRequestShouldBeRejectedWithCode(code string) error {
	return expectCode(getPipelineContext().err, code)
}

func expectCode(err error, code string) error {
	var verr *video.Error
	if !errors.As(err, &verr) {
		return fmt.Errorf("expected error with code %s, got %v", code, err)
	}
	if verr.Code != code {
		return fmt.Errorf("expected code %s, got %s (%s)", code, verr.Code, verr.Message)
	}
	return nil
}

// theEventsShouldBe compares the non-progress event kinds in order
func theEventsShouldBe(table *godog.Table) error {
	p := getPipelineContext()
	recorded, err := p.recorded()
	if err != nil {
		return err
	}

	var got []string
	for _, e := range recorded {
		if e.Kind == event.KindStatistics || e.Kind == event.KindLog {
			continue
		}
		got = append(got, string(e.Kind))
	}

	var want []string
	for i, row := range table.Rows {
		if i == 0 {
			continue // Skip header row
		}
		want = append(want, row.Cells[0].Value)
	}

	if len(got) != len(want) {
		return fmt.Errorf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("event %d: expected %s, got %s (all: %v)", i, want[i], got[i], got)
		}
	}
	return nil
}

func exactlyOneTerminalEventShouldBePublished() error {
	p := getPipelineContext()
	recorded, err := p.recorded()
	if err != nil {
		return err
	}
	count := 0
	for _, e := range recorded {
		if e.SessionID == p.handle.ID() && e.Kind.IsTerminal() {
			count++
		}
	}
	if count != 1 {
		return fmt.Errorf("expected 1 terminal event, got %d", count)
	}
	return nil
}

func theWorkingDirectoryShouldContainFiles(n int) error {
	p := getPipelineContext()
	files, err := p.coord.ListFiles()
	if err != nil {
		return err
	}
	if len(files) != n {
		return fmt.Errorf("expected %d files, got %d: %v", n, len(files), files)
	}
	return nil
}
