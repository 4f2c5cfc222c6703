package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"

	"video-processing/application/events"
	"video-processing/application/pipeline"
	"video-processing/domain/storage"
	"video-processing/domain/video"
	"video-processing/infrastructure/filesystem"
)

// stubCodec writes outputSize bytes after one progress report. With block
// set it waits for Cancel instead and exits like an interrupted encoder.
type stubCodec struct {
	mu         sync.Mutex
	outputSize int
	block      bool
	requests   []video.EncodeRequest
	running    chan struct{}
}

func (c *stubCodec) Start(ctx context.Context, req video.EncodeRequest) (video.Session, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	c.mu.Unlock()

	s := &stubSession{updates: make(chan video.Update, 8), cancel: make(chan struct{}), done: make(chan struct{})}
	go func() {
		defer close(s.done)
		defer close(s.updates)
		s.updates <- video.Update{Progress: &video.Progress{FrameNumber: 30, TimeMs: 1000, SizeBytes: 2048, Speed: 2}}
		if c.block {
			_ = os.WriteFile(req.OutputPath, []byte("partial"), 0644)
			if c.running != nil {
				close(c.running)
			}
			<-s.cancel
			s.err = errors.New("exit status 255")
			return
		}
		s.err = os.WriteFile(req.OutputPath, make([]byte, c.outputSize), 0644)
	}()
	return s, nil
}

func (c *stubCodec) lastRequest() video.EncodeRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requests[len(c.requests)-1]
}

type stubSession struct {
	updates    chan video.Update
	cancel     chan struct{}
	cancelOnce sync.Once
	done       chan struct{}
	err        error
}

func (s *stubSession) Updates() <-chan video.Update { return s.updates }

func (s *stubSession) Cancel() {
	s.cancelOnce.Do(func() { close(s.cancel) })
}

func (s *stubSession) Wait() error {
	<-s.done
	return s.err
}

type stubProber struct {
	info video.MediaInfo
}

func (p *stubProber) Probe(ctx context.Context, path string) (video.MediaInfo, error) {
	return p.info, nil
}

// testPipeline is a coordinator over a real store and bus with a stub codec
type testPipeline struct {
	coord  *pipeline.Coordinator
	bus    *events.Bus
	codec  *stubCodec
	store  *filesystem.Store
	source string
}

func newTestPipeline(t *testing.T, codec *stubCodec) *testPipeline {
	t.Helper()
	store, err := filesystem.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	source := filepath.Join(t.TempDir(), "input.mp4")
	if err := os.WriteFile(source, make([]byte, 1000), 0644); err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := events.NewBus(events.WithLogger(logger))
	prober := &stubProber{info: video.MediaInfo{DurationMs: 60000, Width: 1920, Height: 1080, SizeBytes: 1000}}
	coord := pipeline.NewCoordinator(store, codec, prober, bus, pipeline.WithLogger(logger))

	t.Cleanup(func() {
		_ = coord.Shutdown(context.Background())
	})
	return &testPipeline{coord: coord, bus: bus, codec: codec, store: store, source: source}
}

// mockPrompter replays scripted answers
type mockPrompter struct {
	inputs   []string
	confirms []bool
	selects  []string
	asked    []string
}

func (m *mockPrompter) Input(message string, defaultValue string) (string, error) {
	m.asked = append(m.asked, message)
	if len(m.inputs) == 0 {
		if defaultValue != "" {
			return defaultValue, nil
		}
		return "", errors.New("no more input responses")
	}
	v := m.inputs[0]
	m.inputs = m.inputs[1:]
	return v, nil
}

func (m *mockPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	m.asked = append(m.asked, message)
	if len(m.confirms) == 0 {
		return defaultValue, nil
	}
	v := m.confirms[0]
	m.confirms = m.confirms[1:]
	return v, nil
}

func (m *mockPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	m.asked = append(m.asked, message)
	if len(m.selects) == 0 {
		return defaultValue, nil
	}
	v := m.selects[0]
	m.selects = m.selects[1:]
	return v, nil
}

type fakeFiles struct {
	entries  []storage.Entry
	removed  int
	cleanErr error
	deleted  []string
}

func (f *fakeFiles) Files() ([]storage.Entry, error) { return f.entries, nil }

func (f *fakeFiles) List() ([]storage.Entry, error) { return f.entries, nil }

func (f *fakeFiles) CleanFiles() (int, error) { return f.removed, f.cleanErr }

func (f *fakeFiles) DeleteFile(path string) error {
	f.deleted = append(f.deleted, path)
	return nil
}

type fakeRetentionStore struct {
	entries []storage.Entry
	deleted []string
}

func (s *fakeRetentionStore) List() ([]storage.Entry, error) {
	var live []storage.Entry
	for _, e := range s.entries {
		if !slices.Contains(s.deleted, e.Path) {
			live = append(live, e)
		}
	}
	return live, nil
}

func (s *fakeRetentionStore) Delete(path string) error {
	s.deleted = append(s.deleted, path)
	return nil
}

type fakeValidator map[string]bool

func (v fakeValidator) IsValidFile(path string) bool { return v[path] }

type fakeLibrary struct {
	saved []string
	err   error
}

func (l *fakeLibrary) Save(ctx context.Context, path string) (string, error) {
	if l.err != nil {
		return "", l.err
	}
	l.saved = append(l.saved, path)
	return "s3://videos/" + filepath.Base(path), nil
}
