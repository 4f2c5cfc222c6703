package pipeline

import (
	"context"
	"errors"
	"os"
	"sync"

	"video-processing/domain/video"
)

// behavior scripts one fake codec run
type behavior func(ctx context.Context, s *fakeSession) error

type fakeCodec struct {
	mu       sync.Mutex
	behave   behavior
	startErr error
	started  int
	running  chan *fakeSession
}

func newFakeCodec(b behavior) *fakeCodec {
	return &fakeCodec{behave: b, running: make(chan *fakeSession, 16)}
}

func (c *fakeCodec) Start(ctx context.Context, req video.EncodeRequest) (video.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.startErr != nil {
		return nil, c.startErr
	}
	c.started++
	s := &fakeSession{
		req:      req,
		updates:  make(chan video.Update, 64),
		cancelCh: make(chan struct{}),
		done:     make(chan struct{}),
	}
	go func() {
		s.err = c.behave(ctx, s)
		close(s.updates)
		close(s.done)
	}()
	c.running <- s
	return s, nil
}

func (c *fakeCodec) startCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

type fakeSession struct {
	req        video.EncodeRequest
	updates    chan video.Update
	cancelCh   chan struct{}
	cancelOnce sync.Once
	done       chan struct{}
	err        error
}

func (s *fakeSession) Updates() <-chan video.Update { return s.updates }

func (s *fakeSession) Cancel() {
	s.cancelOnce.Do(func() { close(s.cancelCh) })
}

func (s *fakeSession) Wait() error {
	<-s.done
	return s.err
}

func (s *fakeSession) progress(frame int64) {
	s.updates <- video.Update{Progress: &video.Progress{FrameNumber: frame, FPS: 30, TimeMs: frame * 33, SizeBytes: frame * 1024, Speed: 1.5}}
}

func (s *fakeSession) log(level video.LogLevel, msg string) {
	s.updates <- video.Update{Log: &video.LogLine{Level: level, Message: msg}}
}

// succeed writes size bytes of output after a few progress reports
func succeed(size int) behavior {
	return func(ctx context.Context, s *fakeSession) error {
		s.log(video.LogLevelInfo, "Stream mapping:")
		for i := int64(1); i <= 3; i++ {
			s.progress(i)
		}
		return os.WriteFile(s.req.OutputPath, make([]byte, size), 0644)
	}
}

// blockUntilCancel keeps running until cancelled, then keeps reporting
// progress for a moment before exiting with an error like ffmpeg does on
// an interrupt
func blockUntilCancel(ctx context.Context, s *fakeSession) error {
	s.progress(1)
	if err := os.WriteFile(s.req.OutputPath, []byte("partial"), 0644); err != nil {
		return err
	}
	<-s.cancelCh
	s.progress(2)
	s.log(video.LogLevelInfo, "Exiting normally, received signal 2.")
	s.progress(3)
	return errors.New("exit status 255")
}

// ignoreCancel only stops when its process context is cancelled
func ignoreCancel(ctx context.Context, s *fakeSession) error {
	if err := os.WriteFile(s.req.OutputPath, []byte("partial"), 0644); err != nil {
		return err
	}
	<-ctx.Done()
	return ctx.Err()
}

// failWith reports an error line and a non-zero exit
func failWith(line string) behavior {
	return func(ctx context.Context, s *fakeSession) error {
		s.progress(1)
		s.log(video.LogLevelError, line)
		_ = os.WriteFile(s.req.OutputPath, []byte("garbage"), 0644)
		return errors.New("exit status 1")
	}
}

type fakeProber struct {
	info video.MediaInfo
	err  error

	// when release is set Probe signals entered and waits for it
	entered chan struct{}
	release chan struct{}
}

func (p *fakeProber) Probe(ctx context.Context, path string) (video.MediaInfo, error) {
	if p.release != nil {
		p.entered <- struct{}{}
		<-p.release
	}
	return p.info, p.err
}

type fakeLibrary struct {
	mu       sync.Mutex
	location string
	err      error
	saved    []string
}

func (l *fakeLibrary) Save(ctx context.Context, path string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.saved = append(l.saved, path)
	return l.location, l.err
}
