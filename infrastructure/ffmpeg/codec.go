package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"video-processing/domain/video"
)

// Codec implements video.Codec by running ffmpeg
type Codec struct {
	ffmpegPath string
	runner     CommandRunner
	settings   Settings
	logger     *slog.Logger
}

// CodecOption is a functional option for configuring Codec
type CodecOption func(*Codec)

// WithFFmpegPath sets a custom ffmpeg executable path
func WithFFmpegPath(path string) CodecOption {
	return func(c *Codec) {
		if path != "" {
			c.ffmpegPath = path
		}
	}
}

// WithCommandRunner sets a custom command runner (for testing)
func WithCommandRunner(runner CommandRunner) CodecOption {
	return func(c *Codec) {
		c.runner = runner
	}
}

// WithSettings sets the video and audio encoders
func WithSettings(s Settings) CodecOption {
	return func(c *Codec) {
		if s.VideoCodec != "" {
			c.settings.VideoCodec = s.VideoCodec
		}
		if s.AudioCodec != "" {
			c.settings.AudioCodec = s.AudioCodec
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) CodecOption {
	return func(c *Codec) {
		c.logger = logger
	}
}

// NewCodec creates a new FFmpeg-based codec
func NewCodec(opts ...CodecOption) *Codec {
	c := &Codec{
		ffmpegPath: "ffmpeg",
		runner:     &ExecCommandRunner{},
		settings:   DefaultSettings(),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start implements video.Codec
func (c *Codec) Start(ctx context.Context, req video.EncodeRequest) (video.Session, error) {
	args, err := BuildArgs(req, c.settings)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("starting ffmpeg", "job_id", req.Job.ID, "args", strings.Join(args, " "))
	proc, err := c.runner.Start(ctx, c.ffmpegPath, args...)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg start: %w", err)
	}

	s := &session{
		proc:    proc,
		updates: make(chan video.Update, 64),
	}
	s.readers.Add(2)
	go s.readProgress(proc.Stdout())
	go s.readLog(proc.Stderr())
	go func() {
		s.readers.Wait()
		close(s.updates)
	}()
	return s, nil
}

// VerifyInstalled checks that ffmpeg is available
func (c *Codec) VerifyInstalled(ctx context.Context) error {
	_, err := c.runner.Output(ctx, c.ffmpegPath, "-version")
	if err != nil {
		return fmt.Errorf("ffmpeg not found or not executable: %w", err)
	}
	return nil
}

// session is one running ffmpeg process
type session struct {
	proc    Process
	updates chan video.Update
	readers sync.WaitGroup

	cancelOnce sync.Once
	waitOnce   sync.Once
	waitErr    error
}

func (s *session) Updates() <-chan video.Update {
	return s.updates
}

func (s *session) Cancel() {
	s.cancelOnce.Do(func() {
		_ = s.proc.Interrupt()
	})
}

func (s *session) Wait() error {
	s.waitOnce.Do(func() {
		s.readers.Wait()
		if err := s.proc.Wait(); err != nil {
			s.waitErr = fmt.Errorf("ffmpeg execution: %w", err)
		}
	})
	return s.waitErr
}

func (s *session) readProgress(r io.Reader) {
	defer s.readers.Done()

	var parser progressParser
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if p, ok := parser.Feed(scanner.Text()); ok {
			s.updates <- video.Update{Progress: p}
		}
	}
}

func (s *session) readLog(r io.Reader) {
	defer s.readers.Done()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry := ParseLogLine(line)
		s.updates <- video.Update{Log: &entry}
	}
}

// Ensure Codec implements video.Codec
var _ video.Codec = (*Codec)(nil)
