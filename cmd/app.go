package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"video-processing/application/events"
	"video-processing/application/pipeline"
	"video-processing/domain/video"
	"video-processing/infrastructure/config"
	"video-processing/infrastructure/drive"
	"video-processing/infrastructure/ffmpeg"
	"video-processing/infrastructure/filesystem"
	"video-processing/infrastructure/logging"
	"video-processing/infrastructure/objectstore"
	"video-processing/infrastructure/opencv"
	"video-processing/infrastructure/relay"
)

// App holds the production dependencies built from the configuration
type App struct {
	Config      *config.Config
	Logger      *slog.Logger
	Store       *filesystem.Store
	Bus         *events.Bus
	Coordinator *pipeline.Coordinator
	Library     video.Library

	relay *relay.Relay
}

// NewApp wires the pipeline from cfg. Logs go to logOut.
func NewApp(ctx context.Context, cfg *config.Config, logOut io.Writer) (*App, error) {
	logger, err := logging.New(cfg.Logging, logOut)
	if err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}

	store, err := filesystem.NewStore(cfg.Paths.WorkingDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to open working directory: %w", err)
	}

	grace, err := cfg.CancelGrace()
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Store:   store,
		Bus:     events.NewBus(events.WithLogger(logger)),
		Library: newLazyLibrary(ctx, cfg, logOut),
	}

	if cfg.Relay.RedisAddr != "" {
		r, err := relay.New(ctx, relay.Config{
			Addr:     cfg.Relay.RedisAddr,
			Password: cfg.Relay.RedisPassword,
			DB:       cfg.Relay.RedisDB,
			Channel:  cfg.Relay.Channel,
		}, relay.WithLogger(logger))
		if err != nil {
			app.Bus.Close()
			return nil, fmt.Errorf("failed to connect event relay: %w", err)
		}
		app.relay = r
		app.Bus.SubscribeAll(r.Handle)
	}

	codec := ffmpeg.NewCodec(
		ffmpeg.WithFFmpegPath(cfg.FFmpeg.FFmpegPath),
		ffmpeg.WithSettings(ffmpeg.Settings{
			VideoCodec: cfg.Compress.VideoCodec,
			AudioCodec: cfg.Compress.AudioCodec,
		}),
		ffmpeg.WithLogger(logger),
	)

	app.Coordinator = pipeline.NewCoordinator(store, codec, newProber(cfg, logger), app.Bus,
		pipeline.WithLibrary(app.Library),
		pipeline.WithLogger(logger),
		pipeline.WithTracer(otel.Tracer("video-processing/pipeline")),
		pipeline.WithCancelGrace(grace),
		pipeline.WithCompressDefaults(cfg.CompressDefaults()),
	)
	return app, nil
}

// VerifyInstalled checks that ffmpeg can be executed
func (a *App) VerifyInstalled(ctx context.Context) error {
	verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	codec := ffmpeg.NewCodec(ffmpeg.WithFFmpegPath(a.Config.FFmpeg.FFmpegPath))
	if err := codec.VerifyInstalled(verifyCtx); err != nil {
		return fmt.Errorf("ffmpeg verification failed: %w", err)
	}
	return nil
}

// Close cancels any live job, drains the bus and disconnects the relay
func (a *App) Close(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := a.Coordinator.Shutdown(shutdownCtx)
	if a.relay != nil {
		err = errors.Join(err, a.relay.Close())
	}
	return err
}

func newProber(cfg *config.Config, logger *slog.Logger) video.Prober {
	if cfg.Prober == config.ProberOpenCV {
		if opencv.Available() {
			return opencv.NewProber()
		}
		logger.Warn("opencv prober not compiled in, falling back to ffprobe")
	}
	return ffmpeg.NewProber(ffmpeg.WithFFprobePath(cfg.FFmpeg.FFprobePath))
}

// lazyLibrary builds the configured library on first use so commands that
// never save do not authenticate
type lazyLibrary struct {
	once  sync.Once
	build func() (video.Library, error)
	lib   video.Library
	err   error
}

func newLazyLibrary(ctx context.Context, cfg *config.Config, out io.Writer) *lazyLibrary {
	return &lazyLibrary{build: func() (video.Library, error) {
		return buildLibrary(ctx, cfg.Library, out)
	}}
}

func (l *lazyLibrary) Save(ctx context.Context, path string) (string, error) {
	l.once.Do(func() {
		l.lib, l.err = l.build()
	})
	if l.err != nil {
		return "", l.err
	}
	return l.lib.Save(ctx, path)
}

var _ video.Library = (*lazyLibrary)(nil)

// ErrNoLibrary is returned when saving with library.provider set to none
var ErrNoLibrary = errors.New("no library provider configured; set library.provider to drive or s3")

func buildLibrary(ctx context.Context, cfg config.LibraryConfig, out io.Writer) (video.Library, error) {
	switch cfg.Provider {
	case config.ProviderDrive:
		opts := []drive.ClientOption{
			drive.WithFolderID(cfg.Drive.FolderID),
			drive.WithShareLinks(cfg.Drive.ShareLinks),
		}
		if cfg.Drive.ServiceAccountFile != "" {
			return drive.NewClient(ctx, cfg.Drive.ServiceAccountFile, opts...)
		}
		return drive.NewClientWithOAuth(ctx, drive.OAuthConfig{
			CredentialsFile: cfg.Drive.CredentialsFile,
			TokenFile:       cfg.Drive.TokenFile,
			Out:             out,
		}, opts...)
	case config.ProviderS3:
		p, err := objectstore.NewPublisher(objectstore.Config{
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
		})
		if err != nil {
			return nil, err
		}
		if err := p.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, ErrNoLibrary
	}
}

// newAppFromFlags loads the app for a command, logging to stderr
func newAppFromFlags(ctx context.Context) (*App, error) {
	cfg, err := loadedConfig()
	if err != nil {
		return nil, err
	}
	return NewApp(ctx, cfg, os.Stderr)
}
