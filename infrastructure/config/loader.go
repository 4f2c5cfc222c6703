package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"video-processing/domain/video"
)

// DefaultPath is where the CLI looks for its configuration
const DefaultPath = "config/config.yaml"

// Library providers
const (
	ProviderNone  = "none"
	ProviderDrive = "drive"
	ProviderS3    = "s3"
)

// Probers
const (
	ProberFFprobe = "ffprobe"
	ProberOpenCV  = "opencv"
)

// Config represents the complete application configuration
type Config struct {
	Paths    PathsConfig    `yaml:"paths"`
	FFmpeg   FFmpegConfig   `yaml:"ffmpeg"`
	Compress CompressConfig `yaml:"compress"`
	Library  LibraryConfig  `yaml:"library"`
	Relay    RelayConfig    `yaml:"relay"`
	Logging  LoggingConfig  `yaml:"logging"`
	Prober   string         `yaml:"prober"`
}

// PathsConfig contains the working directory for outputs
type PathsConfig struct {
	WorkingDirectory string `yaml:"working_directory"`
}

// FFmpegConfig locates the ffmpeg binaries
type FFmpegConfig struct {
	FFmpegPath  string `yaml:"ffmpeg_path"`
	FFprobePath string `yaml:"ffprobe_path"`
	CancelGrace string `yaml:"cancel_grace"`
}

// CompressConfig holds the defaults for unset compress options
type CompressConfig struct {
	CRF          int    `yaml:"crf"`
	Preset       string `yaml:"preset"`
	AudioBitrate string `yaml:"audio_bitrate"`
	VideoCodec   string `yaml:"video_codec"`
	AudioCodec   string `yaml:"audio_codec"`
}

// LibraryConfig selects where saveToLibrary outputs are published
type LibraryConfig struct {
	Provider string      `yaml:"provider"`
	Drive    DriveConfig `yaml:"drive"`
	S3       S3Config    `yaml:"s3"`
}

// DriveConfig contains Google Drive settings. ServiceAccountFile takes
// precedence over the OAuth credentials.
type DriveConfig struct {
	CredentialsFile    string `yaml:"credentials_file"`
	TokenFile          string `yaml:"token_file"`
	ServiceAccountFile string `yaml:"service_account_file"`
	FolderID           string `yaml:"folder_id"`
	ShareLinks         bool   `yaml:"share_links"`
}

// S3Config contains S3-compatible object storage settings
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
}

// RelayConfig enables publishing events to Redis when RedisAddr is set
type RelayConfig struct {
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	Channel       string `yaml:"channel"`
}

// LoggingConfig controls the slog handler
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills every unset value
func (c *Config) ApplyDefaults() {
	if c.Paths.WorkingDirectory == "" {
		c.Paths.WorkingDirectory = filepath.Join(os.TempDir(), "video-processing")
	}
	if c.FFmpeg.FFmpegPath == "" {
		c.FFmpeg.FFmpegPath = "ffmpeg"
	}
	if c.FFmpeg.FFprobePath == "" {
		c.FFmpeg.FFprobePath = "ffprobe"
	}
	if c.FFmpeg.CancelGrace == "" {
		c.FFmpeg.CancelGrace = "5s"
	}
	if c.Compress.CRF == 0 {
		c.Compress.CRF = 23
	}
	if c.Compress.Preset == "" {
		c.Compress.Preset = "medium"
	}
	if c.Compress.AudioBitrate == "" {
		c.Compress.AudioBitrate = "128k"
	}
	if c.Compress.VideoCodec == "" {
		c.Compress.VideoCodec = "libx264"
	}
	if c.Compress.AudioCodec == "" {
		c.Compress.AudioCodec = "aac"
	}
	if c.Library.Provider == "" {
		c.Library.Provider = ProviderNone
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Prober == "" {
		c.Prober = ProberFFprobe
	}
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	if _, err := c.CancelGrace(); err != nil {
		return err
	}
	if err := validateCompressDefaults(c.CompressDefaults()); err != nil {
		return err
	}
	switch c.Library.Provider {
	case ProviderNone, ProviderDrive:
	case ProviderS3:
		if c.Library.S3.Bucket == "" {
			return fmt.Errorf("library.s3.bucket is required for the s3 provider")
		}
	default:
		return fmt.Errorf("unknown library provider %q", c.Library.Provider)
	}
	switch c.Prober {
	case ProberFFprobe, ProberOpenCV:
	default:
		return fmt.Errorf("unknown prober %q", c.Prober)
	}
	return nil
}

// CancelGrace parses ffmpeg.cancel_grace
func (c *Config) CancelGrace() (time.Duration, error) {
	d, err := time.ParseDuration(c.FFmpeg.CancelGrace)
	if err != nil {
		return 0, fmt.Errorf("invalid ffmpeg.cancel_grace %q: %w", c.FFmpeg.CancelGrace, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("ffmpeg.cancel_grace must be positive")
	}
	return d, nil
}

// CompressDefaults returns the compress section as pipeline defaults
func (c *Config) CompressDefaults() video.CompressDefaults {
	return video.CompressDefaults{
		CRF:           c.Compress.CRF,
		EncoderPreset: c.Compress.Preset,
		AudioBitrate:  c.Compress.AudioBitrate,
	}
}

func validateCompressDefaults(d video.CompressDefaults) error {
	crf := d.CRF
	opts := video.CompressOptions{CRF: &crf, EncoderPreset: d.EncoderPreset, AudioBitrate: d.AudioBitrate}
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("compress defaults: %w", err)
	}
	return nil
}

// Load reads and parses the configuration from the specified YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads path, falling back to Default when the file does not
// exist. Any other error is returned.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Save writes the configuration to the specified YAML file
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
