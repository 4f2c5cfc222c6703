package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Errors for config management
var (
	ErrUnknownKey   = errors.New("unknown config key")
	ErrInvalidValue = errors.New("invalid config value")
)

// Entry is one key/value pair of the flattened configuration
type Entry struct {
	Key    string
	Value  string
	Secret bool
}

type field struct {
	get    func(*Config) string
	set    func(*Config, string) error
	secret bool
}

func stringField(p func(*Config) *string) field {
	return field{
		get: func(c *Config) string { return *p(c) },
		set: func(c *Config, v string) error {
			*p(c) = v
			return nil
		},
	}
}

func secretField(p func(*Config) *string) field {
	f := stringField(p)
	f.secret = true
	return f
}

func intField(p func(*Config) *int) field {
	return field{
		get: func(c *Config) string { return strconv.Itoa(*p(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, v)
			}
			*p(c) = n
			return nil
		},
	}
}

func boolField(p func(*Config) *bool) field {
	return field{
		get: func(c *Config) string { return strconv.FormatBool(*p(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: %q is not a boolean", ErrInvalidValue, v)
			}
			*p(c) = b
			return nil
		},
	}
}

var fields = map[string]field{
	"paths.working_directory":            stringField(func(c *Config) *string { return &c.Paths.WorkingDirectory }),
	"ffmpeg.ffmpeg_path":                 stringField(func(c *Config) *string { return &c.FFmpeg.FFmpegPath }),
	"ffmpeg.ffprobe_path":                stringField(func(c *Config) *string { return &c.FFmpeg.FFprobePath }),
	"ffmpeg.cancel_grace":                stringField(func(c *Config) *string { return &c.FFmpeg.CancelGrace }),
	"compress.crf":                       intField(func(c *Config) *int { return &c.Compress.CRF }),
	"compress.preset":                    stringField(func(c *Config) *string { return &c.Compress.Preset }),
	"compress.audio_bitrate":             stringField(func(c *Config) *string { return &c.Compress.AudioBitrate }),
	"compress.video_codec":               stringField(func(c *Config) *string { return &c.Compress.VideoCodec }),
	"compress.audio_codec":               stringField(func(c *Config) *string { return &c.Compress.AudioCodec }),
	"library.provider":                   stringField(func(c *Config) *string { return &c.Library.Provider }),
	"library.drive.credentials_file":     stringField(func(c *Config) *string { return &c.Library.Drive.CredentialsFile }),
	"library.drive.token_file":           stringField(func(c *Config) *string { return &c.Library.Drive.TokenFile }),
	"library.drive.service_account_file": stringField(func(c *Config) *string { return &c.Library.Drive.ServiceAccountFile }),
	"library.drive.folder_id":            stringField(func(c *Config) *string { return &c.Library.Drive.FolderID }),
	"library.drive.share_links":          boolField(func(c *Config) *bool { return &c.Library.Drive.ShareLinks }),
	"library.s3.endpoint":                stringField(func(c *Config) *string { return &c.Library.S3.Endpoint }),
	"library.s3.access_key":              stringField(func(c *Config) *string { return &c.Library.S3.AccessKey }),
	"library.s3.secret_key":              secretField(func(c *Config) *string { return &c.Library.S3.SecretKey }),
	"library.s3.use_ssl":                 boolField(func(c *Config) *bool { return &c.Library.S3.UseSSL }),
	"library.s3.region":                  stringField(func(c *Config) *string { return &c.Library.S3.Region }),
	"library.s3.bucket":                  stringField(func(c *Config) *string { return &c.Library.S3.Bucket }),
	"library.s3.prefix":                  stringField(func(c *Config) *string { return &c.Library.S3.Prefix }),
	"relay.redis_addr":                   stringField(func(c *Config) *string { return &c.Relay.RedisAddr }),
	"relay.redis_password":               secretField(func(c *Config) *string { return &c.Relay.RedisPassword }),
	"relay.redis_db":                     intField(func(c *Config) *int { return &c.Relay.RedisDB }),
	"relay.channel":                      stringField(func(c *Config) *string { return &c.Relay.Channel }),
	"logging.level":                      stringField(func(c *Config) *string { return &c.Logging.Level }),
	"logging.format":                     stringField(func(c *Config) *string { return &c.Logging.Format }),
	"prober":                             stringField(func(c *Config) *string { return &c.Prober }),
}

// ConfigManager reads and updates config values by dotted key
type ConfigManager struct {
	config     *Config
	configPath string
}

// NewConfigManager creates a new config manager
func NewConfigManager(cfg *Config, configPath string) *ConfigManager {
	return &ConfigManager{
		config:     cfg,
		configPath: configPath,
	}
}

// Keys returns every settable key in sorted order
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func lookup(key string) (field, string, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	f, ok := fields[key]
	if !ok {
		return field{}, key, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return f, key, nil
}

// Get returns the value of key
func (m *ConfigManager) Get(key string) (string, error) {
	f, _, err := lookup(key)
	if err != nil {
		return "", err
	}
	return f.get(m.config), nil
}

// Set updates key, validates the result and saves the file. The in-memory
// config is left unchanged when validation fails.
func (m *ConfigManager) Set(key, value string) error {
	f, key, err := lookup(key)
	if err != nil {
		return err
	}

	updated := *m.config
	if err := f.set(&updated, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	updated.ApplyDefaults()
	if err := updated.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}

	*m.config = updated
	return Save(m.config, m.configPath)
}

// List returns every entry. Secrets are masked.
func (m *ConfigManager) List() []Entry {
	keys := Keys()
	result := make([]Entry, 0, len(keys))
	for _, key := range keys {
		f := fields[key]
		value := f.get(m.config)
		if f.secret && value != "" {
			value = "********"
		}
		result = append(result, Entry{Key: key, Value: value, Secret: f.secret})
	}
	return result
}
