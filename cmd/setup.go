package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"video-processing/domain/video"
	"video-processing/infrastructure/config"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
	Select(message string, options []string, defaultValue string) (string, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

func (p *SurveyPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Select{
		Message: message,
		Options: options,
	}
	if defaultValue != "" {
		prompt.Default = defaultValue
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and creates config.yaml.

This command guides you through setting up the working directory, ffmpeg
binaries, compression defaults, the library provider and the event relay.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath
	}
	return RunSetupWithPrompter(DefaultPrompter, path, cmd.OutOrStdout())
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string, out io.Writer) error {
	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm("config.yaml already exists. Overwrite?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Fprintln(out, "Setup cancelled.")
			return nil
		}
	}

	fmt.Fprintln(out, "Welcome to video-processing setup!")
	fmt.Fprintln(out)

	cfg := config.Default()

	steps := []func(Prompter, *config.Config) error{
		promptPaths,
		promptFFmpeg,
		promptCompress,
		promptLibrary,
		promptRelay,
		promptLogging,
	}
	for _, step := range steps {
		if err := step(prompter, cfg); err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Save configuration
	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Configuration saved to %s\n", configPath)
	return nil
}

func promptPaths(prompter Prompter, cfg *config.Config) error {
	dir, err := prompter.Input("Working directory for outputs?", cfg.Paths.WorkingDirectory)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if dir == "" {
		return fmt.Errorf("working directory is required")
	}
	cfg.Paths.WorkingDirectory = dir
	return nil
}

func promptFFmpeg(prompter Prompter, cfg *config.Config) error {
	ffmpegPath, err := prompter.Input("Path to ffmpeg?", cfg.FFmpeg.FFmpegPath)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if ffmpegPath != "" {
		cfg.FFmpeg.FFmpegPath = ffmpegPath
	}

	ffprobePath, err := prompter.Input("Path to ffprobe?", cfg.FFmpeg.FFprobePath)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if ffprobePath != "" {
		cfg.FFmpeg.FFprobePath = ffprobePath
	}

	prober, err := prompter.Select("Media prober?", []string{config.ProberFFprobe, config.ProberOpenCV}, cfg.Prober)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Prober = prober
	return nil
}

func promptCompress(prompter Prompter, cfg *config.Config) error {
	crf, err := prompter.Input("Default CRF (0-51, lower is better quality)?", strconv.Itoa(cfg.Compress.CRF))
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if crf != "" {
		n, err := strconv.Atoi(crf)
		if err != nil || n < 0 || n > video.MaxCRF {
			return fmt.Errorf("CRF must be a number between 0 and %d", video.MaxCRF)
		}
		cfg.Compress.CRF = n
	}

	preset, err := prompter.Select("Default encoder preset?", video.EncoderPresets, cfg.Compress.Preset)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Compress.Preset = preset

	audio, err := prompter.Input("Default audio bitrate?", cfg.Compress.AudioBitrate)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if audio != "" {
		if _, err := video.ParseBitrate(audio); err != nil {
			return fmt.Errorf("invalid audio bitrate: %w", err)
		}
		cfg.Compress.AudioBitrate = audio
	}
	return nil
}

func promptLibrary(prompter Prompter, cfg *config.Config) error {
	provider, err := prompter.Select("Where should saved outputs be published?",
		[]string{config.ProviderNone, config.ProviderDrive, config.ProviderS3}, cfg.Library.Provider)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Library.Provider = provider

	switch provider {
	case config.ProviderDrive:
		return promptDrive(prompter, &cfg.Library.Drive)
	case config.ProviderS3:
		return promptS3(prompter, &cfg.Library.S3)
	}
	return nil
}

func promptDrive(prompter Prompter, d *config.DriveConfig) error {
	credentials, err := prompter.Input("Path to Google OAuth credentials file?", "credentials.json")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if credentials == "" {
		credentials = "credentials.json"
	}
	d.CredentialsFile = credentials
	d.TokenFile = "token.json"

	folder, err := prompter.Input("Google Drive folder ID?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if folder == "" {
		return fmt.Errorf("folder ID is required")
	}
	d.FolderID = folder

	share, err := prompter.Confirm("Share uploads with anyone who has the link?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	d.ShareLinks = share
	return nil
}

func promptS3(prompter Prompter, s *config.S3Config) error {
	endpoint, err := prompter.Input("S3 endpoint (host:port)?", "localhost:9000")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	s.Endpoint = endpoint

	bucket, err := prompter.Input("Bucket name?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	s.Bucket = bucket

	if s.AccessKey, err = prompter.Input("Access key?", ""); err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if s.SecretKey, err = prompter.Input("Secret key?", ""); err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if s.UseSSL, err = prompter.Confirm("Use TLS?", true); err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	return nil
}

func promptRelay(prompter Prompter, cfg *config.Config) error {
	enable, err := prompter.Confirm("Relay job events to Redis?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if !enable {
		return nil
	}

	addr, err := prompter.Input("Redis address?", "localhost:6379")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if addr == "" {
		return fmt.Errorf("redis address is required")
	}
	cfg.Relay.RedisAddr = addr

	channel, err := prompter.Input("Channel name?", "video-processing:events")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Relay.Channel = channel
	return nil
}

func promptLogging(prompter Prompter, cfg *config.Config) error {
	level, err := prompter.Select("Log level?", []string{"debug", "info", "warn", "error"}, cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Logging.Level = level
	return nil
}
