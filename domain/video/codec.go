package video

import "context"

// MediaInfo is the probed metadata of a source file
type MediaInfo struct {
	DurationMs int64
	Width      int
	Height     int
	SizeBytes  int64
}

// Prober reads source metadata before a job runs
type Prober interface {
	Probe(ctx context.Context, path string) (MediaInfo, error)
}

// Progress is one low-level progress report from the codec
type Progress struct {
	FrameNumber int64
	FPS         float64
	Quality     float64
	SizeBytes   int64
	TimeMs      int64
	BitrateKbps float64
	Speed       float64
}

// LogLevel is the severity of a codec diagnostic line
type LogLevel string

const (
	LogLevelTrace   LogLevel = "trace"
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
	LogLevelFatal   LogLevel = "fatal"
)

// LogLine is one diagnostic line from the codec
type LogLine struct {
	Level   LogLevel
	Message string
}

// Update carries either a Progress or a LogLine, in the order the codec
// produced them
type Update struct {
	Progress *Progress
	Log      *LogLine
}

// EncodeRequest is everything the codec needs to run one job
type EncodeRequest struct {
	Job        *Job
	OutputPath string
	Source     MediaInfo
}

// Codec starts native encoding work. Different backends (hardware or
// software encoders) implement it.
type Codec interface {
	Start(ctx context.Context, req EncodeRequest) (Session, error)
}

// Session is one running codec invocation
type Session interface {
	// Updates is closed once the codec has stopped producing output
	Updates() <-chan Update

	// Cancel asks the codec to stop at its next checkpoint. It does not wait.
	Cancel()

	// Wait blocks until the codec exits and reports its outcome
	Wait() error
}

// Library publishes finished outputs to the user's media library
type Library interface {
	Save(ctx context.Context, path string) (location string, err error)
}
