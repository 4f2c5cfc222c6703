package event

import "time"

// Kind identifies a notification type
type Kind string

const (
	KindShow              Kind = "show"
	KindHide              Kind = "hide"
	KindCancel            Kind = "cancel"
	KindStartTrimming     Kind = "startTrimming"
	KindFinishTrimming    Kind = "finishTrimming"
	KindCancelTrimming    Kind = "cancelTrimming"
	KindStartCompressing  Kind = "startCompressing"
	KindFinishCompressing Kind = "finishCompressing"
	KindCancelCompressing Kind = "cancelCompressing"
	KindLog               Kind = "log"
	KindStatistics        Kind = "statistics"
	KindError             Kind = "error"
	KindLoad              Kind = "load"
)

// Kinds lists every event kind in a stable order
var Kinds = []Kind{
	KindShow, KindHide, KindCancel,
	KindStartTrimming, KindFinishTrimming, KindCancelTrimming,
	KindStartCompressing, KindFinishCompressing, KindCancelCompressing,
	KindLog, KindStatistics, KindError, KindLoad,
}

// IsTerminal reports whether the kind ends a job
func (k Kind) IsTerminal() bool {
	switch k {
	case KindFinishTrimming, KindCancelTrimming,
		KindFinishCompressing, KindCancelCompressing, KindError:
		return true
	}
	return false
}

// Event is one notification. Seq and Timestamp are assigned by the bus.
// Payload holds one of the payload types below, or nil for the bare kinds
// (show, hide, cancel, start*, cancel*).
type Event struct {
	Kind      Kind      `json:"kind"`
	SessionID string    `json:"sessionId,omitempty"`
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload,omitempty"`
}

// Load reports the probed source dimensions
type Load struct {
	Duration int64 `json:"duration"`
	Width    int   `json:"width"`
	Height   int   `json:"height"`
}

// Log is a codec diagnostic line
type Log struct {
	Level     string `json:"level"`
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// Statistics is a codec progress report
type Statistics struct {
	SessionID        string  `json:"sessionId"`
	VideoFrameNumber int64   `json:"videoFrameNumber"`
	VideoFps         float64 `json:"videoFps"`
	VideoQuality     float64 `json:"videoQuality"`
	Size             int64   `json:"size"`
	Time             int64   `json:"time"`
	Bitrate          float64 `json:"bitrate"`
	Speed            float64 `json:"speed"`
}

// Error reports a failed job or a rejected request
type Error struct {
	Message   string `json:"message"`
	ErrorCode string `json:"errorCode"`
}

// FinishTrimming carries the trim result
type FinishTrimming struct {
	OutputPath string `json:"outputPath"`
	StartTime  int64  `json:"startTime"`
	EndTime    int64  `json:"endTime"`
	Duration   int64  `json:"duration"`
}

// FinishCompressing carries the compress result. CompressionRatio is a
// percentage rounded to two decimals.
type FinishCompressing struct {
	OutputPath       string  `json:"outputPath"`
	OriginalSize     int64   `json:"originalSize"`
	CompressedSize   int64   `json:"compressedSize"`
	CompressionRatio float64 `json:"compressionRatio"`
	Duration         int64   `json:"duration"`
}
