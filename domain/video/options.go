package video

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// MaxCRF is the upper bound of the x264/x265 constant rate factor scale
const MaxCRF = 51

// EncoderPresets lists the accepted encoder speed/quality preset names
var EncoderPresets = []string{
	"ultrafast", "superfast", "veryfast", "faster", "fast",
	"medium", "slow", "slower", "veryslow", "placebo",
}

// DisplayOptions are editor presentation hints. The pipeline carries them
// through untouched.
type DisplayOptions struct {
	MaxDuration     int  // seconds, 0 means unlimited
	FullScreenModal bool // fullScreenModalIOS in host option maps
	HeaderText      string
	HeaderTextSize  int
	HeaderTextColor string
	TrimmingText    string
}

// TrimOptions are the parameters of a trim job
type TrimOptions struct {
	StartTimeMs   int64
	EndTimeMs     int64
	SaveToLibrary bool
	Display       DisplayOptions
}

// DurationMs returns the length of the requested range
func (o TrimOptions) DurationMs() int64 {
	return o.EndTimeMs - o.StartTimeMs
}

// Validate checks that the requested range is well formed
func (o TrimOptions) Validate() error {
	if o.StartTimeMs < 0 {
		return &Error{Kind: KindInvalidInput, Code: CodeInvalidTimeRange,
			Message: fmt.Sprintf("start time %dms must not be negative", o.StartTimeMs)}
	}
	if o.EndTimeMs <= o.StartTimeMs {
		return &Error{Kind: KindInvalidInput, Code: CodeInvalidTimeRange,
			Message: fmt.Sprintf("end time %dms must be after start time %dms", o.EndTimeMs, o.StartTimeMs)}
	}
	return nil
}

// ValidateAgainst checks the range against a probed source duration.
// An unknown duration (0) is not checked.
func (o TrimOptions) ValidateAgainst(sourceDurationMs int64) error {
	if sourceDurationMs <= 0 {
		return nil
	}
	if o.EndTimeMs > sourceDurationMs {
		return &Error{Kind: KindInvalidInput, Code: CodeInvalidTimeRange,
			Message: fmt.Sprintf("end time %dms exceeds source duration %dms", o.EndTimeMs, sourceDurationMs)}
	}
	return nil
}

// Resolution is a target frame size. A zero dimension is derived from the
// source aspect ratio.
type Resolution struct {
	Width  int `json:"width,omitempty" yaml:"width,omitempty"`
	Height int `json:"height,omitempty" yaml:"height,omitempty"`
}

// Derive fills the missing dimension from the source frame size, keeping the
// result even as most encoders require. When the source size is unknown the
// missing dimension is returned as -2 so the encoder derives it.
func (r Resolution) Derive(srcWidth, srcHeight int) (int, int) {
	w, h := r.Width, r.Height
	switch {
	case w > 0 && h > 0:
		return w, h
	case h > 0:
		if srcWidth <= 0 || srcHeight <= 0 {
			return -2, h
		}
		return even(float64(srcWidth) * float64(h) / float64(srcHeight)), h
	case w > 0:
		if srcWidth <= 0 || srcHeight <= 0 {
			return w, -2
		}
		return w, even(float64(srcHeight) * float64(w) / float64(srcWidth))
	default:
		return srcWidth, srcHeight
	}
}

func even(v float64) int {
	n := int(math.Round(v))
	if n%2 != 0 {
		n++
	}
	if n < 2 {
		n = 2
	}
	return n
}

// CompressOptions are the parameters of a compress job
type CompressOptions struct {
	InputPath     string
	Resolution    *Resolution
	Bitrate       string
	CRF           *int
	AudioBitrate  string
	FPS           *float64
	EncoderPreset string
}

// CompressDefaults fill unset compress options
type CompressDefaults struct {
	CRF           int
	EncoderPreset string
	AudioBitrate  string
}

// WithDefaults returns a copy with unset values taken from d
func (o CompressOptions) WithDefaults(d CompressDefaults) CompressOptions {
	if o.CRF == nil && o.Bitrate == "" {
		crf := d.CRF
		o.CRF = &crf
	}
	if o.EncoderPreset == "" {
		o.EncoderPreset = d.EncoderPreset
	}
	if o.AudioBitrate == "" {
		o.AudioBitrate = d.AudioBitrate
	}
	return o
}

// Validate range-checks every set option
func (o CompressOptions) Validate() error {
	if o.Resolution != nil {
		if o.Resolution.Width < 0 || o.Resolution.Height < 0 {
			return InvalidOptions("resolution dimensions must not be negative")
		}
		if o.Resolution.Width == 0 && o.Resolution.Height == 0 {
			return InvalidOptions("resolution needs a width or a height")
		}
	}
	if o.CRF != nil && (*o.CRF < 0 || *o.CRF > MaxCRF) {
		return InvalidOptions("crf %d out of range 0-%d", *o.CRF, MaxCRF)
	}
	if o.FPS != nil && *o.FPS <= 0 {
		return InvalidOptions("fps must be positive")
	}
	if o.Bitrate != "" {
		if _, err := ParseBitrate(o.Bitrate); err != nil {
			return InvalidOptions("bitrate: %v", err)
		}
	}
	if o.AudioBitrate != "" {
		if _, err := ParseBitrate(o.AudioBitrate); err != nil {
			return InvalidOptions("audio bitrate: %v", err)
		}
	}
	if o.EncoderPreset != "" && !isEncoderPreset(o.EncoderPreset) {
		return InvalidOptions("unknown encoder preset %q", o.EncoderPreset)
	}
	return nil
}

func isEncoderPreset(name string) bool {
	for _, p := range EncoderPresets {
		if p == name {
			return true
		}
	}
	return false
}

// bitrateRegex matches ffmpeg rate strings such as 128k, 2.5M or 1500000
var bitrateRegex = regexp.MustCompile(`^(\d+(?:\.\d+)?)([kKmMgG]?)$`)

// ParseBitrate converts an ffmpeg rate string to bits per second
func ParseBitrate(s string) (int64, error) {
	matches := bitrateRegex.FindStringSubmatch(strings.TrimSpace(s))
	if matches == nil {
		return 0, fmt.Errorf("invalid bitrate %q: expected a number with optional k/M/G suffix", s)
	}

	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid bitrate %q: %w", s, err)
	}

	switch strings.ToLower(matches[2]) {
	case "k":
		value *= 1e3
	case "m":
		value *= 1e6
	case "g":
		value *= 1e9
	}

	if value <= 0 {
		return 0, fmt.Errorf("invalid bitrate %q: must be positive", s)
	}
	return int64(math.Round(value)), nil
}
