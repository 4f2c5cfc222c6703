package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"video-processing/domain/video"
)

// Prober implements video.Prober with a single ffprobe JSON call
type Prober struct {
	ffprobePath string
	runner      CommandRunner
}

// ProberOption is a functional option for configuring Prober
type ProberOption func(*Prober)

// WithFFprobePath sets a custom ffprobe executable path
func WithFFprobePath(path string) ProberOption {
	return func(p *Prober) {
		if path != "" {
			p.ffprobePath = path
		}
	}
}

// WithProberCommandRunner sets a custom command runner (for testing)
func WithProberCommandRunner(runner CommandRunner) ProberOption {
	return func(p *Prober) {
		p.runner = runner
	}
}

// NewProber creates a new ffprobe-based prober
func NewProber(opts ...ProberOption) *Prober {
	p := &Prober{
		ffprobePath: "ffprobe",
		runner:      &ExecCommandRunner{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe implements video.Prober
func (p *Prober) Probe(ctx context.Context, path string) (video.MediaInfo, error) {
	out, err := p.runner.Output(ctx, p.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)
	if err != nil {
		return video.MediaInfo{}, fmt.Errorf("ffprobe %q: %w", path, err)
	}
	return ParseProbeJSON(out)
}

// ParseProbeJSON converts raw ffprobe JSON output into MediaInfo.
// Exported for testing without a real ffprobe binary.
func ParseProbeJSON(data []byte) (video.MediaInfo, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return video.MediaInfo{}, fmt.Errorf("parse ffprobe JSON: %w", err)
	}

	info := video.MediaInfo{
		DurationMs: int64(math.Round(parseFloat(raw.Format.Duration) * 1000)),
		SizeBytes:  parseInt64(raw.Format.Size),
	}

	for _, s := range raw.Streams {
		if s.CodecType != "video" || s.Disposition["attached_pic"] == 1 {
			continue
		}
		info.Width, info.Height = s.Width, s.Height
		if quarterTurn(s) {
			info.Width, info.Height = s.Height, s.Width
		}
		if info.DurationMs == 0 {
			info.DurationMs = int64(math.Round(parseFloat(s.Duration) * 1000))
		}
		break
	}
	return info, nil
}

// quarterTurn reports whether phone rotation metadata swaps the display size
func quarterTurn(s ffprobeStream) bool {
	rotation := 0
	if r, err := strconv.Atoi(s.Tags["rotate"]); err == nil {
		rotation = r
	}
	for _, sd := range s.SideDataList {
		if sd.Rotation != 0 {
			rotation = sd.Rotation
		}
	}
	rotation = ((rotation % 360) + 360) % 360
	return rotation == 90 || rotation == 270
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

type ffprobeStream struct {
	Index        int               `json:"index"`
	CodecName    string            `json:"codec_name"`
	CodecType    string            `json:"codec_type"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	Duration     string            `json:"duration"`
	AvgFrameRate string            `json:"avg_frame_rate"`
	Disposition  map[string]int    `json:"disposition"`
	Tags         map[string]string `json:"tags"`
	SideDataList []struct {
		Rotation int `json:"rotation"`
	} `json:"side_data_list"`
}

// Ensure Prober implements video.Prober
var _ video.Prober = (*Prober)(nil)
