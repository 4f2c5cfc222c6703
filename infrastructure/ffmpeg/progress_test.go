package ffmpeg

import (
	"strings"
	"testing"

	"video-processing/domain/video"
)

const progressBlock = `frame=120
fps=59.94
stream_0_0_q=28.0
bitrate=1234.5kbits/s
total_size=524288
out_time_us=4004000
out_time_ms=4004000
out_time=00:00:04.004000
dup_frames=0
drop_frames=0
speed=2.01x
progress=continue
frame=240
fps=60.00
stream_0_0_q=-1.0
bitrate=N/A
total_size=1048576
out_time_us=8008000
speed=N/A
progress=end
`

func TestProgressParser(t *testing.T) {
	var parser progressParser
	var reports []video.Progress
	for _, line := range strings.Split(progressBlock, "\n") {
		if p, ok := parser.Feed(line); ok {
			reports = append(reports, *p)
		}
	}

	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}

	first := reports[0]
	if first.FrameNumber != 120 || first.FPS != 59.94 || first.Quality != 28 {
		t.Errorf("first report frame/fps/q = %d/%v/%v", first.FrameNumber, first.FPS, first.Quality)
	}
	if first.SizeBytes != 524288 || first.TimeMs != 4004 || first.BitrateKbps != 1234.5 || first.Speed != 2.01 {
		t.Errorf("first report = %+v", first)
	}

	second := reports[1]
	if second.FrameNumber != 240 || second.TimeMs != 8008 {
		t.Errorf("second report = %+v", second)
	}
	if second.BitrateKbps != 0 || second.Speed != 0 {
		t.Errorf("N/A values should read as zero, got bitrate %v speed %v", second.BitrateKbps, second.Speed)
	}
}

func TestParseLogLine(t *testing.T) {
	tests := []struct {
		line        string
		wantLevel   video.LogLevel
		wantMessage string
	}{
		{"[info] Stream mapping:", video.LogLevelInfo, "Stream mapping:"},
		{"[error] Error opening input file nope.mp4.", video.LogLevelError, "Error opening input file nope.mp4."},
		{"[h264 @ 0x55d0c8] [warning] no frame!", video.LogLevelWarning, "[h264 @ 0x55d0c8] no frame!"},
		{"[mov,mp4,m4a @ 0x1] [verbose] probing", video.LogLevelDebug, "[mov,mp4,m4a @ 0x1] probing"},
		{"[panic] out of memory", video.LogLevelFatal, "out of memory"},
		{"  Duration: 00:01:00.00, start: 0.000000", video.LogLevelInfo, "  Duration: 00:01:00.00, start: 0.000000"},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got := ParseLogLine(tt.line)
			if got.Level != tt.wantLevel || got.Message != tt.wantMessage {
				t.Errorf("ParseLogLine(%q) = %+v, want %s %q", tt.line, got, tt.wantLevel, tt.wantMessage)
			}
		})
	}
}
