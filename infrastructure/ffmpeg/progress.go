package ffmpeg

import (
	"regexp"
	"strconv"
	"strings"

	"video-processing/domain/video"
)

// progressParser accumulates the key=value blocks ffmpeg writes for
// -progress. Each block ends with progress=continue or progress=end.
type progressParser struct {
	current video.Progress
}

// Feed consumes one line and returns a completed report at block ends
func (p *progressParser) Feed(line string) (*video.Progress, bool) {
	key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
	if !ok {
		return nil, false
	}
	value = strings.TrimSpace(value)

	switch key {
	case "frame":
		p.current.FrameNumber = parseInt64(value)
	case "fps":
		p.current.FPS = parseFloat(value)
	case "stream_0_0_q":
		p.current.Quality = parseFloat(value)
	case "total_size":
		p.current.SizeBytes = parseInt64(value)
	case "out_time_us", "out_time_ms":
		// both keys are microseconds
		if us := parseInt64(value); us > 0 {
			p.current.TimeMs = us / 1000
		}
	case "bitrate":
		p.current.BitrateKbps = parseFloat(strings.TrimSuffix(value, "kbits/s"))
	case "speed":
		p.current.Speed = parseFloat(strings.TrimSuffix(value, "x"))
	case "progress":
		report := p.current
		return &report, true
	}
	return nil, false
}

// levelRegex finds the [level] tag -loglevel level+info adds to each line.
// Component prefixes such as [h264 @ 0x...] may come before it.
var levelRegex = regexp.MustCompile(`\[(trace|debug|verbose|info|warning|error|fatal|panic)\] ?`)

// ParseLogLine splits a stderr line into its level and message. Untagged
// lines are info.
func ParseLogLine(line string) video.LogLine {
	line = strings.TrimRight(line, "\r\n")
	loc := levelRegex.FindStringSubmatchIndex(line)
	if loc == nil {
		return video.LogLine{Level: video.LogLevelInfo, Message: line}
	}

	level := line[loc[2]:loc[3]]
	message := strings.TrimSpace(line[:loc[0]] + line[loc[1]:])

	switch level {
	case "verbose":
		level = string(video.LogLevelDebug)
	case "panic":
		level = string(video.LogLevelFatal)
	}
	return video.LogLine{Level: video.LogLevel(level), Message: message}
}

// --- Numeric parsing helpers (ffmpeg reports N/A for unknown values) ---

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
