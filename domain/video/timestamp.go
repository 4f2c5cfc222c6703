package video

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Timestamp represents a media position with millisecond precision
type Timestamp struct {
	Hours        int
	Minutes      int
	Seconds      int
	Milliseconds int
}

// timestampRegex matches HH:MM:SS with an optional .mmm fraction
var timestampRegex = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2})(?:\.(\d{1,3}))?$`)

// ParseTimestamp parses a timestamp string in HH:MM:SS or HH:MM:SS.mmm format
func ParseTimestamp(s string) (Timestamp, error) {
	matches := timestampRegex.FindStringSubmatch(s)
	if matches == nil {
		return Timestamp{}, fmt.Errorf("invalid timestamp format %q: expected HH:MM:SS[.mmm]", s)
	}

	hours, _ := strconv.Atoi(matches[1])
	minutes, _ := strconv.Atoi(matches[2])
	seconds, _ := strconv.Atoi(matches[3])

	millis := 0
	if matches[4] != "" {
		// ".5" means 500ms, not 5ms
		frac := matches[4] + strings.Repeat("0", 3-len(matches[4]))
		millis, _ = strconv.Atoi(frac)
	}

	if minutes > 59 {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q: minutes must be 0-59", s)
	}
	if seconds > 59 {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q: seconds must be 0-59", s)
	}

	return Timestamp{
		Hours:        hours,
		Minutes:      minutes,
		Seconds:      seconds,
		Milliseconds: millis,
	}, nil
}

// ParsePosition accepts either a timestamp (HH:MM:SS[.mmm]) or a bare
// non-negative integer number of milliseconds and returns milliseconds.
func ParsePosition(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("invalid position %q: must not be negative", s)
		}
		return ms, nil
	}

	ts, err := ParseTimestamp(s)
	if err != nil {
		return 0, err
	}
	return ts.TotalMilliseconds(), nil
}

// TimestampFromMilliseconds splits a millisecond offset into its components
func TimestampFromMilliseconds(ms int64) Timestamp {
	if ms < 0 {
		ms = 0
	}
	return Timestamp{
		Hours:        int(ms / 3_600_000),
		Minutes:      int(ms / 60_000 % 60),
		Seconds:      int(ms / 1000 % 60),
		Milliseconds: int(ms % 1000),
	}
}

// String returns the timestamp in HH:MM:SS format, or HH:MM:SS.mmm when it
// carries a millisecond part
func (t Timestamp) String() string {
	if t.Milliseconds != 0 {
		return fmt.Sprintf("%02d:%02d:%02d.%03d", t.Hours, t.Minutes, t.Seconds, t.Milliseconds)
	}
	return fmt.Sprintf("%02d:%02d:%02d", t.Hours, t.Minutes, t.Seconds)
}

// TotalSeconds returns the timestamp as whole seconds
func (t Timestamp) TotalSeconds() int {
	return t.Hours*3600 + t.Minutes*60 + t.Seconds
}

// TotalMilliseconds returns the timestamp as milliseconds
func (t Timestamp) TotalMilliseconds() int64 {
	return int64(t.TotalSeconds())*1000 + int64(t.Milliseconds)
}

// IsZero returns true if the timestamp is 00:00:00.000
func (t Timestamp) IsZero() bool {
	return t.TotalMilliseconds() == 0
}

// Before returns true if t is before other
func (t Timestamp) Before(other Timestamp) bool {
	return t.TotalMilliseconds() < other.TotalMilliseconds()
}

// After returns true if t is after other
func (t Timestamp) After(other Timestamp) bool {
	return t.TotalMilliseconds() > other.TotalMilliseconds()
}
