package event

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestKind_IsTerminal(t *testing.T) {
	tests := []struct {
		kind Kind
		want bool
	}{
		{KindFinishTrimming, true},
		{KindCancelTrimming, true},
		{KindFinishCompressing, true},
		{KindCancelCompressing, true},
		{KindError, true},
		{KindStartTrimming, false},
		{KindStatistics, false},
		{KindShow, false},
		{KindHide, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.IsTerminal(); got != tt.want {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatistics_FieldNames(t *testing.T) {
	data, err := json.Marshal(Statistics{SessionID: "abc", VideoFrameNumber: 12})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	for _, key := range []string{`"sessionId"`, `"videoFrameNumber"`, `"videoFps"`, `"videoQuality"`, `"size"`, `"time"`, `"bitrate"`, `"speed"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("marshalled statistics %s missing %s", data, key)
		}
	}
}
