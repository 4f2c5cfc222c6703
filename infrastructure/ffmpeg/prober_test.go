package ffmpeg

import (
	"context"
	"errors"
	"testing"
)

const landscapeJSON = `{
  "streams": [
    {"index": 0, "codec_name": "mjpeg", "codec_type": "video", "width": 320, "height": 320, "disposition": {"attached_pic": 1}},
    {"index": 1, "codec_name": "h264", "codec_type": "video", "width": 1920, "height": 1080, "avg_frame_rate": "30/1", "disposition": {"attached_pic": 0}},
    {"index": 2, "codec_name": "aac", "codec_type": "audio"}
  ],
  "format": {"filename": "in.mp4", "format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "60.021000", "size": "10485760", "bit_rate": "1397565"}
}`

const portraitJSON = `{
  "streams": [
    {"index": 0, "codec_name": "hevc", "codec_type": "video", "width": 1920, "height": 1080, "duration": "12.5",
     "side_data_list": [{"side_data_type": "Display Matrix", "rotation": -90}]}
  ],
  "format": {"filename": "phone.mov", "size": "2048"}
}`

func TestParseProbeJSON(t *testing.T) {
	info, err := ParseProbeJSON([]byte(landscapeJSON))
	if err != nil {
		t.Fatalf("ParseProbeJSON() error: %v", err)
	}
	if info.DurationMs != 60021 || info.Width != 1920 || info.Height != 1080 || info.SizeBytes != 10485760 {
		t.Errorf("ParseProbeJSON() = %+v", info)
	}
}

func TestParseProbeJSON_RotatedStream(t *testing.T) {
	info, err := ParseProbeJSON([]byte(portraitJSON))
	if err != nil {
		t.Fatalf("ParseProbeJSON() error: %v", err)
	}
	if info.Width != 1080 || info.Height != 1920 {
		t.Errorf("size = %dx%d, want 1080x1920", info.Width, info.Height)
	}
	if info.DurationMs != 12500 {
		t.Errorf("DurationMs = %d, want stream duration 12500", info.DurationMs)
	}
}

func TestParseProbeJSON_Invalid(t *testing.T) {
	if _, err := ParseProbeJSON([]byte("not json")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestProber_Probe(t *testing.T) {
	runner := &mockRunner{output: []byte(landscapeJSON)}
	p := NewProber(WithFFprobePath("/opt/ffprobe"), WithProberCommandRunner(runner))

	info, err := p.Probe(context.Background(), "in.mp4")
	if err != nil {
		t.Fatalf("Probe() error: %v", err)
	}
	if info.DurationMs != 60021 {
		t.Errorf("DurationMs = %d, want 60021", info.DurationMs)
	}
	if runner.lastName != "/opt/ffprobe" {
		t.Errorf("ran %q, want /opt/ffprobe", runner.lastName)
	}
	if got := runner.lastArgs[len(runner.lastArgs)-1]; got != "in.mp4" {
		t.Errorf("last arg = %q, want in.mp4", got)
	}

	runner.outputErr = errors.New("exit status 1")
	if _, err := p.Probe(context.Background(), "in.mp4"); err == nil {
		t.Error("expected error when ffprobe fails")
	}
}
