package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"video-processing/domain/video"
)

func TestRunCompressWithDependencies_Preset(t *testing.T) {
	p := newTestPipeline(t, &stubCodec{outputSize: 400})
	var out bytes.Buffer

	crf := 30
	opts := video.CompressOptions{InputPath: p.source, CRF: &crf}
	if err := RunCompressWithDependencies(context.Background(), p.coord, p.bus, opts, "MEDIUM_QUALITY", false, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := p.codec.lastRequest().Job.Compress
	if req.Resolution == nil || req.Resolution.Height != 720 {
		t.Errorf("resolution = %+v, want preset height 720", req.Resolution)
	}
	if req.CRF == nil || *req.CRF != 30 {
		t.Errorf("crf = %v, want explicit 30 to win over the preset", req.CRF)
	}
	if req.AudioBitrate != "128k" {
		t.Errorf("audio bitrate = %q", req.AudioBitrate)
	}

	got := out.String()
	for _, want := range []string{"Compressing ", "Successfully created: ", "Saved:           60.00%", "Original size:   1000 B"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestRunCompressWithDependencies_JSON(t *testing.T) {
	p := newTestPipeline(t, &stubCodec{outputSize: 250})
	var out bytes.Buffer

	opts := video.CompressOptions{InputPath: p.source, Resolution: &video.Resolution{Height: 480}}
	if err := RunCompressWithDependencies(context.Background(), p.coord, p.bus, opts, "", true, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doc := out.String()[strings.Index(out.String(), "{"):]
	var result struct {
		OriginalSize     int64   `json:"originalSize"`
		CompressedSize   int64   `json:"compressedSize"`
		CompressionRatio float64 `json:"compressionRatio"`
	}
	if err := json.Unmarshal([]byte(doc), &result); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out.String())
	}
	if result.OriginalSize != 1000 || result.CompressedSize != 250 || result.CompressionRatio != 75 {
		t.Errorf("result = %+v", result)
	}
}

func TestRunCompressWithDependencies_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		opts   video.CompressOptions
		preset string
	}{
		{"unknown preset", video.CompressOptions{}, "ULTRA"},
		{"crf out of range", video.CompressOptions{CRF: intPtr(80)}, ""},
		{"bad bitrate", video.CompressOptions{Bitrate: "fast"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(t, &stubCodec{outputSize: 100})
			tt.opts.InputPath = p.source

			err := RunCompressWithDependencies(context.Background(), p.coord, p.bus, tt.opts, tt.preset, false, &bytes.Buffer{})
			if video.KindOf(err) != video.KindInvalidInput {
				t.Errorf("error = %v, want invalid input", err)
			}
		})
	}
}

func intPtr(v int) *int { return &v }
