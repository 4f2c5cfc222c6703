package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"video-processing/domain/video"
)

func TestRunTrimWithDependencies(t *testing.T) {
	p := newTestPipeline(t, &stubCodec{outputSize: 500})
	var out bytes.Buffer

	err := RunTrimWithDependencies(context.Background(), p.coord, p.bus, p.source, "00:00:05", "20000", false, false, &out)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"Trimming video from 00:00:05 to 00:00:20...",
		"progress: frame=30",
		"Successfully created: ",
		"Duration: 00:00:15",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}

	req := p.codec.lastRequest()
	if req.Job.Trim.StartTimeMs != 5000 || req.Job.Trim.EndTimeMs != 20000 {
		t.Errorf("trim range = %d-%d", req.Job.Trim.StartTimeMs, req.Job.Trim.EndTimeMs)
	}
	if _, err := os.Stat(req.OutputPath); err != nil {
		t.Errorf("output missing: %v", err)
	}
}

func TestRunTrimWithDependencies_JSON(t *testing.T) {
	p := newTestPipeline(t, &stubCodec{outputSize: 500})
	var out bytes.Buffer

	if err := RunTrimWithDependencies(context.Background(), p.coord, p.bus, p.source, "0", "15000", false, true, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// progress lines precede the JSON document
	doc := out.String()[strings.Index(out.String(), "{"):]
	var result video.TrimResult
	if err := json.Unmarshal([]byte(doc), &result); err != nil {
		t.Fatalf("output is not a trim result: %v\n%s", err, out.String())
	}
	if result.StartTime != 0 || result.EndTime != 15000 || result.Duration != 15000 || result.OutputPath == "" {
		t.Errorf("result = %+v", result)
	}
}

func TestRunTrimWithDependencies_Errors(t *testing.T) {
	tests := []struct {
		name     string
		start    string
		end      string
		source   string
		wantCode string
	}{
		{"bad start", "5 seconds", "00:00:20", "", video.CodeInvalidTimeRange},
		{"bad end", "00:00:05", "soon", "", video.CodeInvalidTimeRange},
		{"end before start", "00:00:20", "00:00:05", "", video.CodeInvalidTimeRange},
		{"end past source", "00:00:05", "00:02:00", "", video.CodeInvalidTimeRange},
		{"missing source", "00:00:05", "00:00:20", "/no/such/file.mp4", video.CodeFileNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(t, &stubCodec{outputSize: 500})
			source := p.source
			if tt.source != "" {
				source = tt.source
			}

			err := RunTrimWithDependencies(context.Background(), p.coord, p.bus, source, tt.start, tt.end, false, false, &bytes.Buffer{})

			var verr *video.Error
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want *video.Error", err)
			}
			if verr.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", verr.Code, tt.wantCode)
			}
		})
	}
}

func TestRunTrimWithDependencies_Interrupted(t *testing.T) {
	codec := &stubCodec{block: true, running: make(chan struct{})}
	p := newTestPipeline(t, codec)
	var out bytes.Buffer

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-codec.running:
		case <-time.After(5 * time.Second):
		}
		cancel()
	}()

	if err := RunTrimWithDependencies(ctx, p.coord, p.bus, p.source, "0", "10000", false, false, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "Trim cancelled.") {
		t.Errorf("output = %q", out.String())
	}

	files, err := p.store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Errorf("partial output left behind: %v", files)
	}
}
