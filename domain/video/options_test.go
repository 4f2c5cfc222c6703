package video

import (
	"errors"
	"testing"
)

func TestTrimOptions_Validate(t *testing.T) {
	tests := []struct {
		name        string
		opts        TrimOptions
		wantErr     bool
		errContains string
	}{
		{
			name: "valid range",
			opts: TrimOptions{StartTimeMs: 0, EndTimeMs: 15000},
		},
		{
			name:        "negative start",
			opts:        TrimOptions{StartTimeMs: -1, EndTimeMs: 15000},
			wantErr:     true,
			errContains: "must not be negative",
		},
		{
			name:        "end before start",
			opts:        TrimOptions{StartTimeMs: 5000, EndTimeMs: 1000},
			wantErr:     true,
			errContains: "must be after start time",
		},
		{
			name:        "end equals start",
			opts:        TrimOptions{StartTimeMs: 5000, EndTimeMs: 5000},
			wantErr:     true,
			errContains: "must be after start time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Validate() expected error, got nil")
				}
				if !contains(err.Error(), tt.errContains) {
					t.Errorf("Validate() error = %v, want error containing %q", err, tt.errContains)
				}
				if AsError(err).Code != CodeInvalidTimeRange {
					t.Errorf("Validate() code = %s, want %s", AsError(err).Code, CodeInvalidTimeRange)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestTrimOptions_ValidateAgainst(t *testing.T) {
	opts := TrimOptions{StartTimeMs: 0, EndTimeMs: 15000}

	if err := opts.ValidateAgainst(60000); err != nil {
		t.Errorf("ValidateAgainst(60000) unexpected error: %v", err)
	}
	if err := opts.ValidateAgainst(15000); err != nil {
		t.Errorf("ValidateAgainst(15000) unexpected error: %v", err)
	}
	if err := opts.ValidateAgainst(0); err != nil {
		t.Errorf("ValidateAgainst(0) should skip unknown durations: %v", err)
	}
	if err := opts.ValidateAgainst(10000); err == nil {
		t.Error("ValidateAgainst(10000) expected error for range past the end")
	}
}

func TestCompressOptions_Validate(t *testing.T) {
	crf := func(v int) *int { return &v }
	fps := func(v float64) *float64 { return &v }

	tests := []struct {
		name        string
		opts        CompressOptions
		wantErr     bool
		errContains string
	}{
		{
			name: "height only",
			opts: CompressOptions{InputPath: "in.mp4", Resolution: &Resolution{Height: 720}, CRF: crf(23)},
		},
		{
			name: "everything set",
			opts: CompressOptions{
				InputPath:     "in.mp4",
				Resolution:    &Resolution{Width: 1080, Height: 1920},
				Bitrate:       "2.5M",
				CRF:           crf(23),
				AudioBitrate:  "128k",
				FPS:           fps(30),
				EncoderPreset: "fast",
			},
		},
		{
			name: "no resolution keeps source size",
			opts: CompressOptions{InputPath: "in.mp4"},
		},
		{
			name:        "empty resolution",
			opts:        CompressOptions{Resolution: &Resolution{}},
			wantErr:     true,
			errContains: "needs a width or a height",
		},
		{
			name:        "negative width",
			opts:        CompressOptions{Resolution: &Resolution{Width: -2, Height: 720}},
			wantErr:     true,
			errContains: "must not be negative",
		},
		{
			name:        "crf too high",
			opts:        CompressOptions{CRF: crf(52)},
			wantErr:     true,
			errContains: "crf 52 out of range",
		},
		{
			name:        "crf negative",
			opts:        CompressOptions{CRF: crf(-1)},
			wantErr:     true,
			errContains: "out of range",
		},
		{
			name:        "zero fps",
			opts:        CompressOptions{FPS: fps(0)},
			wantErr:     true,
			errContains: "fps must be positive",
		},
		{
			name:        "bad bitrate",
			opts:        CompressOptions{Bitrate: "fast"},
			wantErr:     true,
			errContains: "bitrate",
		},
		{
			name:        "unknown encoder preset",
			opts:        CompressOptions{EncoderPreset: "turbo"},
			wantErr:     true,
			errContains: "unknown encoder preset",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.Validate()
			if tt.wantErr {
				if err == nil {
					t.Fatal("Validate() expected error, got nil")
				}
				if !contains(err.Error(), tt.errContains) {
					t.Errorf("Validate() error = %v, want error containing %q", err, tt.errContains)
				}
				if KindOf(err) != KindInvalidInput {
					t.Errorf("Validate() kind = %s, want %s", KindOf(err), KindInvalidInput)
				}
				return
			}
			if err != nil {
				t.Errorf("Validate() unexpected error: %v", err)
			}
		})
	}
}

func TestCompressOptions_WithDefaults(t *testing.T) {
	defaults := CompressDefaults{CRF: 23, EncoderPreset: "medium", AudioBitrate: "128k"}

	got := CompressOptions{InputPath: "in.mp4"}.WithDefaults(defaults)
	if got.CRF == nil || *got.CRF != 23 {
		t.Errorf("CRF = %v, want 23", got.CRF)
	}
	if got.EncoderPreset != "medium" {
		t.Errorf("EncoderPreset = %q, want medium", got.EncoderPreset)
	}
	if got.AudioBitrate != "128k" {
		t.Errorf("AudioBitrate = %q, want 128k", got.AudioBitrate)
	}

	bitrateOnly := CompressOptions{Bitrate: "1M"}.WithDefaults(defaults)
	if bitrateOnly.CRF != nil {
		t.Errorf("CRF = %d, want unset when only a bitrate is given", *bitrateOnly.CRF)
	}
}

func TestResolution_Derive(t *testing.T) {
	tests := []struct {
		name       string
		res        Resolution
		srcW, srcH int
		wantW      int
		wantH      int
	}{
		{"height from 1080p", Resolution{Height: 720}, 1920, 1080, 1280, 720},
		{"width from 1080p", Resolution{Width: 640}, 1920, 1080, 640, 360},
		{"odd result rounded to even", Resolution{Height: 481}, 1920, 1080, 856, 481},
		{"both set", Resolution{Width: 1080, Height: 1920}, 1920, 1080, 1080, 1920},
		{"unknown source", Resolution{Height: 720}, 0, 0, -2, 720},
		{"nothing set keeps source", Resolution{}, 1920, 1080, 1920, 1080},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := tt.res.Derive(tt.srcW, tt.srcH)
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("Derive(%d, %d) = %dx%d, want %dx%d", tt.srcW, tt.srcH, w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestParseBitrate(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"128k", 128000, false},
		{"2M", 2000000, false},
		{"2.5M", 2500000, false},
		{"1500000", 1500000, false},
		{"1G", 1000000000, false},
		{"0", 0, true},
		{"", 0, true},
		{"fast", 0, true},
		{"-1M", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseBitrate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseBitrate(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBitrate(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseBitrate(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestErrorSentinels(t *testing.T) {
	err := &Error{Kind: KindInvalidInput, Code: CodeFileNotFound, Message: "missing.mp4 does not exist"}

	if !errors.Is(err, ErrNotFound) {
		t.Error("expected errors.Is(err, ErrNotFound)")
	}
	if errors.Is(err, ErrUnreadable) {
		t.Error("did not expect errors.Is(err, ErrUnreadable)")
	}

	wrapped := errors.Join(errors.New("context"), err)
	if got := AsError(wrapped); got.Code != CodeFileNotFound {
		t.Errorf("AsError(wrapped).Code = %s, want %s", got.Code, CodeFileNotFound)
	}

	plain := AsError(errors.New("disk full"))
	if plain.Kind != KindIOFailure || plain.Code != CodeIOFailure {
		t.Errorf("AsError(plain) = %s/%s, want io failure", plain.Kind, plain.Code)
	}
}
