package video

import "testing"

func TestApplyPreset(t *testing.T) {
	got, err := ApplyPreset("MEDIUM_QUALITY", CompressOptions{InputPath: "in.mp4"})
	if err != nil {
		t.Fatalf("ApplyPreset() unexpected error: %v", err)
	}
	if got.Resolution == nil || got.Resolution.Height != 720 {
		t.Errorf("Resolution = %v, want height 720", got.Resolution)
	}
	if got.Bitrate != "2M" || got.AudioBitrate != "128k" {
		t.Errorf("bitrates = %s/%s, want 2M/128k", got.Bitrate, got.AudioBitrate)
	}
	if got.CRF == nil || *got.CRF != 23 {
		t.Errorf("CRF = %v, want 23", got.CRF)
	}
	if got.InputPath != "in.mp4" {
		t.Errorf("InputPath = %q, want in.mp4", got.InputPath)
	}
}

func TestApplyPreset_CustomWins(t *testing.T) {
	crf := 30
	got, err := ApplyPreset("SOCIAL_MEDIA", CompressOptions{CRF: &crf, Resolution: &Resolution{Height: 1280}})
	if err != nil {
		t.Fatalf("ApplyPreset() unexpected error: %v", err)
	}
	if *got.CRF != 30 {
		t.Errorf("CRF = %d, want custom 30", *got.CRF)
	}
	if got.Resolution.Width != 0 || got.Resolution.Height != 1280 {
		t.Errorf("Resolution = %+v, want custom height only", *got.Resolution)
	}
	if got.FPS == nil || *got.FPS != 30 {
		t.Errorf("FPS = %v, want preset 30", got.FPS)
	}
}

func TestApplyPreset_DoesNotShareResolution(t *testing.T) {
	got, _ := ApplyPreset("LOW_QUALITY", CompressOptions{})
	got.Resolution.Height = 1

	if Presets["LOW_QUALITY"].Resolution.Height != 480 {
		t.Error("ApplyPreset leaked the preset's resolution pointer")
	}
}

func TestApplyPreset_Unknown(t *testing.T) {
	if _, err := ApplyPreset("ULTRA", CompressOptions{}); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestPresetNames(t *testing.T) {
	names := PresetNames()
	if len(names) != len(Presets) {
		t.Fatalf("PresetNames() returned %d names, want %d", len(names), len(Presets))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("PresetNames() not sorted: %v", names)
		}
	}
}
