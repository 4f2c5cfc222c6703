package video

import (
	"fmt"
	"sort"
)

// Preset is a named set of compression defaults
type Preset struct {
	Resolution   *Resolution
	Bitrate      string
	CRF          int
	AudioBitrate string
	FPS          float64
}

// Presets holds the built-in compression presets
var Presets = map[string]Preset{
	// archiving, minimal compression
	"HIGH_QUALITY":   {Resolution: &Resolution{Height: 1080}, Bitrate: "4M", CRF: 20, AudioBitrate: "192k"},
	"MEDIUM_QUALITY": {Resolution: &Resolution{Height: 720}, Bitrate: "2M", CRF: 23, AudioBitrate: "128k"},
	"LOW_QUALITY":    {Resolution: &Resolution{Height: 480}, Bitrate: "1M", CRF: 28, AudioBitrate: "96k"},
	// vertical 9:16 stories
	"SOCIAL_MEDIA":     {Resolution: &Resolution{Width: 1080, Height: 1920}, Bitrate: "2.5M", CRF: 23, AudioBitrate: "128k", FPS: 30},
	"WEB_OPTIMIZED":    {Resolution: &Resolution{Height: 1080}, Bitrate: "3M", CRF: 23, AudioBitrate: "128k", FPS: 30},
	"MOBILE_OPTIMIZED": {Resolution: &Resolution{Height: 720}, Bitrate: "1.5M", CRF: 25, AudioBitrate: "96k", FPS: 30},
}

// PresetNames returns the preset names in sorted order
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyPreset merges custom over the named preset. Any value set in custom
// wins.
func ApplyPreset(name string, custom CompressOptions) (CompressOptions, error) {
	preset, ok := Presets[name]
	if !ok {
		return CompressOptions{}, fmt.Errorf("unknown preset: %s", name)
	}

	out := custom
	if out.Resolution == nil && preset.Resolution != nil {
		res := *preset.Resolution
		out.Resolution = &res
	}
	if out.Bitrate == "" {
		out.Bitrate = preset.Bitrate
	}
	if out.CRF == nil {
		crf := preset.CRF
		out.CRF = &crf
	}
	if out.AudioBitrate == "" {
		out.AudioBitrate = preset.AudioBitrate
	}
	if out.FPS == nil && preset.FPS > 0 {
		fps := preset.FPS
		out.FPS = &fps
	}
	return out, nil
}
