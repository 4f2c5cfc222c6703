package video

import (
	"fmt"
	"math"
	"strconv"
)

// ParseTrimOptions decodes a host-supplied option map (startTime, endTime,
// saveToPhoto and display hints). Unrecognised keys are ignored; a
// recognised key with a value of the wrong type is an error.
func ParseTrimOptions(m map[string]any) (TrimOptions, error) {
	var opts TrimOptions
	var err error

	if opts.StartTimeMs, err = int64Field(m, "startTime"); err != nil {
		return TrimOptions{}, err
	}
	if opts.EndTimeMs, err = int64Field(m, "endTime"); err != nil {
		return TrimOptions{}, err
	}
	if opts.SaveToLibrary, err = boolField(m, "saveToPhoto"); err != nil {
		return TrimOptions{}, err
	}
	if !opts.SaveToLibrary {
		if opts.SaveToLibrary, err = boolField(m, "saveToLibrary"); err != nil {
			return TrimOptions{}, err
		}
	}

	display, err := parseDisplay(m)
	if err != nil {
		return TrimOptions{}, err
	}
	opts.Display = display
	return opts, nil
}

// ParseEditorOptions decodes the editor config map (display hints plus
// saveToPhoto)
func ParseEditorOptions(m map[string]any) (DisplayOptions, bool, error) {
	display, err := parseDisplay(m)
	if err != nil {
		return DisplayOptions{}, false, err
	}
	save, err := boolField(m, "saveToPhoto")
	if err != nil {
		return DisplayOptions{}, false, err
	}
	return display, save, nil
}

func parseDisplay(m map[string]any) (DisplayOptions, error) {
	var d DisplayOptions
	maxDuration, err := int64Field(m, "maxDuration")
	if err != nil {
		return d, err
	}
	d.MaxDuration = int(maxDuration)
	if d.FullScreenModal, err = boolField(m, "fullScreenModalIOS"); err != nil {
		return d, err
	}
	if d.HeaderText, err = stringField(m, "headerText"); err != nil {
		return d, err
	}
	size, err := int64Field(m, "headerTextSize")
	if err != nil {
		return d, err
	}
	d.HeaderTextSize = int(size)
	if d.HeaderTextColor, err = stringField(m, "headerTextColor"); err != nil {
		return d, err
	}
	if d.TrimmingText, err = stringField(m, "trimmingText"); err != nil {
		return d, err
	}
	return d, nil
}

// ParseCompressOptions decodes a host-supplied compress option map
func ParseCompressOptions(m map[string]any) (CompressOptions, error) {
	var opts CompressOptions
	var err error

	if opts.InputPath, err = stringField(m, "inputPath"); err != nil {
		return CompressOptions{}, err
	}
	if raw, ok := m["resolution"]; ok && raw != nil {
		res, ok := raw.(map[string]any)
		if !ok {
			return CompressOptions{}, InvalidOptions("resolution must be an object")
		}
		w, err := int64Field(res, "width")
		if err != nil {
			return CompressOptions{}, err
		}
		h, err := int64Field(res, "height")
		if err != nil {
			return CompressOptions{}, err
		}
		opts.Resolution = &Resolution{Width: int(w), Height: int(h)}
	}
	if opts.Bitrate, err = rateField(m, "bitrate"); err != nil {
		return CompressOptions{}, err
	}
	if opts.AudioBitrate, err = rateField(m, "audioBitrate"); err != nil {
		return CompressOptions{}, err
	}
	if _, ok := m["crf"]; ok {
		crf, err := int64Field(m, "crf")
		if err != nil {
			return CompressOptions{}, err
		}
		v := int(crf)
		opts.CRF = &v
	}
	if raw, ok := m["fps"]; ok && raw != nil {
		fps, ok := toFloat(raw)
		if !ok {
			return CompressOptions{}, InvalidOptions("fps must be a number")
		}
		opts.FPS = &fps
	}
	if opts.EncoderPreset, err = stringField(m, "encoderPreset"); err != nil {
		return CompressOptions{}, err
	}
	return opts, nil
}

func int64Field(m map[string]any, key string) (int64, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return 0, nil
	}
	f, ok := toFloat(raw)
	if !ok || f != math.Trunc(f) {
		return 0, InvalidOptions("%s must be an integer", key)
	}
	return int64(f), nil
}

func boolField(m map[string]any, key string) (bool, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, InvalidOptions("%s must be a boolean", key)
	}
	return b, nil
}

func stringField(m map[string]any, key string) (string, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", InvalidOptions("%s must be a string", key)
	}
	return s, nil
}

// rateField accepts "2M" style strings and plain numbers (bits per second)
func rateField(m map[string]any, key string) (string, error) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return "", nil
	}
	switch v := raw.(type) {
	case string:
		return v, nil
	default:
		f, ok := toFloat(v)
		if !ok {
			return "", InvalidOptions("%s must be a string or a number", key)
		}
		return strconv.FormatInt(int64(f), 10), nil
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case fmt.Stringer:
		f, err := strconv.ParseFloat(n.String(), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
