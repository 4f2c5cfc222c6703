//go:build !opencv

package opencv

import (
	"context"
	"errors"

	"video-processing/domain/video"
)

// ErrUnavailable is returned when the binary was built without OpenCV
var ErrUnavailable = errors.New("opencv prober requires -tags=opencv build with OpenCV installed")

// Prober is a stub when OpenCV is not available
type Prober struct{}

// NewProber creates a stub prober (requires building with -tags=opencv)
func NewProber() *Prober {
	return &Prober{}
}

// Available reports whether this build includes OpenCV support
func Available() bool {
	return false
}

// Probe returns an error indicating OpenCV is not available
func (p *Prober) Probe(ctx context.Context, path string) (video.MediaInfo, error) {
	return video.MediaInfo{}, ErrUnavailable
}

// Ensure Prober implements video.Prober
var _ video.Prober = (*Prober)(nil)
