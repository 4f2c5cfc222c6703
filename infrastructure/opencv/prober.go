//go:build opencv

package opencv

import (
	"context"
	"fmt"
	"math"
	"os"

	"gocv.io/x/gocv"

	"video-processing/domain/video"
)

// Prober implements video.Prober by opening the source with OpenCV.
// It is used where ffprobe is not installed.
type Prober struct{}

// NewProber creates an OpenCV prober
func NewProber() *Prober {
	return &Prober{}
}

// Available reports whether this build includes OpenCV support
func Available() bool {
	return true
}

// Probe implements video.Prober
func (p *Prober) Probe(ctx context.Context, path string) (video.MediaInfo, error) {
	if err := ctx.Err(); err != nil {
		return video.MediaInfo{}, err
	}

	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return video.MediaInfo{}, fmt.Errorf("failed to open video %s: %w", path, err)
	}
	defer capture.Close()

	if !capture.IsOpened() {
		return video.MediaInfo{}, fmt.Errorf("video %s could not be opened", path)
	}

	frames := capture.Get(gocv.VideoCaptureFrameCount)
	fps := capture.Get(gocv.VideoCaptureFPS)

	info := video.MediaInfo{
		Width:  int(capture.Get(gocv.VideoCaptureFrameWidth)),
		Height: int(capture.Get(gocv.VideoCaptureFrameHeight)),
	}
	if fps > 0 && frames > 0 {
		info.DurationMs = int64(math.Round(frames / fps * 1000))
	}
	if st, err := os.Stat(path); err == nil {
		info.SizeBytes = st.Size()
	}
	return info, nil
}

// Ensure Prober implements video.Prober
var _ video.Prober = (*Prober)(nil)
