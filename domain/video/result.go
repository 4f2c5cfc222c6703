package video

import "math"

// TrimResult is the outcome of a completed trim
type TrimResult struct {
	OutputPath      string `json:"outputPath"`
	StartTime       int64  `json:"startTime"`
	EndTime         int64  `json:"endTime"`
	Duration        int64  `json:"duration"`
	LibraryLocation string `json:"libraryLocation,omitempty"`
}

// CompressResult is the outcome of a completed compression
type CompressResult struct {
	OutputPath     string `json:"outputPath"`
	OriginalSize   int64  `json:"originalSize"`
	CompressedSize int64  `json:"compressedSize"`
	// Ratio is 1 - compressed/original; RatioPercent formats it
	Ratio    float64 `json:"-"`
	Duration int64   `json:"duration"`
}

// NewCompressResult computes the ratio from the two sizes
func NewCompressResult(outputPath string, originalSize, compressedSize, durationMs int64) CompressResult {
	ratio := 0.0
	if originalSize > 0 {
		ratio = 1 - float64(compressedSize)/float64(originalSize)
	}
	return CompressResult{
		OutputPath:     outputPath,
		OriginalSize:   originalSize,
		CompressedSize: compressedSize,
		Ratio:          ratio,
		Duration:       durationMs,
	}
}

// RatioPercent returns the space saved as a percentage rounded to two decimals
func (r CompressResult) RatioPercent() float64 {
	return math.Round(r.Ratio*100*100) / 100
}

// Result is the terminal outcome handed back to the caller. Exactly one of
// Trim, Compress is set when State is Completed; neither when Cancelled.
type Result struct {
	JobID    string
	Kind     Kind
	State    State
	Trim     *TrimResult
	Compress *CompressResult
}

// Cancelled reports whether the job ended through cancellation
func (r *Result) Cancelled() bool {
	return r != nil && r.State == StateCancelled
}
