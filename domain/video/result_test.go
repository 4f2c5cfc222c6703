package video

import "testing"

func TestNewCompressResult(t *testing.T) {
	tests := []struct {
		name        string
		original    int64
		compressed  int64
		wantPercent float64
	}{
		{"ten megabytes to four", 10 * 1024 * 1024, 4 * 1024 * 1024, 60},
		{"rounded to two decimals", 3000, 1000, 66.67},
		{"grew", 1000, 1100, -10},
		{"unknown original", 0, 1000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewCompressResult("/out.mp4", tt.original, tt.compressed, 5000)
			if got := r.RatioPercent(); got != tt.wantPercent {
				t.Errorf("RatioPercent() = %v, want %v", got, tt.wantPercent)
			}
		})
	}
}

func TestResult_Cancelled(t *testing.T) {
	var nilResult *Result
	if nilResult.Cancelled() {
		t.Error("nil result must not be cancelled")
	}
	if !(&Result{State: StateCancelled}).Cancelled() {
		t.Error("expected cancelled result")
	}
	if (&Result{State: StateCompleted}).Cancelled() {
		t.Error("completed result reported as cancelled")
	}
}
