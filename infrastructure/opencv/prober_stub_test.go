//go:build !opencv

package opencv

import (
	"context"
	"errors"
	"testing"
)

func TestStubProber(t *testing.T) {
	if Available() {
		t.Error("Available() = true in a build without opencv")
	}
	_, err := NewProber().Probe(context.Background(), "in.mp4")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Probe() = %v, want ErrUnavailable", err)
	}
}
