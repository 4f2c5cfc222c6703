package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/redis/go-redis/v9"

	"video-processing/domain/event"
)

type mockPublisher struct {
	err      error
	channels []string
	messages [][]byte
}

func (m *mockPublisher) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "publish", channel, message)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	m.channels = append(m.channels, channel)
	m.messages = append(m.messages, message.([]byte))
	cmd.SetVal(1)
	return cmd
}

func TestRelay_Handle(t *testing.T) {
	pub := &mockPublisher{}
	r, err := New(context.Background(), Config{Channel: "jobs"}, WithPublisher(pub))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	r.Handle(event.Event{
		Kind:      event.KindFinishTrimming,
		SessionID: "job-1",
		Seq:       7,
		Payload:   event.FinishTrimming{OutputPath: "/work/trim-x.mp4", StartTime: 0, EndTime: 15000, Duration: 15000},
	})

	if len(pub.messages) != 1 || pub.channels[0] != "jobs" {
		t.Fatalf("published %d messages to %v", len(pub.messages), pub.channels)
	}

	var decoded struct {
		Kind      string `json:"kind"`
		SessionID string `json:"sessionId"`
		Seq       uint64 `json:"seq"`
		Payload   struct {
			OutputPath string `json:"outputPath"`
			Duration   int64  `json:"duration"`
		} `json:"payload"`
	}
	if err := json.Unmarshal(pub.messages[0], &decoded); err != nil {
		t.Fatalf("message is not JSON: %v", err)
	}
	if decoded.Kind != "finishTrimming" || decoded.SessionID != "job-1" || decoded.Seq != 7 {
		t.Errorf("decoded = %+v", decoded)
	}
	if decoded.Payload.Duration != 15000 || decoded.Payload.OutputPath != "/work/trim-x.mp4" {
		t.Errorf("payload = %+v", decoded.Payload)
	}
}

func TestRelay_DefaultChannel(t *testing.T) {
	r, err := New(context.Background(), Config{}, WithPublisher(&mockPublisher{}))
	if err != nil {
		t.Fatal(err)
	}
	if r.Channel() != DefaultChannel {
		t.Errorf("Channel() = %q, want %q", r.Channel(), DefaultChannel)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestRelay_PublishFailureIsLogged(t *testing.T) {
	pub := &mockPublisher{err: errors.New("connection refused")}
	r, err := New(context.Background(), Config{}, WithPublisher(pub),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatal(err)
	}

	r.Handle(event.Event{Kind: event.KindShow})

	if len(pub.messages) != 0 {
		t.Error("message recorded despite publish failure")
	}
}
