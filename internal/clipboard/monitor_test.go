package clipboard

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeReader struct {
	mu   sync.Mutex
	text string
}

func (f *fakeReader) Text() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text, true
}

func (f *fakeReader) set(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = text
}

type fakeEmitter struct {
	mu      sync.Mutex
	emitted []string
}

func (f *fakeEmitter) Emit(topic string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if topic == LinkDetectedTopic {
		f.emitted = append(f.emitted, payload.(string))
	}
}

func (f *fakeEmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.emitted)
}

func TestMonitor_DetectsYoutubeURL(t *testing.T) {
	reader := &fakeReader{text: ""}
	emitter := &fakeEmitter{}
	m := NewMonitor(reader, emitter)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	reader.set("https://www.youtube.com/watch?v=abc123")

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if emitter.count() > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if emitter.count() != 1 {
		t.Fatalf("expected 1 emitted link, got %d", emitter.count())
	}
	if emitter.emitted[0] != "https://www.youtube.com/watch?v=abc123" {
		t.Errorf("emitted %q", emitter.emitted[0])
	}
}

func TestMonitor_IgnoresNonYoutubeText(t *testing.T) {
	reader := &fakeReader{text: ""}
	emitter := &fakeEmitter{}
	m := NewMonitor(reader, emitter)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	defer m.Stop()

	reader.set("just some plain text")
	time.Sleep(700 * time.Millisecond)

	if emitter.count() != 0 {
		t.Errorf("expected no emissions for non-YouTube text, got %d", emitter.count())
	}
}

func TestMonitor_StartStopIsIdempotent(t *testing.T) {
	m := NewMonitor(&fakeReader{}, &fakeEmitter{})
	ctx := context.Background()

	m.Start(ctx)
	m.Start(ctx) // second Start should be a no-op
	m.Stop()
	m.Stop() // second Stop should be a no-op
}

func TestIsYoutubeURL(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"https://youtu.be/abc123", true},
		{"https://www.youtube.com/watch?v=abc123", true},
		{"https://example.com/video", false},
		{"not a url at all", false},
	}
	for _, tt := range tests {
		if got := isYoutubeURL(tt.text); got != tt.want {
			t.Errorf("isYoutubeURL(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
