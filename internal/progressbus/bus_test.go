package progressbus_test

import (
	"sync"
	"testing"
	"time"

	"cursedclipper/internal/progressbus"
)

type recorder struct {
	mu     sync.Mutex
	topic  string
	events []progressbus.Event
}

func (r *recorder) Emit(topic string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topic = topic
	ev, ok := payload.(progressbus.Event)
	if !ok {
		return
	}
	r.events = append(r.events, ev)
}

func TestBus_PublishFillsTitle(t *testing.T) {
	rec := &recorder{}
	bus := progressbus.New(rec)

	bus.Progress(progressbus.TaskYtdlp, "downloading", 0.5)

	if len(rec.events) != 1 {
		t.Fatalf("events = %d, want 1", len(rec.events))
	}
	ev := rec.events[0]
	if ev.Title != "yt-dlp" {
		t.Errorf("Title = %q, want %q", ev.Title, "yt-dlp")
	}
	if ev.Status != progressbus.StatusProgress {
		t.Errorf("Status = %q, want progress", ev.Status)
	}
	if rec.topic != progressbus.Topic {
		t.Errorf("topic = %q, want %q", rec.topic, progressbus.Topic)
	}
}

func TestBus_NilEmitterIsNoop(t *testing.T) {
	bus := progressbus.New(nil)
	bus.Progress(progressbus.TaskFfmpeg, "x", 0.1) // must not panic
}

func TestBus_ProgressClamps(t *testing.T) {
	rec := &recorder{}
	bus := progressbus.New(rec)

	bus.Progress("t", "over", 5)
	bus.Progress("t", "under", -5)

	if rec.events[0].Progress != 1 {
		t.Errorf("over-range progress = %v, want 1", rec.events[0].Progress)
	}
	if rec.events[1].Progress != 0 {
		t.Errorf("under-range progress = %v, want 0", rec.events[1].Progress)
	}
}

func TestBus_SuccessAndError(t *testing.T) {
	rec := &recorder{}
	bus := progressbus.New(rec)

	bus.Success(progressbus.TaskYtdlp, "done")
	bus.Error(progressbus.TaskYtdlp, "broke", "stderr excerpt")

	if rec.events[0].Status != progressbus.StatusSuccess || rec.events[0].Progress != 1 {
		t.Errorf("success event = %+v", rec.events[0])
	}
	if rec.events[1].Status != progressbus.StatusError || rec.events[1].Detail != "stderr excerpt" {
		t.Errorf("error event = %+v", rec.events[1])
	}
}

func TestClipExportTaskAndTitle(t *testing.T) {
	key := progressbus.ClipExportTask("my-project")
	if key != "clip-export:my-project" {
		t.Errorf("ClipExportTask = %q", key)
	}
	if progressbus.TitleFor(key) != "Clip Export" {
		t.Errorf("TitleFor(%q) = %q", key, progressbus.TitleFor(key))
	}
}

func TestTitleFor(t *testing.T) {
	tests := []struct{ task, want string }{
		{progressbus.TaskYtdlp, "yt-dlp"},
		{progressbus.TaskFfmpeg, "FFmpeg"},
		{progressbus.TaskYoutubeDownload, "YouTube Download"},
		{"custom-task", "custom-task"},
	}
	for _, tt := range tests {
		if got := progressbus.TitleFor(tt.task); got != tt.want {
			t.Errorf("TitleFor(%q) = %q, want %q", tt.task, got, tt.want)
		}
	}
}

func TestSetEmitter(t *testing.T) {
	bus := progressbus.New(nil)
	rec := &recorder{}
	bus.SetEmitter(rec)
	bus.Progress("t", "m", 0.2)
	if len(rec.events) != 1 {
		t.Fatalf("expected emitter swap to take effect")
	}
}

func TestThrottle_FirstAlwaysAllowed(t *testing.T) {
	th := progressbus.NewThrottle(140*time.Millisecond, 0.01)
	if !th.Allow(time.Now(), 0) {
		t.Error("first call should be allowed")
	}
}

func TestThrottle_SuppressesRapidSmallDeltas(t *testing.T) {
	th := progressbus.NewThrottle(time.Second, 0.5)
	now := time.Now()
	th.Allow(now, 0)
	if th.Allow(now.Add(10*time.Millisecond), 0.1) {
		t.Error("small delta within interval should be suppressed")
	}
}

func TestThrottle_AllowsOnIntervalElapsed(t *testing.T) {
	th := progressbus.NewThrottle(100*time.Millisecond, 0.5)
	now := time.Now()
	th.Allow(now, 0)
	if !th.Allow(now.Add(200*time.Millisecond), 0.01) {
		t.Error("update after interval elapsed should be allowed")
	}
}

func TestThrottle_AllowsOnDeltaThreshold(t *testing.T) {
	th := progressbus.NewThrottle(time.Hour, 0.1)
	now := time.Now()
	th.Allow(now, 0)
	if !th.Allow(now, 0.2) {
		t.Error("update past delta threshold should be allowed even with no elapsed time")
	}
}

func TestThrottle_AlwaysAllowsCompletion(t *testing.T) {
	th := progressbus.NewThrottle(time.Hour, 1)
	now := time.Now()
	th.Allow(now, 0)
	if !th.Allow(now, 1) {
		t.Error("progress=1 should always be allowed through")
	}
}

func TestThrottle_Reset(t *testing.T) {
	th := progressbus.NewThrottle(time.Hour, 1)
	now := time.Now()
	th.Allow(now, 0)
	th.Reset()
	if !th.Allow(now, 0) {
		t.Error("after Reset the next Allow should pass")
	}
}
