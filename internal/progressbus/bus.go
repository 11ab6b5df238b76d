// Package progressbus fans out task progress to whatever UI layer is
// listening, without coupling the domain packages (fetch, tools, youtube,
// export) to a specific runtime. It mirrors the launcher's progress-event
// shape but is keyed by task id and carries a normalized status/progress
// envelope instead of the ad-hoc percent field the launcher used.
package progressbus

import (
	"strings"
	"sync"
)

// Status is the lifecycle stage of a task's progress event.
type Status string

const (
	StatusProgress Status = "progress"
	StatusSuccess  Status = "success"
	StatusError    Status = "error"
)

// Topic is the single event name every progress event is published under;
// consumers discriminate by Event.Task.
const Topic = "runtime-tools://install-progress"

// Well-known task keys. Callers may use their own for import/export tasks
// when they want per-run identity (e.g. "clip-export:my-project").
const (
	TaskYtdlp           = "ytdlp"
	TaskFfmpeg          = "ffmpeg"
	TaskYoutubeDownload = "youtube-download"
	clipExportPrefix    = "clip-export"
)

// Event is the wire shape delivered to the Emitter.
type Event struct {
	Task     string  `json:"task"`
	Title    string  `json:"title"`
	Status   Status  `json:"status"`
	Message  string  `json:"message"`
	Detail   string  `json:"detail,omitempty"`
	Progress float64 `json:"progress"`
}

// Emitter is the minimal surface progressbus needs from the host runtime.
// The Wails v3 application event emitter and a test recorder both satisfy it.
type Emitter interface {
	Emit(topic string, payload any)
}

// Bus publishes Events to a swappable Emitter. The zero value is usable;
// Publish is a no-op until an Emitter is attached, which lets domain code
// construct and pass around a Bus before the host application exists.
type Bus struct {
	mu      sync.RWMutex
	emitter Emitter
}

// New returns a Bus backed by emitter. emitter may be nil; SetEmitter can
// attach one later.
func New(emitter Emitter) *Bus {
	return &Bus{emitter: emitter}
}

// SetEmitter swaps the underlying sink. Safe for concurrent use with Publish.
func (b *Bus) SetEmitter(e Emitter) {
	b.mu.Lock()
	b.emitter = e
	b.mu.Unlock()
}

// Publish delivers ev if an Emitter is attached. Title is filled in from
// Task via TitleFor when left blank.
func (b *Bus) Publish(ev Event) {
	if ev.Title == "" {
		ev.Title = TitleFor(ev.Task)
	}

	b.mu.RLock()
	e := b.emitter
	b.mu.RUnlock()
	if e == nil {
		return
	}
	e.Emit(Topic, ev)
}

// Progress publishes a progress-status event with a clamped [0,1] value.
func (b *Bus) Progress(task, message string, progress float64) {
	b.Publish(Event{Task: task, Status: StatusProgress, Message: message, Progress: clamp01(progress)})
}

// Success publishes a terminal success event at progress 1.0.
func (b *Bus) Success(task, message string) {
	b.Publish(Event{Task: task, Status: StatusSuccess, Message: message, Progress: 1})
}

// Error publishes a terminal error event, optionally carrying a diagnostic
// detail (e.g. an ffmpeg stderr excerpt).
func (b *Bus) Error(task, message, detail string) {
	b.Publish(Event{Task: task, Status: StatusError, Message: message, Detail: detail})
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ClipExportTask builds the canonical task key for a batch export run,
// namespacing it by the sanitized project id so concurrent exports don't
// collide on the same progress channel.
func ClipExportTask(sanitizedProjectID string) string {
	return clipExportPrefix + ":" + sanitizedProjectID
}

// TitleFor derives a human-facing title from a task key's prefix.
func TitleFor(task string) string {
	switch {
	case task == TaskYtdlp:
		return "yt-dlp"
	case task == TaskFfmpeg:
		return "FFmpeg"
	case task == TaskYoutubeDownload:
		return "YouTube Download"
	case strings.HasPrefix(task, clipExportPrefix+":"):
		return "Clip Export"
	case task == clipExportPrefix:
		return "Clip Export"
	default:
		return task
	}
}
