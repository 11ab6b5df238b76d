// Package clipboard watches the OS clipboard for a YouTube URL and
// surfaces it as a prefill candidate. It is purely informational: it
// never triggers a probe or download on its own.
package clipboard

import (
	"context"
	"sync"
	"time"

	"cursedclipper/internal/validate"
)

// Emitter is the minimal surface the monitor needs to notify a host
// runtime of a detected link.
type Emitter interface {
	Emit(topic string, payload any)
}

// LinkDetectedTopic is the event topic published with the detected URL.
const LinkDetectedTopic = "clipboard://link-detected"

// ClipboardReader abstracts the host clipboard so the monitor is testable
// without a live Wails application.
type ClipboardReader interface {
	Text() (string, bool)
}

const (
	minPollInterval = 500 * time.Millisecond
	maxPollInterval = 3 * time.Second
	backoffFactor   = 2
)

// Monitor polls the clipboard with adaptive backoff: fast while the
// clipboard keeps changing, slower once it goes idle.
type Monitor struct {
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.Mutex
	lastText  string
	isRunning bool

	reader  ClipboardReader
	emitter Emitter
}

// NewMonitor creates a Monitor reading from reader and publishing to emitter.
// Either may be nil; a nil emitter silently drops detections.
func NewMonitor(reader ClipboardReader, emitter Emitter) *Monitor {
	return &Monitor{reader: reader, emitter: emitter}
}

// Start begins polling in the background. It is a no-op if already running.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.isRunning || m.reader == nil {
		return
	}

	m.ctx, m.cancel = context.WithCancel(ctx)
	m.isRunning = true

	if text, ok := m.reader.Text(); ok {
		m.lastText = text
	}

	go m.loop()
}

// Stop halts polling.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.isRunning {
		return
	}
	if m.cancel != nil {
		m.cancel()
	}
	m.isRunning = false
}

func (m *Monitor) loop() {
	interval := minPollInterval

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-time.After(interval):
			text, ok := m.reader.Text()
			if !ok {
				interval = minDuration(interval*backoffFactor, maxPollInterval)
				continue
			}

			m.mu.Lock()
			changed := text != m.lastText
			if changed {
				m.lastText = text
			}
			m.mu.Unlock()

			if !changed {
				interval = minDuration(interval*backoffFactor, maxPollInterval)
				continue
			}

			interval = minPollInterval
			if isYoutubeURL(text) && m.emitter != nil {
				m.emitter.Emit(LinkDetectedTopic, text)
			}
		}
	}
}

func isYoutubeURL(text string) bool {
	_, err := validate.YoutubeURL(text)
	return err == nil
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
