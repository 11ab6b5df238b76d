// Package events centralizes the Wails event-name strings emitted to the
// frontend, so they aren't scattered as magic strings across the app.
package events

// Application lifecycle events.
const (
	AppReady = "app:ready"
)

// Console events: user-friendly log lines shown in the frontend console.
const (
	ConsoleLog = "console:log"
)
