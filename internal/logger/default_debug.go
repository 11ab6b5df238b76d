//go:build dev || debug

package logger

import "github.com/rs/zerolog"

// defaultLevel is the default level for development builds (Debug),
// enabled automatically via "wails dev" (the 'dev' tag).
var defaultLevel = zerolog.DebugLevel
