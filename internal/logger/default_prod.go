//go:build !dev && !debug

package logger

import "github.com/rs/zerolog"

// defaultLevel is the default level for release builds (Info), active
// whenever neither the 'dev' nor 'debug' tag is set.
var defaultLevel = zerolog.InfoLevel
