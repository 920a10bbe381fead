package logger

import "go.uber.org/zap/zapcore"

// Verbosity level constants for CLI flag counts.
//
// These levels control what categories of output are shown, not just log severity.
//
// Example usage:
//
//	if logger.ShouldLogTrace(verbosity) {
//	    fmt.Printf("resolved slot type: %s\n", slotType)
//	}
const (
	VerbosityUser  = 0 // No flags: results and errors only
	VerbosityInfo  = 1 // -v: + progress, schema registration, server startup
	VerbosityDebug = 2 // -vv: + parse details, slot resolution, config details
	VerbosityTrace = 3 // -vvv: + per-field import decisions
	VerbosityAll   = 4 // -vvvv: + full document dumps
)

// VerbosityToLevel maps verbosity flags (-v, -vv, etc.) to zap log levels
//
// Mapping:
//
//	0 (none)  -> WarnLevel  (errors and warnings only)
//	1 (-v)    -> InfoLevel  (+ informational messages)
//	2+ (-vv)  -> DebugLevel (+ debug messages)
func VerbosityToLevel(verbosity int) zapcore.Level {
	switch verbosity {
	case VerbosityUser:
		return zapcore.WarnLevel
	case VerbosityInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// ShouldLogTrace returns true for verbosity >= 3 (-vvv)
// Use this for very detailed trace logging
func ShouldLogTrace(verbosity int) bool {
	return verbosity >= VerbosityTrace
}

// ShouldLogAll returns true for verbosity >= 4 (-vvvv)
// Use this for dumping full data structures
func ShouldLogAll(verbosity int) bool {
	return verbosity >= VerbosityAll
}

// LevelName returns a human-readable name for verbosity level
func LevelName(verbosity int) string {
	switch verbosity {
	case VerbosityUser:
		return "User"
	case VerbosityInfo:
		return "Info (-v)"
	case VerbosityDebug:
		return "Debug (-vv)"
	case VerbosityTrace:
		return "Trace (-vvv)"
	default:
		return "All (-vvvv)"
	}
}
