// Package log provides structured event logging.
// Events are appended as JSON lines to .qudud/log.jsonl; stdout belongs to
// the terminal UI, so nothing is written there.
package log

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Event type constants, carried in the "event" field of every entry.
const (
	EventInitStarted = "session_init_started"
	EventInitialized = "session_initialized"
	EventInitFailed  = "session_init_failed"
	EventTurnStarted = "turn_started"
	EventTurnReplied = "turn_replied"
	EventTurnFailed  = "turn_failed"
	EventClosed      = "client_closed"
)

// FileName is the log file name inside the .qudud directory.
const FileName = "log.jsonl"

// Event returns the zap field used to tag an entry with its event type.
func Event(name string) zap.Field {
	return zap.String("event", name)
}

// NewLogger creates a zap logger that appends JSON lines to
// .qudud/log.jsonl inside dir. Creates the .qudud/ directory if it does not
// already exist and never truncates an existing log file.
func NewLogger(dir, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	qududDir := filepath.Join(dir, ".qudud")
	if err := os.MkdirAll(qududDir, 0755); err != nil {
		return nil, fmt.Errorf("create .qudud directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(qududDir, FileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.Lock(f),
		zap.NewAtomicLevelAt(lvl),
	)
	return zap.New(core), nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.Logger {
	return zap.NewNop()
}
