// Package progress defines the message sink the engine reports through,
// with a logger-backed implementation for the CLI.
package progress

import (
	"github.com/charmbracelet/log"
)

// Sink receives progress and status updates during long operations.
type Sink interface {
	// Bytes reports download progress. total is zero when unknown.
	Bytes(done, total int64)
	// Items reports bulk-operation progress.
	Items(done, total int)
	// Status reports a free-text progress line.
	Status(msg string)
}

// LogSink renders progress through a charmbracelet logger. Byte updates
// are logged only at whole-percent steps to keep output readable; the
// step state resets whenever the byte count goes backwards, which marks
// the start of the next download in the same invocation.
type LogSink struct {
	logger      *log.Logger
	lastDone    int64
	lastPercent int
}

func NewLogSink(logger *log.Logger) *LogSink {
	if logger == nil {
		logger = log.Default()
	}
	return &LogSink{logger: logger, lastPercent: -1}
}

func (s *LogSink) Bytes(done, total int64) {
	if done < s.lastDone {
		s.lastPercent = -1
	}
	s.lastDone = done
	if total <= 0 {
		return
	}
	percent := int(done * 100 / total)
	if percent == s.lastPercent {
		return
	}
	s.lastPercent = percent
	s.logger.Debug("downloading", "percent", percent)
}

func (s *LogSink) Items(done, total int) {
	s.logger.Info("progress", "done", done, "total", total)
}

func (s *LogSink) Status(msg string) {
	s.logger.Info(msg)
}

// Discard is a Sink that drops everything, for tests and quiet callers.
type Discard struct{}

func (Discard) Bytes(done, total int64) {}
func (Discard) Items(done, total int)   {}
func (Discard) Status(msg string)       {}
