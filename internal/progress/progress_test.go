package progress

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func countMatches(buf *bytes.Buffer, substr string) int {
	return strings.Count(buf.String(), substr)
}

func TestLogSinkBytes(t *testing.T) {
	t.Run("deduplicates repeated percentages", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.New(&buf)
		logger.SetLevel(log.DebugLevel)
		sink := NewLogSink(logger)

		sink.Bytes(50, 100)
		sink.Bytes(50, 100)
		sink.Bytes(51, 100)

		if got := countMatches(&buf, "percent=50"); got != 1 {
			t.Errorf("percent=50 logged %d times, want 1", got)
		}
		if got := countMatches(&buf, "percent=51"); got != 1 {
			t.Errorf("percent=51 logged %d times, want 1", got)
		}
	})

	t.Run("resets between downloads", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.New(&buf)
		logger.SetLevel(log.DebugLevel)
		sink := NewLogSink(logger)

		// First download ends at 100%, the next starts small but lands
		// on a percentage the first one already reported.
		sink.Bytes(100, 100)
		sink.Bytes(50, 50)

		if got := countMatches(&buf, "percent=100"); got != 2 {
			t.Errorf("percent=100 logged %d times across two downloads, want 2", got)
		}
	})

	t.Run("ignores unknown totals", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.New(&buf)
		logger.SetLevel(log.DebugLevel)
		sink := NewLogSink(logger)

		sink.Bytes(10, 0)
		if buf.Len() != 0 {
			t.Errorf("unexpected output for unknown total: %q", buf.String())
		}
	})
}
