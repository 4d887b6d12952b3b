package cli

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
	"k8s.io/utils/clock"
)

// newLogger creates the CLI logger. Timestamps read like "14:32:01.45".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs how long a command step took, e.g. "Reconciled layout (1.234s)".
type progress struct {
	logger *log.Logger
	clock  clock.PassiveClock
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return newProgressWithClock(l, clock.RealClock{})
}

func newProgressWithClock(l *log.Logger, clk clock.PassiveClock) *progress {
	return &progress{logger: l, clock: clk, start: clk.Now()}
}

func (p *progress) elapsed() time.Duration {
	return p.clock.Since(p.start).Round(time.Millisecond)
}

func (p *progress) done(msg string, keyvals ...any) {
	p.logger.Info(msg+" ("+p.elapsed().String()+")", keyvals...)
}
