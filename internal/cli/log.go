package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns the CLI logger. Debug output also reports the caller so
// per-node failures can be traced back to the pass that dropped them.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		ReportCaller:    level <= log.DebugLevel,
		Level:           level,
	})
}

// step times one export or import pass. Call finish once it completes; the
// elapsed time is appended to the given key-value pairs.
type step struct {
	logger *log.Logger
	name   string
	start  time.Time
}

func startStep(l *log.Logger, name string) step {
	l.Debug("start", "step", name)
	return step{logger: l, name: name, start: time.Now()}
}

func (s step) finish(keyvals ...any) {
	keyvals = append(keyvals, "took", time.Since(s.start).Round(time.Millisecond))
	s.logger.Info(s.name, keyvals...)
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext falls back to log.Default() when ctx carries no logger.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
