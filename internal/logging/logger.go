package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/kataras/golog"
)

// Logger is the leveled, printf-style logger used across the application.
type Logger interface {
	Debug(format string, v ...any)
	Info(format string, v ...any)
	Warn(format string, v ...any)
	Error(format string, v ...any)
}

// ParseLevel validates a level name and returns it normalized.
func ParseLevel(level string) (string, error) {
	l := strings.ToLower(strings.TrimSpace(level))
	switch l {
	case "debug", "info", "warn", "error":
		return l, nil
	case "":
		return "info", nil
	default:
		return "", fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", level)
	}
}

// GologLogger implements Logger on top of kataras/golog.
type GologLogger struct {
	logger *golog.Logger
}

var _ Logger = (*GologLogger)(nil)

// New creates a logger writing to out at the given level.
func New(out io.Writer, level string) (*GologLogger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	l := golog.New()
	l.SetOutput(out)
	l.SetPrefix("[docqa] ")
	l.SetLevel(lvl)
	return &GologLogger{logger: l}, nil
}

// Debug logs debug messages
func (l *GologLogger) Debug(format string, v ...any) { l.logger.Debugf(format, v...) }

// Info logs informational messages
func (l *GologLogger) Info(format string, v ...any) { l.logger.Infof(format, v...) }

// Warn logs warning messages
func (l *GologLogger) Warn(format string, v ...any) { l.logger.Warnf(format, v...) }

// Error logs error messages
func (l *GologLogger) Error(format string, v ...any) { l.logger.Errorf(format, v...) }

// Nop discards everything.
type Nop struct{}

func (Nop) Debug(string, ...any) {}
func (Nop) Info(string, ...any)  {}
func (Nop) Warn(string, ...any)  {}
func (Nop) Error(string, ...any) {}
