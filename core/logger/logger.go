// Package logger provides the logrus logger shared by the data portal.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Environment variables read by Logger.
const (
	LevelEnv  = "DATAPORTAL_LOGGING_LEVEL"
	FormatEnv = "DATAPORTAL_LOGGING_FORMAT"
)

const (
	defaultLevel = "warning"
	formatJSON   = "json"
	formatText   = "text"
	moduleField  = "module"
	moduleName   = "dataportal"
)

var (
	mu sync.Mutex
	lg *logrus.Entry
)

// Logger returns the process-wide logger. On first use it is configured from
// DATAPORTAL_LOGGING_LEVEL (default "warning") and DATAPORTAL_LOGGING_FORMAT
// ("text" or "json") and writes to stderr.
func Logger() *logrus.Entry {
	mu.Lock()
	defer mu.Unlock()

	if lg == nil {
		entry, err := New(os.Getenv(LevelEnv), os.Getenv(FormatEnv), os.Stderr)
		if err != nil {
			entry, _ = New(defaultLevel, formatText, os.Stderr)
			entry.WithError(err).Warn("invalid logging settings, using defaults")
		}
		lg = entry
	}
	return lg
}

// SetLogger replaces the process-wide logger. A nil entry resets it so the
// next Logger call rebuilds it from the environment.
func SetLogger(entry *logrus.Entry) {
	mu.Lock()
	defer mu.Unlock()
	lg = entry
}

// New builds a logger writing to out at level with the given format.
// Empty level and format select "warning" and "text".
func New(level, format string, out io.Writer) (*logrus.Entry, error) {
	if level == "" {
		level = defaultLevel
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "", formatText:
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000 MST",
		})
	case formatJSON:
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown logging format '%s'", format)
	}

	return l.WithField(moduleField, moduleName), nil
}
