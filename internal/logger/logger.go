// Package logger wraps logrus with the field layout used across the service.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is a thin structured-logging handle bound to a service name.
type Logger struct {
	entry *logrus.Entry
}

// Init configures the global logrus instance. format is "json" or "text";
// anything else falls back to text. An unknown level falls back to info.
func Init(level, format string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}

	fieldMap := logrus.FieldMap{
		logrus.FieldKeyTime:  "timestamp",
		logrus.FieldKeyLevel: "level",
		logrus.FieldKeyMsg:   "message",
	}

	if strings.EqualFold(format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap:        fieldMap,
		})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap:        fieldMap,
		})
	}

	splitStreams(logrus.StandardLogger(), os.Stdout, os.Stderr)
	logrus.SetLevel(lvl)
}

// streamHook writes formatted entries for its levels to w.
type streamHook struct {
	mu     sync.Mutex
	w      io.Writer
	levels []logrus.Level
}

func (h *streamHook) Levels() []logrus.Level { return h.levels }

func (h *streamHook) Fire(entry *logrus.Entry) error {
	line, err := entry.Bytes()
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.w.Write(line)
	return err
}

// splitStreams sends warn and above to errOut and everything else to out.
// Hooks already installed on l are replaced, so repeated Init calls do not
// duplicate lines.
func splitStreams(l *logrus.Logger, out, errOut io.Writer) {
	l.SetOutput(io.Discard)
	l.ReplaceHooks(make(logrus.LevelHooks))
	l.AddHook(&streamHook{w: errOut, levels: []logrus.Level{
		logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel,
	}})
	l.AddHook(&streamHook{w: out, levels: []logrus.Level{
		logrus.InfoLevel, logrus.DebugLevel, logrus.TraceLevel,
	}})
}

// New returns a Logger that tags every entry with the service name.
func New(service string) *Logger {
	return &Logger{entry: logrus.WithField("service", service)}
}

// NewWithOutput is New with a private logrus instance writing to w. Used by tests.
func NewWithOutput(service string, w io.Writer) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.JSONFormatter{})
	return &Logger{entry: l.WithField("service", service)}
}

// NewWithStreams is NewWithOutput with the production level split: warn and
// above go to errOut, the rest to out.
func NewWithStreams(service string, out, errOut io.Writer) *Logger {
	l := logrus.New()
	l.SetLevel(logrus.DebugLevel)
	l.SetFormatter(&logrus.JSONFormatter{})
	splitStreams(l, out, errOut)
	return &Logger{entry: l.WithField("service", service)}
}

// WithField returns a child logger carrying an extra field.
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithFields returns a child logger carrying extra fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// WithError attaches err under the "error" key.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

func (l *Logger) Debug(message string) { l.entry.Debug(message) }
func (l *Logger) Info(message string) { l.entry.Info(message) }
func (l *Logger) Warn(message string) { l.entry.Warn(message) }
func (l *Logger) Error(message string) { l.entry.Error(message) }

// Fatal logs and terminates the process.
func (l *Logger) Fatal(message string) { l.entry.Fatal(message) }
