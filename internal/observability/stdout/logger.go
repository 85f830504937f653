// Package stdout provides a JSON-formatted structured logger writing to an
// io.Writer (normally os.Stdout). Entries carry consistent standard fields so
// they aggregate cleanly in log management systems.
package stdout

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/koenigleon/oads-download/internal/observability"
)

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// ParseLevel converts a string to a LogLevel. Unrecognized levels default to
// InfoLevel.
func ParseLevel(level string) LogLevel {
	switch level {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// String returns the string representation of a LogLevel.
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	default:
		return "unknown"
	}
}

// Logger implements observability.Logger with JSON output.
type Logger struct {
	mu               sync.Mutex
	output           io.Writer
	serviceName      string
	hostname         string
	minLevel         LogLevel
	persistentFields observability.Fields
}

// New creates a Logger. If output is nil it defaults to os.Stdout. The system
// hostname is detected automatically and included in every entry.
func New(serviceName, logLevel string, output io.Writer, fields observability.Fields) *Logger {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}
	if output == nil {
		output = os.Stdout
	}

	persistent := make(observability.Fields, len(fields))
	for k, v := range fields {
		persistent[k] = v
	}

	return &Logger{
		output:           output,
		serviceName:      serviceName,
		hostname:         hostname,
		minLevel:         ParseLevel(logLevel),
		persistentFields: persistent,
	}
}

func (l *Logger) Info(ctx context.Context, msg string, fields observability.Fields) {
	l.log(InfoLevel, msg, nil, fields)
}

func (l *Logger) Error(ctx context.Context, msg string, err error, fields observability.Fields) {
	l.log(ErrorLevel, msg, err, fields)
}

func (l *Logger) Warn(ctx context.Context, msg string, fields observability.Fields) {
	l.log(WarnLevel, msg, nil, fields)
}

func (l *Logger) Debug(ctx context.Context, msg string, fields observability.Fields) {
	l.log(DebugLevel, msg, nil, fields)
}

// WithFields returns a Logger including fields in all subsequent entries.
func (l *Logger) WithFields(fields observability.Fields) observability.Logger {
	merged := make(observability.Fields, len(l.persistentFields)+len(fields))
	for k, v := range l.persistentFields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	return &Logger{
		output:           l.output,
		serviceName:      l.serviceName,
		hostname:         l.hostname,
		minLevel:         l.minLevel,
		persistentFields: merged,
	}
}

func (l *Logger) log(level LogLevel, msg string, err error, fields observability.Fields) {
	if level < l.minLevel {
		return
	}

	entry := make(map[string]interface{}, len(l.persistentFields)+len(fields)+5)
	for k, v := range l.persistentFields {
		entry[k] = v
	}
	for k, v := range fields {
		entry[k] = v
	}
	entry["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	entry["level"] = level.String()
	entry["service"] = l.serviceName
	entry["hostname"] = l.hostname
	entry["message"] = msg
	if err != nil {
		entry["error"] = err.Error()
	}

	line, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write(append(line, '\n'))
}
