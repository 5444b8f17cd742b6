package logging

import (
	"os"

	"github.com/rs/zerolog"
)

// stdLogger backs the package level functions. The default writes colourful console output at debug level,
// which suits tests; commands replace it via ConfigureApplicationLogging.
var stdLogger = createDefaultLogger()

// ReplaceStdLogger swaps the logger used by the package level functions. It is not safe to call while other
// goroutines are logging.
func ReplaceStdLogger(l *Logger) {
	stdLogger = l
}

func StdLogger() *Logger {
	return stdLogger
}

func Debug(args ...any) {
	stdLogger.Debug(args...)
}

func Info(args ...any) {
	stdLogger.Info(args...)
}

func Warn(args ...any) {
	stdLogger.Warn(args...)
}

func Error(args ...any) {
	stdLogger.Error(args...)
}

// Fatal logs at fatal level and exits the process with status 1.
func Fatal(args ...any) {
	stdLogger.Fatal(args...)
}

func Debugf(format string, args ...any) {
	stdLogger.Debugf(format, args...)
}

func Infof(format string, args ...any) {
	stdLogger.Infof(format, args...)
}

func Warnf(format string, args ...any) {
	stdLogger.Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	stdLogger.Errorf(format, args...)
}

// Fatalf logs at fatal level and exits the process with status 1.
func Fatalf(format string, args ...any) {
	stdLogger.Fatalf(format, args...)
}

func WithField(key string, value any) *Logger {
	return stdLogger.WithField(key, value)
}

func WithFields(args map[string]any) *Logger {
	return stdLogger.WithFields(args)
}

func WithError(err error) *Logger {
	return stdLogger.WithError(err)
}

// WithStacktrace adds err and, when err carries one, its github.com/pkg/errors stack trace.
func WithStacktrace(err error) *Logger {
	return stdLogger.WithStacktrace(err)
}

func createDefaultLogger() *Logger {
	writer := createConsoleWriter(os.Stdout, zerolog.DebugLevel, FormatColourful)
	return FromZerolog(zerolog.New(writer).With().Timestamp().Logger())
}
