package logging

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const stacktraceKey = "stacktrace"

// Unexported but considered part of the stable interface of pkg/errors.
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Unexported but considered part of the stable interface of pkg/errors.
type causer interface {
	Cause() error
}

// Logger wraps a zerolog.Logger so that callers get a familiar levelled API
// (Info, Infof, WithField, ...) without depending on zerolog directly.
type Logger struct {
	underlying zerolog.Logger
}

// FromZerolog returns a new Logger backed by the supplied zerolog.Logger.
func FromZerolog(l zerolog.Logger) *Logger {
	return &Logger{underlying: l}
}

// Debug logs a message at level Debug.
func (l *Logger) Debug(args ...any) {
	l.underlying.Debug().Msg(fmt.Sprint(args...))
}

// Info logs a message at level Info.
func (l *Logger) Info(args ...any) {
	l.underlying.Info().Msg(fmt.Sprint(args...))
}

// Warn logs a message at level Warn.
func (l *Logger) Warn(args ...any) {
	l.underlying.Warn().Msg(fmt.Sprint(args...))
}

// Error logs a message at level Error.
func (l *Logger) Error(args ...any) {
	l.underlying.Error().Msg(fmt.Sprint(args...))
}

// Panic logs a message at level Panic and then panics.
func (l *Logger) Panic(args ...any) {
	l.underlying.Panic().Msg(fmt.Sprint(args...))
}

// Fatal logs a message at level Fatal then the process will exit with status set to 1.
func (l *Logger) Fatal(args ...any) {
	l.underlying.Fatal().Msg(fmt.Sprint(args...))
}

// Debugf logs a message at level Debug.
func (l *Logger) Debugf(format string, args ...any) {
	l.underlying.Debug().Msgf(format, args...)
}

// Infof logs a message at level Info.
func (l *Logger) Infof(format string, args ...any) {
	l.underlying.Info().Msgf(format, args...)
}

// Warnf logs a message at level Warn.
func (l *Logger) Warnf(format string, args ...any) {
	l.underlying.Warn().Msgf(format, args...)
}

// Errorf logs a message at level Error.
func (l *Logger) Errorf(format string, args ...any) {
	l.underlying.Error().Msgf(format, args...)
}

// Fatalf logs a message at level Fatal then the process will exit with status set to 1.
func (l *Logger) Fatalf(format string, args ...any) {
	l.underlying.Fatal().Msgf(format, args...)
}

// WithField returns a new Logger with the key-value pair added as a new field
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{underlying: l.underlying.With().Interface(key, value).Logger()}
}

// WithFields returns a new Logger with all key-value pairs in the map added as new fields
func (l *Logger) WithFields(args map[string]any) *Logger {
	return &Logger{underlying: l.underlying.With().Fields(args).Logger()}
}

// WithError returns a new Logger with the error added as a field
func (l *Logger) WithError(err error) *Logger {
	return &Logger{underlying: l.underlying.With().AnErr(zerolog.ErrorFieldName, err).Logger()}
}

// WithStacktrace returns a new Logger with the error and (if available) the stacktrace added as fields
func (l *Logger) WithStacktrace(err error) *Logger {
	logger := l.WithError(err)
	if stack := ExtractStack(err); stack != nil {
		return logger.WithField(stacktraceKey, fmt.Sprintf("%+v", stack))
	}
	return logger
}

// ExtractStack walks down the list of errors and retrieves the first errors.StackTrace it encounters
// If no stacktraces are found, it returns nil
func ExtractStack(err error) errors.StackTrace {
	if stackErr, ok := err.(stackTracer); ok {
		return stackErr.StackTrace()
	} else if causeErr, ok := err.(causer); ok {
		return ExtractStack(causeErr.Cause())
	}
	return nil
}
