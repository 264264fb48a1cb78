package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	cerrors "github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/LevanBokeria/autoemulate/pkg/errors"
)

// zerologLogger implements Logger on top of a zerolog.Logger.
type zerologLogger struct {
	zl zerolog.Logger
}

func (l *zerologLogger) Debug(msg string, fields ...any) { l.emit(l.zl.Debug(), msg, fields) }
func (l *zerologLogger) Info(msg string, fields ...any)  { l.emit(l.zl.Info(), msg, fields) }
func (l *zerologLogger) Warn(msg string, fields ...any)  { l.emit(l.zl.Warn(), msg, fields) }
func (l *zerologLogger) Error(msg string, fields ...any) { l.emit(l.zl.Error(), msg, fields) }

func (l *zerologLogger) With(fields ...any) Logger {
	ctx := l.zl.With()
	for i := 0; i+1 < len(fields); i += 2 {
		key, ok := fields[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, fields[i+1])
	}
	return &zerologLogger{zl: ctx.Logger()}
}

func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return toZerologLevel(level) >= l.zl.GetLevel()
}

// emit attaches fields to the event. An error value appearing as a field
// (either keyed by ErrorKey or passed bare) gets its stack trace extracted
// when one was attached via pkg/errors.
func (l *zerologLogger) emit(e *zerolog.Event, msg string, fields []any) {
	if e == nil {
		return
	}
	i := 0
	for i < len(fields) {
		// Bare error value without a key.
		if err, ok := fields[i].(error); ok {
			attachError(e, err)
			i++
			continue
		}
		if i+1 >= len(fields) {
			break
		}
		key, ok := fields[i].(string)
		if !ok {
			i += 2
			continue
		}
		if err, ok := fields[i+1].(error); ok && key == ErrorKey {
			attachError(e, err)
		} else {
			e.Interface(key, fields[i+1])
		}
		i += 2
	}
	e.Msg(msg)
}

func attachError(e *zerolog.Event, err error) {
	e.Str(ErrorKey, err.Error())
	e.Str(ErrorKindKey, fmt.Sprintf("%T", cerrors.UnwrapAll(err)))
	if details := cerrors.GetSafeDetails(err).SafeDetails; len(details) > 0 {
		e.Str(StacktraceKey, details[0])
	}
	if obj, ok := err.(zerolog.LogObjectMarshaler); ok {
		e.Object("error_detail", obj)
	}
}

func toZerologLevel(level Level) zerolog.Level {
	switch {
	case level <= LevelDebug:
		return zerolog.DebugLevel
	case level <= LevelInfo:
		return zerolog.InfoLevel
	case level <= LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// zerologProvider is the default LoggerProvider backed by zerolog.
type zerologProvider struct {
	mu   sync.Mutex
	root zerolog.Logger
}

func (p *zerologProvider) GetLogger() Logger {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &zerologLogger{zl: p.root}
}

func (p *zerologProvider) GetLoggerWithName(name string) Logger {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &zerologLogger{zl: p.root.With().Str(ComponentKey, name).Logger()}
}

func (p *zerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.root = p.root.Level(toZerologLevel(level))
}

var (
	defaultProvider *zerologProvider
	providerOnce    sync.Once
)

func provider() *zerologProvider {
	providerOnce.Do(func() {
		defaultProvider = &zerologProvider{
			root: zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel),
		}
		// Route numerical warnings (covariance repair etc.) through zerolog.
		errors.SetZerologWarnFunc(func(warning error) {
			logger := defaultProvider.GetLogger()
			logger.Warn("numerical warning", ErrorKey, warning)
		})
	})
	return defaultProvider
}

// GetLogger returns the default zerolog-backed logger.
func GetLogger() Logger {
	return provider().GetLogger()
}

// GetLoggerWithName returns a logger tagged with a component name.
func GetLoggerWithName(name string) Logger {
	return provider().GetLoggerWithName(name)
}

// SetLevel sets the minimum level of the default provider.
func SetLevel(level Level) {
	provider().SetLevel(level)
}

// SetOutput redirects the default provider's output. Intended for tests and
// CLI configuration.
func SetOutput(w io.Writer) {
	p := provider()
	p.mu.Lock()
	defer p.mu.Unlock()
	p.root = p.root.Output(w)
}
