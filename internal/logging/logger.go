// Package logging provides leveled console logging on top of zerolog, with an
// optional plain-text file sink. Console lines keep the
// "2006-01-02 15:04:05 [LEVEL] message" layout; ERROR lines go to stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/backmassage/dlogconv/internal/config"
	"github.com/backmassage/dlogconv/internal/term"
)

const timeLayout = "2006-01-02 15:04:05"

// successLevel is written in the level field of Success lines.
const successLevel = "success"

// Logger provides leveled, optionally colored logging with optional file sink.
// Child loggers from [Logger.With] share the parent's sinks.
type Logger struct {
	zl     zerolog.Logger
	closer io.Closer
}

// NewLogger configures colors from cfg and optionally opens cfg.LogFile.
// Call Close when done if LogFile was set.
func NewLogger(cfg *config.Config) (*Logger, error) {
	term.Configure(cfg.ColorMode)

	var sinks []io.Writer
	sinks = append(sinks, levelSplit{
		out: consoleWriter(os.Stdout, !term.Enabled()),
		err: consoleWriter(os.Stderr, !term.Enabled()),
	})

	l := &Logger{}
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		l.closer = f
		sinks = append(sinks, consoleWriter(f, true))
	}

	l.zl = zerolog.New(zerolog.MultiLevelWriter(sinks...)).
		Level(levelFor(cfg.Verbose)).
		With().Timestamp().Logger()
	return l, nil
}

// New returns a Logger writing uncolored console lines to w. Used by tests
// and embedders that capture output.
func New(w io.Writer, verbose bool) *Logger {
	return &Logger{
		zl: zerolog.New(consoleWriter(w, true)).
			Level(levelFor(verbose)).
			With().Timestamp().Logger(),
	}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func levelFor(verbose bool) zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

func consoleWriter(w io.Writer, noColor bool) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:         w,
		NoColor:     noColor,
		TimeFormat:  timeLayout,
		FormatLevel: formatLevel(noColor),
	}
}

func formatLevel(noColor bool) zerolog.Formatter {
	return func(i interface{}) string {
		name, _ := i.(string)
		label := "[" + strings.ToUpper(name) + "]"
		if noColor {
			return label
		}
		switch name {
		case zerolog.LevelErrorValue, zerolog.LevelFatalValue, zerolog.LevelPanicValue:
			return term.Red.Render(label)
		case zerolog.LevelWarnValue:
			return term.Yellow.Render(label)
		case zerolog.LevelDebugValue:
			return term.Cyan.Render(label)
		case successLevel:
			return term.Green.Render(label)
		default:
			return term.Blue.Render(label)
		}
	}
}

// levelSplit sends error-and-above lines to err and everything else to out.
type levelSplit struct {
	out io.Writer
	err io.Writer
}

func (s levelSplit) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func (s levelSplit) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level >= zerolog.ErrorLevel && level != zerolog.NoLevel {
		return s.err.Write(p)
	}
	return s.out.Write(p)
}

// With returns a child logger that adds key=value to every line.
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger()}
}

// Zerolog exposes the underlying logger for libraries that take one.
func (l *Logger) Zerolog() zerolog.Logger { return l.zl }

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	err := l.closer.Close()
	l.closer = nil
	return err
}

// Info logs at INFO level.
func (l *Logger) Info(format string, args ...interface{}) {
	l.zl.Info().Msg(fmt.Sprintf(format, args...))
}

// Success logs a completion line at SUCCESS level. It is emitted whenever
// INFO would be.
func (l *Logger) Success(format string, args ...interface{}) {
	if l.zl.GetLevel() > zerolog.InfoLevel {
		return
	}
	l.zl.Log().Str(zerolog.LevelFieldName, successLevel).Msg(fmt.Sprintf(format, args...))
}

// Warn logs at WARN level.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.zl.Warn().Msg(fmt.Sprintf(format, args...))
}

// Error logs at ERROR level, to stderr on the console.
func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Error().Msg(fmt.Sprintf(format, args...))
}

// Debug logs at DEBUG level; dropped unless the logger is verbose.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.zl.Debug().Msg(fmt.Sprintf(format, args...))
}
