// Package log is the structured, leveled logger used across the workbench.
// It wraps logrus so callers only deal with Field values and the Logging
// interface.
package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync/atomic"
	"time"

	"workbench/internal/errors"

	"github.com/sirupsen/logrus"
)

var (
	isDebug atomic.Bool
	logger  = NewLogger()
)

// Field is a single structured key/value attached to a log entry
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Logging is the logger surface handed to components
type Logging interface {
	Debug(msg string, args ...interface{})
	Debugf(format string, args ...interface{})
	Info(msg string, args ...interface{})
	Infof(format string, args ...interface{})
	Warn(msg string, args ...interface{})
	Warnf(format string, args ...interface{})
	Error(msg string, args ...interface{})
	Errorf(format string, args ...interface{})
	With(fields ...Field) Logging
	WithError(err error) Logging
	WithContext(ctx context.Context) Logging
}

// Logger implements Logging on top of a logrus entry
type Logger struct {
	entry *logrus.Entry
	file  *os.File
}

var _ Logging = (*Logger)(nil)

type options struct {
	out   io.Writer
	json  bool
	file  string
	level logrus.Level
}

// Option configures a Logger
type Option func(*options)

// WithOutput sends log output to w
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithJSON switches to JSON formatted entries
func WithJSON() Option {
	return func(o *options) { o.json = true }
}

// WithFile additionally appends entries to the file at path
func WithFile(path string) Option {
	return func(o *options) { o.file = path }
}

// WithLevel sets the minimum level. Accepts debug, info, warn and error.
func WithLevel(level string) Option {
	return func(o *options) {
		if lvl, err := logrus.ParseLevel(level); err == nil {
			o.level = lvl
		}
	}
}

// NewLogger creates a logger writing to stderr unless told otherwise
func NewLogger(opts ...Option) *Logger {
	o := &options{out: os.Stderr, level: logrus.DebugLevel}
	for _, opt := range opts {
		opt(o)
	}

	l := &Logger{}
	out := o.out
	if o.file != "" {
		f, err := os.OpenFile(o.file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log: cannot open %s: %v\n", o.file, err)
		} else {
			l.file = f
			out = io.MultiWriter(o.out, f)
		}
	}

	base := logrus.New()
	base.SetOutput(out)
	base.SetLevel(o.level)
	if o.json {
		base.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	} else {
		base.SetFormatter(&textFormatter{})
	}

	l.entry = logrus.NewEntry(base)
	return l
}

// Configure replaces the package-level logger
func Configure(opts ...Option) {
	logger = NewLogger(opts...)
}

// Default returns the package-level logger
func Default() Logging {
	return logger
}

// SetDebug toggles debug output for every logger
func SetDebug(debug bool) {
	isDebug.Store(debug)
}

// Close releases the log file, if one was opened
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) With(fields ...Field) Logging {
	data := make(logrus.Fields, len(fields))
	for _, f := range fields {
		data[f.Key] = f.Value
	}
	return &Logger{entry: l.entry.WithFields(data), file: l.file}
}

func (l *Logger) WithError(err error) Logging {
	return l.With(errorFields(err)...)
}

// WithContext is reserved for request-scoped values; it currently only
// carries the context along.
func (l *Logger) WithContext(ctx context.Context) Logging {
	if ctx == nil {
		return l
	}
	return &Logger{entry: l.entry.WithContext(ctx), file: l.file}
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	if isDebug.Load() {
		l.log(3, logrus.DebugLevel, msg, args...)
	}
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	if isDebug.Load() {
		l.log(3, logrus.DebugLevel, format, args...)
	}
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.log(3, logrus.InfoLevel, msg, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.log(3, logrus.InfoLevel, format, args...)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.log(3, logrus.WarnLevel, msg, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.log(3, logrus.WarnLevel, format, args...)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.log(3, logrus.ErrorLevel, msg, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.log(3, logrus.ErrorLevel, format, args...)
}

// log formats the message and attaches the caller found skip frames up
func (l *Logger) log(skip int, level logrus.Level, msg string, args ...interface{}) {
	if !l.entry.Logger.IsLevelEnabled(level) {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	entry := l.entry
	if _, file, line, ok := runtime.Caller(skip - 1); ok {
		entry = entry.WithField("caller", fmt.Sprintf("%s:%d", filepath.Base(file), line))
	}
	entry.Log(level, msg)
}

// Package-level helpers log through the configured logger.

func Info(format string, args ...interface{}) {
	logger.log(3, logrus.InfoLevel, format, args...)
}

func Debug(msg string, args ...interface{}) {
	if isDebug.Load() {
		logger.log(3, logrus.DebugLevel, msg, args...)
	}
}

func Debugf(format string, args ...interface{}) {
	if isDebug.Load() {
		logger.log(3, logrus.DebugLevel, format, args...)
	}
}

func Warn(msg string, args ...interface{}) {
	logger.log(3, logrus.WarnLevel, msg, args...)
}

func Warnf(format string, args ...interface{}) {
	logger.log(3, logrus.WarnLevel, format, args...)
}

func Error(msg string, args ...interface{}) {
	logger.log(3, logrus.ErrorLevel, msg, args...)
}

func Errorf(format string, args ...interface{}) {
	logger.log(3, logrus.ErrorLevel, format, args...)
}

// LogWithFields returns the package logger decorated with fields
func LogWithFields(fields ...Field) Logging {
	return logger.With(fields...)
}

// LogWithError returns the package logger decorated with err's details
func LogWithError(err error) Logging {
	return logger.WithError(err)
}

// LogError logs err at error level with msg
func LogError(err error, msg string) {
	l := logger.With(errorFields(err)...).(*Logger)
	l.log(3, logrus.ErrorLevel, msg)
}

// errorFields extracts the error message, kind and carrier-specific
// attributes from err
func errorFields(err error) []Field {
	if err == nil {
		return []Field{F("error", "<nil>")}
	}
	fields := []Field{
		F("error", err.Error()),
		F("error_kind", errors.KindOf(err).String()),
	}

	var fileErr *errors.FileError
	if errors.As(err, &fileErr) && fileErr.Path() != "" {
		fields = append(fields, F("path", fileErr.Path()))
	}
	var configErr *errors.ConfigError
	if errors.As(err, &configErr) && configErr.Param() != "" {
		fields = append(fields, F("param", configErr.Param()))
	}
	var valErr *errors.ValidationError
	if errors.As(err, &valErr) && valErr.Field() != "" {
		fields = append(fields, F("field", valErr.Field()))
	}
	var handlerErr *errors.HandlerError
	if errors.As(err, &handlerErr) && handlerErr.CommandID() != "" {
		fields = append(fields, F("command_id", handlerErr.CommandID()))
	}
	return fields
}

// textFormatter renders "[timestamp] LEVEL: message key=value ..."
type textFormatter struct{}

func (f *textFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer
	level := entry.Level.String()
	if level == "warning" {
		level = "warn"
	}
	fmt.Fprintf(&b, "[%s] %s: %s", entry.Time.Format("2006-01-02 15:04:05"), upper(level), entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func upper(s string) string {
	return string(bytes.ToUpper([]byte(s)))
}
