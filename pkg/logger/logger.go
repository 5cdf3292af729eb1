package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	case FATAL:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case DEBUG:
		return zerolog.DebugLevel
	case INFO:
		return zerolog.InfoLevel
	case WARN:
		return zerolog.WarnLevel
	case ERROR:
		return zerolog.ErrorLevel
	case FATAL:
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// ParseLevel maps a level name to a LogLevel. Unknown names yield INFO and false.
func ParseLevel(s string) (LogLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG, true
	case "INFO":
		return INFO, true
	case "WARN", "WARNING":
		return WARN, true
	case "ERROR":
		return ERROR, true
	case "FATAL":
		return FATAL, true
	}
	return INFO, false
}

type Logger struct {
	mu       sync.Mutex
	zl       zerolog.Logger
	out      io.Writer
	level    LogLevel
	prefix   string
	colorize bool
	showTime bool
	timeFmt  string
	caller   bool
	exit     func(int)
}

var (
	defaultLogger *Logger
	once          sync.Once
)

type Config struct {
	Level      LogLevel
	Prefix     string
	Colorize   bool
	ShowCaller bool
	ShowTime   bool
	TimeFormat string
	Output     io.Writer
}

func DefaultConfig() Config {
	return Config{
		Level:      INFO,
		Prefix:     "",
		Colorize:   true,
		ShowCaller: false,
		ShowTime:   true,
		TimeFormat: "2006-01-02 15:04:05",
		Output:     os.Stdout,
	}
}

func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = "2006-01-02 15:04:05"
	}

	l := &Logger{
		out:      cfg.Output,
		level:    cfg.Level,
		prefix:   cfg.Prefix,
		colorize: cfg.Colorize,
		showTime: cfg.ShowTime,
		timeFmt:  cfg.TimeFormat,
		caller:   cfg.ShowCaller,
		exit:     os.Exit,
	}
	l.rebuild()
	return l
}

// rebuild recreates the zerolog pipeline; callers hold mu or own l exclusively.
func (l *Logger) rebuild() {
	cw := zerolog.ConsoleWriter{
		Out:        l.out,
		NoColor:    !l.colorize,
		TimeFormat: l.timeFmt,
	}
	if !l.showTime {
		cw.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	if l.prefix != "" {
		prefix := l.prefix
		cw.FormatMessage = func(i interface{}) string {
			return fmt.Sprintf("%s %v", prefix, i)
		}
	}

	ctx := zerolog.New(cw).Level(l.level.zerolog()).With().Timestamp()
	if l.caller {
		ctx = ctx.CallerWithSkipFrameCount(4)
	}
	l.zl = ctx.Logger()
}

func GetLogger() *Logger {
	once.Do(func() {
		cfg := DefaultConfig()
		if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
			if lvl, ok := ParseLevel(envLevel); ok {
				cfg.Level = lvl
			}
		}
		defaultLogger = New(cfg)
	})
	return defaultLogger
}

func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	l.rebuild()
}

func (l *Logger) Level() LogLevel {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
	l.rebuild()
}

func (l *Logger) SetColorize(colorize bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.colorize = colorize
	l.rebuild()
}

func (l *Logger) SetShowCaller(show bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.caller = show
	l.rebuild()
}

// log is the internal logging method
func (l *Logger) log(level LogLevel, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}

	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	switch level {
	case DEBUG:
		l.zl.Debug().Msg(msg)
	case INFO:
		l.zl.Info().Msg(msg)
	case WARN:
		l.zl.Warn().Msg(msg)
	case ERROR:
		l.zl.Error().Msg(msg)
	case FATAL:
		// WithLevel avoids zerolog's own os.Exit so the exit hook stays swappable.
		l.zl.WithLevel(zerolog.FatalLevel).Msg(msg)
		l.exit(1)
	}
}

// Debug logs a message at DEBUG level
func (l *Logger) Debug(msg string, args ...any) {
	l.log(DEBUG, msg, args...)
}

// Info logs a message at INFO level
func (l *Logger) Info(msg string, args ...any) {
	l.log(INFO, msg, args...)
}

// Warn logs a message at WARN level
func (l *Logger) Warn(msg string, args ...any) {
	l.log(WARN, msg, args...)
}

// Error logs a message at ERROR level
func (l *Logger) Error(msg string, args ...any) {
	l.log(ERROR, msg, args...)
}

// Fatal logs a message at FATAL level and exits the program
func (l *Logger) Fatal(msg string, args ...any) {
	l.log(FATAL, msg, args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	l.Debug(format, args...)
}

func (l *Logger) Infof(format string, args ...any) {
	l.Info(format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.Warn(format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.Error(format, args...)
}

func (l *Logger) Fatalf(format string, args ...any) {
	l.Fatal(format, args...)
}

// Package-level convenience functions using the default logger

func Debug(msg string, args ...any) {
	GetLogger().Debug(msg, args...)
}

func Info(msg string, args ...any) {
	GetLogger().Info(msg, args...)
}

func Warn(msg string, args ...any) {
	GetLogger().Warn(msg, args...)
}

func Error(msg string, args ...any) {
	GetLogger().Error(msg, args...)
}

func Fatal(msg string, args ...any) {
	GetLogger().Fatal(msg, args...)
}

func Debugf(format string, args ...any) {
	GetLogger().Debugf(format, args...)
}

func Infof(format string, args ...any) {
	GetLogger().Infof(format, args...)
}

func Warnf(format string, args ...any) {
	GetLogger().Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	GetLogger().Errorf(format, args...)
}

func Fatalf(format string, args ...any) {
	GetLogger().Fatalf(format, args...)
}

// SetLevel sets the log level for the default logger
func SetLevel(level LogLevel) {
	GetLogger().SetLevel(level)
}

// SetOutput sets the output for the default logger
func SetOutput(w io.Writer) {
	GetLogger().SetOutput(w)
}

// SetColorize enables or disables colored output for the default logger
func SetColorize(colorize bool) {
	GetLogger().SetColorize(colorize)
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	cfg := DefaultConfig()
	cfg.Output = io.Discard
	cfg.Level = FATAL
	return New(cfg)
}
