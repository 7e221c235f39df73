// Package logger provides the bot logging system on top of logrus.
// It writes coloured lines to the console and plain lines to logs/combined.log
// and logs/error.log.
package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelCritical LogLevel = iota
	LevelError
	LevelWarn
	LevelSuccess
	LevelInfo
	LevelDebug
	LevelSystem
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelCritical:
		return "CRITICAL"
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelSuccess:
		return "SUCCESS"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	case LevelSystem:
		return "SYSTEM"
	default:
		return "UNKNOWN"
	}
}

// Color returns the ANSI color code for the log level
func (l LogLevel) Color() string {
	switch l {
	case LevelCritical:
		return "\033[1;31m"
	case LevelError:
		return "\033[31m"
	case LevelWarn:
		return "\033[33m"
	case LevelSuccess:
		return "\033[32m"
	case LevelInfo:
		return "\033[36m"
	case LevelDebug:
		return "\033[35m"
	case LevelSystem:
		return "\033[34m"
	default:
		return colorReset
	}
}

// logrusLevel maps our levels onto logrus severities so hooks can filter them.
func (l LogLevel) logrusLevel() logrus.Level {
	switch l {
	case LevelCritical, LevelError:
		return logrus.ErrorLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelDebug:
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

const (
	colorReset      = "\033[0m"
	timestampFormat = "2006-01-02 15:04:05"

	fieldLevel  = "pancy_level"
	fieldPrefix = "prefix"
)

// lineFormatter renders "[ts] [LEVEL] [prefix]: message".
type lineFormatter struct {
	colors bool
}

func (f *lineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	level, ok := entry.Data[fieldLevel].(LogLevel)
	if !ok {
		level = LevelInfo
	}
	prefix, _ := entry.Data[fieldPrefix].(string)

	var b bytes.Buffer
	b.WriteString("[" + entry.Time.Format(timestampFormat) + "] ")
	if f.colors {
		b.WriteString("[" + level.Color() + level.String() + colorReset + "] ")
	} else {
		b.WriteString("[" + level.String() + "] ")
	}
	fmt.Fprintf(&b, "[%s]: %s\n", prefix, entry.Message)
	return b.Bytes(), nil
}

// fileHook copies entries of the given severities into a file.
type fileHook struct {
	w         io.Writer
	levels    []logrus.Level
	formatter logrus.Formatter
	mu        sync.Mutex
}

func (h *fileHook) Levels() []logrus.Level { return h.levels }

func (h *fileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.w.Write(line)
	return err
}

// Logger is the main logging structure
type Logger struct {
	logrus *logrus.Logger
	files  []*os.File
}

var (
	logger *Logger
	once   sync.Once
)

// Init initializes the global logger instance writing its files into logsDir.
func Init(logsDir string) *Logger {
	once.Do(func() {
		logger = NewLogger(logsDir)
	})
	return logger
}

// Get returns the global logger instance
func Get() *Logger {
	once.Do(func() {
		logger = NewLogger("")
	})
	return logger
}

// NewLogger creates a logger. An empty logsDir disables file output.
func NewLogger(logsDir string) *Logger {
	return newLogger(os.Stdout, logsDir, true)
}

func newLogger(console io.Writer, logsDir string, colors bool) *Logger {
	l := &Logger{logrus: logrus.New()}
	l.logrus.SetOutput(console)
	l.logrus.SetFormatter(&lineFormatter{colors: colors})
	l.logrus.SetLevel(logrus.DebugLevel)

	if logsDir == "" {
		return l
	}

	if err := os.MkdirAll(logsDir, 0755); err != nil {
		fmt.Printf("Error creating logs directory: %v\n", err)
		return l
	}

	plain := &lineFormatter{}
	if f := l.openFile(filepath.Join(logsDir, "combined.log")); f != nil {
		l.logrus.AddHook(&fileHook{w: f, levels: logrus.AllLevels, formatter: plain})
	}
	if f := l.openFile(filepath.Join(logsDir, "error.log")); f != nil {
		l.logrus.AddHook(&fileHook{
			w:         f,
			levels:    []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel},
			formatter: plain,
		})
	}
	return l
}

func (l *Logger) openFile(path string) *os.File {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Printf("Error opening log file %s: %v\n", path, err)
		return nil
	}
	l.files = append(l.files, f)
	return f
}

func (l *Logger) log(level LogLevel, message string, prefix string) {
	l.logrus.WithFields(logrus.Fields{
		fieldLevel:  level,
		fieldPrefix: prefix,
	}).Log(level.logrusLevel(), message)
}

// Close closes the log files
func (l *Logger) Close() {
	for _, f := range l.files {
		_ = f.Close()
	}
	l.files = nil
}

// Critical logs a critical message
func (l *Logger) Critical(message string, prefix string) {
	l.log(LevelCritical, message, prefix)
}

// Error logs an error message
func (l *Logger) Error(message string, prefix string) {
	l.log(LevelError, message, prefix)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, prefix string) {
	l.log(LevelWarn, message, prefix)
}

// Success logs a success message
func (l *Logger) Success(message string, prefix string) {
	l.log(LevelSuccess, message, prefix)
}

// Info logs an info message
func (l *Logger) Info(message string, prefix string) {
	l.log(LevelInfo, message, prefix)
}

// Debug logs a debug message
func (l *Logger) Debug(message string, prefix string) {
	l.log(LevelDebug, message, prefix)
}

// System logs a system message
func (l *Logger) System(message string, prefix string) {
	l.log(LevelSystem, message, prefix)
}

// Package-level functions for convenience

func Critical(message string, prefix string) { Get().Critical(message, prefix) }
func Error(message string, prefix string)    { Get().Error(message, prefix) }
func Warn(message string, prefix string)     { Get().Warn(message, prefix) }
func Success(message string, prefix string)  { Get().Success(message, prefix) }
func Info(message string, prefix string)     { Get().Info(message, prefix) }
func Debug(message string, prefix string)    { Get().Debug(message, prefix) }
func System(message string, prefix string)   { Get().System(message, prefix) }
