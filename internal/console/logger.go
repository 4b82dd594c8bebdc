package console

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	colorDebug   = color.New(color.FgHiBlack)
	colorWarn    = color.New(color.FgYellow)
	colorError   = color.New(color.FgRed)
	colorSuccess = color.New(color.FgGreen)
	colorRole    = color.New(color.FgCyan, color.Bold)
)

// Logger writes console output. Status messages carry a timestamp; command
// results do not.
type Logger struct {
	mu      sync.Mutex
	verbose bool
	writer  io.Writer
}

// NewLogger creates a logger writing to stdout.
func NewLogger(verbose bool) *Logger {
	return NewLoggerWithWriter(verbose, os.Stdout)
}

// NewLoggerWithWriter creates a logger with a custom writer.
func NewLoggerWithWriter(verbose bool, writer io.Writer) *Logger {
	return &Logger{verbose: verbose, writer: writer}
}

// SetVerbose sets the verbose mode
func (l *Logger) SetVerbose(verbose bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = verbose
}

// SetWriter sets a custom writer for the logger
func (l *Logger) SetWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

// Writer returns the current output writer.
func (l *Logger) Writer() io.Writer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writer
}

// Output writes user-facing output without a timestamp.
func (l *Logger) Output(format string, args ...interface{}) {
	fmt.Fprintf(l.Writer(), format, args...)
}

// OutputLine writes user-facing output with a newline
func (l *Logger) OutputLine(format string, args ...interface{}) {
	fmt.Fprintf(l.Writer(), format+"\n", args...)
}

func (l *Logger) status(c *color.Color, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if c != nil {
		msg = c.Sprint(msg)
	}
	fmt.Fprintf(l.Writer(), "[%s] %s\n", time.Now().Format("15:04:05"), msg)
}

// Info logs an informational message
func (l *Logger) Info(format string, args ...interface{}) {
	l.status(nil, format, args...)
}

// Debug logs a debug message (only in verbose mode)
func (l *Logger) Debug(format string, args ...interface{}) {
	l.mu.Lock()
	verbose := l.verbose
	l.mu.Unlock()
	if !verbose {
		return
	}
	l.status(colorDebug, format, args...)
}

// Warn logs a warning
func (l *Logger) Warn(format string, args ...interface{}) {
	l.status(colorWarn, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.status(colorError, format, args...)
}

// Success logs a success message
func (l *Logger) Success(format string, args ...interface{}) {
	l.status(colorSuccess, format, args...)
}
