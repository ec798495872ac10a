package utils

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"
	"time"
)

// Verbosity levels for console output.
const (
	VerbositySilent  = 0 // no output at all
	VerbosityBasic   = 1 // progress report and errors
	VerbosityVerbose = 2 // detailed action report
	VerbosityDebug   = 3 // full debug output
)

// Logger provides leveled, verbosity-filtered logging throughout the
// application. Every retry, terminal failure, and status decision flows
// through it; it also counts errors for the end-of-run summary.
type Logger struct {
	verbosity  int
	out        *log.Logger
	errOut     *log.Logger
	file       *os.File
	fileLog    *log.Logger
	errorCount int64
}

// NewLogger creates a Logger writing to stdout/stderr at the given verbosity.
func NewLogger(verbosity int) *Logger {
	return &Logger{
		verbosity: verbosity,
		out:       log.New(os.Stdout, "", 0),
		errOut:    log.New(os.Stderr, "", 0),
	}
}

// NewFileLogger creates a Logger that additionally tees every surfaced
// event to the given log file, without ANSI colors.
func NewFileLogger(verbosity int, path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("logger: open log file %q: %w", path, err)
	}
	l := NewLogger(verbosity)
	l.file = f
	l.fileLog = log.New(f, "", 0)
	return l, nil
}

// Close releases the log file, if any.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// ErrorCount returns the number of errors logged so far.
func (l *Logger) ErrorCount() int64 {
	return atomic.LoadInt64(&l.errorCount)
}

func (l *Logger) timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func (l *Logger) emit(dst *log.Logger, level, color, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	dst.Printf("[%s] \033[%sm%-5s\033[0m %s\n", l.timestamp(), color, level, msg)
	if l.fileLog != nil {
		l.fileLog.Printf("%s - %s - %s\n", l.timestamp(), level, msg)
	}
}

// Info reports run progress. Surfaced at verbosity 1 and above.
func (l *Logger) Info(format string, args ...any) {
	if l.verbosity >= VerbosityBasic {
		l.emit(l.out, "INFO", "32", format, args...)
	}
}

// Warn reports a recoverable oddity. Surfaced at verbosity 1 and above.
func (l *Logger) Warn(format string, args ...any) {
	if l.verbosity >= VerbosityBasic {
		l.emit(l.out, "WARN", "33", format, args...)
	}
}

// Error reports a failure and bumps the error counter. The counter is
// bumped even when verbosity suppresses the output.
func (l *Logger) Error(format string, args ...any) {
	atomic.AddInt64(&l.errorCount, 1)
	if l.verbosity >= VerbosityBasic {
		l.emit(l.errOut, "ERROR", "31", format, args...)
	}
}

// Verbose reports a detailed action. Surfaced at verbosity 2 and above.
func (l *Logger) Verbose(format string, args ...any) {
	if l.verbosity >= VerbosityVerbose {
		l.emit(l.out, "VERB", "35", format, args...)
	}
}

// Debug reports internals, including payload contents. Verbosity 3 only.
func (l *Logger) Debug(format string, args ...any) {
	if l.verbosity >= VerbosityDebug {
		l.emit(l.out, "DEBUG", "36", format, args...)
	}
}
