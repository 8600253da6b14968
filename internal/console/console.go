// Package console provides a leveled logging interface for the engine and
// its host CLI. It is designed to abstract writing status, diagnostic and
// error output, and to be safe to call from multiple goroutines.
package console

import (
	"fmt"
	"os"
	"sync"

	"github.com/logrusorgru/aurora"
	"github.com/mattn/go-isatty"
)

// Level controls the verbosity threshold for a Console.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// Console is a standardized leveled logger with optional color.
type Console struct {
	Color bool
	Level Level

	mu  sync.Mutex
	out *os.File
	err *os.File
}

// New creates a Console writing to stdout/stderr, auto-detecting color
// support from the stderr terminal.
func New() *Console {
	return &Console{
		Color: isatty.IsTerminal(os.Stderr.Fd()),
		Level: InfoLevel,
		out:   os.Stdout,
		err:   os.Stderr,
	}
}

var def = New()

// SetLevel adjusts the default Console's verbosity threshold.
func SetLevel(l Level) { def.Level = l }

func Debug(msg string)  { def.Debug(msg) }
func Info(msg string)   { def.Info(msg) }
func Warn(msg string)   { def.Warn(msg) }
func Error(msg string)  { def.Error(msg) }
func Fatal(msg string)  { def.Fatal(msg) }
func Debugf(f string, v ...interface{}) { def.Debugf(f, v...) }
func Infof(f string, v ...interface{})  { def.Infof(f, v...) }
func Warnf(f string, v ...interface{})  { def.Warnf(f, v...) }
func Errorf(f string, v ...interface{}) { def.Errorf(f, v...) }
func Fatalf(f string, v ...interface{}) { def.Fatalf(f, v...) }

func (c *Console) Debug(msg string) { c.log(DebugLevel, msg) }
func (c *Console) Info(msg string)  { c.log(InfoLevel, msg) }
func (c *Console) Warn(msg string)  { c.log(WarnLevel, msg) }
func (c *Console) Error(msg string) { c.log(ErrorLevel, msg) }

// Fatal logs at FatalLevel and exits the process.
func (c *Console) Fatal(msg string) {
	c.log(FatalLevel, msg)
	os.Exit(1)
}

func (c *Console) Debugf(msg string, v ...interface{}) { c.log(DebugLevel, fmt.Sprintf(msg, v...)) }
func (c *Console) Infof(msg string, v ...interface{})  { c.log(InfoLevel, fmt.Sprintf(msg, v...)) }
func (c *Console) Warnf(msg string, v ...interface{})  { c.log(WarnLevel, fmt.Sprintf(msg, v...)) }
func (c *Console) Errorf(msg string, v ...interface{}) { c.log(ErrorLevel, fmt.Sprintf(msg, v...)) }

func (c *Console) Fatalf(msg string, v ...interface{}) {
	c.log(FatalLevel, fmt.Sprintf(msg, v...))
	os.Exit(1)
}

// Output writes a line to stdout regardless of level, for primary command
// output rather than diagnostics.
func (c *Console) Output(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}

func (c *Console) log(level Level, msg string) {
	if level < c.Level {
		return
	}

	prefix := ""
	if c.Color {
		switch level {
		case WarnLevel:
			prefix = aurora.Yellow("⚠ ").String()
		case ErrorLevel, FatalLevel:
			prefix = aurora.Red("✗ ").String()
		case DebugLevel:
			prefix = aurora.Faint("· ").String()
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.err, prefix+msg)
}
