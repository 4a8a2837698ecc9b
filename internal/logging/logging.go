package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Logger writes leveled messages. The zero value logs warnings and errors
// to stderr only.
type Logger struct {
	Verbose bool
	Debug   bool

	// Scope is printed after the level tag, e.g. "[debug] archive: ...".
	Scope string

	// Out and ErrOut default to os.Stdout and os.Stderr.
	Out    io.Writer
	ErrOut io.Writer
}

// Named returns a copy of l whose messages are tagged with scope.
func (l Logger) Named(scope string) Logger {
	l.Scope = scope
	return l
}

func (l Logger) Infof(msg string, args ...any) {
	if l.Verbose || l.Debug {
		l.write(l.out(), color.GreenString("[info] "), msg, args)
	}
}

func (l Logger) Debugf(msg string, args ...any) {
	if l.Debug {
		l.write(l.out(), color.CyanString("[debug] "), msg, args)
	}
}

// Warnf is always shown; skipped sources and rejected entries must reach the user.
func (l Logger) Warnf(msg string, args ...any) {
	l.write(l.errOut(), color.YellowString("[warn] "), msg, args)
}

func (l Logger) Errorf(msg string, args ...any) {
	l.write(l.errOut(), color.RedString("[error] "), msg, args)
}

// ErrorfAndReturn logs the message when debugging and returns it as an error.
func (l Logger) ErrorfAndReturn(msg string, args ...any) error {
	if l.Debug {
		l.Errorf(msg, args...)
	}
	return fmt.Errorf(msg, args...)
}

func (l Logger) write(w io.Writer, tag, msg string, args []any) {
	if l.Scope != "" {
		tag += l.Scope + ": "
	}
	fmt.Fprintf(w, tag+msg+"\n", args...)
}

func (l Logger) out() io.Writer {
	if l.Out != nil {
		return l.Out
	}
	return os.Stdout
}

func (l Logger) errOut() io.Writer {
	if l.ErrOut != nil {
		return l.ErrOut
	}
	return os.Stderr
}
