/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package logger provides the structured, level-filtered logging used by
// the reactor and its connections. It wraps logrus rather than the
// standard library log package, matching the rest of the ambient stack.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	loglvl "github.com/m2osw/eventdispatcher-sub003/logger/level"
)

// FuncLog returns a Logger instance, used for lazy injection into
// components built before a logger is configured (e.g. connections
// constructed ahead of their reactor attachment).
type FuncLog func() Logger

// Logger is the logging surface shared by every reactor component.
// Component is attached to every entry so that log lines from the
// reactor, a connection and the dispatcher stay distinguishable once
// merged into one stream.
type Logger interface {
	// SetLevel changes the minimal level of message actually emitted.
	SetLevel(lvl loglvl.Level)

	// GetLevel returns the minimal level of message actually emitted.
	GetLevel() loglvl.Level

	// SetOutput redirects the underlying writer (defaults to os.Stderr).
	SetOutput(w io.Writer)

	// SetFields replaces the fields merged into every entry from this logger.
	SetFields(f Fields)

	// GetFields returns the fields merged into every entry from this logger.
	GetFields() Fields

	// WithFields returns a derived Logger carrying additional fields
	// merged on top of the current ones, leaving the receiver untouched.
	WithFields(f Fields) Logger

	// WithComponent is a shortcut for WithFields(Fields{"component": name}).
	WithComponent(name string) Logger

	Debug(message string, fields Fields)
	Info(message string, fields Fields)
	Warning(message string, fields Fields)
	Error(message string, fields Fields)
	Fatal(message string, fields Fields)

	// CheckError logs err at lvlKO if non-nil, or logs message at lvlOK
	// (unless lvlOK is NilLevel) when err is nil. Returns true if err was nil.
	CheckError(lvlKO, lvlOK loglvl.Level, message string, err error) bool
}

type lgr struct {
	m sync.RWMutex
	l *logrus.Logger
	f Fields
}

// New returns a Logger writing to os.Stderr at InfoLevel with a text
// formatter, timestamped full output.
func New() Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(loglvl.InfoLevel.Logrus())

	return &lgr{
		l: l,
		f: NewFields(),
	}
}
