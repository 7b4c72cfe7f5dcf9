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

package logger

import (
	"io"

	loglvl "github.com/m2osw/eventdispatcher-sub003/logger/level"
)

func (o *lgr) SetLevel(lvl loglvl.Level) {
	o.m.Lock()
	defer o.m.Unlock()

	o.l.SetLevel(lvl.Logrus())
}

func (o *lgr) GetLevel() loglvl.Level {
	o.m.RLock()
	defer o.m.RUnlock()

	return loglvl.ParseFromInt(int(o.l.GetLevel()))
}

func (o *lgr) SetOutput(w io.Writer) {
	o.m.Lock()
	defer o.m.Unlock()

	o.l.SetOutput(w)
}

func (o *lgr) SetFields(f Fields) {
	o.m.Lock()
	defer o.m.Unlock()

	o.f = f
}

func (o *lgr) GetFields() Fields {
	o.m.RLock()
	defer o.m.RUnlock()

	return o.f
}

func (o *lgr) WithFields(f Fields) Logger {
	o.m.RLock()
	merged := o.f.Merge(f)
	l := o.l
	o.m.RUnlock()

	return &lgr{l: l, f: merged}
}

func (o *lgr) WithComponent(name string) Logger {
	return o.WithFields(Fields{"component": name})
}

func (o *lgr) entry(fields Fields) *logrusEntry {
	o.m.RLock()
	defer o.m.RUnlock()

	return newLogrusEntry(o.l, o.f.Merge(fields))
}

func (o *lgr) Debug(message string, fields Fields) {
	o.entry(fields).log(loglvl.DebugLevel, message)
}

func (o *lgr) Info(message string, fields Fields) {
	o.entry(fields).log(loglvl.InfoLevel, message)
}

func (o *lgr) Warning(message string, fields Fields) {
	o.entry(fields).log(loglvl.WarnLevel, message)
}

func (o *lgr) Error(message string, fields Fields) {
	o.entry(fields).log(loglvl.ErrorLevel, message)
}

func (o *lgr) Fatal(message string, fields Fields) {
	o.entry(fields).log(loglvl.FatalLevel, message)
}

func (o *lgr) CheckError(lvlKO, lvlOK loglvl.Level, message string, err error) bool {
	if err != nil {
		o.entry(Fields{"error": err.Error()}).log(lvlKO, message)
		return false
	}

	if lvlOK != loglvl.NilLevel {
		o.entry(nil).log(lvlOK, message)
	}

	return true
}
