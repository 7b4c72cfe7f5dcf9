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

package signal

import (
	"time"

	"github.com/m2osw/eventdispatcher-sub003/connection"
)

// Timer is a connection with fd = -1 and every capability flag false;
// it carries no socket at all and exists purely to receive
// ProcessTimeout calls on a schedule. Disabling it (Base.Disable)
// stops the callback from firing without unregistering it from the
// reactor, matching set_enable(false) on the original timer
// connection.
type Timer struct {
	connection.Base

	OnTimeout func()

	repeat time.Duration
}

// NewTimer returns an enabled timer. With repeat > 0 it fires every
// repeat until stopped or disabled; with repeat == 0 it is left
// unarmed (no timeout date) and never fires on its own. It arms
// with an absolute SetTimeoutDate rather than SetTimeoutDelay: a
// connection that has never been through a genuine poll-ready dispatch
// has lastDispatch == NoTimeout, and Base.TimeoutTimestamp() only
// honors timeoutDelay once lastDispatch is set, so a fd-less timer
// relying solely on SetTimeoutDelay would never fire its first
// iteration. A one-shot timer is built by passing repeat == 0 and
// calling SetTimeoutDate directly once armed.
func NewTimer(name string, repeat time.Duration, onTimeout func()) *Timer {
	t := &Timer{
		Base:      connection.NewBase(name),
		OnTimeout: onTimeout,
		repeat:    repeat,
	}
	if repeat > 0 {
		t.SetTimeoutDate(connection.Now() + connection.MicrosFromDuration(repeat))
	}
	return t
}

func (t *Timer) Socket() int { return -1 }

func (t *Timer) Events() connection.Events {
	return connection.DeriveEvents(false, false, false, false)
}

// ProcessTimeout invokes OnTimeout and, for a repeating timer,
// reschedules using an absolute deadline so that a timer which has
// never seen a genuine poll-ready event (lastDispatch == NoTimeout)
// still fires again on schedule; see Base.TimeoutTimestamp.
func (t *Timer) ProcessTimeout() {
	if t.OnTimeout != nil {
		t.OnTimeout()
	}
	if t.repeat > 0 {
		t.SetTimeoutDate(connection.Now() + connection.MicrosFromDuration(t.repeat))
		t.SetTimeoutDelay(connection.NoTimeout)
	}
}
