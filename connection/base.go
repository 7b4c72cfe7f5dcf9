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

package connection

import "sync"

// Base is embedded by every concrete connection. It supplies the
// bookkeeping (name, enable state, priority, timeouts) and no-op hook
// bodies; a concrete type overrides IsReader/IsWriter/... and the
// hooks it actually implements.
type Base struct {
	mu sync.Mutex

	name    string
	enabled bool

	priority int

	timeoutDate  Micros
	timeoutDelay Micros
	lastDispatch Micros
}

// NewBase returns a Base that is enabled, priority 0, with no timeout
// configured.
func NewBase(name string) Base {
	return Base{
		name:         name,
		enabled:      true,
		timeoutDate:  NoTimeout,
		timeoutDelay: NoTimeout,
		lastDispatch: NoTimeout,
	}
}

func (b *Base) Name() string { b.mu.Lock(); defer b.mu.Unlock(); return b.name }

func (b *Base) SetName(name string) { b.mu.Lock(); defer b.mu.Unlock(); b.name = name }

func (b *Base) IsReader() bool   { return false }
func (b *Base) IsWriter() bool   { return false }
func (b *Base) IsListener() bool { return false }
func (b *Base) IsSignal() bool   { return false }

// Socket defaults to -1 ("no fd this tick"); concrete types embedding
// a real fd-bearing transport override this.
func (b *Base) Socket() int { return -1 }

func (b *Base) Enable() { b.mu.Lock(); defer b.mu.Unlock(); b.enabled = true }

func (b *Base) Disable() { b.mu.Lock(); defer b.mu.Unlock(); b.enabled = false }

func (b *Base) IsEnabled() bool { b.mu.Lock(); defer b.mu.Unlock(); return b.enabled }

func (b *Base) Priority() int { b.mu.Lock(); defer b.mu.Unlock(); return b.priority }

func (b *Base) SetPriority(p int) { b.mu.Lock(); defer b.mu.Unlock(); b.priority = p }

func (b *Base) SetTimeoutDate(t Micros) { b.mu.Lock(); defer b.mu.Unlock(); b.timeoutDate = t }

func (b *Base) TimeoutDate() Micros { b.mu.Lock(); defer b.mu.Unlock(); return b.timeoutDate }

func (b *Base) SetTimeoutDelay(d Micros) { b.mu.Lock(); defer b.mu.Unlock(); b.timeoutDelay = d }

func (b *Base) TimeoutDelay() Micros { b.mu.Lock(); defer b.mu.Unlock(); return b.timeoutDelay }

func (b *Base) MarkDispatched(now Micros) { b.mu.Lock(); defer b.mu.Unlock(); b.lastDispatch = now }

// TimeoutTimestamp is min(date, lastDispatch+delay), or NoTimeout if
// neither a date nor a delay is configured.
func (b *Base) TimeoutTimestamp() Micros {
	b.mu.Lock()
	defer b.mu.Unlock()

	hasDate := b.timeoutDate >= 0
	hasDelay := b.timeoutDelay >= 0 && b.lastDispatch >= 0

	switch {
	case hasDate && hasDelay:
		delayDeadline := b.lastDispatch + b.timeoutDelay
		if b.timeoutDate < delayDeadline {
			return b.timeoutDate
		}
		return delayDeadline
	case hasDate:
		return b.timeoutDate
	case hasDelay:
		return b.lastDispatch + b.timeoutDelay
	default:
		return NoTimeout
	}
}

// DeriveEvents builds the poll mask from a connection's capability
// flags. Go has no virtual dispatch through an embedded struct, so
// concrete connections call this from their own Events() method rather
// than inheriting one from Base.
func DeriveEvents(isReader, isWriter, isListener, isSignal bool) Events {
	var e Events

	if isReader || isListener || isSignal {
		e |= EventRead
	}
	if isWriter {
		e |= EventWrite
	}

	return e
}

func (b *Base) ProcessRead()         {}
func (b *Base) ProcessWrite()        {}
func (b *Base) ProcessAccept()       {}
func (b *Base) ProcessSignal()       {}
func (b *Base) ProcessTimeout()      {}
func (b *Base) ProcessError()        {}
func (b *Base) ProcessHup()          {}
func (b *Base) ProcessInvalid()      {}
func (b *Base) ProcessEmptyBuffer()  {}
func (b *Base) ConnectionAdded()     {}
func (b *Base) ConnectionRemoved()   {}
