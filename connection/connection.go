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

// Package connection declares the contract every reactor-registered I/O
// source implements: capability flags, the fd to poll, priority and
// timeout scheduling, and the lifecycle hooks the reactor invokes.
//
// Concrete connections (stream, datagram, listener, permanent, signal,
// process-event) compose a connection.Base rather than inheriting a
// deep class hierarchy: the C++ origin's connection -> tcp-client ->
// buffered -> message-bearing chain, with a separate diamond-inherited
// "send message" mixin, collapses here to a struct that owns a
// transport value and overrides only the hooks it cares about.
package connection

import "golang.org/x/sys/unix"

// Events is the poll(2) interest/revent mask a connection contributes.
type Events int16

const (
	EventRead   Events = unix.POLLIN
	EventWrite  Events = unix.POLLOUT
	EventError  Events = unix.POLLERR
	EventHup    Events = unix.POLLHUP
	EventInval  Events = unix.POLLNVAL
)

// NoTimeout is the sentinel returned by TimeoutTimestamp when a
// connection has no pending deadline.
const NoTimeout Micros = -1

// Connection is the contract the reactor dispatches against.
type Connection interface {
	Name() string
	SetName(name string)

	IsReader() bool
	IsWriter() bool
	IsListener() bool
	IsSignal() bool

	// Socket returns the fd to poll, or -1 to skip this connection
	// this round (a pure-timer connection always returns -1).
	Socket() int

	// Events derives the poll mask from the capability flags.
	Events() Events

	Enable()
	Disable()
	IsEnabled() bool

	Priority() int
	SetPriority(p int)

	SetTimeoutDate(t Micros)
	TimeoutDate() Micros
	SetTimeoutDelay(d Micros)
	TimeoutDelay() Micros

	// TimeoutTimestamp is the effective next deadline: min(date,
	// lastDispatch+delay), or NoTimeout if neither is set.
	TimeoutTimestamp() Micros

	// MarkDispatched records "now" as the last-dispatch instant used
	// to compute the delay-based deadline. The reactor calls this
	// whenever it runs any hook on the connection.
	MarkDispatched(now Micros)

	ProcessRead()
	ProcessWrite()
	ProcessAccept()
	ProcessSignal()
	ProcessTimeout()
	ProcessError()
	ProcessHup()
	ProcessInvalid()
	ProcessEmptyBuffer()

	ConnectionAdded()
	ConnectionRemoved()
}
