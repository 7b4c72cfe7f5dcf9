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

// Package reactor implements the single-threaded, poll-based event
// loop (the "Communicator" of the original design): a process-wide
// registry of connections, readiness polling, and ordered dispatch of
// I/O and timeout callbacks.
package reactor

import (
	"sort"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/m2osw/eventdispatcher-sub003/connection"
	"github.com/m2osw/eventdispatcher-sub003/logger"
)

type entry struct {
	conn    connection.Connection
	order   int
	removed bool
}

// Reactor is a registry of connections plus the poll loop that
// dispatches their readiness and timeouts. It is safe for one goroutine
// to run Run() while others call AddConnection/RemoveConnection/Stop;
// hooks themselves always run serially on the Run goroutine.
type Reactor struct {
	mu   sync.Mutex
	reg  []*entry
	next int

	running   bool
	forceStop bool
	softStop  bool

	log logger.Logger
	met *metrics
}

// New returns an empty, unstarted Reactor.
func New(log logger.Logger) *Reactor {
	if log == nil {
		log = logger.New()
	}

	return &Reactor{log: log.WithComponent("reactor")}
}

// AddConnection registers c. It returns true if newly added, false if
// c was already registered (ErrorAlreadyRegistered semantics collapsed
// to a boolean per the loop's idempotence guarantee).
func (r *Reactor) AddConnection(c connection.Connection) bool {
	r.mu.Lock()
	for _, e := range r.reg {
		if e.conn == c && !e.removed {
			r.mu.Unlock()
			return false
		}
	}

	r.next++
	r.reg = append(r.reg, &entry{conn: c, order: r.next})
	r.mu.Unlock()

	if r.met != nil {
		r.met.connections.Inc()
	}

	c.ConnectionAdded()

	return true
}

// RemoveConnection marks c removed. If called during dispatch, the
// connection's remaining hooks for the current iteration are skipped;
// the slice entry itself is compacted at the start of the next
// iteration so iteration invariants hold.
func (r *Reactor) RemoveConnection(c connection.Connection) bool {
	r.mu.Lock()
	var found *entry
	for _, e := range r.reg {
		if e.conn == c && !e.removed {
			e.removed = true
			found = e
			break
		}
	}
	r.mu.Unlock()

	if found == nil {
		return false
	}

	if r.met != nil {
		r.met.connections.Dec()
	}

	c.ConnectionRemoved()

	return true
}

// Stop latches the stop condition. force=false lets the loop keep
// draining until connections remove themselves; force=true makes Run
// return at the next dispatch boundary.
func (r *Reactor) Stop(force bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if force {
		r.forceStop = true
	} else {
		r.softStop = true
	}
}

func (r *Reactor) compact() {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.reg[:0]
	for _, e := range r.reg {
		if !e.removed {
			kept = append(kept, e)
		}
	}
	r.reg = kept
}

func (r *Reactor) snapshot() []*entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*entry, len(r.reg))
	copy(out, r.reg)

	return out
}

func (r *Reactor) isForceStop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.forceStop
}

func (r *Reactor) isSoftStop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.softStop
}

// Run drives the loop until every connection has removed itself, or
// Stop was called. It returns true on a clean exit.
func (r *Reactor) Run() (bool, error) {
	r.mu.Lock()
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	for {
		r.compact()

		if r.isForceStop() {
			return true, nil
		}

		active := r.snapshot()

		if len(active) == 0 {
			return true, nil
		}

		if r.isSoftStop() {
			allDisabled := true
			for _, e := range active {
				if e.conn.IsEnabled() {
					allDisabled = false
					break
				}
			}
			if allDisabled {
				return true, nil
			}
		}

		if err := r.iterate(active); err != nil {
			return false, err
		}

		if r.isForceStop() {
			return true, nil
		}
	}
}

func (r *Reactor) iterate(active []*entry) error {
	type polled struct {
		e   *entry
		fd  int
	}

	fds := make([]unix.PollFd, 0, len(active))
	idx := make([]polled, 0, len(active))

	now := connection.Now()
	earliest := connection.NoTimeout

	for _, e := range active {
		if !e.conn.IsEnabled() {
			continue
		}

		fd := e.conn.Socket()
		ts := e.conn.TimeoutTimestamp()

		if fd < 0 && ts < 0 {
			continue
		}

		if ts >= 0 && (earliest < 0 || ts < earliest) {
			earliest = ts
		}

		if fd >= 0 {
			fds = append(fds, unix.PollFd{Fd: int32(fd), Events: int16(e.conn.Events())})
			idx = append(idx, polled{e: e, fd: fd})
		}
	}

	waitMs := -1
	if earliest >= 0 {
		remaining := earliest - now
		if remaining < 0 {
			remaining = 0
		}
		waitMs = int(remaining.Duration().Milliseconds())
	}

	var n int
	var err error

	if len(fds) > 0 || waitMs >= 0 {
		for {
			if r.met != nil {
				r.met.observePollWait(waitMs)
			}

			n, err = unix.Poll(fds, waitMs)
			if err == unix.EINTR {
				continue
			}
			break
		}

		if err != nil {
			r.log.Error("poll failed", logger.Fields{"error": err.Error()})
			return ErrorPollFailure.Error(err)
		}
	}

	type ready struct {
		e      *entry
		events int16
	}

	readyList := make([]ready, 0, n)

	for i, p := range idx {
		if fds[i].Revents != 0 {
			readyList = append(readyList, ready{e: p.e, events: fds[i].Revents})
		}
	}

	sort.SliceStable(readyList, func(i, j int) bool {
		pi, pj := readyList[i].e.conn.Priority(), readyList[j].e.conn.Priority()
		if pi != pj {
			return pi < pj
		}
		return readyList[i].e.order < readyList[j].e.order
	})

	now = connection.Now()

	for _, rd := range readyList {
		if rd.e.removed {
			continue
		}

		c := rd.e.conn
		c.MarkDispatched(now)

		switch {
		case rd.events&int16(unix.POLLERR) != 0:
			c.ProcessError()
		case rd.events&int16(unix.POLLHUP) != 0:
			c.ProcessHup()
		case rd.events&int16(unix.POLLNVAL) != 0:
			c.ProcessInvalid()
		case rd.events&int16(unix.POLLIN) != 0 && c.IsListener():
			r.dispatchCount("accept")
			c.ProcessAccept()
		case rd.events&int16(unix.POLLIN) != 0 && c.IsSignal():
			r.dispatchCount("signal")
			c.ProcessSignal()
		case rd.events&int16(unix.POLLIN) != 0:
			r.dispatchCount("read")
			c.ProcessRead()
		}

		if rd.events&int16(unix.POLLOUT) != 0 && !rd.e.removed {
			r.dispatchCount("write")
			c.ProcessWrite()
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		pi, pj := active[i].conn.Priority(), active[j].conn.Priority()
		if pi != pj {
			return pi < pj
		}
		return active[i].order < active[j].order
	})

	for _, e := range active {
		if e.removed || !e.conn.IsEnabled() {
			continue
		}

		ts := e.conn.TimeoutTimestamp()
		if ts >= 0 && ts <= now {
			r.dispatchCount("timeout")
			e.conn.ProcessTimeout()
		}
	}

	return nil
}

func (r *Reactor) dispatchCount(kind string) {
	if r.met != nil {
		r.met.dispatch.WithLabelValues(kind).Inc()
	}
}
