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

package reactor_test

import (
	"syscall"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/m2osw/eventdispatcher-sub003/connection"
	"github.com/m2osw/eventdispatcher-sub003/reactor"
)

// pipeReader is a minimal reader connection over a pipe fd, used to
// exercise readiness dispatch without a real transport.
type pipeReader struct {
	connection.Base
	fd      int
	onRead  func()
	removed chan struct{}
}

func newPipeReader(r *reactor.Reactor, fd int, onRead func()) *pipeReader {
	p := &pipeReader{Base: connection.NewBase("pipe"), fd: fd, onRead: onRead}
	return p
}

func (p *pipeReader) IsReader() bool { return true }
func (p *pipeReader) Socket() int    { return p.fd }
func (p *pipeReader) Events() connection.Events {
	return connection.DeriveEvents(p.IsReader(), p.IsWriter(), p.IsListener(), p.IsSignal())
}
func (p *pipeReader) ProcessRead() {
	var buf [64]byte
	syscall.Read(p.fd, buf[:])
	if p.onRead != nil {
		p.onRead()
	}
}

type timerConn struct {
	connection.Base
	fired chan struct{}
}

func newTimerConn(delay time.Duration) *timerConn {
	t := &timerConn{Base: connection.NewBase("timer"), fired: make(chan struct{}, 1)}
	t.SetTimeoutDate(connection.Now() + connection.MicrosFromDuration(delay))
	return t
}

func (t *timerConn) Events() connection.Events { return 0 }
func (t *timerConn) ProcessTimeout() {
	select {
	case t.fired <- struct{}{}:
	default:
	}
}

var _ = Describe("Reactor", func() {
	It("is idempotent on double registration", func() {
		r := reactor.New(nil)
		c := newTimerConn(time.Hour)

		Expect(r.AddConnection(c)).To(BeTrue())
		Expect(r.AddConnection(c)).To(BeFalse())
	})

	It("dispatches the lower-priority reader first when both are ready", func() {
		r := reactor.New(nil)

		fds1, err := syscallPipe()
		Expect(err).ToNot(HaveOccurred())
		fds2, err := syscallPipe()
		Expect(err).ToNot(HaveOccurred())

		var order []int

		low := newPipeReader(r, fds1[0], func() { order = append(order, 10) })
		low.SetPriority(10)

		high := newPipeReader(r, fds2[0], func() { order = append(order, 20) })
		high.SetPriority(20)

		r.AddConnection(low)
		r.AddConnection(high)

		syscall.Write(fds1[1], []byte("x"))
		syscall.Write(fds2[1], []byte("x"))

		go func() {
			time.Sleep(20 * time.Millisecond)
			r.RemoveConnection(low)
			r.RemoveConnection(high)
			r.Stop(true)
		}()

		ok, err := r.Run()
		Expect(err).ToNot(HaveOccurred())
		Expect(ok).To(BeTrue())

		Expect(order).ToNot(BeEmpty())
		Expect(order[0]).To(Equal(10))
	})

	It("fires a timer even while another connection stays ready", func() {
		r := reactor.New(nil)

		fds, err := syscallPipe()
		Expect(err).ToNot(HaveOccurred())

		saturating := newPipeReader(r, fds[0], func() {
			syscall.Write(fds[1], []byte("y"))
		})
		saturating.SetPriority(0)

		timer := newTimerConn(10 * time.Millisecond)
		timer.SetPriority(100)

		r.AddConnection(saturating)
		r.AddConnection(timer)

		syscall.Write(fds[1], []byte("x"))

		go func() {
			select {
			case <-timer.fired:
			case <-time.After(time.Second):
			}
			r.RemoveConnection(saturating)
			r.RemoveConnection(timer)
			r.Stop(true)
		}()

		ok, err := r.Run()
		Expect(err).ToNot(HaveOccurred())
		Expect(ok).To(BeTrue())
	})
})

func syscallPipe() ([2]int, error) {
	var fds [2]int
	err := syscall.Pipe(fds[:])
	return fds, err
}
