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

package stream_test

import (
	"syscall"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/m2osw/eventdispatcher-sub003/dispatcher"
	"github.com/m2osw/eventdispatcher-sub003/message"
	"github.com/m2osw/eventdispatcher-sub003/stream"
)

func socketpair() (int, int) {
	fds, err := syscall.Socketpair(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	Expect(err).ToNot(HaveOccurred())
	return fds[0], fds[1]
}

var _ = Describe("Buffer", func() {
	It("reassembles a line split across two reads", func() {
		a, b := socketpair()
		defer syscall.Close(a)
		defer syscall.Close(b)

		buf := stream.NewBuffer(a)
		var lines []string
		buf.OnLine = func(l string) { lines = append(lines, l) }

		syscall.Write(b, []byte("HEL"))
		buf.ProcessRead()
		Expect(lines).To(BeEmpty())

		syscall.Write(b, []byte("LO\n"))
		buf.ProcessRead()
		Expect(lines).To(Equal([]string{"HELLO"}))
	})

	It("strips a trailing \\r and accepts multiple lines in one read", func() {
		a, b := socketpair()
		defer syscall.Close(a)
		defer syscall.Close(b)

		buf := stream.NewBuffer(a)
		var lines []string
		buf.OnLine = func(l string) { lines = append(lines, l) }

		syscall.Write(b, []byte("ONE\r\nTWO\n"))
		buf.ProcessRead()

		Expect(lines).To(Equal([]string{"ONE", "TWO"}))
	})

	It("queues and flushes outbound bytes, firing OnEmptyBuffer once drained", func() {
		a, b := socketpair()
		defer syscall.Close(a)
		defer syscall.Close(b)

		buf := stream.NewBuffer(a)
		drained := false
		buf.OnEmptyBuffer = func() { drained = true }

		buf.Queue([]byte("PING\n"))
		Expect(buf.Pending()).To(Equal(5))

		buf.ProcessWrite()
		Expect(buf.Pending()).To(Equal(0))
		Expect(drained).To(BeTrue())

		got := make([]byte, 5)
		n, err := syscall.Read(b, got)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(got[:n])).To(Equal("PING\n"))
	})

	It("calls OnHup when the peer closes its end", func() {
		a, b := socketpair()
		defer syscall.Close(a)

		buf := stream.NewBuffer(a)
		hup := false
		buf.OnHup = func() { hup = true }

		syscall.Close(b)
		buf.ProcessRead()

		Expect(hup).To(BeTrue())
	})
})

var _ = Describe("MessageConnection", func() {
	It("decodes an inbound line and hands it to the dispatcher", func() {
		a, b := socketpair()
		defer syscall.Close(a)
		defer syscall.Close(b)

		d := dispatcher.New(nil)
		var got message.Message
		Expect(d.AddMatches(dispatcher.Match{
			Pattern:  "PING",
			Strategy: dispatcher.Exact,
			Handler: func(m message.Message, _ dispatcher.Service, reply dispatcher.ReplyFunc) {
				got = m
				r := message.New("PONG")
				r.ReplyTo(m)
				if v, ok := m.Get("serial"); ok {
					r.Set("serial", v)
				}
				_ = reply(r)
			},
		})).To(Succeed())

		mc := stream.NewMessageConnection(a, nil, nil)
		mc.Dispatcher = d.ForConnection(mc)

		syscall.Write(b, []byte("PING serial=42\n"))
		mc.ProcessRead()
		mc.ProcessWrite()

		Expect(got.Command).To(Equal("PING"))
		serial, _ := got.Get("serial")
		Expect(serial).To(Equal("42"))

		out := make([]byte, 256)
		n, err := syscall.Read(b, out)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(out[:n])).To(Equal("PONG serial=42\n"))
	})

	It("reports ConnectionType and disconnects via the Service contract", func() {
		a, b := socketpair()
		defer syscall.Close(a)
		defer syscall.Close(b)

		mc := stream.NewMessageConnection(a, nil, nil)
		mc.ConnType = dispatcher.ConnectionLocal
		var svc dispatcher.Service = mc

		Expect(svc.ConnectionType()).To(Equal(dispatcher.ConnectionLocal))

		hup := false
		mc.OnHup = func() { hup = true }
		svc.Disconnect()
		Expect(hup).To(BeTrue())
	})
})
