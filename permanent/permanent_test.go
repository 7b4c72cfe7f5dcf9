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

package permanent_test

import (
	"bufio"
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/m2osw/eventdispatcher-sub003/message"
	"github.com/m2osw/eventdispatcher-sub003/permanent"
)

// pump drives pc as a reactor would, without an actual poll loop: it
// repeatedly calls ProcessRead and ProcessWrite (both harmless when
// nothing is pending) so the self-pipe wakeup and, later, the real
// transport's inbound and queued outbound bytes get serviced.
func pump(pc *permanent.Connection) func() permanent.State {
	return func() permanent.State {
		pc.ProcessRead()
		pc.ProcessWrite()
		return pc.State()
	}
}

var _ = Describe("Connection", func() {
	It("caches messages while disconnected and flushes them on connect", func() {
		ln, err := net.Listen("tcp4", "127.0.0.1:0")
		Expect(err).ToNot(HaveOccurred())
		defer ln.Close()

		lines := make(chan string, 4)
		go func() {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			defer conn.Close()

			r := bufio.NewReader(conn)
			for {
				l, err := r.ReadString('\n')
				if l != "" {
					lines <- l
				}
				if err != nil {
					return
				}
			}
		}()

		pc := permanent.New("tcp4", ln.Addr().String(), nil, nil)

		first := message.New("FIRST")
		second := message.New("SECOND")
		Expect(pc.SendMessage(first, false)).To(Succeed())
		Expect(pc.SendMessage(second, false)).To(Succeed())
		Expect(pc.PendingCount()).To(Equal(2))

		pc.ConnectionAdded()
		defer pc.Shutdown()

		Eventually(pump(pc), 2*time.Second, 5*time.Millisecond).Should(Equal(permanent.Connected))
		Expect(pc.PendingCount()).To(Equal(0))

		var got []string
		Eventually(func() int {
			for {
				select {
				case l := <-lines:
					got = append(got, l)
				default:
					return len(got)
				}
			}
		}, time.Second, 5*time.Millisecond).Should(Equal(2))

		m0, err := message.Decode(got[0])
		Expect(err).ToNot(HaveOccurred())
		Expect(m0.Command).To(Equal("FIRST"))

		m1, err := message.Decode(got[1])
		Expect(err).ToNot(HaveOccurred())
		Expect(m1.Command).To(Equal("SECOND"))
	})

	It("drops a message when disconnected and the cache directive says no", func() {
		pc := permanent.New("tcp4", "127.0.0.1:1", nil, nil)

		m := message.New("X")
		m.Set(message.ParamCache, "no")

		err := pc.SendMessage(m, false)
		Expect(err).To(HaveOccurred())
		Expect(pc.PendingCount()).To(Equal(0))
	})

	It("falls back to DISCONNECTED and schedules a retry when the peer hangs up", func() {
		ln, err := net.Listen("tcp4", "127.0.0.1:0")
		Expect(err).ToNot(HaveOccurred())
		defer ln.Close()

		go func() {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}()

		var failedReason string
		pc := permanent.New("tcp4", ln.Addr().String(), nil, nil)
		pc.OnConnectionFailed = func(reason string) { failedReason = reason }

		pc.ConnectionAdded()
		defer pc.Shutdown()

		Eventually(pump(pc), 2*time.Second, 5*time.Millisecond).Should(Equal(permanent.Connected))
		Eventually(pump(pc), 2*time.Second, 5*time.Millisecond).Should(Equal(permanent.Disconnected))

		Expect(failedReason).To(Equal("peer hung up"))
	})

	It("refuses to send and never reconnects once shut down", func() {
		pc := permanent.New("tcp4", "127.0.0.1:1", nil, nil)
		pc.Shutdown()

		err := pc.SendMessage(message.New("X"), true)
		Expect(err).To(HaveOccurred())
		Expect(pc.State()).To(Equal(permanent.ShutDown))
	})
})
