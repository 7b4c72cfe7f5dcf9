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

package listener_test

import (
	"net"
	"syscall"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/m2osw/eventdispatcher-sub003/listener"
)

var _ = Describe("Listener", func() {
	It("accepts a pending connection and reports its peer address", func() {
		type accepted struct {
			fd   int
			peer string
		}

		acceptedCh := make(chan accepted, 1)

		ln, err := listener.Listen("tcp4", "127.0.0.1:0", func(fd int, peer string) {
			acceptedCh <- accepted{fd: fd, peer: peer}
		}, nil)
		Expect(err).ToNot(HaveOccurred())
		defer ln.Close()

		addr := ln.Socket()
		Expect(addr).To(BeNumerically(">=", 0))

		conn, err := net.Dial("tcp4", tcpAddrString(ln))
		Expect(err).ToNot(HaveOccurred())
		defer conn.Close()

		Eventually(func() bool {
			ln.ProcessAccept()
			select {
			case got := <-acceptedCh:
				Expect(got.fd).To(BeNumerically(">=", 0))
				Expect(got.peer).To(Equal("127.0.0.1"))
				syscall.Close(got.fd)
				return true
			default:
				return false
			}
		}, time.Second, 10*time.Millisecond).Should(BeTrue())
	})
})

func tcpAddrString(ln *listener.Listener) string {
	return ln.Addr().String()
}
