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

package datagram_test

import (
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/m2osw/eventdispatcher-sub003/datagram"
	"github.com/m2osw/eventdispatcher-sub003/dispatcher"
	"github.com/m2osw/eventdispatcher-sub003/message"
)

var _ = Describe("Transport", func() {
	It("decodes an inbound datagram and replies to the sender", func() {
		d := dispatcher.New(nil)
		Expect(d.AddMatches(dispatcher.Match{
			Pattern:  "PING",
			Strategy: dispatcher.Exact,
			Handler: func(m message.Message, _ dispatcher.Service, reply dispatcher.ReplyFunc) {
				r := message.New("PONG")
				r.ReplyTo(m)
				_ = reply(r)
			},
		})).To(Succeed())

		tr, err := datagram.Listen("udp4", "127.0.0.1:0", nil, nil)
		Expect(err).ToNot(HaveOccurred())
		defer tr.Close()
		tr.Dispatcher = d.ForConnection(tr)

		client, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
		Expect(err).ToNot(HaveOccurred())
		defer client.Close()

		_, err = client.WriteTo([]byte("PING"), tr.LocalAddr())
		Expect(err).ToNot(HaveOccurred())

		tr.ProcessRead()
		tr.ProcessWrite()

		client.SetReadDeadline(time.Now().Add(time.Second))
		buf := make([]byte, 256)
		n, _, err := client.ReadFrom(buf)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(buf[:n])).To(Equal("PONG"))
	})

	It("drops a datagram whose secret_code does not match", func() {
		d := dispatcher.New(nil)
		called := false
		Expect(d.AddMatches(dispatcher.Match{
			Strategy: dispatcher.Always,
			Handler:  func(message.Message, dispatcher.Service, dispatcher.ReplyFunc) { called = true },
		})).To(Succeed())

		tr, err := datagram.Listen("udp4", "127.0.0.1:0", nil, nil)
		Expect(err).ToNot(HaveOccurred())
		defer tr.Close()
		tr.SecretCode = "shared-secret"
		tr.Dispatcher = d.ForConnection(tr)

		client, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.ParseIP("127.0.0.1")})
		Expect(err).ToNot(HaveOccurred())
		defer client.Close()

		m := message.New("PING")
		m.Set("secret_code", "wrong")
		payload := message.Encode(m)
		payload = payload[:len(payload)-1] // a datagram payload carries no trailing newline on the wire
		_, err = client.WriteTo([]byte(payload), tr.LocalAddr())
		Expect(err).ToNot(HaveOccurred())

		tr.ProcessRead()
		Expect(called).To(BeFalse())
	})

	It("refuses to send a payload larger than MaxDatagramSize", func() {
		tr, err := datagram.Listen("udp4", "127.0.0.1:0", nil, nil)
		Expect(err).ToNot(HaveOccurred())
		defer tr.Close()

		big := message.New("BIG")
		big.Set("blob", string(make([]byte, datagram.MaxDatagramSize*2)))

		err = tr.SendMessage(big)
		Expect(err).To(HaveOccurred())
	})
})
