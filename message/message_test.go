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

package message_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/m2osw/eventdispatcher-sub003/message"
)

var _ = Describe("round-trip", func() {
	It("decodes exactly what it encoded", func() {
		m := message.New("PING")
		m.Server = "sc"
		m.Service = "comm"
		m.Set("serial", "42")
		m.Set("note", "a;b=c\nd%e")

		line := message.Encode(m)
		got, err := message.Decode(line)

		Expect(err).ToNot(HaveOccurred())
		Expect(got.Command).To(Equal("PING"))
		Expect(got.Server).To(Equal("sc"))
		Expect(got.Service).To(Equal("comm"))

		v, _ := got.Get("serial")
		Expect(v).To(Equal("42"))

		v, _ = got.Get("note")
		Expect(v).To(Equal("a;b=c\nd%e"))
	})

	It("round-trips the sent_from prefix", func() {
		m := message.New("READY")
		m.SentFromServer = "alpha"
		m.SentFromService = "comm"

		got, err := message.Decode(message.Encode(m))
		Expect(err).ToNot(HaveOccurred())
		Expect(got.SentFromServer).To(Equal("alpha"))
		Expect(got.SentFromService).To(Equal("comm"))
	})
})

var _ = Describe("Decode", func() {
	It("rejects a missing command", func() {
		_, err := message.Decode("!!!\n")
		Expect(err).To(HaveOccurred())
	})

	It("rejects a parameter without '='", func() {
		_, err := message.Decode("PING serial\n")
		Expect(err).To(HaveOccurred())
	})

	It("accepts a trailing \\r\\n", func() {
		m, err := message.Decode("PING serial=1\r\n")
		Expect(err).ToNot(HaveOccurred())
		Expect(m.Command).To(Equal("PING"))
	})
})

var _ = Describe("version parameter", func() {
	It("round trips and detects tampering", func() {
		m := message.New("HELLO")
		m.AddVersionParameter()
		Expect(m.CheckVersionParameter()).To(BeTrue())

		m.Set(message.ParamVersion, "999")
		Expect(m.CheckVersionParameter()).To(BeFalse())
	})
})

var _ = Describe("ReplyTo", func() {
	It("swaps sent_from into server/service and clears sent_from", func() {
		incoming := message.New("PING")
		incoming.SentFromServer = "client-host"
		incoming.SentFromService = "client-svc"

		reply := message.New("PONG")
		reply.ReplyTo(incoming)

		Expect(reply.Server).To(Equal("client-host"))
		Expect(reply.Service).To(Equal("client-svc"))
		Expect(reply.SentFromServer).To(BeEmpty())
		Expect(reply.SentFromService).To(BeEmpty())
		Expect(reply.Command).To(Equal("PONG"))
	})
})

var _ = Describe("typed accessors", func() {
	It("parses a signed integer with a leading sign", func() {
		m := message.New("X")
		m.Set("n", "-17")

		n, err := m.GetInteger("n")
		Expect(err).ToNot(HaveOccurred())
		Expect(n).To(Equal(int64(-17)))
	})

	It("fails on non-numeric input rather than coercing", func() {
		m := message.New("X")
		m.Set("n", "not-a-number")

		_, err := m.GetInteger("n")
		Expect(err).To(HaveOccurred())
	})

	It("refuses a negative value from the unsigned accessor", func() {
		m := message.New("X")
		m.Set("n", "-1")

		_, err := m.GetUnsigned("n")
		Expect(err).To(HaveOccurred())
	})

	It("round-trips a 32-bit signed value and rejects overflow", func() {
		m := message.New("X")
		m.SetInteger32("n", -12345)

		n, err := m.GetInteger32("n")
		Expect(err).ToNot(HaveOccurred())
		Expect(n).To(Equal(int32(-12345)))

		m.Set("n", "4294967296")
		_, err = m.GetInteger32("n")
		Expect(err).To(HaveOccurred())
	})

	It("round-trips a 32-bit unsigned value and rejects overflow", func() {
		m := message.New("X")
		m.SetUnsigned32("n", 27)

		n, err := m.GetUnsigned32("n")
		Expect(err).ToNot(HaveOccurred())
		Expect(n).To(Equal(uint32(27)))

		m.Set("n", "4294967296")
		_, err = m.GetUnsigned32("n")
		Expect(err).To(HaveOccurred())
	})
})
