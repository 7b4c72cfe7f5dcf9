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

package address_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/m2osw/eventdispatcher-sub003/address"
)

var _ = Describe("Parse", func() {
	It("parses a plain host:port", func() {
		a, err := address.Parse("127.0.0.1:8080", "", 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(a.Port()).To(Equal(uint16(8080)))
		Expect(a.Scope()).To(Equal(address.ScopeLoopback))
	})

	It("parses a bracketed IPv6 literal", func() {
		a, err := address.Parse("[::1]:9999", "", 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(a.Port()).To(Equal(uint16(9999)))
		Expect(a.String()).To(Equal("[::1]:9999"))
	})

	It("falls back to the default host and port", func() {
		a, err := address.Parse("", "0.0.0.0", 4040)
		Expect(err).ToNot(HaveOccurred())
		Expect(a.Port()).To(Equal(uint16(4040)))
	})

	It("fails on malformed input", func() {
		_, err := address.Parse("[::1", "", 0)
		Expect(err).To(HaveOccurred())
	})

	It("classifies a private address", func() {
		a, err := address.Parse("10.0.0.5:22", "", 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(a.Scope()).To(Equal(address.ScopePrivate))
	})

	It("classifies a public address", func() {
		a, err := address.Parse("8.8.8.8:53", "", 0)
		Expect(err).ToNot(HaveOccurred())
		Expect(a.Scope()).To(Equal(address.ScopePublic))
	})
})

var _ = Describe("Unix addresses", func() {
	It("treats a named path as loopback", func() {
		a := address.FromUnixPath("/run/reactor.sock")
		Expect(a.IsUnix()).To(BeTrue())
		Expect(a.Scope()).To(Equal(address.ScopeLoopback))
		Expect(a.String()).To(Equal("unix:/run/reactor.sock"))
	})

	It("marks an abstract address", func() {
		a := address.Abstract("my-service")
		Expect(a.IsAbstract()).To(BeTrue())
		Expect(a.NetAddr("unix")).To(Equal("@my-service"))
	})

	It("marks the unnamed address", func() {
		a := address.Unnamed()
		Expect(a.IsUnnamed()).To(BeTrue())
	})
})
