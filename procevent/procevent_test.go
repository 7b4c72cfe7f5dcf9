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

package procevent_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/m2osw/eventdispatcher-sub003/procevent"
)

var _ = Describe("EventKind", func() {
	It("stringifies every known kind", func() {
		Expect(procevent.EventFork.String()).To(Equal("FORK"))
		Expect(procevent.EventExit.String()).To(Equal("EXIT"))
		Expect(procevent.EventUnknown.String()).To(Equal("UNKNOWN"))
	})
})

var _ = Describe("New", func() {
	It("either succeeds for a privileged caller or returns a construction error", func() {
		sub, err := procevent.New(nil)
		if err != nil {
			Expect(err.Error()).ToNot(BeEmpty())
			return
		}
		Expect(sub.IsReader()).To(BeTrue())
		Expect(sub.Socket()).To(BeNumerically(">=", 0))
		Expect(sub.Close()).To(Succeed())
		Expect(sub.Socket()).To(Equal(-1))
	})
})
