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

package signal_test

import (
	"os"
	"sync/atomic"
	"syscall"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/m2osw/eventdispatcher-sub003/reactor"
	esignal "github.com/m2osw/eventdispatcher-sub003/signal"
)

var _ = Describe("Source", func() {
	It("delivers a signalfd record for a blocked signal raised on this process", func() {
		src, err := esignal.New(true, nil, syscall.SIGUSR1)
		Expect(err).ToNot(HaveOccurred())
		defer src.Close()

		Expect(src.IsSignal()).To(BeTrue())
		Expect(src.IsReader()).To(BeFalse())
		Expect(src.Socket()).To(BeNumerically(">=", 0))

		var got esignal.Info
		received := make(chan struct{}, 1)
		src.OnSignal = func(info esignal.Info) {
			got = info
			received <- struct{}{}
		}

		Expect(syscall.Kill(os.Getpid(), syscall.SIGUSR1)).To(Succeed())

		Eventually(func() int {
			src.ProcessSignal()
			select {
			case <-received:
				return 1
			default:
				return 0
			}
		}, 2*time.Second, 5*time.Millisecond).Should(Equal(1))

		Expect(got.Signal).To(Equal(int(syscall.SIGUSR1)))
		Expect(got.SenderPID).To(Equal(os.Getpid()))
		Expect(src.Count(int(syscall.SIGUSR1))).To(Equal(uint64(1)))
	})

	It("returns -1 for Socket after Close", func() {
		src, err := esignal.New(false, nil, syscall.SIGUSR2)
		Expect(err).ToNot(HaveOccurred())
		Expect(src.Close()).To(Succeed())
		Expect(src.Socket()).To(Equal(-1))
	})
})

var _ = Describe("Timer", func() {
	It("fires repeatedly once registered with a real reactor", func() {
		var fired atomic.Int32
		tm := esignal.NewTimer("tick", 5*time.Millisecond, func() { fired.Add(1) })

		r := reactor.New(nil)
		Expect(r.AddConnection(tm)).To(BeTrue())

		go func() {
			deadline := time.Now().Add(2 * time.Second)
			for fired.Load() < 2 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			r.RemoveConnection(tm)
			r.Stop(true)
		}()

		ok, err := r.Run()
		Expect(err).ToNot(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(fired.Load()).To(BeNumerically(">=", 2))
	})

	It("exposes fd -1 and no capability flags", func() {
		tm := esignal.NewTimer("oneshot", 0, func() {})
		Expect(tm.Socket()).To(Equal(-1))
		Expect(tm.IsReader()).To(BeFalse())
		Expect(tm.IsWriter()).To(BeFalse())
		Expect(tm.IsListener()).To(BeFalse())
		Expect(tm.IsSignal()).To(BeFalse())
	})
})
