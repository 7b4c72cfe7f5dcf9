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

package dispatcher_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/m2osw/eventdispatcher-sub003/dispatcher"
	"github.com/m2osw/eventdispatcher-sub003/message"
)

type fakeService struct {
	connType     dispatcher.ConnectionType
	disconnected bool
}

func (f *fakeService) ConnectionType() dispatcher.ConnectionType { return f.connType }
func (f *fakeService) Disconnect()                               { f.disconnected = true }

func dispatchOne(d *dispatcher.Dispatcher, svc dispatcher.Service, m message.Message) message.Message {
	var reply message.Message
	got := false

	d.ForConnection(svc).Dispatch(m, func(r message.Message) error {
		reply = r
		got = true
		return nil
	})

	if !got {
		return message.Message{}
	}
	return reply
}

var _ = Describe("Dispatcher", func() {
	It("dispatches EXACT before REGEX before ALWAYS, in declared order", func() {
		d := dispatcher.New(nil)
		var hit string

		Expect(d.AddMatches(
			dispatcher.Match{Pattern: "PING", Strategy: dispatcher.Exact, Handler: func(message.Message, dispatcher.Service, dispatcher.ReplyFunc) { hit = "exact" }},
			dispatcher.Match{Pattern: "P.*", Strategy: dispatcher.Regex, Handler: func(message.Message, dispatcher.Service, dispatcher.ReplyFunc) { hit = "regex" }},
			dispatcher.Match{Strategy: dispatcher.Always, Handler: func(message.Message, dispatcher.Service, dispatcher.ReplyFunc) { hit = "always" }},
		)).To(Succeed())

		d.ForConnection(&fakeService{}).Dispatch(message.New("PING"), nil)
		Expect(hit).To(Equal("exact"))

		d.ForConnection(&fakeService{}).Dispatch(message.New("PONG"), nil)
		Expect(hit).To(Equal("regex"))

		d.ForConnection(&fakeService{}).Dispatch(message.New("WALRUS"), nil)
		Expect(hit).To(Equal("always"))
	})

	It("rejects adding an ALWAYS match anywhere but last", func() {
		d := dispatcher.New(nil)

		err := d.AddMatches(
			dispatcher.Match{Strategy: dispatcher.Always, Handler: func(message.Message, dispatcher.Service, dispatcher.ReplyFunc) {}},
			dispatcher.Match{Pattern: "PING", Strategy: dispatcher.Exact, Handler: func(message.Message, dispatcher.Service, dispatcher.ReplyFunc) {}},
		)
		Expect(err).To(HaveOccurred())
	})

	It("replies UNKNOWN with the original command when nothing matches", func() {
		d := dispatcher.New(nil)

		r := dispatchOne(d, &fakeService{}, message.New("MYSTERY"))
		Expect(r.Command).To(Equal("UNKNOWN"))
		v, ok := r.Get("command")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal("MYSTERY"))
	})

	It("validates required and typed parameters before invoking the handler", func() {
		d := dispatcher.New(nil)
		called := false

		Expect(d.AddMatches(dispatcher.Match{
			Pattern:  "SET_SERIAL",
			Strategy: dispatcher.Exact,
			Handler:  func(message.Message, dispatcher.Service, dispatcher.ReplyFunc) { called = true },
			Params: []dispatcher.ParamDef{
				{Name: "serial", Required: true, Type: dispatcher.ParamTypeInteger},
			},
		})).To(Succeed())

		missing := message.New("SET_SERIAL")
		r := dispatchOne(d, &fakeService{}, missing)
		Expect(r.Command).To(Equal("INVALID"))
		Expect(called).To(BeFalse())

		bad := message.New("SET_SERIAL")
		bad.Set("serial", "not-a-number")
		r = dispatchOne(d, &fakeService{}, bad)
		Expect(r.Command).To(Equal("INVALID"))
		Expect(called).To(BeFalse())

		good := message.New("SET_SERIAL")
		good.Set("serial", "42")
		dispatchOne(d, &fakeService{}, good)
		Expect(called).To(BeTrue())
	})

	Describe("built-in commands", func() {
		It("answers HELP with the sorted list of known commands", func() {
			d := dispatcher.New(nil)
			Expect(d.AddMatches(dispatcher.Match{Pattern: "ZEBRA", Strategy: dispatcher.Exact, Handler: func(message.Message, dispatcher.Service, dispatcher.ReplyFunc) {}})).To(Succeed())
			Expect(d.AddCommunicatorCommands(dispatcher.CommunicatorHooks{})).To(Succeed())

			r := dispatchOne(d, &fakeService{}, message.New("HELP"))
			Expect(r.Command).To(Equal("COMMANDS"))
			list, _ := r.Get("list")
			Expect(list).To(ContainSubstring("ZEBRA"))
			Expect(list).To(ContainSubstring("HELP"))
		})

		It("answers ALIVE with ABSOLUTELY, echoing serial", func() {
			d := dispatcher.New(nil)
			Expect(d.AddCommunicatorCommands(dispatcher.CommunicatorHooks{})).To(Succeed())

			m := message.New("ALIVE")
			m.Set("serial", "7")

			r := dispatchOne(d, &fakeService{}, m)
			Expect(r.Command).To(Equal("ABSOLUTELY"))
			serial, _ := r.Get("serial")
			Expect(serial).To(Equal("7"))
			Expect(r.Has("timestamp")).To(BeTrue())
		})

		It("invokes the Stop hook with quitting=false on STOP", func() {
			var gotQuitting *bool

			d := dispatcher.New(nil)
			Expect(d.AddCommunicatorCommands(dispatcher.CommunicatorHooks{
				Stop: func(quitting bool) { gotQuitting = &quitting },
			})).To(Succeed())

			dispatchOne(d, &fakeService{}, message.New("STOP"))
			Expect(gotQuitting).ToNot(BeNil())
			Expect(*gotQuitting).To(BeFalse())
		})

		It("disconnects the service on an inbound QUITTING", func() {
			d := dispatcher.New(nil)
			Expect(d.AddCommunicatorCommands(dispatcher.CommunicatorHooks{})).To(Succeed())

			svc := &fakeService{}
			dispatchOne(d, svc, message.New("QUITTING"))
			Expect(svc.disconnected).To(BeTrue())
		})
	})
})
