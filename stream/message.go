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

package stream

import (
	"github.com/m2osw/eventdispatcher-sub003/dispatcher"
	"github.com/m2osw/eventdispatcher-sub003/logger"
	"github.com/m2osw/eventdispatcher-sub003/message"
)

// ReplyFunc sends a message back to the peer that triggered dispatch.
// This is a type alias (not a distinct named type) so that
// dispatcher.BoundDispatcher's Dispatch method can satisfy this interface
// and datagram.Dispatcher's with the very same method signature.
type ReplyFunc = func(message.Message) error

// Dispatcher is the narrow surface stream.MessageConnection needs; the
// *dispatcher.BoundDispatcher returned by Dispatcher.ForConnection
// satisfies it.
type Dispatcher interface {
	Dispatch(msg message.Message, reply ReplyFunc)
}

// MessageConnection layers message decode/encode on top of a line
// Buffer: every complete line is decoded as a message.Message and
// handed to a Dispatcher; SendMessage encodes and queues a message for
// write.
type MessageConnection struct {
	*Buffer

	Dispatcher Dispatcher
	Log        logger.Logger

	// ConnType classifies the peer on the other end (dispatcher.Service
	// contract); the owner (e.g. a listener's OnAccept callback) sets
	// it once the peer address is known. Zero value is
	// dispatcher.ConnectionDown.
	ConnType dispatcher.ConnectionType
}

// NewMessageConnection wraps fd with message framing over it.
func NewMessageConnection(fd int, d Dispatcher, log logger.Logger) *MessageConnection {
	if log == nil {
		log = logger.New()
	}

	mc := &MessageConnection{
		Buffer:     NewBuffer(fd),
		Dispatcher: d,
		Log:        log.WithComponent("stream"),
	}

	mc.OnLine = mc.handleLine
	mc.OnMalformed = mc.handleMalformed

	return mc
}

func (mc *MessageConnection) handleLine(line string) {
	m, err := message.Decode(line)
	if err != nil {
		mc.Log.Warning("malformed message, dropping line", logger.Fields{"error": err.Error()})
		return
	}

	if mc.Dispatcher != nil {
		mc.Dispatcher.Dispatch(m, mc.SendMessage)
	}
}

func (mc *MessageConnection) handleMalformed(err error) {
	mc.Log.Error("inbound line exceeds maximum length, closing connection", logger.Fields{"error": err.Error()})
	mc.ProcessHup()
}

// SendMessage encodes m and queues it for write. Unlike the permanent
// connection's SendMessage, there is no disconnected state to cache
// against here: a stream connection either has a live fd or it does
// not exist.
func (mc *MessageConnection) SendMessage(m message.Message) error {
	mc.Queue([]byte(message.Encode(m)))
	return nil
}

// ConnectionType satisfies dispatcher.Service.
func (mc *MessageConnection) ConnectionType() dispatcher.ConnectionType {
	return mc.ConnType
}

// Disconnect satisfies dispatcher.Service: it closes this side of the
// connection the same way a peer hang-up would.
func (mc *MessageConnection) Disconnect() {
	mc.ProcessHup()
}
