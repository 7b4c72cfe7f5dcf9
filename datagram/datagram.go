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

// Package datagram implements bounded-packet send/receive for UDP-like
// and Unix-DGRAM sockets, with the secret_code authentication and
// reply_to peer-tracking needed by a stateless datagram client.
package datagram

import (
	"net"
	"syscall"

	"github.com/m2osw/eventdispatcher-sub003/connection"
	"github.com/m2osw/eventdispatcher-sub003/dispatcher"
	"github.com/m2osw/eventdispatcher-sub003/logger"
	"github.com/m2osw/eventdispatcher-sub003/message"
)

// MaxDatagramSize is the largest payload Transport will send or
// accept (§4.F).
const MaxDatagramSize = 64 * 1024

// Transport wraps a bound UDP or Unix-DGRAM socket fd. keepAlive
// retains the net.PacketConn that created the fd so the OS socket is
// not closed out from under us by the garbage collector; all actual
// I/O goes through the raw fd so the reactor's own poll loop, not Go's
// runtime netpoller, owns readiness.
type Transport struct {
	connection.Base

	fd       int
	keepAlive net.PacketConn

	// SecretCode, if non-empty, authenticates inbound datagrams: one
	// lacking or mismatching secret_code is dropped and logged.
	SecretCode string

	Dispatcher Dispatcher
	Log        logger.Logger

	// ConnType classifies this transport for dispatcher.Service
	// purposes. A datagram socket has no single peer, so this is a
	// static property of the transport (e.g. ConnectionLocal for a
	// unixgram control socket) rather than something derived per
	// packet.
	ConnType dispatcher.ConnectionType

	lastPeer syscall.Sockaddr
}

// Dispatcher is the narrow surface Transport needs to hand off a
// decoded message; the *dispatcher.BoundDispatcher returned by
// Dispatcher.ForConnection satisfies it.
type Dispatcher interface {
	Dispatch(msg message.Message, reply ReplyFunc)
}

// ReplyFunc sends a message back to whichever peer triggered dispatch.
// This is a type alias (not a distinct named type) so that
// dispatcher.BoundDispatcher's Dispatch method can satisfy this interface
// and stream.Dispatcher's with the very same method signature.
type ReplyFunc = func(message.Message) error

// Listen binds network ("udp"/"udp4"/"udp6"/"unixgram") at laddr and
// returns a ready Transport.
func Listen(network, laddr string, d Dispatcher, log logger.Logger) (*Transport, error) {
	var pc net.PacketConn
	var err error

	switch network {
	case "unixgram":
		pc, err = net.ListenPacket("unixgram", laddr)
	default:
		pc, err = net.ListenPacket(network, laddr)
	}
	if err != nil {
		return nil, err
	}

	fd, err := extractFd(pc)
	if err != nil {
		pc.Close()
		return nil, err
	}

	if log == nil {
		log = logger.New()
	}

	return &Transport{
		Base:       connection.NewBase("datagram"),
		fd:         fd,
		keepAlive:  pc,
		Dispatcher: d,
		Log:        log.WithComponent("datagram"),
	}, nil
}

func extractFd(pc net.PacketConn) (int, error) {
	sc, ok := pc.(syscall.Conn)
	if !ok {
		return -1, syscall.EINVAL
	}

	raw, err := sc.SyscallConn()
	if err != nil {
		return -1, err
	}

	var fd int
	var ctrlErr error

	err = raw.Control(func(p uintptr) {
		fd, ctrlErr = syscall.Dup(int(p))
	})
	if err != nil {
		return -1, err
	}

	return fd, ctrlErr
}

func (t *Transport) IsReader() bool { return true }
func (t *Transport) IsWriter() bool { return false }
func (t *Transport) Socket() int    { return t.fd }

func (t *Transport) Events() connection.Events {
	return connection.DeriveEvents(t.IsReader(), t.IsWriter(), t.IsListener(), t.IsSignal())
}

// ProcessRead drains every currently pending datagram, decoding and
// dispatching each independently so one malformed packet never blocks
// the rest.
func (t *Transport) ProcessRead() {
	buf := make([]byte, MaxDatagramSize)

	for {
		n, from, err := syscall.Recvfrom(t.fd, buf, 0)
		if err != nil {
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
				return
			}
			t.ProcessError()
			return
		}

		t.lastPeer = from
		t.handleDatagram(buf[:n])
	}
}

func (t *Transport) handleDatagram(payload []byte) {
	m, err := message.Decode(string(payload) + "\n")
	if err != nil {
		t.Log.Warning("malformed datagram, dropping", logger.Fields{"error": err.Error()})
		return
	}

	code, has := m.Get(message.ParamSecretCode)

	if t.SecretCode != "" {
		if !has || code != t.SecretCode {
			t.Log.Warning("datagram with mismatching secret_code dropped", nil)
			return
		}
	} else if has {
		t.Log.Warning("datagram carries a secret_code but none is configured, accepting", nil)
	}

	if t.Dispatcher != nil {
		t.Dispatcher.Dispatch(m, t.sendTo(t.lastPeer))
	}
}

func (t *Transport) sendTo(peer syscall.Sockaddr) ReplyFunc {
	return func(m message.Message) error {
		return t.sendMessageTo(m, peer)
	}
}

// SendMessage sends m to the last peer that triggered a dispatch
// (used for "reply_to" semantics on a connectionless socket). When no
// peer has been recorded, the payload is written to the socket's
// default destination, which fails if the socket has none.
func (t *Transport) SendMessage(m message.Message) error {
	return t.sendMessageTo(m, t.lastPeer)
}

func (t *Transport) sendMessageTo(m message.Message, peer syscall.Sockaddr) error {
	encoded := message.Encode(m)
	encoded = encoded[:len(encoded)-1] // a datagram payload carries no framing newline

	if len(encoded) > MaxDatagramSize {
		return ErrorMessageTooLarge.Error(nil)
	}

	if peer == nil {
		_, err := syscall.Write(t.fd, []byte(encoded))
		return err
	}

	return syscall.Sendto(t.fd, []byte(encoded), 0, peer)
}

// LocalAddr returns the address the transport is bound to.
func (t *Transport) LocalAddr() net.Addr {
	return t.keepAlive.LocalAddr()
}

func (t *Transport) Close() error {
	syscall.Close(t.fd)
	return t.keepAlive.Close()
}

// ConnectionType satisfies dispatcher.Service.
func (t *Transport) ConnectionType() dispatcher.ConnectionType {
	return t.ConnType
}

// Disconnect satisfies dispatcher.Service. A connectionless transport
// has nothing to tear down per-peer; it forgets the last peer so a
// subsequent SendMessage with no explicit destination fails loudly
// instead of silently targeting a stale address.
func (t *Transport) Disconnect() {
	t.lastPeer = nil
}
