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

// Package listener owns a listening stream socket and turns each
// accepted connection into a callback on the owning service, which
// wraps the new fd in a message transport and registers it with the
// reactor.
package listener

import (
	"net"
	"syscall"

	"github.com/m2osw/eventdispatcher-sub003/connection"
	"github.com/m2osw/eventdispatcher-sub003/logger"
)

// OnAccept receives the raw fd of a newly accepted connection plus its
// peer address string; it is responsible for wrapping the fd (e.g. in
// a stream.MessageConnection) and registering it with a reactor.
type OnAccept func(fd int, peer string)

// Listener wraps a bound, listening stream socket (TCP or Unix).
type Listener struct {
	connection.Base

	fd       int
	keepAlive net.Listener

	OnAccept OnAccept
	Log      logger.Logger
}

// Listen binds network ("tcp"/"tcp4"/"tcp6"/"unix") at laddr.
func Listen(network, laddr string, onAccept OnAccept, log logger.Logger) (*Listener, error) {
	ln, err := net.Listen(network, laddr)
	if err != nil {
		return nil, err
	}

	fd, err := extractFd(ln)
	if err != nil {
		ln.Close()
		return nil, err
	}

	if log == nil {
		log = logger.New()
	}

	return &Listener{
		Base:      connection.NewBase("listener"),
		fd:        fd,
		keepAlive: ln,
		OnAccept:  onAccept,
		Log:       log.WithComponent("listener"),
	}, nil
}

func extractFd(ln net.Listener) (int, error) {
	sc, ok := ln.(syscall.Conn)
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

func (l *Listener) IsListener() bool { return true }
func (l *Listener) Socket() int      { return l.fd }

func (l *Listener) Events() connection.Events {
	return connection.DeriveEvents(l.IsReader(), l.IsWriter(), l.IsListener(), l.IsSignal())
}

// ProcessAccept accepts every currently pending connection and calls
// OnAccept for each.
func (l *Listener) ProcessAccept() {
	for {
		fd, sa, err := syscall.Accept(l.fd)
		if err != nil {
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
				return
			}
			l.Log.Error("accept failed", logger.Fields{"error": err.Error()})
			return
		}

		syscall.SetNonblock(fd, true)

		if l.OnAccept != nil {
			l.OnAccept(fd, peerString(sa))
		}
	}
}

func peerString(sa syscall.Sockaddr) string {
	switch v := sa.(type) {
	case *syscall.SockaddrInet4:
		return net.IP(v.Addr[:]).String()
	case *syscall.SockaddrInet6:
		return net.IP(v.Addr[:]).String()
	case *syscall.SockaddrUnix:
		return "unix:" + v.Name
	default:
		return ""
	}
}

// Addr returns the address the listener is bound to.
func (l *Listener) Addr() net.Addr {
	return l.keepAlive.Addr()
}

func (l *Listener) Close() error {
	syscall.Close(l.fd)
	return l.keepAlive.Close()
}
