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

// Package procevent subscribes to the kernel's process-event netlink
// stream (§4.K): a raw AF_NETLINK/NETLINK_CONNECTOR datagram socket
// bound to the CN_IDX_PROC multicast group, decoded one cn_proc
// record per read into an Event.
//
// Creating the subscriber requires CAP_NET_ADMIN. Close sends an
// "ignore" multicast request and then closes the fd; kernels that do
// not honor that request keep delivering events until the fd is
// closed. Disable (inherited from connection.Base) only takes the
// subscriber out of the reactor's poll set: it sends no request to the
// kernel, so events keep arriving on the socket.
package procevent

import (
	"bytes"
	"encoding/binary"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/m2osw/eventdispatcher-sub003/connection"
	"github.com/m2osw/eventdispatcher-sub003/logger"
)

// Subscriber is a connection.Connection delivering one Event per
// process state change observed by the kernel.
type Subscriber struct {
	connection.Base

	OnEvent func(Event)

	Log logger.Logger

	mu            sync.Mutex
	fd            int
	unknownLogged bool
}

// New opens and binds the netlink process-connector socket and asks
// the kernel to start multicasting process events to it. EPERM from
// the underlying socket(2)/bind(2) call surfaces as
// ErrorPermissionDenied, matching the original's "construction
// requires elevated privileges" contract.
func New(log logger.Logger) (*Subscriber, error) {
	fd, err := unix.Socket(unix.AF_NETLINK, unix.SOCK_DGRAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, unix.NETLINK_CONNECTOR)
	if err != nil {
		if err == unix.EPERM {
			return nil, ErrorPermissionDenied.Error(err)
		}
		return nil, ErrorSocketCreate.Error(err)
	}

	sa := &unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Pid:    uint32(os.Getpid()),
		Groups: cnIdxProc,
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		if err == unix.EPERM {
			return nil, ErrorPermissionDenied.Error(err)
		}
		return nil, ErrorBind.Error(err)
	}

	s := &Subscriber{
		Base: connection.NewBase("procevent"),
		Log:  log,
		fd:   fd,
	}

	if err := s.sendMulticastRequest(procCnMcastListen); err != nil {
		unix.Close(fd)
		return nil, err
	}

	return s, nil
}

func (s *Subscriber) sendMulticastRequest(op uint32) error {
	s.mu.Lock()
	fd := s.fd
	s.mu.Unlock()
	if fd < 0 {
		return nil
	}

	buf := new(bytes.Buffer)
	hdr := nlMsgHdr{
		Len:  uint32(nlmsghdrSize + cnMsgSize + 4),
		Type: unix.NLMSG_DONE,
		Pid:  uint32(os.Getpid()),
	}
	_ = binary.Write(buf, binary.NativeEndian, hdr)

	cn := cnMsg{Idx: cnIdxProc, Val: cnValProc, Len: 4}
	_ = binary.Write(buf, binary.NativeEndian, cn)
	_ = binary.Write(buf, binary.NativeEndian, op)

	if err := unix.Sendto(fd, buf.Bytes(), 0, &unix.SockaddrNetlink{Family: unix.AF_NETLINK}); err != nil {
		return ErrorSend.Error(err)
	}
	return nil
}

func (s *Subscriber) IsReader() bool   { return true }
func (s *Subscriber) IsWriter() bool   { return false }
func (s *Subscriber) IsListener() bool { return false }
func (s *Subscriber) IsSignal() bool   { return false }

func (s *Subscriber) Socket() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fd
}

func (s *Subscriber) Events() connection.Events {
	return connection.DeriveEvents(true, false, false, false)
}

// ProcessRead drains every pending datagram on the socket, decoding
// each into an Event and invoking OnEvent. The first "what" value this
// subscriber does not recognize is logged once; every subsequent
// occurrence (of that value or any other unrecognized one) is
// delivered silently as EventUnknown, per §4.K.
func (s *Subscriber) ProcessRead() {
	s.mu.Lock()
	fd := s.fd
	s.mu.Unlock()
	if fd < 0 {
		return
	}

	buf := make([]byte, 4096)
	for {
		n, _, err := unix.Recvfrom(fd, buf, 0)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return
			}
			if s.Log != nil {
				s.Log.Warning("process-event read failed", logger.Fields{"error": err.Error()})
			}
			return
		}
		if n == 0 {
			return
		}

		ev, ok := decodeEvent(buf[:n])
		if !ok {
			continue
		}

		if ev.Kind == EventUnknown {
			s.mu.Lock()
			first := !s.unknownLogged
			s.unknownLogged = true
			s.mu.Unlock()
			if first && s.Log != nil {
				s.Log.Warning("received unknown process event kind", logger.Fields{"what": ev.ExitCode})
			}
		}

		if s.OnEvent != nil {
			s.OnEvent(ev)
		}
	}
}

// Close sends the "ignore" multicast request (best effort; older
// kernels do not honor it) and always closes the socket, which is the
// only mechanism guaranteed to stop delivery.
func (s *Subscriber) Close() error {
	_ = s.sendMulticastRequest(procCnMcastIgnore)

	s.mu.Lock()
	fd := s.fd
	s.fd = -1
	s.mu.Unlock()

	if fd < 0 {
		return nil
	}
	return unix.Close(fd)
}
