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

// Package signal implements the signalfd-backed signal source (§4.J):
// at construction the target signals are blocked on the calling
// thread and a signalfd is registered as the connection's fd; each
// readable event yields one signalfd_siginfo record exposing the
// signal number, sender pid, and the user-data carried by a
// sigqueue/sigqueue-like sender. The prior mask is restored on Close
// only when the source was built with UnblockOnClose.
package signal

import (
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/m2osw/eventdispatcher-sub003/connection"
	"github.com/m2osw/eventdispatcher-sub003/logger"
)

const sizeofSiginfo = int(unsafe.Sizeof(unix.SignalfdSiginfo{}))

// Info is the subset of a signalfd_siginfo record handed to a
// Source's OnSignal hook.
type Info struct {
	Signal   int
	SenderPID int
	UserData uint64
}

// Source is a connection.Connection wrapping a Linux signalfd. It is
// never a reader/writer/listener in the stream sense; IsSignal is the
// only true capability, which Events() turns into EventRead.
type Source struct {
	connection.Base

	OnSignal func(Info)

	Log logger.Logger

	signals        []syscall.Signal
	unblockOnClose bool

	mu      sync.Mutex
	fd      int
	oldMask unix.Sigset_t
	counts  map[int]uint64
}

// New blocks the given signals on the calling thread's mask and opens
// a signalfd for them. unblockOnClose restores the prior mask when
// Close is called; when false the signals remain blocked forever,
// matching a daemon that never expects to handle them any other way.
func New(unblockOnClose bool, log logger.Logger, signals ...syscall.Signal) (*Source, error) {
	s := &Source{
		Base:           connection.NewBase("signal"),
		signals:        signals,
		unblockOnClose: unblockOnClose,
		Log:            log,
		fd:             -1,
		counts:         make(map[int]uint64),
	}

	var mask unix.Sigset_t
	for _, sig := range signals {
		addSignal(&mask, sig)
	}

	var old unix.Sigset_t
	if err := unix.PthreadSigmask(unix.SIG_BLOCK, &mask, &old); err != nil {
		return nil, ErrorBlockSignal.Error(err)
	}
	s.oldMask = old

	fd, err := unix.Signalfd(-1, &mask, unix.SFD_NONBLOCK|unix.SFD_CLOEXEC)
	if err != nil {
		_ = unix.PthreadSigmask(unix.SIG_SETMASK, &old, nil)
		return nil, ErrorSignalfdCreate.Error(err)
	}
	s.fd = fd

	return s, nil
}

// addSignal sets the bit for sig in mask. x/sys/unix does not export a
// portable sigaddset helper; signal numbers are 1-based and Sigset_t
// is a fixed array of 64-bit words.
func addSignal(mask *unix.Sigset_t, sig syscall.Signal) {
	n := uint(sig) - 1
	mask.Val[n/64] |= 1 << (n % 64)
}

func (s *Source) IsReader() bool   { return false }
func (s *Source) IsWriter() bool   { return false }
func (s *Source) IsListener() bool { return false }
func (s *Source) IsSignal() bool   { return true }

func (s *Source) Socket() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fd
}

func (s *Source) Events() connection.Events {
	return connection.DeriveEvents(false, false, false, true)
}

// Count returns the number of deliveries observed for sig so far,
// matching the per-signal profiling counter kept in the original.
func (s *Source) Count(sig int) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[sig]
}

// ProcessSignal reads exactly one signalfd_siginfo record and invokes
// OnSignal with it. Extra bytes available on the fd are serviced on
// the next reactor iteration, not drained here.
func (s *Source) ProcessSignal() {
	s.mu.Lock()
	fd := s.fd
	s.mu.Unlock()
	if fd < 0 {
		return
	}

	var raw unix.SignalfdSiginfo
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&raw)), sizeofSiginfo)

	n, err := syscall.Read(fd, buf)
	if err != nil {
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			return
		}
		if s.Log != nil {
			s.Log.Warning("signal read failed", logger.Fields{"error": ErrorSignalfdRead.Error(err).Error()})
		}
		return
	}
	if n < sizeofSiginfo {
		return
	}

	info := Info{
		Signal:    int(raw.Signo),
		SenderPID: int(raw.Pid),
		UserData:  raw.Ptr,
	}

	s.mu.Lock()
	s.counts[info.Signal]++
	s.mu.Unlock()

	if s.OnSignal != nil {
		s.OnSignal(info)
	}
}

// Close closes the signalfd and, when the source was built with
// unblockOnClose, restores the signal mask the calling thread had
// before New blocked it.
func (s *Source) Close() error {
	s.mu.Lock()
	fd := s.fd
	s.fd = -1
	old := s.oldMask
	unblock := s.unblockOnClose
	s.mu.Unlock()

	var err error
	if fd >= 0 {
		err = syscall.Close(fd)
	}
	if unblock {
		_ = unix.PthreadSigmask(unix.SIG_SETMASK, &old, nil)
	}
	return err
}
