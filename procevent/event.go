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

package procevent

import (
	"bytes"
	"encoding/binary"
)

// EventKind mirrors the kernel's cn_proc what field, collapsed to the
// subset of values a caller distinguishes.
type EventKind int

const (
	EventNone EventKind = iota
	EventFork
	EventExec
	EventUID
	EventGID
	EventSession
	EventPtrace
	EventCommand
	EventCoredump
	EventExit
	EventUnknown
)

func (k EventKind) String() string {
	switch k {
	case EventNone:
		return "NONE"
	case EventFork:
		return "FORK"
	case EventExec:
		return "EXEC"
	case EventUID:
		return "UID"
	case EventGID:
		return "GID"
	case EventSession:
		return "SESSION"
	case EventPtrace:
		return "PTRACE"
	case EventCommand:
		return "COMMAND"
	case EventCoredump:
		return "COREDUMP"
	case EventExit:
		return "EXIT"
	default:
		return "UNKNOWN"
	}
}

// Event is one decoded process-connector record (§4.K).
type Event struct {
	Kind        EventKind
	CPU         uint32
	TimestampNs uint64

	PID       int32
	TGID      int32
	ParentPID int32
	ParentTGID int32

	RealUID      uint32
	EffectiveUID uint32
	RealGID      uint32
	EffectiveGID uint32

	Command string

	ExitCode   int32
	ExitSignal int32
}

// kernel proc_event "what" values, from linux/cn_proc.h. Not exposed
// by golang.org/x/sys/unix, which only carries the generic netlink
// constants, so they are declared locally exactly as the netlink
// proc-connector example in this corpus does.
const (
	procEventNone     = 0x00000001
	procEventFork     = 0x00000002
	procEventExec     = 0x00000004
	procEventUID      = 0x00000008
	procEventGID      = 0x00000040
	procEventSID      = 0x00000080
	procEventPtrace   = 0x00000100
	procEventComm     = 0x00000200
	procEventCoredump = 0x40000000
	procEventExit     = 0x80000000
)

const (
	cnIdxProc = 0x1
	cnValProc = 0x1

	procCnMcastListen = 1
	procCnMcastIgnore = 2

	nlmsghdrSize = 16
	cnMsgSize    = 20
	procEventHdr = 4 + 4 + 8 // what, cpu, timestamp_ns
)

type nlMsgHdr struct {
	Len   uint32
	Type  uint16
	Flags uint16
	Seq   uint32
	Pid   uint32
}

type cnMsg struct {
	Idx   uint32
	Val   uint32
	Seq   uint32
	Ack   uint32
	Len   uint16
	Flags uint16
}

type procEventHeader struct {
	What      uint32
	CPU       uint32
	Timestamp uint64
}

// decodeEvent parses one netlink datagram payload (starting at the
// nlmsghdr) into an Event. A "what" value it does not recognize yields
// EventUnknown with the raw value in ExitCode; Subscriber.ProcessRead
// logs the first such event.
func decodeEvent(data []byte) (Event, bool) {
	if len(data) < nlmsghdrSize+cnMsgSize+procEventHdr {
		return Event{}, false
	}

	r := bytes.NewReader(data)

	var hdr nlMsgHdr
	if err := binary.Read(r, binary.NativeEndian, &hdr); err != nil {
		return Event{}, false
	}

	var cn cnMsg
	if err := binary.Read(r, binary.NativeEndian, &cn); err != nil {
		return Event{}, false
	}
	if cn.Idx != cnIdxProc || cn.Val != cnValProc {
		return Event{}, false
	}

	var peh procEventHeader
	if err := binary.Read(r, binary.NativeEndian, &peh); err != nil {
		return Event{}, false
	}

	ev := Event{CPU: peh.CPU, TimestampNs: peh.Timestamp}

	body := data[nlmsghdrSize+cnMsgSize+procEventHdr:]
	br := bytes.NewReader(body)

	switch peh.What {
	case procEventNone:
		ev.Kind = EventNone
		var code int32
		_ = binary.Read(br, binary.NativeEndian, &code)
		ev.ExitCode = code

	case procEventFork:
		ev.Kind = EventFork
		var v [4]int32
		_ = binary.Read(br, binary.NativeEndian, &v)
		ev.ParentPID, ev.ParentTGID, ev.PID, ev.TGID = v[0], v[1], v[2], v[3]

	case procEventExec:
		ev.Kind = EventExec
		var v [2]int32
		_ = binary.Read(br, binary.NativeEndian, &v)
		ev.PID, ev.TGID = v[0], v[1]

	case procEventUID:
		ev.Kind = EventUID
		var v struct {
			PID, TGID int32
			RUID      uint32
			EUID      uint32
		}
		_ = binary.Read(br, binary.NativeEndian, &v)
		ev.PID, ev.TGID, ev.RealUID, ev.EffectiveUID = v.PID, v.TGID, v.RUID, v.EUID

	case procEventGID:
		ev.Kind = EventGID
		var v struct {
			PID, TGID int32
			RGID      uint32
			EGID      uint32
		}
		_ = binary.Read(br, binary.NativeEndian, &v)
		ev.PID, ev.TGID, ev.RealGID, ev.EffectiveGID = v.PID, v.TGID, v.RGID, v.EGID

	case procEventSID:
		ev.Kind = EventSession
		var v [2]int32
		_ = binary.Read(br, binary.NativeEndian, &v)
		ev.PID, ev.TGID = v[0], v[1]

	case procEventPtrace:
		ev.Kind = EventPtrace
		var v [4]int32
		_ = binary.Read(br, binary.NativeEndian, &v)
		ev.PID, ev.TGID, ev.ParentPID, ev.ParentTGID = v[0], v[1], v[2], v[3]

	case procEventComm:
		ev.Kind = EventCommand
		var v struct {
			PID, TGID int32
			Comm      [16]byte
		}
		_ = binary.Read(br, binary.NativeEndian, &v)
		ev.PID, ev.TGID = v.PID, v.TGID
		n := bytes.IndexByte(v.Comm[:], 0)
		if n < 0 {
			n = len(v.Comm)
		}
		ev.Command = string(v.Comm[:n])

	case procEventCoredump:
		ev.Kind = EventCoredump
		var v [2]int32
		_ = binary.Read(br, binary.NativeEndian, &v)
		ev.PID, ev.TGID = v[0], v[1]

	case procEventExit:
		ev.Kind = EventExit
		var v struct {
			PID, TGID  int32
			ExitCode   int32
			ExitSignal int32
		}
		_ = binary.Read(br, binary.NativeEndian, &v)
		ev.PID, ev.TGID, ev.ExitCode, ev.ExitSignal = v.PID, v.TGID, v.ExitCode, v.ExitSignal

	default:
		ev.Kind = EventUnknown
		ev.ExitCode = int32(peh.What)
	}

	return ev, true
}
