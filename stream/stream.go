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

// Package stream implements the line-buffered framing used by stream
// sockets and pipes: a non-blocking reader that reassembles '\n'
// terminated lines, and a non-blocking writer that drains a byte
// queue, plus a thin message layer on top that decodes each line as a
// message.Message and dispatches it.
package stream

import (
	"syscall"

	"github.com/m2osw/eventdispatcher-sub003/connection"
)

// MaxLineLength is the inbound line size limit (§4.E); exceeding it
// closes the connection with ErrorMalformedMessage.
const MaxLineLength = 1 << 20

const readChunk = 64 * 1024

// Buffer is the line-buffered transport. It is embedded by connections
// that read/write lines over a byte-stream fd (TCP, Unix stream,
// pipe).
type Buffer struct {
	connection.Base

	fd int

	in  []byte
	out []byte

	// AllowUnterminatedFlush, when true, delivers a trailing
	// unterminated line to OnLine when EOF/HUP is reached instead of
	// discarding it.
	AllowUnterminatedFlush bool

	// OnLine is called once per decoded line (trailing '\r' removed,
	// trailing '\n' never included).
	OnLine func(line string)

	// OnMalformed is called when an inbound line exceeds MaxLineLength;
	// the connection is expected to close itself afterward.
	OnMalformed func(err error)

	// OnEmptyBuffer is called when the output queue drains to zero.
	OnEmptyBuffer func()

	// OnHup is called when the peer closes its end or the fd errors
	// out. Buffer overrides connection.Base's no-op ProcessHup/
	// ProcessError to call it directly: Go has no virtual dispatch
	// through an embedded struct, so a hook field is how an owner
	// observes this instead of overriding a promoted method.
	OnHup func()
}

// NewBuffer wraps fd with an empty line buffer.
func NewBuffer(fd int) *Buffer {
	return &Buffer{Base: connection.NewBase("stream"), fd: fd}
}

func (b *Buffer) IsReader() bool { return true }
func (b *Buffer) IsWriter() bool { return len(b.out) > 0 }
func (b *Buffer) Socket() int    { return b.fd }

func (b *Buffer) Events() connection.Events {
	return connection.DeriveEvents(b.IsReader(), b.IsWriter(), b.IsListener(), b.IsSignal())
}

// Queue appends bytes to the outbound buffer; the reactor will drain
// them on the next writable tick.
func (b *Buffer) Queue(data []byte) {
	b.out = append(b.out, data...)
}

// Pending reports the number of bytes still queued for write.
func (b *Buffer) Pending() int {
	return len(b.out)
}

func (b *Buffer) ProcessRead() {
	var chunk [readChunk]byte

	n, err := syscall.Read(b.fd, chunk[:])
	if err != nil {
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			return
		}
		b.ProcessHup()
		return
	}

	if n == 0 {
		b.flushOnClose()
		b.ProcessHup()
		return
	}

	b.in = append(b.in, chunk[:n]...)
	b.drainLines()
}

func (b *Buffer) drainLines() {
	for {
		i := indexByte(b.in, '\n')
		if i < 0 {
			if len(b.in) > MaxLineLength {
				if b.OnMalformed != nil {
					b.OnMalformed(ErrorMalformedMessage.Error(nil))
				}
				b.in = nil
			}
			return
		}

		line := b.in[:i]
		b.in = b.in[i+1:]

		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}

		if len(line) > MaxLineLength {
			if b.OnMalformed != nil {
				b.OnMalformed(ErrorMalformedMessage.Error(nil))
			}
			continue
		}

		if b.OnLine != nil {
			b.OnLine(string(line))
		}
	}
}

func (b *Buffer) flushOnClose() {
	if !b.AllowUnterminatedFlush || len(b.in) == 0 {
		return
	}

	if b.OnLine != nil {
		b.OnLine(string(b.in))
	}
	b.in = nil
}

func (b *Buffer) ProcessWrite() {
	for len(b.out) > 0 {
		n, err := syscall.Write(b.fd, b.out)
		if err != nil {
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
				return
			}
			b.ProcessError()
			return
		}

		b.out = b.out[n:]

		if n == 0 {
			return
		}
	}

	if len(b.out) == 0 && b.OnEmptyBuffer != nil {
		b.OnEmptyBuffer()
	}
}

// ProcessHup overrides connection.Base's no-op so an owner only needs
// OnHup, never a type that embeds Buffer and redefines ProcessHup.
func (b *Buffer) ProcessHup() {
	if b.OnHup != nil {
		b.OnHup()
	}
}

// ProcessError behaves like ProcessHup: a write error also ends the
// connection's useful life.
func (b *Buffer) ProcessError() {
	if b.OnHup != nil {
		b.OnHup()
	}
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
