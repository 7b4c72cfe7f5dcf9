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

// Package cliutil holds the small amount of plumbing shared by the
// edsend and edstop command-line tools: resolving a network/address
// pair to something net.Dial accepts, and printing a colorized
// success/failure line before the process exits.
package cliutil

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"

	"github.com/m2osw/eventdispatcher-sub003/address"
	"github.com/m2osw/eventdispatcher-sub003/message"
)

var (
	stdout = colorable.NewColorableStdout()
	stderr = colorable.NewColorableStderr()

	ok   = color.New(color.FgGreen, color.Bold)
	fail = color.New(color.FgRed, color.Bold)
)

// ReportSuccess prints a green status line to stdout.
func ReportSuccess(format string, args ...interface{}) {
	ok.Fprint(stdout, "ok: ")
	fmt.Fprintf(stdout, format+"\n", args...)
}

// ReportFailure prints a red status line to stderr and returns 1, the
// process exit code callers should use.
func ReportFailure(err error) int {
	fail.Fprint(stderr, "error: ")
	fmt.Fprintf(stderr, "%s\n", err)
	return 1
}

// DialAddr resolves network/raw into the address string net.Dial
// expects. A unix-family network treats raw as a literal path (an
// "@" prefix makes it an abstract socket name); anything else is
// parsed as a host:port pair.
func DialAddr(network, raw string) (string, error) {
	if strings.HasPrefix(network, "unix") {
		if strings.HasPrefix(raw, "@") {
			return address.Abstract(raw[1:]).NetAddr(network), nil
		}
		return address.FromUnixPath(raw).NetAddr(network), nil
	}

	a, err := address.Parse(raw, "127.0.0.1", 0)
	if err != nil {
		return "", err
	}
	return a.NetAddr(network), nil
}

// SendLine dials network/addr, writes msg's encoded wire form and
// closes the write side. When waitReply is true it then reads one
// reply line back, with timeout bounding the whole round trip.
func SendLine(network, addr string, msg message.Message, waitReply bool, timeout time.Duration) (message.Message, error) {
	conn, err := net.DialTimeout(network, addr, timeout)
	if err != nil {
		return message.Message{}, err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return message.Message{}, err
	}

	if _, err := conn.Write([]byte(message.Encode(msg))); err != nil {
		return message.Message{}, err
	}

	if !waitReply {
		return message.Message{}, nil
	}

	if c, isConn := conn.(interface{ CloseWrite() error }); isConn {
		_ = c.CloseWrite()
	}

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return message.Message{}, err
	}

	return message.Decode(line)
}

// ParseParams turns a list of "name=value" strings (as repeated with
// a --param flag) into message parameters set on msg.
func ParseParams(msg *message.Message, params []string) error {
	for _, p := range params {
		i := strings.IndexByte(p, '=')
		if i < 0 {
			return fmt.Errorf("invalid --param %q, expected name=value", p)
		}
		msg.Set(p[:i], p[i+1:])
	}
	return nil
}
