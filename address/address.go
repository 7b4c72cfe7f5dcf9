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

// Package address parses and classifies the endpoints used throughout
// the reactor: IP host/port pairs and Unix-domain paths (named,
// abstract, or unnamed).
package address

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/m2osw/eventdispatcher-sub003/errors"
)

// Family distinguishes the two endpoint shapes an Address can hold.
type Family uint8

const (
	FamilyIP Family = iota
	FamilyUnix
)

// Scope classifies the reachability of an endpoint.
type Scope uint8

const (
	ScopeUnknown Scope = iota
	ScopeLoopback
	ScopePrivate
	ScopePublic
)

func (s Scope) String() string {
	switch s {
	case ScopeLoopback:
		return "loopback"
	case ScopePrivate:
		return "private"
	case ScopePublic:
		return "public"
	default:
		return "unknown"
	}
}

// Address holds either an IP endpoint (host/port, optional IPv6 zone)
// or a Unix-domain endpoint (path, or the abstract/unnamed markers).
type Address struct {
	family Family

	ip   net.IP
	zone string
	port uint16

	path     string
	abstract bool
	unnamed  bool
}

// Unnamed returns the zero-value Unix address, matching an
// autobind/anonymous Unix socket.
func Unnamed() Address {
	return Address{family: FamilyUnix, unnamed: true}
}

// Abstract returns a Linux abstract-namespace Unix address (name
// without the leading NUL, which is implicit).
func Abstract(name string) Address {
	return Address{family: FamilyUnix, path: name, abstract: true}
}

// FromUnixPath returns a named filesystem Unix-domain address.
func FromUnixPath(path string) Address {
	return Address{family: FamilyUnix, path: path}
}

// Parse accepts "host:port" (IPv6 host in brackets) and falls back to
// defaultHost/defaultPort when either half is omitted. It fails with
// ErrorInvalidAddress on malformed input.
func Parse(input string, defaultHost string, defaultPort uint16) (Address, error) {
	host, portStr, err := splitHostPort(input)
	if err != nil {
		return Address{}, ErrorInvalidAddress.Error(err)
	}

	if host == "" {
		host = defaultHost
	}

	port := defaultPort
	if portStr != "" {
		p, e := strconv.ParseUint(portStr, 10, 16)
		if e != nil || p == 0 {
			return Address{}, ErrorInvalidPort.Error(e)
		}
		port = uint16(p)
	}

	ip, zone, e := parseHost(host)
	if e != nil {
		return Address{}, ErrorInvalidAddress.Error(e)
	}

	return Address{family: FamilyIP, ip: ip, zone: zone, port: port}, nil
}

// splitHostPort tolerates a bare "host" (no colon) by returning it
// with an empty port, unlike net.SplitHostPort. An empty input yields
// an empty host and port, so both defaults apply.
func splitHostPort(input string) (host, port string, err error) {
	if input == "" {
		return "", "", nil
	}

	if strings.HasPrefix(input, "[") {
		i := strings.Index(input, "]")
		if i < 0 {
			return "", "", fmt.Errorf("unterminated IPv6 literal: %q", input)
		}

		host = input[1:i]
		rest := input[i+1:]

		if rest == "" {
			return host, "", nil
		}

		if !strings.HasPrefix(rest, ":") {
			return "", "", fmt.Errorf("malformed address after IPv6 literal: %q", input)
		}

		return host, rest[1:], nil
	}

	if i := strings.LastIndex(input, ":"); i >= 0 && !strings.Contains(input[i+1:], ":") {
		return input[:i], input[i+1:], nil
	}

	return input, "", nil
}

func parseHost(host string) (net.IP, string, error) {
	if host == "" {
		return net.IPv4zero, "", nil
	}

	h := host
	zone := ""

	if i := strings.Index(h, "%"); i >= 0 {
		zone = h[i+1:]
		h = h[:i]
	}

	ip := net.ParseIP(h)
	if ip == nil {
		return nil, "", fmt.Errorf("not a valid IP literal: %q", host)
	}

	return ip, zone, nil
}

func (a Address) Family() Family {
	return a.family
}

func (a Address) IsUnix() bool {
	return a.family == FamilyUnix
}

func (a Address) IsAbstract() bool {
	return a.family == FamilyUnix && a.abstract
}

func (a Address) IsUnnamed() bool {
	return a.family == FamilyUnix && a.unnamed
}

func (a Address) Path() string {
	return a.path
}

func (a Address) IP() net.IP {
	return a.ip
}

func (a Address) Zone() string {
	return a.zone
}

func (a Address) Port() uint16 {
	return a.port
}

// Scope classifies the address as loopback/private/public. Unix
// addresses are always loopback, matching the fact they never cross a
// host boundary.
func (a Address) Scope() Scope {
	if a.family == FamilyUnix {
		return ScopeLoopback
	}

	if a.ip == nil {
		return ScopeUnknown
	}

	switch {
	case a.ip.IsLoopback():
		return ScopeLoopback
	case a.ip.IsPrivate():
		return ScopePrivate
	default:
		return ScopePublic
	}
}

func (a Address) String() string {
	switch a.family {
	case FamilyUnix:
		if a.unnamed {
			return "unix:<unnamed>"
		}
		if a.abstract {
			return "unix:@" + a.path
		}
		return "unix:" + a.path
	default:
		host := a.ip.String()
		if a.zone != "" {
			host += "%" + a.zone
		}
		if strings.Contains(host, ":") {
			return fmt.Sprintf("[%s]:%d", host, a.port)
		}
		return fmt.Sprintf("%s:%d", host, a.port)
	}
}

// NetAddr builds the net package address string/network pair suitable
// for net.Dial / net.Listen, given the transport ("tcp", "udp", "unix",
// "unixgram").
func (a Address) NetAddr(network string) string {
	if a.family == FamilyUnix {
		if a.abstract {
			return "@" + a.path
		}
		return a.path
	}

	host := a.ip.String()
	if strings.Contains(host, ":") {
		return fmt.Sprintf("[%s]:%d", host, a.port)
	}
	return fmt.Sprintf("%s:%d", host, a.port)
}
