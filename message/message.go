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

// Package message implements the textual, newline-terminated wire
// message used by every connection in the reactor: a command plus a
// set of URL-percent-encoded parameters, with reserved names carrying
// routing, caching and authentication semantics.
package message

import (
	"regexp"
	"sort"
	"strings"
)

// Reserved parameter names (§3, §6).
const (
	ParamServer         = "server"
	ParamService        = "service"
	ParamSentFromServer = "sent_from_server"
	ParamSentFromService = "sent_from_service"
	ParamCache          = "cache"
	ParamSecretCode     = "secret_code"
	ParamReplyTo        = "reply_to"
	ParamVersion        = "message_version"
)

// Version is the local message-format version written by
// AddVersionParameter and checked by CheckVersionParameter.
const Version = 1

var commandPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Message is a value type: it is freely copied, and its map of
// parameters is only ever replaced wholesale, never mutated behind the
// holder's back once handed out by a reader.
type Message struct {
	Command          string
	SentFromServer   string
	SentFromService  string
	Server           string
	Service          string
	Parameters       map[string]string
}

// New returns an empty message for the given command.
func New(command string) Message {
	return Message{Command: command, Parameters: make(map[string]string)}
}

func (m Message) params() map[string]string {
	if m.Parameters == nil {
		return map[string]string{}
	}
	return m.Parameters
}

// Set stores a parameter value; last write wins for a given name. It
// installs a new map rather than writing into the current one, so
// copies of m made earlier keep their own parameters.
func (m *Message) Set(name, value string) {
	p := make(map[string]string, len(m.Parameters)+1)
	for k, v := range m.Parameters {
		p[k] = v
	}
	p[name] = value
	m.Parameters = p
}

// Get returns the raw string value of a parameter.
func (m Message) Get(name string) (string, bool) {
	v, ok := m.params()[name]
	return v, ok
}

// Has reports whether a parameter is present.
func (m Message) Has(name string) bool {
	_, ok := m.params()[name]
	return ok
}

// ReplyTo turns m into a reply targeting the peer that sent other: the
// peer's sent_from_server/sent_from_service become this message's
// server/service, and this message's own sent_from_* are cleared. The
// command is left untouched.
func (m *Message) ReplyTo(other Message) {
	m.Server = other.SentFromServer
	m.Service = other.SentFromService
	m.SentFromServer = ""
	m.SentFromService = ""
}

// AddVersionParameter stamps the message with the local wire-format
// version.
func (m *Message) AddVersionParameter() {
	m.Set(ParamVersion, itoa(Version))
}

// CheckVersionParameter reports whether message_version is present and
// equal to the local Version constant.
func (m Message) CheckVersionParameter() bool {
	v, ok := m.Get(ParamVersion)
	if !ok {
		return false
	}
	n, err := parseInt(v)
	return err == nil && n == Version
}

// Encode renders the message in its newline-terminated wire form.
// Command must already be a valid identifier; Encode does not validate
// it, callers that build messages programmatically are expected to use
// valid command names (Decode is where malformed input is rejected).
func Encode(m Message) string {
	var b strings.Builder

	if m.SentFromServer != "" || m.SentFromService != "" {
		b.WriteByte('<')
		b.WriteString(m.SentFromServer)
		b.WriteByte(':')
		b.WriteString(m.SentFromService)
		b.WriteByte(' ')
	}

	if m.Server != "" {
		b.WriteString(m.Server)
		b.WriteByte('/')
	}

	if m.Service != "" {
		b.WriteString(m.Service)
		b.WriteByte(':')
	}

	b.WriteString(m.Command)

	if len(m.Parameters) > 0 {
		names := make([]string, 0, len(m.Parameters))
		for k := range m.Parameters {
			names = append(names, k)
		}
		sort.Strings(names)

		for i, name := range names {
			if i == 0 {
				b.WriteByte(' ')
			} else {
				b.WriteByte(';')
			}
			b.WriteString(name)
			b.WriteByte('=')
			b.WriteString(percentEncode(m.Parameters[name]))
		}
	}

	b.WriteByte('\n')

	return b.String()
}

// Decode parses one wire-format line (the trailing newline, and an
// optional preceding \r, are both accepted and stripped). It fails
// with ErrorMalformedMessage when the command is missing/invalid or a
// parameter lacks '='.
func Decode(line string) (Message, error) {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")

	m := Message{Parameters: make(map[string]string)}

	if strings.HasPrefix(line, "<") {
		sp := strings.IndexByte(line, ' ')
		if sp < 0 {
			return Message{}, ErrorMalformedMessage.Error(nil)
		}

		header := line[1:sp]
		colon := strings.IndexByte(header, ':')
		if colon < 0 {
			return Message{}, ErrorMalformedMessage.Error(nil)
		}

		m.SentFromServer = header[:colon]
		m.SentFromService = header[colon+1:]
		line = line[sp+1:]
	}

	head := line
	var rest string
	hasRest := false

	if sp := strings.IndexByte(line, ' '); sp >= 0 {
		head = line[:sp]
		rest = line[sp+1:]
		hasRest = true
	}

	head = strings.TrimSpace(head)

	if slash := strings.IndexByte(head, '/'); slash >= 0 {
		m.Server = head[:slash]
		head = head[slash+1:]
	}

	if colon := strings.IndexByte(head, ':'); colon >= 0 {
		m.Service = head[:colon]
		head = head[colon+1:]
	}

	m.Command = head

	if !commandPattern.MatchString(m.Command) {
		return Message{}, ErrorMalformedMessage.Error(nil)
	}

	if hasRest && rest != "" {
		for _, pair := range strings.Split(rest, ";") {
			eq := strings.IndexByte(pair, '=')
			if eq < 0 {
				return Message{}, ErrorMalformedMessage.Error(nil)
			}

			name := pair[:eq]
			value, err := percentDecode(pair[eq+1:])
			if err != nil {
				return Message{}, ErrorMalformedMessage.Error(err)
			}

			m.Parameters[name] = value
		}
	}

	return m, nil
}
