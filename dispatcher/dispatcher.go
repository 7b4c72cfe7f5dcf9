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

// Package dispatcher routes an incoming message.Message to a handler
// chosen from a declarative, ordered list of matches, validates each
// match's declared parameters before invoking it, and can supply the
// standard set of built-in commands (HELP, ALIVE, LOG_ROTATE, ...) a
// service normally wants without writing them by hand.
package dispatcher

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/m2osw/eventdispatcher-sub003/logger"
	"github.com/m2osw/eventdispatcher-sub003/message"
)

// ReplyFunc sends a message back to whichever peer triggered dispatch.
// A type alias so the BoundDispatcher that ForConnection returns can be
// handed directly to stream.MessageConnection and datagram.Transport, both of which
// declare their own identically-shaped Dispatcher interface locally to
// avoid importing this package.
type ReplyFunc = func(message.Message) error

// Handler processes one dispatched message. svc identifies the
// connection the message arrived on, letting a handler check
// ConnectionType before acting on a privileged command.
type Handler func(msg message.Message, svc Service, reply ReplyFunc)

// MatchStrategy selects how Match.Pattern is interpreted.
type MatchStrategy int

const (
	// Exact requires Pattern to equal the command name exactly.
	Exact MatchStrategy = iota
	// Regex anchors Pattern at both ends and matches the command name
	// against it.
	Regex
	// Always matches any command. Only valid as the final match.
	Always
)

func (s MatchStrategy) String() string {
	switch s {
	case Regex:
		return "regex"
	case Always:
		return "always"
	default:
		return "exact"
	}
}

// ParamType constrains a declared parameter's value.
type ParamType int

const (
	ParamTypeString ParamType = iota
	ParamTypeInteger
	ParamTypeUnsigned
	ParamTypeDouble
	ParamTypeTimestamp
)

// ParamDef declares one parameter a Match expects on its incoming
// message, checked before Handler is invoked.
type ParamDef struct {
	Name     string
	Required bool
	Type     ParamType
}

// Match associates a command pattern with a handler.
type Match struct {
	Pattern  string
	Strategy MatchStrategy
	Handler  Handler
	Params   []ParamDef
}

type compiledMatch struct {
	Match
	re *regexp.Regexp
}

func (c compiledMatch) matchesCommand(command string) bool {
	switch c.Strategy {
	case Always:
		return true
	case Regex:
		return c.re.MatchString(command)
	default:
		return c.Pattern == command
	}
}

// Dispatcher holds an ordered match table and dispatches inbound
// messages against it. The zero value is not usable; construct one
// with New.
type Dispatcher struct {
	mu      sync.RWMutex
	matches []compiledMatch
	log     logger.Logger
	hooks   CommunicatorHooks
}

// New returns an empty Dispatcher.
func New(log logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.New()
	}

	return &Dispatcher{log: log.WithComponent("dispatcher")}
}

// AddMatches appends matches to the table in order. An Always match is
// only accepted as the very last entry the Dispatcher will ever hold;
// adding anything after it is rejected.
func (d *Dispatcher) AddMatches(matches ...Match) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.matches) > 0 && d.matches[len(d.matches)-1].Strategy == Always {
		return ErrorAlwaysNotLast.Error(nil)
	}

	for i, m := range matches {
		if m.Strategy == Always && i != len(matches)-1 {
			return ErrorAlwaysNotLast.Error(nil)
		}

		cm := compiledMatch{Match: m}

		if m.Strategy == Regex {
			re, err := regexp.Compile("^(?:" + m.Pattern + ")$")
			if err != nil {
				return ErrorBadPattern.Error(err)
			}
			cm.re = re
		}

		d.matches = append(d.matches, cm)
	}

	return nil
}

// Commands returns the literal (Exact-strategy) command names known to
// the dispatcher, sorted alphabetically; it feeds the built-in HELP reply.
func (d *Dispatcher) Commands() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]string, 0, len(d.matches))
	for _, m := range d.matches {
		if m.Strategy == Exact {
			out = append(out, m.Pattern)
		}
	}

	sort.Strings(out)

	return out
}

// ForConnection binds this dispatcher's match table to one connection,
// returning a value whose Dispatch(msg, reply) method satisfies
// stream.Dispatcher and datagram.Dispatcher.
func (d *Dispatcher) ForConnection(svc Service) *BoundDispatcher {
	return &BoundDispatcher{d: d, svc: svc}
}

// BoundDispatcher adapts a Dispatcher to the narrow Dispatch(msg,
// reply) surface stream.MessageConnection and datagram.Transport
// expect, carrying along the Service identifying which connection is
// being dispatched for.
type BoundDispatcher struct {
	d   *Dispatcher
	svc Service
}

func (b *BoundDispatcher) Dispatch(msg message.Message, reply ReplyFunc) {
	b.d.dispatch(msg, b.svc, reply)
}

func (d *Dispatcher) dispatch(msg message.Message, svc Service, reply ReplyFunc) {
	d.mu.RLock()
	matches := d.matches
	d.mu.RUnlock()

	for _, m := range matches {
		if !m.matchesCommand(msg.Command) {
			continue
		}

		if !d.validateParams(m.Params, msg, reply) {
			return
		}

		m.Handler(msg, svc, reply)
		return
	}

	d.replyUnknown(msg, reply)
}

func (d *Dispatcher) validateParams(defs []ParamDef, msg message.Message, reply ReplyFunc) bool {
	for _, p := range defs {
		v, has := msg.Get(p.Name)
		if !has {
			if p.Required {
				d.replyInvalid(msg, reply, "missing required parameter "+p.Name)
				return false
			}
			continue
		}

		if !paramTypeValid(v, p.Type) {
			d.replyInvalid(msg, reply, "parameter "+p.Name+" is not a valid "+strings.ToLower(paramTypeName(p.Type)))
			return false
		}
	}

	return true
}

// paramTypeValid checks a raw parameter value against a declared type
// by routing it through the same typed accessors a handler would use,
// so validation and consumption can never disagree.
func paramTypeValid(v string, t ParamType) bool {
	if t == ParamTypeString {
		return true
	}

	probe := message.New("_")
	probe.Set("v", v)

	var err error
	switch t {
	case ParamTypeInteger:
		_, err = probe.GetInteger("v")
	case ParamTypeUnsigned:
		_, err = probe.GetUnsigned("v")
	case ParamTypeDouble:
		_, err = probe.GetDouble("v")
	case ParamTypeTimestamp:
		_, err = probe.GetTimestamp("v")
	}

	return err == nil
}

func paramTypeName(t ParamType) string {
	switch t {
	case ParamTypeInteger:
		return "Integer"
	case ParamTypeUnsigned:
		return "Unsigned"
	case ParamTypeDouble:
		return "Double"
	case ParamTypeTimestamp:
		return "Timestamp"
	default:
		return "String"
	}
}

func (d *Dispatcher) replyInvalid(msg message.Message, reply ReplyFunc, reason string) {
	if reply == nil {
		return
	}

	r := message.New("INVALID")
	r.Set("command", msg.Command)
	r.Set("reason", reason)
	r.ReplyTo(msg)

	_ = reply(r)
}

func (d *Dispatcher) replyUnknown(msg message.Message, reply ReplyFunc) {
	d.log.Warning("no match for inbound command", logger.Fields{"command": msg.Command})

	if reply == nil {
		return
	}

	r := message.New("UNKNOWN")
	r.Set("command", msg.Command)
	r.ReplyTo(msg)

	_ = reply(r)
}
