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

package dispatcher

import (
	"strings"
	"time"

	"github.com/m2osw/eventdispatcher-sub003/logger"
	"github.com/m2osw/eventdispatcher-sub003/message"
)

// CommunicatorHooks wires the side effects of the standard built-in
// commands into the owning service. Any field left nil makes the
// corresponding command a no-op beyond its reply (if any).
type CommunicatorHooks struct {
	// LogRotate is invoked on an inbound LOG_ROTATE.
	LogRotate func()
	// Ready is invoked on an inbound READY.
	Ready func()
	// Restart is invoked on an inbound RESTART.
	Restart func()
	// Stop is invoked on an inbound STOP, with quitting always false:
	// quitting=true is reserved for a service's own outbound shutdown
	// announcement, never produced by this handler.
	Stop func(quitting bool)
}

// AddCommunicatorCommands appends the standard HELP/ALIVE/LOG_ROTATE/
// QUITTING/READY/RESTART/STOP/UNKNOWN matches. Call it before adding
// any ALWAYS catch-all, and before any other EXACT match for the same
// command names if you want those to take precedence instead.
func (d *Dispatcher) AddCommunicatorCommands(hooks CommunicatorHooks) error {
	d.mu.Lock()
	d.hooks = hooks
	d.mu.Unlock()

	return d.AddMatches(
		Match{Pattern: "HELP", Strategy: Exact, Handler: d.handleHelp},
		Match{Pattern: "ALIVE", Strategy: Exact, Handler: d.handleAlive},
		Match{Pattern: "LOG_ROTATE", Strategy: Exact, Handler: d.handleLogRotate},
		Match{Pattern: "QUITTING", Strategy: Exact, Handler: d.handleQuitting},
		Match{Pattern: "READY", Strategy: Exact, Handler: d.handleReady},
		Match{Pattern: "RESTART", Strategy: Exact, Handler: d.handleRestart},
		Match{Pattern: "STOP", Strategy: Exact, Handler: d.handleStop},
		Match{Pattern: "UNKNOWN", Strategy: Exact, Handler: d.handleUnknown},
	)
}

func (d *Dispatcher) handleHelp(msg message.Message, _ Service, reply ReplyFunc) {
	if reply == nil {
		return
	}

	r := message.New("COMMANDS")
	r.Set("list", strings.Join(d.Commands(), ","))
	r.ReplyTo(msg)

	_ = reply(r)
}

func (d *Dispatcher) handleAlive(msg message.Message, _ Service, reply ReplyFunc) {
	if reply == nil {
		return
	}

	r := message.New("ABSOLUTELY")
	r.SetTimestamp("timestamp", time.Now())

	if serial, ok := msg.Get("serial"); ok {
		r.Set("serial", serial)
	}

	r.ReplyTo(msg)

	_ = reply(r)
}

func (d *Dispatcher) handleLogRotate(_ message.Message, _ Service, _ ReplyFunc) {
	if d.hooks.LogRotate != nil {
		d.hooks.LogRotate()
	}
}

// handleQuitting treats the peer's announcement that it is exiting as
// a graceful shutdown of its side of the connection.
func (d *Dispatcher) handleQuitting(_ message.Message, svc Service, _ ReplyFunc) {
	d.log.Info("peer announced it is quitting", nil)

	if svc != nil {
		svc.Disconnect()
	}
}

func (d *Dispatcher) handleReady(_ message.Message, _ Service, _ ReplyFunc) {
	if d.hooks.Ready != nil {
		d.hooks.Ready()
	}
}

func (d *Dispatcher) handleRestart(_ message.Message, _ Service, _ ReplyFunc) {
	if d.hooks.Restart != nil {
		d.hooks.Restart()
	}
}

func (d *Dispatcher) handleStop(_ message.Message, _ Service, _ ReplyFunc) {
	if d.hooks.Stop != nil {
		d.hooks.Stop(false)
	}
}

// handleUnknown handles the case where the peer replies UNKNOWN to a
// command we sent it: there is nothing to do but log it.
func (d *Dispatcher) handleUnknown(msg message.Message, _ Service, _ ReplyFunc) {
	command, _ := msg.Get("command")
	d.log.Warning("peer did not understand our command", logger.Fields{"command": command})
}
