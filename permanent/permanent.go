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

// Package permanent implements the reconnecting client state machine
// (§4.H): DISCONNECTED -> CONNECTING -> CONNECTED -> DISCONNECTED, with
// a latched SHUT_DOWN terminal state, exponential connect backoff, and
// an outbound message cache for whatever cannot be sent while down.
//
// The connect attempt itself never runs on the reactor goroutine: it
// is dialed from a worker goroutine and the result is handed back
// through a self-pipe registered as this connection's fd while
// CONNECTING, exactly the mechanism the original design calls for
// when a worker thread is used for a blocking connect.
package permanent

import (
	"net"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/m2osw/eventdispatcher-sub003/connection"
	"github.com/m2osw/eventdispatcher-sub003/dispatcher"
	"github.com/m2osw/eventdispatcher-sub003/logger"
	"github.com/m2osw/eventdispatcher-sub003/message"
	"github.com/m2osw/eventdispatcher-sub003/stream"
)

// State is one position in the §4.H state machine.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	ShutDown
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case ShutDown:
		return "shut_down"
	default:
		return "disconnected"
	}
}

// BackoffBase and BackoffMax bound the reconnect delay: delay_n =
// min(BackoffMax, BackoffBase * 2^n), reset to BackoffBase on every
// successful connect.
const (
	BackoffBase = time.Second
	BackoffMax  = time.Hour
)

// DefaultDialTimeout applies when Connection.DialTimeout is zero.
const DefaultDialTimeout = 10 * time.Second

// Dispatcher is the narrow surface a permanent connection needs; the
// *dispatcher.BoundDispatcher returned by Dispatcher.ForConnection
// satisfies it.
type Dispatcher interface {
	Dispatch(msg message.Message, reply ReplyFunc)
}

// ReplyFunc sends a message back over the connection. A type alias,
// for the same reason stream.ReplyFunc and datagram.ReplyFunc are:
// dispatcher.BoundDispatcher's Dispatch method must satisfy this interface
// with the very same signature.
type ReplyFunc = func(message.Message) error

// Connection is a client connection that reconnects itself according
// to the §4.H policy. It implements connection.Connection and is
// registered with the reactor exactly once; its Socket() and Events()
// change as it moves through the state machine.
type Connection struct {
	connection.Base

	Network string
	Address string

	DialTimeout     time.Duration
	MaxCacheEntries int

	Dispatcher Dispatcher
	Log        logger.Logger

	// OnConnected fires once the TCP connection is up and the cache
	// has been flushed. OnConnectionFailed fires on every failed
	// attempt and on every loss of an established connection; reason
	// is a short human-readable description, never a sentinel to
	// match against. Go has no virtual dispatch through an embedded
	// struct, so these hooks are how an owner observes transitions a
	// subclass would otherwise override.
	OnConnected        func()
	OnConnectionFailed func(reason string)

	mu    sync.Mutex
	state State
	mc    *stream.MessageConnection

	backoffCurrent time.Duration

	pipeR, pipeW int
	dialResult   chan dialOutcome
	dialGroup    *errgroup.Group

	cache []cacheEntry
}

type dialOutcome struct {
	fd  int
	err error
}

// New returns a Connection targeting network/address (as accepted by
// net.Dial, e.g. "tcp"/"127.0.0.1:4040" or "unix"/"/run/x.sock"). It is
// not yet connecting: the attempt starts when the connection is
// registered with a reactor.
func New(network, address string, d Dispatcher, log logger.Logger) *Connection {
	if log == nil {
		log = logger.New()
	}

	return &Connection{
		Base:            connection.NewBase("permanent"),
		Network:         network,
		Address:         address,
		MaxCacheEntries: DefaultMaxCacheEntries,
		Dispatcher:      d,
		Log:             log.WithComponent("permanent"),
		pipeR:           -1,
		pipeW:           -1,
	}
}

// State returns the connection's current position in the state
// machine.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PendingCount returns the number of messages currently held in the
// outbound cache, not counting entries an eviction pass would drop.
func (c *Connection) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache = evictExpired(c.cache, time.Now())
	return len(c.cache)
}

func (c *Connection) IsReader() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Connecting:
		return true
	case Connected:
		return c.mc.IsReader()
	default:
		return false
	}
}

func (c *Connection) IsWriter() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Connected {
		return c.mc.IsWriter()
	}
	return false
}

func (c *Connection) IsListener() bool { return false }
func (c *Connection) IsSignal() bool   { return false }

func (c *Connection) Socket() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Connecting:
		return c.pipeR
	case Connected:
		return c.mc.Socket()
	default:
		return -1
	}
}

func (c *Connection) Events() connection.Events {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case Connecting:
		return connection.EventRead
	case Connected:
		return c.mc.Events()
	default:
		return 0
	}
}

// ConnectionAdded starts the first connect attempt (§4.H: "enters
// CONNECTING on first registration").
func (c *Connection) ConnectionAdded() {
	c.mu.Lock()
	shutDown := c.state == ShutDown
	c.mu.Unlock()

	if !shutDown {
		c.startConnect()
	}
}

// ConnectionRemoved tears down whatever is in flight without latching
// SHUT_DOWN: re-registering the same Connection later would attempt
// to reconnect again. Use Shutdown for the terminal state.
func (c *Connection) ConnectionRemoved() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.teardownLocked()
	if c.state != ShutDown {
		c.state = Disconnected
	}
}

func (c *Connection) teardownLocked() {
	if c.pipeR >= 0 {
		syscall.Close(c.pipeR)
		c.pipeR = -1
	}
	if c.pipeW >= 0 {
		syscall.Close(c.pipeW)
		c.pipeW = -1
	}
	if c.mc != nil {
		syscall.Close(c.mc.Socket())
		c.mc = nil
	}
}

func (c *Connection) startConnect() {
	c.mu.Lock()
	if c.state == ShutDown {
		c.mu.Unlock()
		return
	}

	c.teardownLocked()

	fds, err := syscall.Socketpair(syscall.AF_UNIX, syscall.SOCK_STREAM, 0)
	if err != nil {
		c.mu.Unlock()
		c.scheduleRetry("self-pipe allocation failed: " + err.Error())
		return
	}
	syscall.SetNonblock(fds[0], true)

	c.pipeR = fds[0]
	c.pipeW = fds[1]
	c.state = Connecting
	c.dialResult = make(chan dialOutcome, 1)
	c.SetTimeoutDate(connection.NoTimeout)

	network, address := c.Network, c.Address
	timeout := c.DialTimeout
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	result := c.dialResult
	wake := c.pipeW

	eg := new(errgroup.Group)
	c.dialGroup = eg
	c.mu.Unlock()

	// Bounded through errgroup so Shutdown can join this worker
	// instead of leaking it across a reconnect or process exit; the
	// goroutine itself always returns nil, the outcome travels over
	// the result channel and the self-pipe wakeup.
	eg.Go(func() error {
		dial(network, address, timeout, result, wake)
		return nil
	})
}

func dial(network, address string, timeout time.Duration, result chan<- dialOutcome, wake int) {
	conn, err := net.DialTimeout(network, address, timeout)
	if err != nil {
		result <- dialOutcome{fd: -1, err: err}
		syscall.Write(wake, []byte{0})
		return
	}

	fd, dupErr := dupFd(conn)
	conn.Close()
	if dupErr != nil {
		result <- dialOutcome{fd: -1, err: dupErr}
	} else {
		result <- dialOutcome{fd: fd, err: nil}
	}
	syscall.Write(wake, []byte{0})
}

func dupFd(conn net.Conn) (int, error) {
	sc, ok := conn.(syscall.Conn)
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

// ProcessRead handles both the CONNECTING wakeup and a CONNECTED
// transport's inbound data.
func (c *Connection) ProcessRead() {
	c.mu.Lock()
	st := c.state
	c.mu.Unlock()

	switch st {
	case Connecting:
		c.handleDialWakeup()
	case Connected:
		c.mc.ProcessRead()
	}
}

func (c *Connection) handleDialWakeup() {
	buf := make([]byte, 16)
	for {
		_, err := syscall.Read(c.pipeR, buf)
		if err != nil {
			break
		}
	}

	var outcome dialOutcome
	select {
	case outcome = <-c.dialResult:
	default:
		return
	}

	if outcome.err != nil {
		c.scheduleRetry(outcome.err.Error())
		return
	}

	c.becomeConnected(outcome.fd)
}

func (c *Connection) scheduleRetry(reason string) {
	c.mu.Lock()
	c.teardownLocked()

	if c.state == ShutDown {
		c.mu.Unlock()
		return
	}

	c.state = Disconnected
	if c.backoffCurrent <= 0 {
		c.backoffCurrent = BackoffBase
	} else {
		c.backoffCurrent *= 2
		if c.backoffCurrent > BackoffMax {
			c.backoffCurrent = BackoffMax
		}
	}
	delay := c.backoffCurrent
	c.SetTimeoutDate(connection.Now() + connection.MicrosFromDuration(delay))
	c.mu.Unlock()

	c.Log.Warning("connect attempt failed", logger.Fields{
		"address": c.Address,
		"reason":  reason,
		"retryIn": delay.String(),
	})

	if c.OnConnectionFailed != nil {
		c.OnConnectionFailed(reason)
	}
}

func (c *Connection) becomeConnected(fd int) {
	syscall.SetNonblock(fd, true)

	mc := stream.NewMessageConnection(fd, dispatcherAdapter{c}, c.Log)
	mc.ConnType = dispatcher.ConnectionRemote
	mc.OnHup = c.onPeerHup

	c.mu.Lock()
	c.pipeR, c.pipeW = -1, -1
	c.state = Connected
	c.mc = mc
	c.backoffCurrent = 0
	c.SetTimeoutDate(connection.NoTimeout)

	now := time.Now()
	c.cache = evictExpired(c.cache, now)
	pending := c.cache
	c.cache = nil
	c.mu.Unlock()

	for _, e := range pending {
		if err := mc.SendMessage(e.msg); err != nil {
			c.Log.Warning("failed to flush cached message on reconnect", logger.Fields{"error": err.Error()})
		}
	}

	if c.OnConnected != nil {
		c.OnConnected()
	}
}

// onPeerHup is wired as the connected transport's Buffer.OnHup: the
// peer went away, so this falls back to DISCONNECTED and resumes the
// backoff schedule just like a failed connect attempt.
func (c *Connection) onPeerHup() {
	c.mu.Lock()
	st := c.state
	c.mu.Unlock()

	if st != Connected {
		return
	}

	c.scheduleRetry("peer hung up")
}

func (c *Connection) ProcessWrite() {
	c.mu.Lock()
	st, mc := c.state, c.mc
	c.mu.Unlock()

	if st == Connected {
		mc.ProcessWrite()
	}
}

func (c *Connection) ProcessError() {
	c.mu.Lock()
	st, mc := c.state, c.mc
	c.mu.Unlock()

	if st == Connected {
		mc.ProcessError()
	}
}

func (c *Connection) ProcessHup() {
	c.mu.Lock()
	st, mc := c.state, c.mc
	c.mu.Unlock()

	if st == Connected {
		mc.ProcessHup()
	}
}

// ProcessTimeout fires the next connect attempt once the backoff
// delay has elapsed.
func (c *Connection) ProcessTimeout() {
	c.mu.Lock()
	st := c.state
	c.mu.Unlock()

	if st == Disconnected {
		c.startConnect()
	}
}

// SendMessage implements the §4.H send_message(m, cache) contract.
// cache forces caching regardless of the message's own "cache"
// parameter; the parameter can still force no caching via "no".
func (c *Connection) SendMessage(m message.Message, cache bool) error {
	c.mu.Lock()
	st := c.state
	mc := c.mc
	c.mu.Unlock()

	if st == ShutDown {
		return ErrorShutDown.Error(nil)
	}

	if st == Connected {
		return mc.SendMessage(m)
	}

	noCache, ttl := parseCacheDirective(m)
	if !cache && noCache {
		return ErrorNotConnected.Error(nil)
	}

	c.enqueue(m, ttl)
	return nil
}

func (c *Connection) enqueue(m message.Message, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.cache = evictExpired(c.cache, now)

	maxEntries := c.MaxCacheEntries
	if maxEntries <= 0 {
		maxEntries = DefaultMaxCacheEntries
	}
	if len(c.cache) >= maxEntries {
		c.Log.Warning("outbound cache full, dropping oldest message", logger.Fields{"max": maxEntries})
		c.cache = c.cache[1:]
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}
	c.cache = append(c.cache, cacheEntry{msg: m, expiresAt: expiresAt})
}

// reply is handed to the dispatcher as this connection's ReplyFunc; a
// reply never forces caching, since there is no one left to read a
// stale reply once the connection comes back.
func (c *Connection) reply(m message.Message) error {
	return c.SendMessage(m, false)
}

type dispatcherAdapter struct {
	c *Connection
}

func (a dispatcherAdapter) Dispatch(msg message.Message, _ stream.ReplyFunc) {
	if a.c.Dispatcher != nil {
		a.c.Dispatcher.Dispatch(msg, a.c.reply)
	}
}

// ConnectionType satisfies dispatcher.Service: a permanent connection
// always talks to a configured remote endpoint.
func (c *Connection) ConnectionType() dispatcher.ConnectionType {
	return dispatcher.ConnectionRemote
}

// Disconnect satisfies dispatcher.Service. It drops the live transport
// the same way a peer hang-up would; the state machine then retries on
// its usual backoff schedule.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	st := c.state
	c.mu.Unlock()

	if st == Connected {
		c.onPeerHup()
	}
}

// Shutdown latches the terminal SHUT_DOWN state: no further send
// succeeds and no reconnect is attempted, matching §4.H.
func (c *Connection) Shutdown() {
	c.mu.Lock()
	c.teardownLocked()
	c.state = ShutDown
	c.cache = nil
	c.SetTimeoutDate(connection.NoTimeout)
	eg := c.dialGroup
	c.dialGroup = nil
	c.mu.Unlock()

	if eg != nil {
		_ = eg.Wait()
	}

	c.Disable()
}

// Close is Shutdown under the name the other connection types use.
func (c *Connection) Close() error {
	c.Shutdown()
	return nil
}
