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

// ConnectionType classifies the peer a message-bearing connection is
// talking to, so a handler can tell a same-host caller from a network
// peer before acting on a privileged command such as RESTART or STOP.
type ConnectionType int

const (
	// ConnectionDown is the zero value: no connection is established,
	// or it has not yet been classified.
	ConnectionDown ConnectionType = iota
	ConnectionLocal
	ConnectionRemote
)

func (c ConnectionType) String() string {
	switch c {
	case ConnectionLocal:
		return "local"
	case ConnectionRemote:
		return "remote"
	default:
		return "down"
	}
}

// Service is the owning side of a dispatched message: the connection
// (or its wrapper) that received it and that a built-in command may
// need to act on.
type Service interface {
	ConnectionType() ConnectionType
	Disconnect()
}
