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

package cliutil

import (
	"testing"

	"github.com/m2osw/eventdispatcher-sub003/message"
)

func TestDialAddrTCP(t *testing.T) {
	got, err := DialAddr("tcp", "127.0.0.1:4040")
	if err != nil {
		t.Fatal(err)
	}
	if got != "127.0.0.1:4040" {
		t.Fatalf("got %q, want %q", got, "127.0.0.1:4040")
	}
}

func TestDialAddrUnixPath(t *testing.T) {
	got, err := DialAddr("unix", "/tmp/reactor.sock")
	if err != nil {
		t.Fatal(err)
	}
	if got != "/tmp/reactor.sock" {
		t.Fatalf("got %q, want %q", got, "/tmp/reactor.sock")
	}
}

func TestDialAddrUnixAbstract(t *testing.T) {
	got, err := DialAddr("unix", "@reactor")
	if err != nil {
		t.Fatal(err)
	}
	if got != "@reactor" {
		t.Fatalf("got %q, want %q", got, "@reactor")
	}
}

func TestDialAddrRejectsMalformed(t *testing.T) {
	if _, err := DialAddr("tcp", "::::"); err == nil {
		t.Fatal("expected an error for a malformed address")
	}
}

func TestParseParams(t *testing.T) {
	msg := message.New("TEST")
	if err := ParseParams(&msg, []string{"a=1", "b=two"}); err != nil {
		t.Fatal(err)
	}
	if v, _ := msg.Get("a"); v != "1" {
		t.Fatalf("got a=%q, want 1", v)
	}
	if v, _ := msg.Get("b"); v != "two" {
		t.Fatalf("got b=%q, want two", v)
	}
}

func TestParseParamsRejectsMissingEquals(t *testing.T) {
	msg := message.New("TEST")
	if err := ParseParams(&msg, []string{"noequals"}); err == nil {
		t.Fatal("expected an error for a parameter without '='")
	}
}
