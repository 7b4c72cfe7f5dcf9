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

package message

import (
	"strconv"
	"time"
)

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

func parseInt(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// GetString returns a parameter's raw value.
func (m Message) GetString(name string) (string, error) {
	v, ok := m.Get(name)
	if !ok {
		return "", ErrorInvalidParameter.Error(nil)
	}
	return v, nil
}

// GetInteger accepts an optional leading +/- and decimal digits; any
// other content fails with ErrorInvalidParameter rather than silently
// coercing.
func (m Message) GetInteger(name string) (int64, error) {
	v, ok := m.Get(name)
	if !ok {
		return 0, ErrorInvalidParameter.Error(nil)
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, ErrorInvalidParameter.Error(err)
	}

	return n, nil
}

// GetUnsigned refuses a negative value.
func (m Message) GetUnsigned(name string) (uint64, error) {
	v, ok := m.Get(name)
	if !ok {
		return 0, ErrorInvalidParameter.Error(nil)
	}

	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, ErrorInvalidParameter.Error(err)
	}

	return n, nil
}

// GetInteger32 is GetInteger bounded to a signed 32-bit value.
func (m Message) GetInteger32(name string) (int32, error) {
	v, ok := m.Get(name)
	if !ok {
		return 0, ErrorInvalidParameter.Error(nil)
	}

	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 0, ErrorInvalidParameter.Error(err)
	}

	return int32(n), nil
}

// GetUnsigned32 is GetUnsigned bounded to an unsigned 32-bit value.
func (m Message) GetUnsigned32(name string) (uint32, error) {
	v, ok := m.Get(name)
	if !ok {
		return 0, ErrorInvalidParameter.Error(nil)
	}

	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, ErrorInvalidParameter.Error(err)
	}

	return uint32(n), nil
}

func (m Message) GetDouble(name string) (float64, error) {
	v, ok := m.Get(name)
	if !ok {
		return 0, ErrorInvalidParameter.Error(nil)
	}

	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, ErrorInvalidParameter.Error(err)
	}

	return n, nil
}

// GetTimestamp parses a decimal Unix-seconds value.
func (m Message) GetTimestamp(name string) (time.Time, error) {
	n, err := m.GetInteger(name)
	if err != nil {
		return time.Time{}, err
	}

	return time.Unix(n, 0).UTC(), nil
}

func (m *Message) SetInteger(name string, v int64) {
	m.Set(name, itoa(v))
}

func (m *Message) SetUnsigned(name string, v uint64) {
	m.Set(name, strconv.FormatUint(v, 10))
}

func (m *Message) SetInteger32(name string, v int32) {
	m.SetInteger(name, int64(v))
}

func (m *Message) SetUnsigned32(name string, v uint32) {
	m.SetUnsigned(name, uint64(v))
}

func (m *Message) SetDouble(name string, v float64) {
	m.Set(name, strconv.FormatFloat(v, 'g', -1, 64))
}

func (m *Message) SetTimestamp(name string, t time.Time) {
	m.SetInteger(name, t.Unix())
}
