/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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

// Package errors provides advanced error handling with error codes, stack tracing, and hierarchy management.
//
// This package extends Go's standard error handling with features used across the reactor core:
//   - Error codes (numeric classification similar to HTTP status codes), one range per package
//   - Automatic stack trace capture (file, line, function)
//   - Error hierarchy (parent-child error chains)
//   - Compatibility with standard errors.Is and errors.As
//
// Example usage:
//
//	import liberr "github.com/m2osw/eventdispatcher-sub003/errors"
//
//	err := message.ErrorMalformedMessage.Error(nil)
//	fmt.Println(err.Code()) // 3550
//
//	if e, ok := err.(liberr.Error); ok {
//	    if e.IsCode(message.ErrorMalformedMessage) {
//	        log.Printf("malformed message at %s", e.GetTrace())
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"
)

// FuncMap is a callback function type used for iterating over error hierarchies.
type FuncMap func(e error) bool

// ReturnError is a callback function type for custom error return handling.
type ReturnError func(code int, msg string, file string, line int)

// Error is the main interface extending Go's standard error with additional capabilities.
type Error interface {
	error

	// IsCode checks if the error's code matches the given code.
	IsCode(code CodeError) bool
	// HasCode checks if current error or parent has the given error code.
	HasCode(code CodeError) bool
	// GetCode returns the CodeError value of the current error.
	GetCode() CodeError
	// GetParentCode returns a slice of CodeError value of all parent Error and the code of the current Error.
	GetParentCode() []CodeError

	// Is implements compatibility with the root errors package.
	Is(e error) bool

	// IsError checks if the given error params is a valid error and not a nil pointer.
	IsError(e error) bool
	// HasError checks if the given error in params is still in parent error.
	HasError(err error) bool
	// HasParent checks if the current Error has any valid parent.
	HasParent() bool
	// GetParent returns a slice of Error interface for each parent error with or without the first error.
	GetParent(withMainError bool) []error
	// Map runs a function on each error and its parents. If the function returns false, the loop stops.
	Map(fct FuncMap) bool
	// ContainsString returns true if any message into the main error or a parent message contains the given substring.
	ContainsString(s string) bool

	// Add appends all non-empty given errors as parents of the current Error.
	Add(parent ...error)
	// SetParent replaces all parents with the given error list.
	SetParent(parent ...error)

	// Code returns the code of the current Error, as uint16.
	Code() uint16
	// CodeSlice returns a slice of all codes of the current Error (main and parents).
	CodeSlice() []uint16

	// CodeError returns a composed string of the current Error code with message.
	CodeError(pattern string) string
	// CodeErrorSlice returns a composed string slice of code+message, for current Error and all parents.
	CodeErrorSlice(pattern string) []string

	// CodeErrorTrace returns a composed string of code, message and trace, for the current Error.
	CodeErrorTrace(pattern string) string
	// CodeErrorTraceSlice returns a composed string slice of code, message and trace, for current Error and all parents.
	CodeErrorTraceSlice(pattern string) []string

	// Error matches the error interface; format depends on SetModeReturnError.
	Error() string

	// StringError returns the error message, for the current Error and no parent.
	StringError() string
	// StringErrorSlice returns the error message, for current Error and all parents.
	StringErrorSlice() []string

	// GetError returns a new error interface based on the current error (no parent).
	GetError() error
	// GetErrorSlice returns a slice of new error interfaces, based on current error and all parents.
	GetErrorSlice() []error
	// Unwrap sets compliance with errors As/Is functions.
	Unwrap() []error

	// GetTrace returns a composed string for the trace of the current Error.
	GetTrace() string
	// GetTraceSlice returns a slice of composed strings for the trace of the current Error and all parents.
	GetTraceSlice() []string

	// Return transforms the current Error into a given pointer that implements the Return interface.
	Return(r Return)
	// ReturnError sends the current Error value to the given function.
	ReturnError(f ReturnError)
	// ReturnParent sends all parent information of the current Error value to the given function.
	ReturnParent(f ReturnError)
}

type Errors interface {
	// ErrorsLast returns the last registered error.
	ErrorsLast() error

	// ErrorsList returns a slice of all registered errors.
	ErrorsList() []error
}

// Is checks if the given error is of type Error.
func Is(e error) bool {
	var err Error
	return errors.As(e, &err)
}

// Get returns the given error as an Error interface if it is of type Error.
func Get(e error) Error {
	var err Error
	if errors.As(e, &err) {
		return err
	}

	return nil
}

// Has checks if the given error or its parent has the given error code.
func Has(e error, code CodeError) bool {
	if err := Get(e); err == nil {
		return false
	} else {
		return err.HasCode(code)
	}
}

// ContainsString checks if the given error message contains the given string.
func ContainsString(e error, s string) bool {
	if e == nil {
		return false
	} else if err := Get(e); err == nil {
		return strings.Contains(e.Error(), s)
	} else {
		return err.ContainsString(s)
	}
}

// IsCode checks if the given error has the given error code.
func IsCode(e error, code CodeError) bool {
	if err := Get(e); err == nil {
		return false
	} else {
		return err.IsCode(code)
	}
}

// Make wraps the given error in an Error interface if it is not one already.
func Make(e error) Error {
	var err Error

	if e == nil {
		return nil
	} else if errors.As(e, &err) {
		return err
	} else {
		return &ers{
			c: 0,
			e: e.Error(),
			p: nil,
			t: getNilFrame(),
		}
	}
}

// MakeIfError returns an Error interface if any of the given errors is not nil.
func MakeIfError(err ...error) Error {
	var e Error = nil

	for _, p := range err {
		if p == nil {
			continue
		} else if e == nil {
			e = Make(p)
		} else {
			e.Add(p)
		}
	}

	return e
}

// AddOrNew adds errSub (and parent) to errMain, creating a new Error if errMain is nil.
func AddOrNew(errMain, errSub error, parent ...error) Error {
	var e Error

	if errMain != nil {
		if e = Get(errMain); e == nil {
			e = New(0, errMain.Error())
		}
		e.Add(errSub)
		e.Add(parent...)
		return e
	} else if errSub != nil {
		return New(0, errSub.Error(), parent...)
	}

	return nil
}

// New creates a new Error interface with the given code, message, and parent errors.
func New(code uint16, message string, parent ...error) Error {
	var p = make([]Error, 0)

	if len(parent) > 0 {
		for _, e := range parent {
			if er := Make(e); er != nil {
				p = append(p, er)
			}
		}
	}

	return &ers{
		c: code,
		e: message,
		p: p,
		t: getFrame(),
	}
}

// Newf creates a new Error interface with a message generated by fmt.Sprintf.
func Newf(code uint16, pattern string, args ...any) Error {
	return &ers{
		c: code,
		e: fmt.Sprintf(pattern, args...),
		p: make([]Error, 0),
		t: getFrame(),
	}
}

func NewErrorTrace(code int, msg string, file string, line int, parent ...error) Error {
	var p = make([]Error, 0)

	if len(parent) > 0 {
		for _, e := range parent {
			if er := Make(e); er != nil {
				p = append(p, er)
			}
		}
	}

	// Prevent overflow
	var i uint16
	if code < 0 {
		i = 0
	} else if code > math.MaxUint16 {
		i = math.MaxUint16
	} else {
		i = uint16(code)
	}

	return &ers{
		c: i,
		e: msg,
		p: p,
		t: runtime.Frame{
			File: file,
			Line: line,
		},
	}
}

func NewErrorRecovered(msg string, recovered string, parent ...error) Error {
	var p = make([]Error, 0)

	if recovered != "" {
		p = append(p, &ers{
			c: 0,
			e: recovered,
			p: nil,
		})
	}

	if len(parent) > 0 {
		for _, e := range parent {
			if er := Make(e); er != nil {
				p = append(p, er)
			}
		}
	}

	for _, t := range getFrameVendor() {
		if t == getNilFrame() {
			continue
		}
		msg += "\n " + fmt.Sprintf("Fct: %s - File: %s - Line: %d", t.Function, t.File, t.Line)
	}

	return &ers{
		c: 0,
		e: msg,
		p: p,
		t: getFrame(),
	}
}

// IfError returns an Error only if the filtered parent list contains a valid error.
func IfError(code uint16, message string, parent ...error) Error {
	p := make([]Error, 0)

	if len(parent) > 0 {
		for _, e := range parent {
			if er := Make(e); er != nil {
				p = append(p, er)
			}
		}
	}

	if len(p) < 1 {
		return nil
	}

	return &ers{
		c: code,
		e: message,
		p: p,
		t: getFrame(),
	}
}

func NewDefaultReturn() *DefaultReturn {
	return &DefaultReturn{
		Code:    "",
		Message: "",
	}
}
