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

package errors

// Min* constants partition the CodeError space, one range per package, so that
// a code collected from any component can be traced back to its origin.
const (
	MinPkgCertificate = 300
	MinPkgConfig      = 500
	MinPkgLogger      = 1600

	MinPkgAddress    = 3500
	MinPkgMessage    = 3550
	MinPkgConnection = 3600
	MinPkgReactor    = 3650
	MinPkgStream     = 3700
	MinPkgDatagram   = 3750
	MinPkgListener   = 3800
	MinPkgPermanent  = 3850
	MinPkgDispatcher = 3900
	MinPkgSignal     = 3950
	MinPkgProcEvent  = 3980

	MinAvailable = 4000
)
