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

package permanent

import (
	"strconv"
	"strings"
	"time"

	"github.com/m2osw/eventdispatcher-sub003/message"
)

// DefaultCacheTTL applies to a cached message whose cache directive
// does not specify ttl=<seconds>.
const DefaultCacheTTL = 60 * time.Second

const (
	minCacheTTL = 10 * time.Second
	maxCacheTTL = 86400 * time.Second
)

// DefaultMaxCacheEntries bounds the outbound cache; the oldest entry
// is dropped (with a warning) once this many messages are pending.
const DefaultMaxCacheEntries = 1000

type cacheEntry struct {
	msg       message.Message
	expiresAt time.Time
}

// parseCacheDirective reads the message's "cache" parameter (§4.H
// grammar: semicolon-separated name[=value] pairs) and returns
// whether caching is refused outright and, if not, the TTL to apply.
func parseCacheDirective(m message.Message) (noCache bool, ttl time.Duration) {
	ttl = DefaultCacheTTL

	raw, ok := m.Get(message.ParamCache)
	if !ok || raw == "" {
		return false, ttl
	}

	for _, opt := range strings.Split(raw, ";") {
		opt = strings.TrimSpace(opt)
		switch {
		case opt == "no":
			noCache = true
		case strings.HasPrefix(opt, "ttl="):
			secs, err := strconv.ParseInt(opt[len("ttl="):], 10, 64)
			if err != nil {
				continue
			}
			d := time.Duration(secs) * time.Second
			if d < minCacheTTL {
				d = minCacheTTL
			} else if d > maxCacheTTL {
				d = maxCacheTTL
			}
			ttl = d
		}
	}

	return noCache, ttl
}

// evictExpired drops every entry whose TTL has elapsed, in place.
func evictExpired(cache []cacheEntry, now time.Time) []cacheEntry {
	kept := cache[:0]
	for _, e := range cache {
		if e.expiresAt.IsZero() || e.expiresAt.After(now) {
			kept = append(kept, e)
		}
	}
	return kept
}
