// Package decoder turns an arbitrarily chunked, delimiter-separated text
// stream of weight readings into parsed float64 samples.
package decoder

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultDelimiter terminates every token on the wire.
	DefaultDelimiter = ';'

	// DefaultMaxPending bounds the unterminated tail carried between
	// Feed calls, and the raw length of any single token. Real devices
	// emit tokens of a handful of bytes. Longer tokens are dropped whether
	// they arrive whole or split across Feeds.
	DefaultMaxPending = 64
)

// Stats counts what the decoder has seen since it was created or Reset.
type Stats struct {
	Tokens    int // non-empty candidate tokens
	Malformed int // tokens that failed to parse
	Overflows int // tokens or pending tails dropped for exceeding MaxPending
}

// Decoder accumulates fragments and yields values once their trailing
// delimiter arrives. It is not safe for concurrent use.
type Decoder struct {
	delim      string
	maxPending int
	pending    string
	resync     bool // discarding the tail of an overlong token
	stats      Stats
}

// New creates a decoder splitting on delim. maxPending <= 0 disables the
// pending-buffer bound.
func New(delim rune, maxPending int) *Decoder {
	if delim == 0 {
		delim = DefaultDelimiter
	}
	if maxPending < 0 {
		maxPending = 0
	}
	return &Decoder{
		delim:      string(delim),
		maxPending: maxPending,
	}
}

// Feed appends fragment to the pending buffer and returns every value whose
// token is now terminated. The last split piece is always kept pending, even
// when it looks complete. Malformed tokens are dropped silently.
func (d *Decoder) Feed(fragment string) []float64 {
	buf := d.pending + fragment
	parts := strings.Split(buf, d.delim)
	d.pending = parts[len(parts)-1]

	var values []float64
	for i, token := range parts[:len(parts)-1] {
		if i == 0 && d.resync {
			// Remainder of a token whose head was already dropped.
			d.resync = false
			continue
		}
		if d.maxPending > 0 && len(token) > d.maxPending {
			d.stats.Overflows++
			continue
		}
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		d.stats.Tokens++
		v, ok := parseValue(token)
		if !ok {
			d.stats.Malformed++
			continue
		}
		values = append(values, v)
	}

	if d.maxPending > 0 && len(d.pending) > d.maxPending {
		d.pending = ""
		d.resync = true
		d.stats.Overflows++
	}

	return values
}

// FeedBytes is Feed for raw transport bytes. Invalid UTF-8 is dropped.
func (d *Decoder) FeedBytes(b []byte) []float64 {
	if utf8.Valid(b) {
		return d.Feed(string(b))
	}
	return d.Feed(strings.ToValidUTF8(string(b), ""))
}

// Pending returns the unterminated tail carried to the next Feed.
func (d *Decoder) Pending() string {
	return d.pending
}

// Stats returns the running counters.
func (d *Decoder) Stats() Stats {
	return d.stats
}

// Reset drops any pending data and zeroes the counters.
func (d *Decoder) Reset() {
	d.pending = ""
	d.resync = false
	d.stats = Stats{}
}

func parseValue(token string) (float64, bool) {
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
