// Package series keeps the capacity-bounded weight history shown by the
// plot along with last and running-maximum readings.
package series

import (
	"github.com/montanaflynn/stats"
)

// DefaultMaxPoints is the default history capacity.
const DefaultMaxPoints = 2000

// Sample is a single reading paired with its sequential index.
type Sample struct {
	Index int
	Value float64 // grams
}

// Snapshot is a read-only copy of the store for rendering.
type Snapshot struct {
	Indices []int
	Values  []float64
	Last    float64
	Max     float64
	HasLast bool
	HasMax  bool

	// Window statistics, absent when the history is empty.
	Summary    Summary
	HasSummary bool
}

// Summary describes the samples currently held in the history window.
type Summary struct {
	Count  int
	Min    float64
	Mean   float64
	StdDev float64
}

// Store holds the most recent samples. Indices keep increasing across
// eviction and restart at 0 only after Clear. Not safe for concurrent use.
type Store struct {
	points  []Sample
	max     int
	next    int
	last    float64
	peak    float64
	hasLast bool
	hasPeak bool
}

// New creates a store holding at most capacity samples.
func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultMaxPoints
	}
	return &Store{
		points: make([]Sample, 0, capacity),
		max:    capacity,
	}
}

// Append records v under the next index, evicting the oldest samples once
// the capacity is exceeded. Max only moves on a strictly greater value.
func (s *Store) Append(v float64) {
	s.points = append(s.points, Sample{Index: s.next, Value: v})
	s.next++
	if n := len(s.points); n > s.max {
		s.points = s.points[n-s.max:]
	}

	s.last = v
	s.hasLast = true
	if !s.hasPeak || v > s.peak {
		s.peak = v
		s.hasPeak = true
	}
}

// Clear empties the history and resets the index counter and statistics.
func (s *Store) Clear() {
	s.points = make([]Sample, 0, s.max)
	s.next = 0
	s.last, s.hasLast = 0, false
	s.peak, s.hasPeak = 0, false
}

// ResetMax forgets the running maximum only.
func (s *Store) ResetMax() {
	s.peak, s.hasPeak = 0, false
}

// Last returns the most recent value, if any.
func (s *Store) Last() (float64, bool) {
	return s.last, s.hasLast
}

// Max returns the running maximum since the last reset, if any.
func (s *Store) Max() (float64, bool) {
	return s.peak, s.hasPeak
}

// Len returns the number of samples in the history window.
func (s *Store) Len() int {
	return len(s.points)
}

// Capacity returns the configured maximum history length.
func (s *Store) Capacity() int {
	return s.max
}

// Total returns how many samples were appended since the last Clear.
func (s *Store) Total() int {
	return s.next
}

// Snapshot returns copies of the history columns and the statistics.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Indices: make([]int, len(s.points)),
		Values:  make([]float64, len(s.points)),
		Last:    s.last,
		Max:     s.peak,
		HasLast: s.hasLast,
		HasMax:  s.hasPeak,
	}
	for i, p := range s.points {
		snap.Indices[i] = p.Index
		snap.Values[i] = p.Value
	}
	snap.Summary, snap.HasSummary = Summarize(snap.Values)
	return snap
}

// Summary returns min, mean and population standard deviation of the
// current window. ok is false when the history is empty.
func (s *Store) Summary() (Summary, bool) {
	values := make([]float64, len(s.points))
	for i, p := range s.points {
		values[i] = p.Value
	}
	return Summarize(values)
}

// Summarize computes the window statistics of values.
func Summarize(values []float64) (Summary, bool) {
	if len(values) == 0 {
		return Summary{}, false
	}
	data := stats.Float64Data(values)

	lo, err := stats.Min(data)
	if err != nil {
		return Summary{}, false
	}
	mean, err := stats.Mean(data)
	if err != nil {
		return Summary{}, false
	}
	sd, err := stats.StandardDeviation(data)
	if err != nil {
		return Summary{}, false
	}
	return Summary{Count: len(data), Min: lo, Mean: mean, StdDev: sd}, true
}
