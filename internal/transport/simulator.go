package transport

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Load cycle of the simulated scale.
const (
	simSampleRate = 80 // readings per second, like an HX711 at 80 SPS
	simIdle       = 2 * time.Second
	simRamp       = 800 * time.Millisecond
	simHold       = 3 * time.Second
	simNoise      = 25.0 // grams, peak
	simMaxChunk   = 48   // bytes handed out per Read at most
)

// Simulator mimics the firmware: a load is placed, held and removed in a
// loop, readings are floored to 10 g and only sent when they change. Output
// is sliced into random chunk sizes so tokens regularly straddle Reads.
type Simulator struct {
	mu     sync.Mutex
	name   string
	rng    *rand.Rand
	now    func() time.Time
	start  time.Time
	last   time.Time
	load   float64 // target grams of the current cycle
	cycle  int
	prev   int
	hasOut bool
	buf    []byte
	closed bool
}

// OpenSim opens the simulated device. "sim:<seed>" fixes the seed.
func OpenSim(port string) (*Simulator, error) {
	seed := time.Now().UnixNano()
	if rest, ok := strings.CutPrefix(port, SimPrefix+":"); ok {
		s, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("simulator seed %q: %w", rest, err)
		}
		seed = s
	}
	return NewSimulator(port, seed, time.Now), nil
}

// NewSimulator builds a simulator with an explicit seed and clock.
func NewSimulator(name string, seed int64, now func() time.Time) *Simulator {
	s := &Simulator{
		name: name,
		rng:  rand.New(rand.NewSource(seed)),
		now:  now,
		prev: -1,
	}
	s.start = now()
	s.last = s.start
	s.load = s.nextLoad()
	return s
}

func (s *Simulator) nextLoad() float64 {
	return 500 + s.rng.Float64()*4500
}

// weightAt returns the simulated gram reading at offset t into the run.
func (s *Simulator) weightAt(t time.Duration) float64 {
	period := simIdle + simRamp + simHold + simRamp
	cycle := int(t / period)
	for s.cycle < cycle {
		s.cycle++
		s.load = s.nextLoad()
	}

	at := t % period
	var w float64
	switch {
	case at < simIdle:
		w = 0
	case at < simIdle+simRamp:
		w = s.load * float64(at-simIdle) / float64(simRamp)
	case at < simIdle+simRamp+simHold:
		w = s.load
	default:
		w = s.load * (1 - float64(at-simIdle-simRamp-simHold)/float64(simRamp))
	}
	if w > 0 {
		w += (s.rng.Float64()*2 - 1) * simNoise
	}
	if w < 0 {
		w = 0
	}
	return w
}

func (s *Simulator) generate() {
	now := s.now()
	step := time.Second / simSampleRate
	for t := s.last.Add(step); !t.After(now); t = t.Add(step) {
		grams := int(s.weightAt(t.Sub(s.start)))
		grams = (grams / 10) * 10
		if s.hasOut && grams == s.prev {
			s.last = t
			continue
		}
		s.buf = strconv.AppendInt(s.buf, int64(grams), 10)
		s.buf = append(s.buf, ';')
		s.prev = grams
		s.hasOut = true
		s.last = t
	}
}

func (s *Simulator) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	s.generate()
	if len(s.buf) == 0 {
		return 0, nil
	}
	n := 1 + s.rng.Intn(simMaxChunk)
	if n > len(s.buf) {
		n = len(s.buf)
	}
	n = copy(p, s.buf[:n])
	s.buf = s.buf[n:]
	return n, nil
}

func (s *Simulator) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.buf = nil
	return nil
}

func (s *Simulator) Name() string { return s.name }
