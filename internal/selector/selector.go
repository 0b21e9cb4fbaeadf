package selector

import (
	"fmt"
	"math"
	"sort"
)

// eps absorbs float noise in window and gap comparisons (well below any
// frame duration).
const eps = 1e-9

// maxSteps caps the step budget for extreme audio_end or beat values.
const maxSteps = math.MaxInt32

type state int

const (
	stateScanning state = iota
	stateSelected
	stateTerminated
)

// Select returns the ascending cut timestamps chosen from beats for a track
// ending at audioEnd. An empty beat list yields an empty result. Only
// precondition violations return an error.
func Select(beats []float64, audioEnd float64, c Constraints) ([]float64, error) {
	cuts, err := SelectDetailed(beats, audioEnd, c)
	if err != nil {
		return nil, err
	}
	return Times(cuts), nil
}

// SelectDetailed is Select but keeps the branch that produced each cut, so
// callers can tell in-window cuts from grace or nearest-fallback ones.
func SelectDetailed(beats []float64, audioEnd float64, c Constraints) ([]Cut, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(audioEnd) || math.IsInf(audioEnd, 0) || audioEnd < 0 {
		return nil, fmt.Errorf("%w: audio_end must be a non-negative number (got %g)", ErrInvalidConstraints, audioEnd)
	}

	adjusted := shift(beats, c.Phase)
	if len(adjusted) == 0 {
		return []Cut{}, nil
	}

	s := &scan{
		beats:  adjusted,
		end:    audioEnd,
		c:      c,
		target: c.target(),
		chosen: make([]Cut, 0, len(adjusted)),
	}
	return s.run(), nil
}

// AllBeats turns every phase-shifted, non-negative beat up to audioEnd into
// a cut. Duplicates are dropped so the result stays strictly ascending.
func AllBeats(beats []float64, audioEnd, phase float64) []float64 {
	out := make([]float64, 0, len(beats))
	for _, b := range shift(beats, phase) {
		if b > audioEnd {
			break
		}
		if b <= 0 {
			continue
		}
		if n := len(out); n > 0 && b <= out[n-1] {
			continue
		}
		out = append(out, b)
	}
	return out
}

// scan holds the cursor state of one selection pass.
type scan struct {
	beats  []float64
	end    float64
	c      Constraints
	target float64

	t       float64
	chosen  []Cut
	pending Cut
}

// run drives the state machine. Each scanning step either terminates,
// selects a beat strictly after the cursor (each beat at most once), or
// advances the cursor by PeriodMin. Advances stop once the cursor passes the
// last beat, so they are bounded by min(end, last beat)/PeriodMin + 1 and the
// step budget below is never the binding limit for well-formed input.
func (s *scan) run() []Cut {
	budget := maxSteps
	horizon := math.Min(s.end, s.beats[len(s.beats)-1])
	if b := float64(len(s.beats)) + horizon/s.c.PeriodMin + 2; b < maxSteps {
		budget = int(b)
	}
	steps := 0
	st := stateScanning
	for st != stateTerminated {
		switch st {
		case stateScanning:
			steps++
			if steps > budget {
				return s.chosen
			}
			st = s.step()
		case stateSelected:
			s.chosen = append(s.chosen, s.pending)
			s.t = s.pending.Time
			st = stateScanning
		}
	}
	return s.chosen
}

// step evaluates the window at the current cursor.
func (s *scan) step() state {
	if s.t+s.c.PeriodMin > s.end {
		return stateTerminated
	}
	// Nothing after the cursor can ever be viable.
	if s.beats[len(s.beats)-1] <= s.t {
		return stateTerminated
	}

	wStart := s.t + s.c.PeriodMin
	wEnd := s.t + s.c.PeriodMax
	branch := BranchWindow
	cands := s.within(wStart, wEnd)
	if len(cands) == 0 {
		if s.c.Strict {
			cands = s.within(wStart-s.c.Grace, wEnd+s.c.Grace)
			if len(cands) == 0 {
				return stateTerminated
			}
			branch = BranchGrace
		} else {
			// Not restricted to the window: the nearest beat may sit outside it.
			anchor := clamp(s.t+s.target, wStart, wEnd)
			n, _ := nearest(s.beats, anchor, nil)
			cands = []float64{n}
			branch = BranchNearest
		}
	}

	goal := s.t + s.target
	cand, _ := nearest(cands, goal, nil)
	if cand+s.c.PeriodMin > s.end {
		return stateTerminated
	}
	if !s.viable(cand) {
		alt, ok := nearest(cands, goal, s.viable)
		if !ok {
			s.t += s.c.PeriodMin
			return stateScanning
		}
		if alt+s.c.PeriodMin > s.end {
			return stateTerminated
		}
		cand = alt
	}

	s.pending = Cut{Time: cand, Branch: branch}
	return stateSelected
}

// viable reports whether b may follow the cuts chosen so far: strictly after
// the cursor and at least MinCutGap after the previous cut.
func (s *scan) viable(b float64) bool {
	if b <= s.t {
		return false
	}
	if n := len(s.chosen); n > 0 {
		return b-s.chosen[n-1].Time >= s.c.MinCutGap-eps
	}
	return true
}

// within returns the beats inside [lo, hi], inclusive.
func (s *scan) within(lo, hi float64) []float64 {
	var out []float64
	for _, b := range s.beats {
		if b > hi+eps {
			break
		}
		if b >= lo-eps {
			out = append(out, b)
		}
	}
	return out
}

// nearest returns the value in xs closest to target among those accepted by
// keep (all when keep is nil). xs is ascending, so the strict comparison
// resolves ties to the lower timestamp.
func nearest(xs []float64, target float64, keep func(float64) bool) (float64, bool) {
	best, bestDist, found := 0.0, math.Inf(1), false
	for _, x := range xs {
		if keep != nil && !keep(x) {
			continue
		}
		if d := math.Abs(x - target); d < bestDist {
			best, bestDist, found = x, d, true
		}
	}
	return best, found
}

// shift applies phase to every beat, drops negative or non-finite results
// and sorts what is left. Callers may pass beats in any order.
func shift(beats []float64, phase float64) []float64 {
	out := make([]float64, 0, len(beats))
	for _, b := range beats {
		v := b + phase
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			continue
		}
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}
