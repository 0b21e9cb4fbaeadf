package selector

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-6

// --- Helper builders ---

func strictWindow() Constraints {
	return Constraints{PeriodMin: 1.4, PeriodMax: 2.6, TargetPeriod: 2.0, Strict: true}
}

// randomBeats returns an ascending beat grid with irregular spacing. The
// seed keeps every run identical.
func randomBeats(seed int64, n int) []float64 {
	r := rand.New(rand.NewSource(seed))
	out := make([]float64, 0, n)
	t := 0.0
	for i := 0; i < n; i++ {
		t += 0.2 + r.Float64()
		out = append(out, t)
	}
	return out
}

// --- Concrete scenarios ---

func TestSelect_StrictEvenGrid(t *testing.T) {
	beats := []float64{0.5, 2.0, 3.5, 5.0, 6.5}
	cuts, err := Select(beats, 7.0, strictWindow())
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{2.0, 3.5, 5.0}, cuts, tol)
}

func TestSelect_MinCutGapRespected(t *testing.T) {
	beats := []float64{0.0, 0.6, 1.2, 1.8, 2.4}
	c := Constraints{PeriodMin: 0.5, PeriodMax: 1.0, TargetPeriod: 0.8, MinCutGap: 0.9}
	cuts, err := Select(beats, 3.0, c)
	require.NoError(t, err)
	require.NotEmpty(t, cuts)
	for i := 1; i < len(cuts); i++ {
		assert.GreaterOrEqual(t, cuts[i]-cuts[i-1], 0.9-tol, "gap %d", i)
	}
	assert.InDeltaSlice(t, []float64{0.6, 1.8}, cuts, tol)
}

func TestSelect_PhaseChangesCuts(t *testing.T) {
	beats := []float64{0.7, 1.9, 2.6, 3.8, 4.4, 5.9, 6.8, 7.5, 8.9, 9.6}
	c := Constraints{PeriodMin: 1.4, PeriodMax: 2.6, TargetPeriod: 2.0}

	c.Phase = -0.5
	early, err := Select(beats, 10, c)
	require.NoError(t, err)
	c.Phase = 0.5
	late, err := Select(beats, 10, c)
	require.NoError(t, err)

	assert.NotEqual(t, early, late)
	assert.InDeltaSlice(t, []float64{2.4, 4.3, 6.4, 8.0}, late, tol)
}

func TestSelect_EmptyBeats(t *testing.T) {
	cuts, err := Select(nil, 30, strictWindow())
	require.NoError(t, err)
	assert.Empty(t, cuts)
}

func TestSelect_PhaseDropsNegativeBeats(t *testing.T) {
	c := strictWindow()
	c.Phase = -1.0
	cuts, err := Select([]float64{0.2, 0.5, 0.9}, 10, c)
	require.NoError(t, err)
	assert.Empty(t, cuts)
}

// --- Branch behavior ---

func TestSelect_StrictStopsWhenGraceWindowEmpty(t *testing.T) {
	// The gap from 2.0 to 9.0 cannot be bridged even with grace.
	beats := []float64{2.0, 9.0}
	c := strictWindow()
	c.Grace = 0.5
	cuts, err := SelectDetailed(beats, 20, c)
	require.NoError(t, err)
	require.Len(t, cuts, 1)
	assert.Equal(t, BranchWindow, cuts[0].Branch)
}

func TestSelect_StrictGraceWidensWindow(t *testing.T) {
	beats := []float64{1.2, 3.0}
	c := strictWindow()
	c.Grace = 0.3
	cuts, err := SelectDetailed(beats, 10, c)
	require.NoError(t, err)
	require.NotEmpty(t, cuts)
	assert.InDelta(t, 1.2, cuts[0].Time, tol)
	assert.Equal(t, BranchGrace, cuts[0].Branch)
}

func TestSelect_NonStrictNearestMayLeaveWindow(t *testing.T) {
	// Nothing lands in [1.4, 2.6]; the nearest beat to the clamped target is
	// 4.0, which is outside the window. This is kept as documented behavior.
	beats := []float64{4.0, 6.0}
	c := Constraints{PeriodMin: 1.4, PeriodMax: 2.6, TargetPeriod: 2.0}
	cuts, err := SelectDetailed(beats, 10, c)
	require.NoError(t, err)
	require.NotEmpty(t, cuts)
	assert.InDelta(t, 4.0, cuts[0].Time, tol)
	assert.Equal(t, BranchNearest, cuts[0].Branch)
}

func TestSelect_TieGoesToEarlierBeat(t *testing.T) {
	// 1.5 and 2.5 are both 0.5 from the 2.0 target.
	cuts, err := Select([]float64{1.5, 2.5}, 10, strictWindow())
	require.NoError(t, err)
	require.NotEmpty(t, cuts)
	assert.InDelta(t, 1.5, cuts[0], tol)
}

func TestSelect_ShortTrackProducesNothing(t *testing.T) {
	cuts, err := Select([]float64{0.5, 1.0, 1.5}, 1.0, strictWindow())
	require.NoError(t, err)
	assert.Empty(t, cuts)
}

func TestSelect_TargetClampedToPeriodMin(t *testing.T) {
	c := Constraints{PeriodMin: 2.0, PeriodMax: 3.0, TargetPeriod: 0.1, Strict: true}
	cuts, err := Select([]float64{2.0, 2.9}, 10, c)
	require.NoError(t, err)
	require.NotEmpty(t, cuts)
	assert.InDelta(t, 2.0, cuts[0], tol)
}

// --- Properties over generated grids ---

func TestSelect_Properties(t *testing.T) {
	configs := []struct {
		name string
		c    Constraints
	}{
		{"strict", Constraints{PeriodMin: 1.4, PeriodMax: 2.6, TargetPeriod: 2.0, Strict: true, Grace: 0.3}},
		{"loose", Constraints{PeriodMin: 1.0, PeriodMax: 3.0, TargetPeriod: 1.5}},
		{"min gap", Constraints{PeriodMin: 0.5, PeriodMax: 1.5, TargetPeriod: 1.0, MinCutGap: 1.2}},
		{"phase", Constraints{PeriodMin: 2.0, PeriodMax: 4.0, TargetPeriod: 3.0, Phase: -0.03}},
		{"wide grace", Constraints{PeriodMin: 0.8, PeriodMax: 1.0, TargetPeriod: 0.9, Strict: true, Grace: 2.0}},
	}
	for _, tc := range configs {
		t.Run(tc.name, func(t *testing.T) {
			for seed := int64(1); seed <= 25; seed++ {
				beats := randomBeats(seed, 120)
				end := beats[len(beats)-1]

				first, err := SelectDetailed(beats, end, tc.c)
				require.NoError(t, err)
				again, err := SelectDetailed(beats, end, tc.c)
				require.NoError(t, err)
				assert.Equal(t, first, again, "selection must be deterministic")

				prev := 0.0
				for i, cut := range first {
					assert.Greater(t, cut.Time, prev, "seed %d cut %d not ascending", seed, i)
					assert.LessOrEqual(t, cut.Time, end)
					if i > 0 {
						assert.GreaterOrEqual(t, cut.Time-prev, tc.c.MinCutGap-tol, "seed %d cut %d", seed, i)
					}
					prev = cut.Time
				}
			}
		})
	}
}

func TestSelect_WindowContainmentWithoutGapPressure(t *testing.T) {
	c := Constraints{PeriodMin: 1.4, PeriodMax: 2.6, TargetPeriod: 2.0}
	for seed := int64(1); seed <= 25; seed++ {
		beats := randomBeats(seed, 150)
		cuts, err := SelectDetailed(beats, beats[len(beats)-1], c)
		require.NoError(t, err)

		prev := 0.0
		for i, cut := range cuts {
			if cut.Branch == BranchWindow {
				gap := cut.Time - prev
				assert.GreaterOrEqual(t, gap, c.PeriodMin-tol, "seed %d cut %d", seed, i)
				assert.LessOrEqual(t, gap, c.PeriodMax+tol, "seed %d cut %d", seed, i)
			}
			prev = cut.Time
		}
	}
}

func TestSelect_DenseGridTerminates(t *testing.T) {
	beats := make([]float64, 0, 5000)
	for i := 1; i <= 5000; i++ {
		beats = append(beats, float64(i)*0.01)
	}
	c := Constraints{PeriodMin: 0.05, PeriodMax: 0.1, TargetPeriod: 0.07, MinCutGap: 5}
	cuts, err := Select(beats, 50, c)
	require.NoError(t, err)
	for i := 1; i < len(cuts); i++ {
		assert.GreaterOrEqual(t, cuts[i]-cuts[i-1], 5-tol)
	}
}

func TestSelect_HugeAudioEnd(t *testing.T) {
	c := Constraints{PeriodMin: 1, PeriodMax: 2, TargetPeriod: 1.5}
	var cuts []float64
	var err error
	require.NotPanics(t, func() { cuts, err = Select([]float64{1.5, 3.0}, 1e19, c) })
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 3.0}, cuts)
}

func TestSelect_StopsAfterLastBeat(t *testing.T) {
	c := Constraints{PeriodMin: 1e-3, PeriodMax: 2e-3, TargetPeriod: 1.5e-3}
	cuts, err := Select([]float64{0.0015}, math.MaxFloat64, c)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.0015}, cuts)
}

func TestSelect_UnsortedBeatsMatchSorted(t *testing.T) {
	sorted := randomBeats(11, 60)
	shuffled := append([]float64(nil), sorted...)
	rand.New(rand.NewSource(3)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	c := strictWindow()
	c.Strict = false
	want, err := Select(sorted, 40, c)
	require.NoError(t, err)
	got, err := Select(shuffled, 40, c)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NotEmpty(t, got)
}

// --- Validation ---

func TestConstraints_Validate(t *testing.T) {
	tests := []struct {
		name    string
		c       Constraints
		wantErr bool
	}{
		{"valid", strictWindow(), false},
		{"equal periods", Constraints{PeriodMin: 2, PeriodMax: 2, TargetPeriod: 2}, false},
		{"min above max", Constraints{PeriodMin: 3, PeriodMax: 2}, true},
		{"zero min", Constraints{PeriodMin: 0, PeriodMax: 2}, true},
		{"negative grace", Constraints{PeriodMin: 1, PeriodMax: 2, Grace: -1}, true},
		{"negative gap", Constraints{PeriodMin: 1, PeriodMax: 2, MinCutGap: -0.1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.c.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidConstraints), "got %v", err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSelect_RejectsNegativeAudioEnd(t *testing.T) {
	_, err := Select([]float64{1, 2}, -1, strictWindow())
	assert.ErrorIs(t, err, ErrInvalidConstraints)
}

// --- AllBeats ---

func TestAllBeats(t *testing.T) {
	got := AllBeats([]float64{0.0, 0.5, 0.5, 1.0, 2.0, 3.0}, 2.0, 0)
	assert.Equal(t, []float64{0.5, 1.0, 2.0}, got)
}

func TestAllBeats_Unsorted(t *testing.T) {
	got := AllBeats([]float64{2.0, 0.5, 1.0}, 5, 0)
	assert.Equal(t, []float64{0.5, 1.0, 2.0}, got)
}

func TestAllBeats_Phase(t *testing.T) {
	got := AllBeats([]float64{0.02, 1.0, 2.0}, 5, -0.03)
	assert.InDeltaSlice(t, []float64{0.97, 1.97}, got, tol)
}

func TestBranchString(t *testing.T) {
	assert.Equal(t, "window", BranchWindow.String())
	assert.Equal(t, "grace", BranchGrace.String())
	assert.Equal(t, "nearest", BranchNearest.String())
}
