package timeline

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Helpers ---

func testConfig() Config {
	return Config{
		FPS:                    25,
		TransitionDuration:     0.6,
		MinEffectiveTransition: 0.25,
		Margin:                 DefaultMargin,
		Align:                  AlignMidpoint,
		Quantize:               QuantizeNearest,
		FallbackStyle:          EffectNone,
		FallbackDuration:       0.06,
		TailDuration:           TailFor(7.5),
	}
}

func shortConfig() Config {
	cfg := testConfig()
	cfg.FPS = 30
	cfg.TransitionDuration = 0.4
	return cfg
}

// --- Quantization ---

func TestQuantizeFrames(t *testing.T) {
	tests := []struct {
		name   string
		d      float64
		fps    int
		policy Quantize
		want   int
	}{
		{"nearest rounds half up", 1.5, 1, QuantizeNearest, 2},
		{"floor truncates", 1.5, 1, QuantizeFloor, 1},
		{"ceil rounds up", 1.5, 1, QuantizeCeil, 2},
		{"nearest exact", 0.3, 30, QuantizeNearest, 9},
		{"floor absorbs float noise", 0.12, 25, QuantizeFloor, 3},
		{"ceil absorbs float noise", 0.08, 25, QuantizeCeil, 2},
		{"ceil partial frame", 0.041, 25, QuantizeCeil, 2},
		{"minimum one frame", 0.001, 25, QuantizeNearest, 1},
		{"zero becomes one frame", 0, 25, QuantizeFloor, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuantizeFrames(tt.d, tt.fps, tt.policy))
		})
	}
}

func TestQuantizeDuration_Idempotent(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for _, policy := range []Quantize{QuantizeNearest, QuantizeFloor, QuantizeCeil} {
		for _, fps := range []int{24, 25, 30, 60} {
			for i := 0; i < 200; i++ {
				d := r.Float64() * 12
				once := QuantizeDuration(d, fps, policy)
				twice := QuantizeDuration(once, fps, policy)
				require.Equal(t, once, twice, "policy=%s fps=%d d=%g", policy, fps, d)
			}
		}
	}
}

// --- Boundary classification ---

func TestClassifyBoundary(t *testing.T) {
	base := TransitionParams{
		Requested:        0.6,
		MinEffective:     0.25,
		Margin:           0.05,
		FPS:              25,
		Fallback:         EffectNone,
		FallbackDuration: 0.06,
	}

	t.Run("roomy neighbors keep requested length", func(t *testing.T) {
		d := ClassifyBoundary(2, 2, base)
		assert.Equal(t, KindCrossfade, d.Kind)
		assert.Equal(t, 15, d.Frames)
		assert.InDelta(t, 0.6, d.Duration, 1e-12)
	})

	t.Run("short neighbor clamps and floors to frames", func(t *testing.T) {
		d := ClassifyBoundary(0.5, 2, base)
		assert.Equal(t, KindCrossfade, d.Kind)
		assert.Equal(t, 11, d.Frames)
		assert.InDelta(t, 0.44, d.Duration, 1e-12)
		assert.Less(t, d.Duration, 0.5)
	})

	t.Run("no fps leaves clamped length unfloored", func(t *testing.T) {
		p := base
		p.FPS = 0
		d := ClassifyBoundary(0.5, 2, p)
		assert.Equal(t, KindCrossfade, d.Kind)
		assert.Equal(t, 0, d.Frames)
		assert.InDelta(t, 0.45, d.Duration, 1e-12)
	})

	t.Run("below minimum becomes hardcut", func(t *testing.T) {
		d := ClassifyBoundary(0.3, 0.2, base)
		assert.Equal(t, KindHardcut, d.Kind)
		assert.Zero(t, d.Duration)
		assert.Equal(t, EffectNone, d.Fallback)
	})

	t.Run("zero room becomes hardcut", func(t *testing.T) {
		p := base
		p.MinEffective = 0
		d := ClassifyBoundary(0.05, 2, p)
		assert.Equal(t, KindHardcut, d.Kind)
	})

	t.Run("hardcut carries fallback accent", func(t *testing.T) {
		p := base
		p.Fallback = EffectWhitePop
		d := ClassifyBoundary(0.3, 0.2, p)
		assert.Equal(t, KindHardcut, d.Kind)
		assert.Equal(t, EffectWhitePop, d.Fallback)
		assert.InDelta(t, 0.06, d.FallbackDuration, 1e-12)
	})

	t.Run("zero fallback duration drops the accent", func(t *testing.T) {
		p := base
		p.Fallback = EffectPulse
		p.FallbackDuration = 0
		d := ClassifyBoundary(0.3, 0.2, p)
		assert.Equal(t, EffectNone, d.Fallback)
	})

	t.Run("crossfade never carries an accent", func(t *testing.T) {
		p := base
		p.Fallback = EffectBloom
		d := ClassifyBoundary(2, 2, p)
		assert.Equal(t, KindCrossfade, d.Kind)
		assert.Equal(t, EffectNone, d.Fallback)
	})

	t.Run("minimum length is compared before flooring", func(t *testing.T) {
		tests := []struct {
			name      string
			requested float64
			fps       int
			frames    int
		}{
			{"requested equals minimum at 25fps", 0.25, 25, 6},
			{"requested equals minimum at 30fps", 0.25, 30, 7},
			{"just above minimum at 30fps", 0.26, 30, 7},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				p := base
				p.Requested = tt.requested
				p.FPS = tt.fps
				d := ClassifyBoundary(2, 2, p)
				require.Equal(t, KindCrossfade, d.Kind)
				assert.Equal(t, tt.frames, d.Frames)
				assert.InDelta(t, float64(tt.frames)/float64(tt.fps), d.Duration, 1e-12)
			})
		}
	})

	t.Run("sub-frame crossfade keeps one frame", func(t *testing.T) {
		p := base
		p.FPS = 2
		p.MinEffective = 0.1
		p.Requested = 0.3
		d := ClassifyBoundary(2, 2, p)
		require.Equal(t, KindCrossfade, d.Kind)
		assert.Equal(t, 1, d.Frames)
	})

	t.Run("forced hardcuts", func(t *testing.T) {
		p := base
		p.Hardcuts = true
		d := ClassifyBoundary(5, 5, p)
		assert.Equal(t, KindHardcut, d.Kind)
	})
}

// --- Planning ---

func TestPlan_EmptyCuts(t *testing.T) {
	p, err := Plan(nil, testConfig())
	require.NoError(t, err)
	assert.True(t, p.Empty())
	assert.Empty(t, p.Boundaries)
	assert.Zero(t, p.TotalFrames)
	assert.Zero(t, p.TotalDuration)
}

func TestPlanDurations_ShortMiddleSegmentForcesHardcuts(t *testing.T) {
	p, err := PlanDurations([]float64{0.30, 0.20, 0.30}, shortConfig())
	require.NoError(t, err)
	require.Len(t, p.Boundaries, 2)
	for _, b := range p.Boundaries {
		assert.Equal(t, KindHardcut, b.Kind, "boundary %d", b.Index)
		assert.Zero(t, b.Duration)
		assert.Zero(t, b.Frames)
	}
	assert.Equal(t, 24, p.TotalFrames)
	assert.InDelta(t, 0.8, p.TotalDuration, 1e-12)
	assert.InDelta(t, 0.3, p.Boundaries[0].OnBeat, 1e-12)
	assert.InDelta(t, 0.5, p.Boundaries[1].OnBeat, 1e-12)
}

func TestPlanDurations_MinimumLengthCrossfadesSurvive(t *testing.T) {
	cfg := testConfig()
	cfg.TransitionDuration = 0.25
	cfg.MinEffectiveTransition = 0.25

	rp, err := PlanDurations([]float64{1, 1, 1}, cfg)
	require.NoError(t, err)
	require.Len(t, rp.Boundaries, 2)
	for _, b := range rp.Boundaries {
		assert.Equal(t, KindCrossfade, b.Kind, "boundary %d", b.Index)
		assert.Equal(t, 6, b.Frames)
	}
	assert.Equal(t, 75-12, rp.TotalFrames)
}

func TestPlanDurations_FallbackAccentAtBoundary(t *testing.T) {
	cfg := shortConfig()
	cfg.FallbackStyle = EffectWhitePop
	p, err := PlanDurations([]float64{0.30, 0.20, 0.30}, cfg)
	require.NoError(t, err)
	require.Len(t, p.Boundaries, 2)
	assert.Equal(t, EffectWhitePop, p.Boundaries[0].Fallback)
	assert.InDelta(t, 0.3, p.Boundaries[0].FallbackStart, 1e-12)
	assert.InDelta(t, 0.5, p.Boundaries[1].FallbackStart, 1e-12)
	assert.InDelta(t, 0.06, p.Boundaries[1].FallbackDuration, 1e-12)
}

func TestPlanDurations_MidpointCrossfades(t *testing.T) {
	p, err := PlanDurations([]float64{2, 2, 2}, testConfig())
	require.NoError(t, err)
	require.Len(t, p.Boundaries, 2)

	b0, b1 := p.Boundaries[0], p.Boundaries[1]
	assert.Equal(t, KindCrossfade, b0.Kind)
	assert.Equal(t, 15, b0.Frames)
	assert.InDelta(t, 2.0, b0.OnBeat, 1e-12)
	assert.InDelta(t, 1.7, b0.Offset, 1e-12)
	assert.InDelta(t, 3.4, b1.OnBeat, 1e-12)
	assert.InDelta(t, 3.1, b1.Offset, 1e-12)

	assert.InDelta(t, 1.4, p.Segments[1].Start, 1e-12)
	assert.Equal(t, 120, p.TotalFrames)
	assert.InDelta(t, 4.8, p.TotalDuration, 1e-12)
}

func TestPlanDurations_EndAlignment(t *testing.T) {
	cfg := testConfig()
	cfg.Align = AlignEnd
	p, err := PlanDurations([]float64{2, 2, 2}, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 1.4, p.Boundaries[0].Offset, 1e-12)
	assert.InDelta(t, 2.8, p.Boundaries[1].Offset, 1e-12)
	assert.Equal(t, []float64{2.0, 3.4}, roundAll(p.OnBeatTimes()))
}

func TestPlan_FromCuts(t *testing.T) {
	p, err := Plan([]float64{2, 3.5, 5}, testConfig())
	require.NoError(t, err)
	require.Len(t, p.Segments, 4)
	require.Len(t, p.Boundaries, 3)

	want := []int{50, 38, 38, 94}
	for i, s := range p.Segments {
		assert.Equal(t, want[i], s.Frames, "segment %d", i)
		assert.Equal(t, i-1, s.In)
	}
	assert.Equal(t, -1, p.Segments[3].Out)
	assert.Equal(t, 3, p.Crossfades())
}

func TestPlan_SkipsNonIncreasingCuts(t *testing.T) {
	got := Durations([]float64{0, 1, 1, 0.5, 3}, 0.5)
	assert.Equal(t, []float64{1, 2, 0.5}, got)
}

func TestPlan_ForcedHardcuts(t *testing.T) {
	cfg := testConfig()
	cfg.Hardcuts = true
	p, err := Plan([]float64{2, 4, 6}, cfg)
	require.NoError(t, err)
	assert.Zero(t, p.Crossfades())

	sum := 0
	for _, s := range p.Segments {
		sum += s.Frames
	}
	assert.Equal(t, sum, p.TotalFrames)
}

func TestPlan_FrameSumConservation(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for _, policy := range []Quantize{QuantizeNearest, QuantizeFloor, QuantizeCeil} {
		for _, align := range []Align{AlignMidpoint, AlignEnd} {
			cfg := testConfig()
			cfg.Quantize = policy
			cfg.Align = align
			for trial := 0; trial < 50; trial++ {
				var cuts []float64
				at := 0.0
				for i := 0; i < 20; i++ {
					at += 0.1 + r.Float64()*3
					cuts = append(cuts, at)
				}

				p, err := Plan(cuts, cfg)
				require.NoError(t, err)

				segFrames, xfadeFrames := 0, 0
				for _, s := range p.Segments {
					segFrames += s.Frames
					require.GreaterOrEqual(t, s.Frames, 1)
					require.Equal(t, float64(s.Frames)/float64(cfg.FPS), s.Duration)
				}
				for _, b := range p.Boundaries {
					if b.Kind != KindCrossfade {
						require.Zero(t, b.Frames)
						continue
					}
					xfadeFrames += b.Frames
					prev, next := p.Segments[b.Index], p.Segments[b.Index+1]
					require.Less(t, b.Duration, prev.Duration)
					require.Less(t, b.Duration, next.Duration)
					require.GreaterOrEqual(t, b.Duration, cfg.MinEffectiveTransition-1e-9)
					require.GreaterOrEqual(t, b.Offset, 0.0)
					require.LessOrEqual(t, b.Offset, b.OnBeat)
				}
				require.Equal(t, segFrames-xfadeFrames, p.TotalFrames)
				require.Equal(t, float64(p.TotalFrames)/float64(cfg.FPS), p.TotalDuration)
			}
		}
	}
}

func TestPlan_Deterministic(t *testing.T) {
	cuts := []float64{1.1, 2.35, 4.0, 4.4, 7.9}
	cfg := testConfig()
	cfg.FallbackStyle = EffectBloom
	a, err := Plan(cuts, cfg)
	require.NoError(t, err)
	b, err := Plan(cuts, cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

// --- Config ---

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero fps", func(c *Config) { c.FPS = 0 }},
		{"negative transition", func(c *Config) { c.TransitionDuration = -1 }},
		{"negative margin", func(c *Config) { c.Margin = -0.01 }},
		{"unknown align", func(c *Config) { c.Align = "start" }},
		{"unknown quantize", func(c *Config) { c.Quantize = "bankers" }},
		{"unknown fallback", func(c *Config) { c.FallbackStyle = "sparkle" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.modify(&cfg)
			_, err := Plan([]float64{1, 2}, cfg)
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
	require.NoError(t, testConfig().Validate())
}

func TestPlanDurations_RejectsNegative(t *testing.T) {
	_, err := PlanDurations([]float64{1, -0.5}, testConfig())
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParseEffect(t *testing.T) {
	e, err := ParseEffect("blackflash")
	require.NoError(t, err)
	assert.Equal(t, EffectBlackFlash, e)

	e, err = ParseEffect("")
	require.NoError(t, err)
	assert.Equal(t, EffectNone, e)

	_, err = ParseEffect("glitter")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestTailFor(t *testing.T) {
	assert.InDelta(t, 3.75, TailFor(7.5), 1e-12)
	assert.InDelta(t, 0.2, TailFor(0.1), 1e-12)
}

func roundAll(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(int(x*1000+0.5)) / 1000
	}
	return out
}
