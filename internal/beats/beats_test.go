package beats

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupe(t *testing.T) {
	tests := []struct {
		name   string
		in     []float64
		minGap float64
		want   []float64
	}{
		{"sorted and spaced", []float64{0.5, 1.0, 1.5}, 0.12, []float64{0.5, 1.0, 1.5}},
		{"unsorted", []float64{1.5, 0.5, 1.0}, 0.12, []float64{0.5, 1.0, 1.5}},
		{"double trigger merged", []float64{1.0, 1.05, 1.5}, 0.12, []float64{1.0, 1.5}},
		{"duplicates", []float64{2, 2, 2}, 0.12, []float64{2}},
		{"negatives dropped", []float64{-0.2, 0, 0.4}, 0.12, []float64{0, 0.4}},
		{"non-finite dropped", []float64{math.NaN(), 1, math.Inf(1)}, 0.12, []float64{1}},
		{"zero gap keeps near beats", []float64{1.0, 1.01}, 0, []float64{1.0, 1.01}},
		{"chain measured from kept beat", []float64{1.0, 1.1, 1.2, 1.3}, 0.12, []float64{1.0, 1.2}},
		{"empty", nil, 0.12, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Dedupe(tt.in, tt.minGap)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseText(t *testing.T) {
	in := "# aubio beats\n0.464399\n\n0.951247  extra\nnot-a-number\n1.439637\n"
	got, err := ParseText(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.464399, 0.951247, 1.439637}, got)
}

func TestParse_SniffsFormat(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []float64
	}{
		{"bare array", `[0.5, 1.0]`, []float64{0.5, 1.0}},
		{"object", `  {"beats": [2.5, 3]}`, []float64{2.5, 3}},
		{"text", "1\n2\n", []float64{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Parse([]byte(`{"beats": "x"}`))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "beats.txt")
	require.NoError(t, os.WriteFile(path, []byte("1.0\n0.5\n1.05\n"), 0o644))

	got, err := LoadFile(path, DefaultMinGap)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1.0}, got)

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("# nothing\n"), 0o644))
	_, err = LoadFile(empty, DefaultMinGap)
	assert.ErrorIs(t, err, ErrNoBeats)

	_, err = LoadFile(filepath.Join(dir, "missing.txt"), DefaultMinGap)
	assert.Error(t, err)
}

func TestWriteText_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, []float64{0.5, 1.25}))
	assert.Equal(t, "0.500000\n1.250000\n", buf.String())

	got, err := ParseText(&buf)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 1.25}, got)
}
