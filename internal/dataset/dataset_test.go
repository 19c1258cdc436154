package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineSeries_Parameter(t *testing.T) {
	s := &LineSeries{
		Datetime: []float64{0, 1000},
		Parameters: map[string][]float64{
			"LAeq": {50, 60},
			"LAF":  {51, 61},
			"LCeq": {70, 80},
		},
	}

	t.Run("direct hit", func(t *testing.T) {
		vals, used := s.Parameter("LCeq")
		assert.Equal(t, []float64{70, 80}, vals)
		assert.Equal(t, "LCeq", used)
	})

	t.Run("falls back through known broadband parameters", func(t *testing.T) {
		vals, used := s.Parameter("LAFmax")
		assert.Equal(t, []float64{50, 60}, vals)
		assert.Equal(t, "LAeq", used)
	})

	t.Run("empty sequences are skipped", func(t *testing.T) {
		s2 := &LineSeries{Parameters: map[string][]float64{
			"LAeq": {},
			"LAF":  {55},
		}}
		vals, used := s2.Parameter("LAeq")
		assert.Equal(t, []float64{55}, vals)
		assert.Equal(t, "LAF", used)
	})

	t.Run("nothing available", func(t *testing.T) {
		s3 := &LineSeries{}
		vals, used := s3.Parameter("LAeq")
		assert.Nil(t, vals)
		assert.Empty(t, used)
	})
}

func TestSpectral_BandAndColumn(t *testing.T) {
	// 2 bands x 3 times, row-major.
	sp := &Spectral{
		TimesMs:         []float64{0, 1000, 2000},
		NFreqs:          2,
		NTimes:          3,
		Levels:          []float64{10, 11, 12, 20, 21, 22},
		FrequencyLabels: []string{"63 Hz", "125 Hz"},
	}

	assert.Equal(t, []float64{11, 12}, sp.Band(0, 1, 2))
	assert.Equal(t, []float64{20, 21, 22}, sp.Band(1, 0, 2))
	assert.Nil(t, sp.Band(2, 0, 2))
	assert.Nil(t, sp.Band(0, 2, 1))

	assert.Equal(t, []float64{11, 21}, sp.Column(1))
	assert.Nil(t, sp.Column(3))
}

func TestSpectral_TimeRange(t *testing.T) {
	sp := &Spectral{TimesMs: []float64{0, 1000, 2000, 3000}, NTimes: 4, NFreqs: 1, Levels: []float64{1, 2, 3, 4}}

	t.Run("inclusive bounds", func(t *testing.T) {
		lo, hi, ok := sp.TimeRange(1000, 3000)
		require.True(t, ok)
		assert.Equal(t, 1, lo)
		assert.Equal(t, 3, hi)
	})

	t.Run("order independent", func(t *testing.T) {
		lo, hi, ok := sp.TimeRange(3000, 1000)
		require.True(t, ok)
		assert.Equal(t, 1, lo)
		assert.Equal(t, 3, hi)
	})

	t.Run("between samples", func(t *testing.T) {
		lo, hi, ok := sp.TimeRange(500, 2500)
		require.True(t, ok)
		assert.Equal(t, 1, lo)
		assert.Equal(t, 2, hi)
	})

	t.Run("no sample in window", func(t *testing.T) {
		_, _, ok := sp.TimeRange(3500, 4000)
		assert.False(t, ok)
		_, _, ok = sp.TimeRange(100, 900)
		assert.False(t, ok)
	})
}

func TestLastIndexAtOrBefore(t *testing.T) {
	ts := []float64{0, 1000, 2000}

	assert.Equal(t, 0, LastIndexAtOrBefore(ts, 0))
	assert.Equal(t, 0, LastIndexAtOrBefore(ts, 999))
	assert.Equal(t, 1, LastIndexAtOrBefore(ts, 1000))
	assert.Equal(t, 2, LastIndexAtOrBefore(ts, 5000))
	assert.Equal(t, -1, LastIndexAtOrBefore(ts, -1))
	assert.Equal(t, -1, LastIndexAtOrBefore(nil, 0))
}

func TestCache(t *testing.T) {
	cache := NewCache(map[string]*PositionData{
		"P2": {},
		"P1": {},
	})

	t.Run("position lookup", func(t *testing.T) {
		pd, err := cache.Position("P1")
		require.NoError(t, err)
		assert.NotNil(t, pd)

		_, err = cache.Position("P9")
		assert.ErrorIs(t, err, ErrPositionNotFound)
	})

	t.Run("sorted ids", func(t *testing.T) {
		assert.Equal(t, []string{"P1", "P2"}, cache.Positions())
	})
}

func TestLoad(t *testing.T) {
	t.Run("valid document", func(t *testing.T) {
		doc := `{
			"P1": {
				"log": {"Datetime": [0, 1000], "parameters": {"LAeq": [50, 60]}},
				"spectral": {"times_ms": [0], "n_freqs": 1, "n_times": 1, "levels": [42], "frequency_labels": ["63 Hz"]}
			}
		}`
		cache, err := Load(strings.NewReader(doc))
		require.NoError(t, err)

		pd, err := cache.Position("P1")
		require.NoError(t, err)
		assert.Equal(t, 2, pd.Log.Len())
		assert.Equal(t, []string{"63 Hz"}, pd.Spectral.FrequencyLabels)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		_, err := Load(strings.NewReader("{not json"))
		assert.Error(t, err)
	})
}
