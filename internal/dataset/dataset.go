// Package dataset provides the read-only cache of prepared measurement data
// the annotation core consumes: per measurement position, one or more decibel
// line series aligned on epoch-millisecond timestamps, and a pre-aggregated
// spectral matrix. The cache is populated externally (typically from a JSON
// file at startup) and never written by the core.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Static errors for dataset operations.
var (
	// ErrPositionNotFound is returned when a position id is not in the cache.
	ErrPositionNotFound = errors.New("dataset: position not found")
)

// BroadbandFallback is the ordered sequence of broadband parameters tried
// when the requested parameter is absent or empty for a series.
var BroadbandFallback = []string{"LAeq", "LAF", "LZeq"}

// LineSeries is a time-aligned set of decibel parameter sequences. Datetime
// holds epoch milliseconds in ascending order; every parameter sequence is
// paired with Datetime by index.
type LineSeries struct {
	Datetime   []float64            `json:"Datetime"`
	Parameters map[string][]float64 `json:"parameters"`
}

// Len returns the number of samples in the series.
func (s *LineSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Datetime)
}

// Parameter returns the named sequence, falling back through the requested
// parameter and then BroadbandFallback until a non-empty sequence is found.
// The second return is the parameter that was actually used.
func (s *LineSeries) Parameter(name string) ([]float64, string) {
	if s == nil {
		return nil, ""
	}
	if vals, ok := s.Parameters[name]; ok && len(vals) > 0 {
		return vals, name
	}
	for _, fb := range BroadbandFallback {
		if fb == name {
			continue
		}
		if vals, ok := s.Parameters[fb]; ok && len(vals) > 0 {
			return vals, fb
		}
	}
	return nil, ""
}

// Spectral is a pre-aggregated spectral matrix: NFreqs bands by NTimes
// columns, flattened row-major as Levels[band*NTimes+time]. TimesMs holds
// the epoch-millisecond timestamp of each column in ascending order.
type Spectral struct {
	TimesMs         []float64 `json:"times_ms"`
	NFreqs          int       `json:"n_freqs"`
	NTimes          int       `json:"n_times"`
	Levels          []float64 `json:"levels"`
	FrequencyLabels []string  `json:"frequency_labels"`
}

// Band returns band b restricted to column indexes [lo, hi]. Out-of-range
// or inverted bounds yield an empty slice.
func (sp *Spectral) Band(b, lo, hi int) []float64 {
	if sp == nil || b < 0 || b >= sp.NFreqs {
		return nil
	}
	if lo < 0 {
		lo = 0
	}
	if hi > sp.NTimes-1 {
		hi = sp.NTimes - 1
	}
	if lo > hi {
		return nil
	}
	start := b*sp.NTimes + lo
	end := b*sp.NTimes + hi + 1
	if end > len(sp.Levels) {
		return nil
	}
	return sp.Levels[start:end]
}

// Column returns the full spectrum at column index t, one value per band.
func (sp *Spectral) Column(t int) []float64 {
	if sp == nil || t < 0 || t >= sp.NTimes {
		return nil
	}
	out := make([]float64, sp.NFreqs)
	for b := 0; b < sp.NFreqs; b++ {
		idx := b*sp.NTimes + t
		if idx < len(sp.Levels) {
			out[b] = sp.Levels[idx]
		} else {
			out[b] = math.NaN()
		}
	}
	return out
}

// TimeRange returns the column index range [lo, hi] whose timestamps fall
// inside the closed interval [min(startMs,endMs), max(startMs,endMs)].
// ok is false when no column falls inside the window.
func (sp *Spectral) TimeRange(startMs, endMs float64) (lo, hi int, ok bool) {
	if sp == nil || len(sp.TimesMs) == 0 {
		return 0, 0, false
	}
	if startMs > endMs {
		startMs, endMs = endMs, startMs
	}
	lo = sort.SearchFloat64s(sp.TimesMs, startMs)
	hi = sort.SearchFloat64s(sp.TimesMs, endMs)
	// hi is the first index strictly greater than endMs unless endMs is an
	// exact sample; make the interval inclusive at the upper bound.
	if hi == len(sp.TimesMs) || sp.TimesMs[hi] > endMs {
		hi--
	}
	if lo > hi {
		return 0, 0, false
	}
	return lo, hi, true
}

// PositionData bundles everything the cache holds for one measurement
// position: a high-resolution ("log") series, a lower-resolution
// ("overview") series and an optional spectral matrix.
type PositionData struct {
	Log      *LineSeries `json:"log"`
	Overview *LineSeries `json:"overview"`
	Spectral *Spectral   `json:"spectral"`
}

// Cache is the read-only prepared data cache keyed by position id.
type Cache struct {
	positions map[string]*PositionData
}

// NewCache creates a cache from externally prepared position data.
// The map is used as-is; callers must not mutate it afterwards.
func NewCache(positions map[string]*PositionData) *Cache {
	if positions == nil {
		positions = make(map[string]*PositionData)
	}
	return &Cache{positions: positions}
}

// Position returns the data for a position id.
func (c *Cache) Position(id string) (*PositionData, error) {
	pd, ok := c.positions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPositionNotFound, id)
	}
	return pd, nil
}

// Positions returns all known position ids in sorted order.
func (c *Cache) Positions() []string {
	ids := make([]string, 0, len(c.positions))
	for id := range c.positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// LastIndexAtOrBefore returns the index of the last timestamp at or before
// ts in an ascending sequence, or -1 when every timestamp is after ts.
func LastIndexAtOrBefore(timestamps []float64, ts float64) int {
	// First index strictly greater than ts; the sample before it is ours.
	i := sort.Search(len(timestamps), func(i int) bool {
		return timestamps[i] > ts
	})
	return i - 1
}
