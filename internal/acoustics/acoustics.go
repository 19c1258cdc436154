// Package acoustics provides the pure numeric functions used for standardized
// noise-level statistics: energy-averaged level (LAeq), maximum level (LAFmax),
// interpolated percentile level (LA90), time-window slicing and per-band
// spectral averaging. All functions operate on decibel values and have no
// dependency on the rest of the module.
package acoustics

import (
	"math"
	"sort"
)

// energyFloor is the numerical floor for total linear energy. Averages at or
// below this are treated as undefined instead of feeding log10 a zero.
const energyFloor = 1e-12

// DefaultExceedance is the standard environmental-noise exceedance fraction
// for percentile levels (LA90: the level exceeded 90% of the time).
const DefaultExceedance = 0.90

// EnergyMeanLevel computes the energy-averaged decibel level of values.
// Each value is converted to linear energy (10^(v/10)), the energies are
// averaged, and the mean is converted back (10*log10(mean)). Non-finite
// values are dropped, not zeroed. Returns nil when no finite value remains
// or the mean energy is at or below the numerical floor.
func EnergyMeanLevel(values []float64) *float64 {
	var sum float64
	var n int
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		sum += math.Pow(10, v/10)
		n++
	}
	if n == 0 {
		return nil
	}
	mean := sum / float64(n)
	if mean <= energyFloor {
		return nil
	}
	level := 10 * math.Log10(mean)
	return &level
}

// MaxLevel returns the highest finite decibel value, or nil when there is none.
func MaxLevel(values []float64) *float64 {
	var max float64
	var found bool
	for _, v := range values {
		if !isFinite(v) {
			continue
		}
		if !found || v > max {
			max = v
			found = true
		}
	}
	if !found {
		return nil
	}
	return &max
}

// PercentileLevel returns the level exceeded for the given fraction of the
// time. With the default exceedance of 0.90 this is the LA90 convention:
// the values are sorted ascending and the result is linearly interpolated at
// rank position (1-exceedance)*(n-1), i.e. the 10th percentile from the
// bottom. Non-finite values are dropped. Returns nil on empty input.
func PercentileLevel(values []float64, exceedance float64) *float64 {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if isFinite(v) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return nil
	}
	sort.Float64s(finite)

	rank := (1 - exceedance) * float64(len(finite)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		lo = 0
	}
	if hi > len(finite)-1 {
		hi = len(finite) - 1
	}
	if lo == hi {
		v := finite[lo]
		return &v
	}
	frac := rank - float64(lo)
	v := finite[lo] + (finite[hi]-finite[lo])*frac
	return &v
}

// WindowSlice returns the values whose paired timestamp falls inside the
// closed interval [min(startMs,endMs), max(startMs,endMs)]. The two slices
// are paired by index and truncated to the shorter length; pairs with a
// non-finite timestamp or value are skipped.
func WindowSlice(timestamps, values []float64, startMs, endMs float64) []float64 {
	lo, hi := startMs, endMs
	if lo > hi {
		lo, hi = hi, lo
	}

	n := len(timestamps)
	if len(values) < n {
		n = len(values)
	}

	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		t, v := timestamps[i], values[i]
		if !isFinite(t) || !isFinite(v) {
			continue
		}
		if t >= lo && t <= hi {
			out = append(out, v)
		}
	}
	return out
}

// AverageSpectrum applies EnergyMeanLevel to every band of a spectral matrix
// indexed [band][time]. Empty or all-non-finite bands yield a nil entry.
func AverageSpectrum(matrix [][]float64) []*float64 {
	out := make([]*float64, len(matrix))
	for i, band := range matrix {
		out[i] = EnergyMeanLevel(band)
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
