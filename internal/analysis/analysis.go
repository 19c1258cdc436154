// Package analysis computes metrics snapshots for markers and regions from
// the prepared data cache. It owns the dataset-resolution policy: a region
// prefers the high-resolution "log" series, falls back to the "overview"
// series, and degrades to an all-null snapshot when neither has in-window
// samples. The percentile level (LA90) is only computed from log data.
package analysis

import (
	"log/slog"

	"github.com/acoustio/noisedesk/internal/acoustics"
	"github.com/acoustio/noisedesk/internal/dataset"
	"github.com/acoustio/noisedesk/internal/state"
)

// DefaultParameter is the broadband parameter used when none is requested.
const DefaultParameter = "LAeq"

// Engine computes metrics snapshots against a prepared data cache.
type Engine struct {
	data   *dataset.Cache
	logger *slog.Logger
}

// NewEngine creates an analysis engine over the given data cache.
func NewEngine(data *dataset.Cache, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{data: data, logger: logger}
}

// RegionMetrics computes the metrics snapshot for a region using the
// requested broadband parameter. The region's sub-areas are evaluated
// together: samples from every sub-area window are pooled before averaging.
func (e *Engine) RegionMetrics(region state.Region, parameter string) *state.RegionMetrics {
	if parameter == "" {
		parameter = DefaultParameter
	}
	out := &state.RegionMetrics{
		DataResolution: state.ResolutionNone,
		DurationMs:     region.End - region.Start,
		Parameter:      parameter,
	}

	pd, err := e.data.Position(region.PositionID)
	if err != nil {
		e.logger.Warn("region metrics: position missing from data cache",
			slog.Int64("region_id", region.ID),
			slog.String("position_id", region.PositionID),
		)
		out.Spectrum = zeroSpectrum(nil)
		return out
	}

	series, resolution := e.pickSeries(pd, region)
	out.DataResolution = resolution

	if series != nil {
		values, _ := series.Parameter(parameter)
		pooled := poolAreas(series.Datetime, values, region)
		out.LAeq = acoustics.EnergyMeanLevel(pooled)
		out.LAFMax = e.maxLevel(series, region, parameter)
		if resolution == state.ResolutionLog {
			out.LA90 = acoustics.PercentileLevel(pooled, acoustics.DefaultExceedance)
			out.LA90Available = out.LA90 != nil
		}
	}

	out.Spectrum = e.regionSpectrum(pd.Spectral, region)
	return out
}

// pickSeries applies the resolution policy: log wins when it has at least
// one in-window sample, otherwise overview, otherwise none.
func (e *Engine) pickSeries(pd *dataset.PositionData, region state.Region) (*dataset.LineSeries, state.Resolution) {
	if hasInWindowSample(pd.Log, region) {
		return pd.Log, state.ResolutionLog
	}
	if hasInWindowSample(pd.Overview, region) {
		return pd.Overview, state.ResolutionOverview
	}
	return nil, state.ResolutionNone
}

func hasInWindowSample(s *dataset.LineSeries, region state.Region) bool {
	if s.Len() == 0 {
		return false
	}
	for _, a := range region.AreaList() {
		lo := dataset.LastIndexAtOrBefore(s.Datetime, a.End)
		if lo >= 0 && s.Datetime[lo] >= a.Start {
			return true
		}
	}
	return false
}

// maxLevel uses a distinct LAFmax sequence when the series carries one,
// falling back to the broadband parameter otherwise.
func (e *Engine) maxLevel(series *dataset.LineSeries, region state.Region, parameter string) *float64 {
	values := series.Parameters["LAFmax"]
	if len(values) == 0 {
		values, _ = series.Parameter(parameter)
	}
	return acoustics.MaxLevel(poolAreas(series.Datetime, values, region))
}

// poolAreas gathers the values inside every sub-area window of the region.
func poolAreas(timestamps, values []float64, region state.Region) []float64 {
	var pooled []float64
	for _, a := range region.AreaList() {
		pooled = append(pooled, acoustics.WindowSlice(timestamps, values, a.Start, a.End)...)
	}
	return pooled
}

// regionSpectrum averages each band of the spectral matrix over the region
// window. Without in-window spectral columns the result is a zero-filled
// spectrum so consumers always see one value per labelled band.
func (e *Engine) regionSpectrum(sp *dataset.Spectral, region state.Region) state.Spectrum {
	if sp == nil {
		return zeroSpectrum(nil)
	}
	lo, hi, ok := sp.TimeRange(region.Start, region.End)
	if !ok {
		return zeroSpectrum(sp.FrequencyLabels)
	}

	matrix := make([][]float64, sp.NFreqs)
	for b := 0; b < sp.NFreqs; b++ {
		matrix[b] = sp.Band(b, lo, hi)
	}
	return state.Spectrum{
		Labels: append([]string(nil), sp.FrequencyLabels...),
		Values: acoustics.AverageSpectrum(matrix),
	}
}

func zeroSpectrum(labels []string) state.Spectrum {
	zero := 0.0
	values := make([]*float64, len(labels))
	for i := range values {
		v := zero
		values[i] = &v
	}
	return state.Spectrum{
		Labels: append([]string(nil), labels...),
		Values: values,
	}
}

// MarkerMetrics computes the per-position snapshot for a marker timestamp:
// for every available position, the last broadband sample at or before the
// timestamp (with parameter fallback) and the spectral column there.
func (e *Engine) MarkerMetrics(timestamp float64, parameter string) *state.MarkerMetrics {
	if parameter == "" {
		parameter = DefaultParameter
	}
	out := &state.MarkerMetrics{
		Parameter: parameter,
		Positions: make(map[string]state.PositionMetrics),
	}

	for _, id := range e.data.Positions() {
		pd, err := e.data.Position(id)
		if err != nil {
			continue
		}
		pm := state.PositionMetrics{Parameter: parameter}

		series := pd.Log
		if series.Len() == 0 {
			series = pd.Overview
		}
		if series.Len() > 0 {
			values, used := series.Parameter(parameter)
			idx := dataset.LastIndexAtOrBefore(series.Datetime, timestamp)
			if idx >= 0 && idx < len(values) {
				v := values[idx]
				pm.Broadband = &v
				pm.Parameter = used
			}
		}

		if pd.Spectral != nil && len(pd.Spectral.TimesMs) > 0 {
			col := dataset.LastIndexAtOrBefore(pd.Spectral.TimesMs, timestamp)
			if col >= 0 {
				values := pd.Spectral.Column(col)
				snapshot := state.Spectrum{
					Labels: append([]string(nil), pd.Spectral.FrequencyLabels...),
					Values: make([]*float64, len(values)),
				}
				for i := range values {
					v := values[i]
					snapshot.Values[i] = &v
				}
				pm.Spectrum = &snapshot
			}
		}

		out.Positions[id] = pm
	}
	return out
}
