package zonalstats

import (
	"errors"
	"math"
)

// Statistic names a single named zonal statistic, replacing the obvious
// chain-of-string-comparisons dispatch with a closed tagged enum plus a
// method table, so an unrecognized name is caught once at parse time
// (ParseStatistic) rather than scattered across every query call site.
type Statistic int

const (
	Count Statistic = iota
	Sum
	Mean
	Min
	Max
	Variety
	Mode
	Minority
	WeightedCount
	WeightedSum
	WeightedMean
	WeightedFraction
)

var statisticNames = map[string]Statistic{
	"count":             Count,
	"sum":               Sum,
	"mean":              Mean,
	"min":               Min,
	"max":               Max,
	"variety":           Variety,
	"mode":              Mode,
	"minority":          Minority,
	"weighted_count":    WeightedCount,
	"weighted_sum":      WeightedSum,
	"weighted_mean":     WeightedMean,
	"weighted_fraction": WeightedFraction,
}

func (s Statistic) String() string {
	for name, v := range statisticNames {
		if v == s {
			return name
		}
	}
	return "unknown"
}

// ParseStatistic looks up a Statistic by its canonical name (see
// statisticNames), failing with UnknownStatistic otherwise.
func ParseStatistic(name string) (Statistic, error) {
	s, ok := statisticNames[name]
	if !ok {
		return 0, &Error{Kind: UnknownStatistic, Err: errf("unknown statistic %q", name)}
	}
	return s, nil
}

// needsFrequency reports whether s requires per-value frequency
// accounting (the freq/wfreq maps), so Accumulator can skip that
// bookkeeping entirely when only sums are requested.
func needsFrequency(stats []Statistic) bool {
	for _, s := range stats {
		switch s {
		case Variety, Mode, Minority, WeightedFraction:
			return true
		}
	}
	return false
}

// Accumulator ingests a stream of (coverage, value, weight) triples for
// one zone and answers queries for any Statistic, per spec.md §4.4. It
// holds O(1) running sums regardless of input size unless storeValues
// requires tracking a per-distinct-value frequency table.
type Accumulator struct {
	storeValues bool

	sumF   float64 // Σf
	sumFV  float64 // Σfv
	sumFW  float64 // Σfw
	sumFVW float64 // Σfvw

	haveExtreme bool
	min, max    float64

	freq  map[float64]float64 // value -> Σf
	wfreq map[float64]float64 // value -> Σfw
}

// NewAccumulator constructs an Accumulator. storeValues must be true iff
// any statistic to be queried later needs per-value accounting (Variety,
// Mode, Minority, WeightedFraction); see NeedsFrequency.
func NewAccumulator(storeValues bool) *Accumulator {
	a := &Accumulator{storeValues: storeValues}
	if storeValues {
		a.freq = make(map[float64]float64)
		a.wfreq = make(map[float64]float64)
	}
	return a
}

// NeedsFrequency reports whether any of stats requires the frequency
// table, for callers deciding the storeValues argument to NewAccumulator.
func NeedsFrequency(stats []Statistic) bool { return needsFrequency(stats) }

// isValid reports whether v is usable as a cell value (not NaN — the
// package's nodata convention for float rasters).
func isValid(v float64) bool { return !math.IsNaN(v) }

// Process folds one raster of (coverage, value) pairs into a, treating
// weight as 1 for every cell. coverage and values must share identical
// dimensions; callers combining rasters of different grids should
// reinterpret one through a RasterView first.
func (a *Accumulator) Process(coverage, values *Raster[float64]) {
	a.ProcessWeighted(coverage, values, nil)
}

// ProcessWeighted folds one raster of (coverage, value, weight) triples
// into a. weights may be nil, equivalent to a weight of 1 everywhere.
// Cells with zero coverage, nodata value, or nodata weight are skipped.
// A single call is additive: splitting a raster into tiles and calling
// ProcessWeighted once per tile yields identical running sums (to
// rounding) as one call over the union, per spec.md's additivity
// invariant.
func (a *Accumulator) ProcessWeighted(coverage, values, weights *Raster[float64]) {
	rows, cols := coverage.Rows(), coverage.Cols()
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			f := coverage.At(r, c)
			if f == 0 {
				continue
			}
			v := values.At(r, c)
			if !isValid(v) {
				continue
			}
			w := 1.0
			if weights != nil {
				w = weights.At(r, c)
				if !isValid(w) {
					continue
				}
			}

			a.sumF += f
			a.sumFV += f * v
			a.sumFW += f * w
			a.sumFVW += f * v * w

			if !a.haveExtreme {
				a.min, a.max = v, v
				a.haveExtreme = true
			} else {
				if v < a.min {
					a.min = v
				}
				if v > a.max {
					a.max = v
				}
			}

			if a.storeValues {
				a.freq[v] += f
				a.wfreq[v] += f * w
			}
		}
	}
}

// Query evaluates the named statistic against the accumulated state.
// Per spec.md §4.4, queries on an empty accumulator (count == 0) return
// NaN for sum/mean-like statistics; Min, Max, Mode, and Minority fail
// with NodataAllCells since they have no meaningful sentinel. Variety,
// Count, and WeightedCount return 0 on an empty accumulator, since 0 is
// itself a meaningful, non-sentinel answer for those.
func (a *Accumulator) Query(s Statistic) (float64, error) {
	switch s {
	case Count:
		return a.sumF, nil
	case Sum:
		if a.sumF == 0 {
			return math.NaN(), nil
		}
		return a.sumFV, nil
	case Mean:
		if a.sumF == 0 {
			return math.NaN(), nil
		}
		return a.sumFV / a.sumF, nil
	case Min:
		if !a.haveExtreme {
			return 0, &Error{Kind: NodataAllCells, Err: errf("min: no contributing cells")}
		}
		return a.min, nil
	case Max:
		if !a.haveExtreme {
			return 0, &Error{Kind: NodataAllCells, Err: errf("max: no contributing cells")}
		}
		return a.max, nil
	case Variety:
		return float64(a.variety()), nil
	case Mode:
		v, ok := a.extremeFreq(true)
		if !ok {
			return 0, &Error{Kind: NodataAllCells, Err: errf("mode: no contributing cells")}
		}
		return v, nil
	case Minority:
		v, ok := a.extremeFreq(false)
		if !ok {
			return 0, &Error{Kind: NodataAllCells, Err: errf("minority: no contributing cells")}
		}
		return v, nil
	case WeightedCount:
		return a.sumFW, nil
	case WeightedSum:
		if a.sumFW == 0 {
			return math.NaN(), nil
		}
		return a.sumFVW, nil
	case WeightedMean:
		if a.sumFW == 0 {
			return math.NaN(), nil
		}
		return a.sumFVW / a.sumFW, nil
	case WeightedFraction:
		if a.sumF == 0 {
			return math.NaN(), nil
		}
		return a.sumFW / a.sumF, nil
	default:
		return 0, &Error{Kind: UnknownStatistic, Err: errf("unknown statistic %v", s)}
	}
}

func (a *Accumulator) variety() int {
	n := 0
	for _, f := range a.freq {
		if f > 0 {
			n++
		}
	}
	return n
}

// extremeFreq finds the value with the maximum (mode=true) or minimum
// non-zero (mode=false, minority) frequency, breaking ties toward the
// smaller value.
func (a *Accumulator) extremeFreq(mode bool) (float64, bool) {
	best, bestFreq := 0.0, 0.0
	found := false
	for v, f := range a.freq {
		if f <= 0 {
			continue
		}
		switch {
		case !found:
			best, bestFreq, found = v, f, true
		case mode && (f > bestFreq || (f == bestFreq && v < best)):
			best, bestFreq = v, f
		case !mode && (f < bestFreq || (f == bestFreq && v < best)):
			best, bestFreq = v, f
		}
	}
	return best, found
}

// Results evaluates every statistic in stats and returns a name->value
// map, skipping (rather than failing the whole batch on) any statistic
// that returns NodataAllCells so that, e.g., a zone with cells but no
// frequency-table entries still reports its sums.
func (a *Accumulator) Results(stats []Statistic) (map[string]float64, error) {
	out := make(map[string]float64, len(stats))
	for _, s := range stats {
		v, err := a.Query(s)
		if err != nil {
			var zerr *Error
			if errors.As(err, &zerr) && zerr.Kind == NodataAllCells {
				continue
			}
			return nil, err
		}
		out[s.String()] = v
	}
	return out, nil
}
