package zonalstats

import (
	"math"
	"testing"
)

func TestParseStatistic(t *testing.T) {
	s, err := ParseStatistic("mean")
	if err != nil || s != Mean {
		t.Errorf("ParseStatistic(%q) = (%v, %v), want (Mean, nil)", "mean", s, err)
	}
	if _, err := ParseStatistic("bogus"); err == nil {
		t.Error("ParseStatistic of an unknown name should fail")
	} else if e, ok := err.(*Error); !ok || e.Kind != UnknownStatistic {
		t.Errorf("expected UnknownStatistic, got %v", err)
	}
}

func TestStatisticStringRoundTrip(t *testing.T) {
	for name, s := range statisticNames {
		if s.String() != name {
			t.Errorf("Statistic(%v).String() = %q, want %q", s, s.String(), name)
		}
	}
}

func TestNeedsFrequency(t *testing.T) {
	if NeedsFrequency([]Statistic{Mean, Sum}) {
		t.Error("Mean/Sum should not require the frequency table")
	}
	if !NeedsFrequency([]Statistic{Mean, Mode}) {
		t.Error("Mode should require the frequency table")
	}
	if !NeedsFrequency([]Statistic{Variety}) {
		t.Error("Variety should require the frequency table")
	}
	if !NeedsFrequency([]Statistic{WeightedFraction}) {
		t.Error("WeightedFraction should require the frequency table")
	}
}

func rasterOf(g *Grid, vals ...float64) *Raster[float64] {
	return NewRasterFrom[float64](g, vals)
}

func TestAccumulatorBasicStats(t *testing.T) {
	g, _ := NewGrid(Box{0, 0, 2, 2}, 1, 1)
	coverage := rasterOf(g, 1, 0.5, 1, 1)
	values := rasterOf(g, 10, 20, 30, 40)

	a := NewAccumulator(false)
	a.Process(coverage, values)

	if got, _ := a.Query(Count); got != 3.5 {
		t.Errorf("Count = %v, want 3.5", got)
	}
	if got, _ := a.Query(Sum); got != 1*10+0.5*20+1*30+1*40 {
		t.Errorf("Sum = %v, want %v", got, 1*10+0.5*20+1*30+1*40)
	}
	wantMean := (1*10 + 0.5*20 + 1*30 + 1*40) / 3.5
	if got, _ := a.Query(Mean); math.Abs(got-wantMean) > 1e-9 {
		t.Errorf("Mean = %v, want %v", got, wantMean)
	}
	if got, _ := a.Query(Min); got != 10 {
		t.Errorf("Min = %v, want 10", got)
	}
	if got, _ := a.Query(Max); got != 40 {
		t.Errorf("Max = %v, want 40", got)
	}
}

func TestAccumulatorSkipsZeroCoverageAndNodata(t *testing.T) {
	g, _ := NewGrid(Box{0, 0, 2, 1}, 1, 1)
	coverage := rasterOf(g, 0, 1)
	values := rasterOf(g, 999, math.NaN())

	a := NewAccumulator(false)
	a.Process(coverage, values)

	if got, err := a.Query(Min); err == nil {
		t.Errorf("expected NodataAllCells (zero-coverage and NaN-valued cells both skipped), got %v", got)
	}
	if got, _ := a.Query(Count); got != 0 {
		t.Errorf("Count = %v, want 0", got)
	}
}

func TestAccumulatorEmptyQueries(t *testing.T) {
	a := NewAccumulator(true)
	if got, _ := a.Query(Count); got != 0 {
		t.Errorf("Count on empty accumulator = %v, want 0", got)
	}
	if got, _ := a.Query(Variety); got != 0 {
		t.Errorf("Variety on empty accumulator = %v, want 0", got)
	}
	if got, _ := a.Query(Sum); !math.IsNaN(got) {
		t.Errorf("Sum on empty accumulator = %v, want NaN", got)
	}
	if got, _ := a.Query(Mean); !math.IsNaN(got) {
		t.Errorf("Mean on empty accumulator = %v, want NaN", got)
	}
	for _, s := range []Statistic{Min, Max, Mode, Minority} {
		if _, err := a.Query(s); err == nil {
			t.Errorf("%v on empty accumulator should fail with NodataAllCells", s)
		} else if e, ok := err.(*Error); !ok || e.Kind != NodataAllCells {
			t.Errorf("%v on empty accumulator: expected NodataAllCells, got %v", s, err)
		}
	}
}

func TestAccumulatorResultsDropsNodataAllCells(t *testing.T) {
	a := NewAccumulator(true)
	stats := []Statistic{Count, Sum, Min, Mode}
	results, err := a.Results(stats)
	if err != nil {
		t.Fatalf("Results on empty accumulator should not fail outright: %v", err)
	}
	if _, ok := results["count"]; !ok {
		t.Error("results should still include count")
	}
	if _, ok := results["min"]; ok {
		t.Error("results should drop min (NodataAllCells) rather than including a sentinel")
	}
	if _, ok := results["mode"]; ok {
		t.Error("results should drop mode (NodataAllCells)")
	}
}

func TestAccumulatorModeAndMinorityTieBreak(t *testing.T) {
	g, _ := NewGrid(Box{0, 0, 4, 1}, 1, 1)
	coverage := rasterOf(g, 1, 1, 1, 1)
	values := rasterOf(g, 1, 1, 2, 2)

	a := NewAccumulator(true)
	a.Process(coverage, values)

	mode, err := a.Query(Mode)
	if err != nil {
		t.Fatal(err)
	}
	if mode != 1 {
		t.Errorf("Mode = %v, want 1 (tie broken toward the smaller value)", mode)
	}
	minority, err := a.Query(Minority)
	if err != nil {
		t.Fatal(err)
	}
	if minority != 1 {
		t.Errorf("Minority = %v, want 1 (tie broken toward the smaller value)", minority)
	}
}

func TestAccumulatorVariety(t *testing.T) {
	g, _ := NewGrid(Box{0, 0, 4, 1}, 1, 1)
	coverage := rasterOf(g, 1, 1, 1, 1)
	values := rasterOf(g, 1, 2, 2, 3)

	a := NewAccumulator(true)
	a.Process(coverage, values)

	if got, _ := a.Query(Variety); got != 3 {
		t.Errorf("Variety = %v, want 3", got)
	}
}

func TestAccumulatorWeightedStatsAndFraction(t *testing.T) {
	g, _ := NewGrid(Box{0, 0, 2, 1}, 1, 1)
	coverage := rasterOf(g, 1, 1)
	values := rasterOf(g, 10, 20)
	weights := rasterOf(g, 0, 1)

	a := NewAccumulator(true)
	a.ProcessWeighted(coverage, values, weights)

	if got, _ := a.Query(WeightedCount); got != 1 {
		t.Errorf("WeightedCount = %v, want 1", got)
	}
	if got, _ := a.Query(WeightedSum); got != 20 {
		t.Errorf("WeightedSum = %v, want 20", got)
	}
	if got, _ := a.Query(WeightedMean); got != 20 {
		t.Errorf("WeightedMean = %v, want 20", got)
	}
	// One of the two covered cells carries weight 0, the other weight
	// 1, so only half the coverage mass counts toward weighted_count.
	if got, _ := a.Query(WeightedFraction); got != 0.5 {
		t.Errorf("WeightedFraction = %v, want 0.5", got)
	}
}

func TestAccumulatorAdditivity(t *testing.T) {
	g, _ := NewGrid(Box{0, 0, 4, 1}, 1, 1)
	coverage := rasterOf(g, 1, 0.5, 1, 0.25)
	values := rasterOf(g, 10, 20, 30, 40)

	whole := NewAccumulator(false)
	whole.Process(coverage, values)
	wantMean, err := whole.Query(Mean)
	if err != nil {
		t.Fatal(err)
	}

	// Split into two tiles and fold separately; additivity means the
	// combined result should match processing the whole raster at once.
	left, _ := NewGrid(Box{0, 0, 2, 1}, 1, 1)
	right, _ := NewGrid(Box{2, 0, 4, 1}, 1, 1)
	leftCov := rasterOf(left, 1, 0.5)
	leftVal := rasterOf(left, 10, 20)
	rightCov := rasterOf(right, 1, 0.25)
	rightVal := rasterOf(right, 30, 40)

	tiled := NewAccumulator(false)
	tiled.Process(leftCov, leftVal)
	tiled.Process(rightCov, rightVal)
	gotMean, err := tiled.Query(Mean)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(gotMean-wantMean) > 1e-12 {
		t.Errorf("tiled Mean = %v, want %v (additivity)", gotMean, wantMean)
	}
}

func TestAccumulatorMinLEMeanLEMax(t *testing.T) {
	g, _ := NewGrid(Box{0, 0, 5, 1}, 1, 1)
	coverage := rasterOf(g, 1, 0.3, 0.7, 1, 0.1)
	values := rasterOf(g, -5, 12, 8, 3, 100)

	a := NewAccumulator(false)
	a.Process(coverage, values)
	min, _ := a.Query(Min)
	mean, _ := a.Query(Mean)
	max, _ := a.Query(Max)
	if !(min <= mean && mean <= max) {
		t.Errorf("invariant min<=mean<=max violated: min=%v mean=%v max=%v", min, mean, max)
	}
}
