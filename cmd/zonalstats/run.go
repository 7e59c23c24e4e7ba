package main

import (
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/ctessum/geom/proj"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/zonalstats"
	"github.com/spatialmodel/zonalstats/providers/csvsink"
	"github.com/spatialmodel/zonalstats/providers/netcdfraster"
	"github.com/spatialmodel/zonalstats/providers/shpzones"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a zonal-statistics batch described by the configuration file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(config)
	},
}

// run wires the reference provider adapters to zonalstats.Process,
// fanning work out across config.Workers goroutines, each with its own
// PolygonProvider/Accumulator state (the core itself stays
// single-threaded per zone; see SPEC_FULL.md §5). This mirrors the
// teacher's emissions/aep/surrogate.go genSrgWorker pattern: a fixed
// pool of workers pulling from a shared channel of work items, each
// worker owning its own independent intersection/accumulation state.
func run(c *Config) error {
	stats := make([]zonalstats.Statistic, len(c.Statistics))
	for i, name := range c.Statistics {
		s, err := zonalstats.ParseStatistic(name)
		if err != nil {
			return err
		}
		stats[i] = s
	}

	values, err := netcdfraster.Open(c.ValueNCF, c.ValueVariable)
	if err != nil {
		return err
	}

	var weights *netcdfraster.Provider
	if c.WeightNCF != "" {
		weights, err = netcdfraster.Open(c.WeightNCF, c.WeightVariable)
		if err != nil {
			return err
		}
	}

	var expectedProj *proj.SR
	if c.GridProj != "" {
		expectedProj, err = proj.Parse(c.GridProj)
		if err != nil {
			return fmt.Errorf("zonalstats: parsing GridProj: %w", err)
		}
	}
	zones, err := shpzones.NewProvider(c.ZoneShapefile, c.ZoneIDField, expectedProj)
	if err != nil {
		return err
	}

	f, err := os.Create(c.OutputFile)
	if err != nil {
		return fmt.Errorf("zonalstats: creating output file: %w", err)
	}
	defer f.Close()
	sink := csvsink.NewSink(f)

	workers := c.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var mu sync.Mutex // serializes writes to the shared csvsink
	guardedSink := &syncSink{mu: &mu, sink: sink}

	var w zonalstats.RasterProvider
	if weights != nil {
		w = weights
	}

	// A single goroutine drains zones (zonalstats.PolygonProvider
	// implementations are not required to be concurrency-safe) and
	// fans each one out to the worker pool over a channel, mirroring
	// the teacher's genSrgWorker dispatch-channel pattern. Every worker
	// then runs zonalstats.Process with a single-zone provider of its
	// own, so each zone's Grid/Raster/Accumulator state is exclusively
	// owned by one goroutine, per spec.md §5's invariant.
	zoneCh := make(chan *zonalstats.Zone)
	go func() {
		defer close(zoneCh)
		for {
			z, ok := zones.Next()
			if !ok {
				return
			}
			zoneCh <- z
		}
	}()

	var wg sync.WaitGroup
	var firstErr error
	var errMu sync.Mutex
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for z := range zoneCh {
				err := zonalstats.Process(&singleZoneProvider{zone: z}, values, w, stats, c.MaxCellsInMemory, guardedSink)
				if err != nil {
					errMu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					errMu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	logrus.WithField("output", c.OutputFile).Info("zonalstats: run complete")
	return nil
}

// singleZoneProvider adapts one already-fetched Zone to PolygonProvider,
// so each worker can drive zonalstats.Process over its own zone.
type singleZoneProvider struct {
	zone *zonalstats.Zone
	done bool
}

func (p *singleZoneProvider) Next() (*zonalstats.Zone, bool) {
	if p.done {
		return nil, false
	}
	p.done = true
	return p.zone, true
}

// syncSink serializes Write/WriteError calls from the worker pool's
// concurrent zonalstats.Process invocations onto the single underlying
// csvsink.Sink, which is not itself safe for concurrent use.
type syncSink struct {
	mu   *sync.Mutex
	sink *csvsink.Sink
}

func (s *syncSink) Write(id string, stats map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink.Write(id, stats)
}

func (s *syncSink) WriteError(id string, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink.WriteError(id, err)
}
