package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds the information needed to run a zonalstats batch,
// following the teacher's config.go pattern: a flat TOML file decoded
// into a struct, with environment variables expanded in path fields.
type Config struct {
	// ZoneShapefile is the path to the shapefile holding the zone
	// polygons. Can include environment variables.
	ZoneShapefile string

	// ZoneIDField is the shapefile attribute column used as each zone's
	// id. If empty, zones are numbered by row order.
	ZoneIDField string

	// GridProj is the proj4 projection string the zone shapefile is
	// expected to be in. If set, ZoneShapefile's own ".prj" file is
	// checked against it and the run fails on a mismatch rather than
	// silently comparing zones and rasters in different coordinate
	// systems; if empty, no check is performed. zonalstats never
	// transforms between projections itself.
	GridProj string

	// ValueNCF is the path to the NetCDF file holding the value raster.
	// Can include environment variables.
	ValueNCF string

	// ValueVariable is the NetCDF variable name to read from ValueNCF.
	ValueVariable string

	// WeightNCF is the path to an optional NetCDF file holding the
	// weight raster. If empty, every cell is weighted equally.
	WeightNCF string

	// WeightVariable is the NetCDF variable name to read from
	// WeightNCF.
	WeightVariable string

	// Statistics lists the named statistics to compute for each zone
	// (e.g. "mean", "sum", "weighted_mean").
	Statistics []string

	// OutputFile is the path to the CSV file results are written to.
	// Can include environment variables.
	OutputFile string

	// MaxCellsInMemory bounds the size of the tiles each zone is
	// subdivided into before running the cell-intersection engine. If
	// <= 0, each zone is processed as a single tile.
	MaxCellsInMemory int

	// Workers is the number of zones processed concurrently. If <= 0,
	// it defaults to runtime.GOMAXPROCS(0), matching the teacher's
	// emissions/aep/surrogate.go worker-pool sizing.
	Workers int
}

// ReadConfigFile reads and parses a TOML configuration file, expanding
// environment variables in its path fields.
func ReadConfigFile(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("zonalstats: the configuration file you specified, %v, does not "+
			"appear to exist: %w", filename, err)
	}
	c := new(Config)
	if _, err := toml.Decode(string(b), c); err != nil {
		return nil, fmt.Errorf("zonalstats: error parsing configuration file: %w", err)
	}

	c.ZoneShapefile = os.ExpandEnv(c.ZoneShapefile)
	c.ValueNCF = os.ExpandEnv(c.ValueNCF)
	c.WeightNCF = os.ExpandEnv(c.WeightNCF)
	c.OutputFile = os.ExpandEnv(c.OutputFile)

	if c.ZoneShapefile == "" {
		return nil, fmt.Errorf("zonalstats: ZoneShapefile must be set")
	}
	if c.ValueNCF == "" || c.ValueVariable == "" {
		return nil, fmt.Errorf("zonalstats: ValueNCF and ValueVariable must both be set")
	}
	if c.OutputFile == "" {
		return nil, fmt.Errorf("zonalstats: OutputFile must be set")
	}
	if len(c.Statistics) == 0 {
		return nil, fmt.Errorf("zonalstats: at least one entry in Statistics is required, " +
			"e.g. Statistics = [\"mean\", \"sum\"]")
	}
	if strings.TrimSpace(c.ZoneIDField) != c.ZoneIDField {
		return nil, fmt.Errorf("zonalstats: ZoneIDField must not have leading or trailing whitespace")
	}

	return c, nil
}
