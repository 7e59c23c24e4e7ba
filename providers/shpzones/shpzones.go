// Package shpzones implements zonalstats.PolygonProvider by streaming
// zones out of an ESRI shapefile, grounded in the teacher's own
// shapefile-to-rtree loading pattern (vargrid.go's loadPopulation,
// emissions/aep/grid.go's GridDef.rtree).
package shpzones

import (
	"fmt"
	"strconv"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
	"github.com/spatialmodel/zonalstats"
)

// zoneFeature adapts one decoded shapefile row to the rtree.Spatial
// interface (Bounds() *geom.Bounds).
type zoneFeature struct {
	id string
	geom.Polygonal
}

// Provider implements zonalstats.PolygonProvider over a shapefile. Every
// zone is read and indexed up front, mirroring loadPopulation's
// rtree.NewTree(25, 50) pattern, since zone counts (administrative
// boundaries, watersheds, ...) are small relative to raster cell counts.
type Provider struct {
	index   *rtree.Rtree
	zones   []*zoneFeature
	nextIdx int
}

// NewProvider opens path (a ".shp" file; its sibling ".dbf"/".shx" are
// read implicitly by the underlying decoder) and indexes every polygon
// feature it contains. idField names the attribute column to use as the
// zone id; if idField is empty, zones are numbered by row order
// (0, 1, 2, ...). If expectedProj is non-nil, the shapefile's own ".prj"
// projection is compared against it and NewProvider fails rather than
// silently processing zones in a different coordinate system than the
// raster providers expect; this package never transforms between
// projections (CRS transforms are out of scope per SPEC_FULL.md), it
// only rejects a mismatch, the same sanity check vargrid.go's
// VarGridConfig.GridProj performs before any gridding work begins.
func NewProvider(path string, idField string, expectedProj *proj.SR) (*Provider, error) {
	dec, err := shp.NewDecoder(path)
	if err != nil {
		return nil, fmt.Errorf("shpzones: %w", err)
	}
	defer dec.Close()

	if expectedProj != nil {
		sr, err := dec.SR()
		if err != nil {
			return nil, fmt.Errorf("shpzones: reading projection: %w", err)
		}
		if !sr.Equal(expectedProj, 4) {
			return nil, fmt.Errorf("shpzones: %s's projection does not match the configured grid projection", path)
		}
	}

	p := &Provider{index: rtree.NewTree(25, 50)}
	row := 0
	for {
		var g geom.Geom
		var fields map[string]string
		var more bool
		if idField != "" {
			g, fields, more = dec.DecodeRowFields(idField)
		} else {
			g, _, more = dec.DecodeRowFields()
		}
		if !more {
			break
		}
		poly, ok := g.(geom.Polygonal)
		if !ok {
			return nil, fmt.Errorf("shpzones: feature %d is not a polygon", row)
		}
		id := strconv.Itoa(row)
		if idField != "" {
			id = fields[idField]
		}
		zf := &zoneFeature{id: id, Polygonal: poly}
		p.index.Insert(zf)
		p.zones = append(p.zones, zf)
		row++
	}
	if err := dec.Error(); err != nil {
		return nil, fmt.Errorf("shpzones: %w", err)
	}
	return p, nil
}

// Next returns the zones in shapefile row order.
func (p *Provider) Next() (*zonalstats.Zone, bool) {
	if p.nextIdx >= len(p.zones) {
		return nil, false
	}
	zf := p.zones[p.nextIdx]
	p.nextIdx++
	return &zonalstats.Zone{ID: zf.id, Polygon: zf.Polygonal}, true
}

// Intersecting returns the ids of every indexed zone whose bounds
// overlap box, using the rtree built by NewProvider. Exposed for callers
// (such as cmd/zonalstats) that want to pre-filter zones against a
// raster's extent before running Process.
func (p *Provider) Intersecting(box *geom.Bounds) []string {
	hits := p.index.SearchIntersect(box)
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.(*zoneFeature).id)
	}
	return ids
}
