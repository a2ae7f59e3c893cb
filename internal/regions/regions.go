// Package regions loads the choropleth backdrop: region outlines from a
// GeoJSON FeatureCollection and the adjacency graph derived from shared
// boundary vertices. The graph feeds the deterministic region coloring done
// once at map load.
package regions

import (
	"fmt"
	"os"
	"sort"

	geojson "github.com/paulmach/go.geojson"
)

// vertexQuantum rounds boundary coordinates before comparison so regions
// digitized at slightly different precision still register as adjacent.
const vertexQuantum = 1e-6

// Load reads a GeoJSON FeatureCollection from disk and derives the adjacency
// graph. Features without a usable name property are skipped.
func Load(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read regions file: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse regions geojson: %w", err)
	}
	return Adjacency(fc), nil
}

// Adjacency derives the neighbor graph from a FeatureCollection: two regions
// are adjacent when their boundaries share at least two quantized vertices
// (a common edge, not just a touching corner).
func Adjacency(fc *geojson.FeatureCollection) map[string][]string {
	type key struct{ x, y int64 }

	vertexOwners := map[key]map[string]struct{}{}
	names := []string{}

	for _, f := range fc.Features {
		name := featureName(f)
		if name == "" || f.Geometry == nil {
			continue
		}
		names = append(names, name)
		for _, ring := range rings(f.Geometry) {
			for _, coord := range ring {
				if len(coord) < 2 {
					continue
				}
				k := key{
					x: int64(coord[0] / vertexQuantum),
					y: int64(coord[1] / vertexQuantum),
				}
				owners, ok := vertexOwners[k]
				if !ok {
					owners = map[string]struct{}{}
					vertexOwners[k] = owners
				}
				owners[name] = struct{}{}
			}
		}
	}

	shared := map[[2]string]int{}
	for _, owners := range vertexOwners {
		list := make([]string, 0, len(owners))
		for name := range owners {
			list = append(list, name)
		}
		sort.Strings(list)
		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				shared[[2]string{list[i], list[j]}]++
			}
		}
	}

	adjacency := make(map[string][]string, len(names))
	for _, name := range names {
		adjacency[name] = nil
	}
	for pair, count := range shared {
		if count < 2 {
			continue
		}
		adjacency[pair[0]] = append(adjacency[pair[0]], pair[1])
		adjacency[pair[1]] = append(adjacency[pair[1]], pair[0])
	}
	for name := range adjacency {
		sort.Strings(adjacency[name])
	}
	return adjacency
}

// rings flattens a polygon or multipolygon geometry into its coordinate
// rings. Other geometry types contribute nothing.
func rings(g *geojson.Geometry) [][][]float64 {
	switch {
	case g.IsPolygon():
		return g.Polygon
	case g.IsMultiPolygon():
		var out [][][]float64
		for _, poly := range g.MultiPolygon {
			out = append(out, poly...)
		}
		return out
	default:
		return nil
	}
}

func featureName(f *geojson.Feature) string {
	for _, prop := range []string{"name", "NAME", "region"} {
		if v, err := f.PropertyString(prop); err == nil && v != "" {
			return v
		}
	}
	return ""
}
