package core

import (
	"hash/fnv"
	"sort"
)

// DefaultPaletteSize matches the choropleth palette shipped with the map
// backdrop.
const DefaultPaletteSize = 8

// RegionColorAssignment maps region names to palette indices. It is computed
// once at map load and immutable afterwards; callers pass it by reference
// rather than sharing module-level state.
type RegionColorAssignment struct {
	colors      map[string]int
	paletteSize int
}

// AssignRegionColors greedily colors the adjacency graph so that neighboring
// regions get distinct palette indices where the palette allows. Regions are
// processed in descending neighbor count (most constrained first, ties broken
// by name) and each receives the lowest palette index unused by its already
// colored neighbors, wrapping modulo the palette when all indices are taken.
// Wrap collisions are an accepted approximation for graphs whose local
// chromatic requirement exceeds the palette.
func AssignRegionColors(adjacency map[string][]string, paletteSize int) *RegionColorAssignment {
	if paletteSize < 1 {
		paletteSize = 1
	}

	names := make([]string, 0, len(adjacency))
	for name := range adjacency {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		di, dj := len(adjacency[names[i]]), len(adjacency[names[j]])
		if di != dj {
			return di > dj
		}
		return names[i] < names[j]
	})

	colors := make(map[string]int, len(names))
	used := make([]bool, paletteSize)
	for _, name := range names {
		for i := range used {
			used[i] = false
		}
		taken := 0
		for _, neighbor := range adjacency[name] {
			if c, ok := colors[neighbor]; ok && c < paletteSize && !used[c] {
				used[c] = true
				taken++
			}
		}

		assigned := -1
		if taken < paletteSize {
			for i := 0; i < paletteSize; i++ {
				if !used[i] {
					assigned = i
					break
				}
			}
		}
		if assigned < 0 {
			// Palette exhausted locally; wrap by degree.
			assigned = len(adjacency[name]) % paletteSize
		}
		colors[name] = assigned
	}

	return &RegionColorAssignment{colors: colors, paletteSize: paletteSize}
}

// ColorIndex returns the palette index for a region. A region absent from
// the adjacency graph gets a stable hash-derived index, so lookups stay
// deterministic without a neighbor list.
func (a *RegionColorAssignment) ColorIndex(region string) int {
	if c, ok := a.colors[region]; ok {
		return c
	}
	return hashColor(region, a.paletteSize)
}

// Len returns the number of explicitly assigned regions.
func (a *RegionColorAssignment) Len() int { return len(a.colors) }

// Assigned returns a copy of the explicit assignments.
func (a *RegionColorAssignment) Assigned() map[string]int {
	out := make(map[string]int, len(a.colors))
	for k, v := range a.colors {
		out[k] = v
	}
	return out
}

func hashColor(name string, paletteSize int) int {
	h := fnv.New32a()
	h.Write([]byte(name))
	return int(h.Sum32() % uint32(paletteSize))
}
