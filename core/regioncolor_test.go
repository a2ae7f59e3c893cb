package core

import "testing"

// symmetrize fills in the reverse edges so test graphs can be written
// one-sided.
func symmetrize(adj map[string][]string) map[string][]string {
	out := make(map[string][]string, len(adj))
	add := func(a, b string) {
		for _, n := range out[a] {
			if n == b {
				return
			}
		}
		out[a] = append(out[a], b)
	}
	for name, neighbors := range adj {
		if _, ok := out[name]; !ok {
			out[name] = nil
		}
		for _, n := range neighbors {
			add(name, n)
			add(n, name)
		}
	}
	return out
}

func maxDegree(adj map[string][]string) int {
	max := 0
	for _, neighbors := range adj {
		if len(neighbors) > max {
			max = len(neighbors)
		}
	}
	return max
}

func usRegionSample() map[string][]string {
	return symmetrize(map[string][]string{
		"Northeast":     {"Mid-Atlantic", "Great Lakes"},
		"Mid-Atlantic":  {"Southeast", "Great Lakes"},
		"Southeast":     {"Great Lakes", "South Central"},
		"Great Lakes":   {"Great Plains", "South Central"},
		"South Central": {"Great Plains", "Southwest"},
		"Great Plains":  {"Southwest", "Mountain West"},
		"Southwest":     {"Mountain West", "Pacific"},
		"Mountain West": {"Pacific", "Northwest"},
		"Northwest":     {"Pacific"},
	})
}

func TestNoAdjacentCollisionsWithSufficientPalette(t *testing.T) {
	adj := usRegionSample()
	palette := maxDegree(adj) + 1

	assignment := AssignRegionColors(adj, palette)

	for region, neighbors := range adj {
		for _, neighbor := range neighbors {
			if assignment.ColorIndex(region) == assignment.ColorIndex(neighbor) {
				t.Errorf("adjacent regions %q and %q share color %d",
					region, neighbor, assignment.ColorIndex(region))
			}
		}
	}
}

func TestAssignmentIsDeterministic(t *testing.T) {
	adj := usRegionSample()

	first := AssignRegionColors(adj, DefaultPaletteSize).Assigned()
	second := AssignRegionColors(adj, DefaultPaletteSize).Assigned()

	if len(first) != len(second) {
		t.Fatalf("assignment sizes differ: %d vs %d", len(first), len(second))
	}
	for region, color := range first {
		if second[region] != color {
			t.Errorf("region %q colored %d then %d across runs", region, color, second[region])
		}
	}
}

func TestColorsStayWithinPalette(t *testing.T) {
	adj := usRegionSample()
	const palette = 3 // smaller than the chromatic need, forces wrapping

	assignment := AssignRegionColors(adj, palette)
	for region := range adj {
		if c := assignment.ColorIndex(region); c < 0 || c >= palette {
			t.Errorf("region %q color %d outside palette [0,%d)", region, c, palette)
		}
	}
}

func TestUnknownRegionGetsStableHashColor(t *testing.T) {
	assignment := AssignRegionColors(usRegionSample(), DefaultPaletteSize)

	first := assignment.ColorIndex("Territory-X")
	second := assignment.ColorIndex("Territory-X")
	if first != second {
		t.Fatalf("unknown region color not stable: %d vs %d", first, second)
	}
	if first < 0 || first >= DefaultPaletteSize {
		t.Errorf("unknown region color %d outside palette", first)
	}
}
