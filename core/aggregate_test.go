package core

import (
	"testing"

	"github.com/signalatlas/pointfield/model"
)

func TestAggregateSelectionStats(t *testing.T) {
	attrs := map[string]model.DisplayAttributes{
		"A": {Price: 100, Volume: 10},
		"B": {Price: 300, Volume: 40},
		"C": {Price: 200, Volume: 25},
	}

	stats := AggregateSelection([]string{"A", "B", "C", "unknown"}, attrs, 2)

	if stats.Count != 4 {
		t.Errorf("count = %d, want 4 (unknown ids still counted)", stats.Count)
	}
	if stats.MeanPrice != 200 {
		t.Errorf("mean price = %v, want 200", stats.MeanPrice)
	}
	if stats.TotalVolume != 75 {
		t.Errorf("total volume = %v, want 75", stats.TotalVolume)
	}
	if len(stats.TopByVolume) != 2 || stats.TopByVolume[0] != "B" || stats.TopByVolume[1] != "C" {
		t.Errorf("top by volume = %v, want [B C]", stats.TopByVolume)
	}
}

func TestAggregateSelectionEmpty(t *testing.T) {
	stats := AggregateSelection(nil, nil, 5)
	if stats.Count != 0 || stats.MeanPrice != 0 || stats.TotalVolume != 0 || len(stats.TopByVolume) != 0 {
		t.Errorf("empty aggregate = %+v, want zero values", stats)
	}
}

func TestRankByDistanceNearestFirst(t *testing.T) {
	entities := map[string]model.Entity{
		"east":   {ID: "east", Lat: 40.0, Lon: -75.0},
		"middle": {ID: "middle", Lat: 39.0, Lon: -95.0},
		"west":   {ID: "west", Lat: 37.0, Lon: -120.0},
	}

	// Centroid sits near the middle entity.
	got := RankByDistance([]string{"east", "west", "middle"}, entities)

	if got[0] != "middle" {
		t.Errorf("nearest to centroid = %q, want %q (order %v)", got[0], "middle", got)
	}
}

func TestRankByDistanceUnknownIDsKeepOrderAtEnd(t *testing.T) {
	entities := map[string]model.Entity{
		"A": {ID: "A", Lat: 40, Lon: -75},
	}

	got := RankByDistance([]string{"x", "A", "y"}, entities)
	if len(got) != 3 || got[0] != "A" || got[1] != "x" || got[2] != "y" {
		t.Errorf("order = %v, want [A x y]", got)
	}
}
