package core

import (
	"sort"

	"github.com/signalatlas/pointfield/model"
)

// SelectionStats aggregates the host-supplied display attributes over a
// selection result. The engine itself only produces entity ids; this helper
// runs caller-side.
type SelectionStats struct {
	Count       int
	MeanPrice   float64
	TotalVolume float64
	TopByVolume []string
}

// AggregateSelection computes count, mean price, total volume, and the top-n
// ids by volume for the selected ids. Ids without attributes count toward
// Count but contribute nothing to the monetary aggregates.
func AggregateSelection(ids []string, attrs map[string]model.DisplayAttributes, topN int) SelectionStats {
	stats := SelectionStats{Count: len(ids)}

	priced := 0
	ranked := make([]string, 0, len(ids))
	for _, id := range ids {
		a, ok := attrs[id]
		if !ok {
			continue
		}
		stats.MeanPrice += a.Price
		stats.TotalVolume += a.Volume
		priced++
		ranked = append(ranked, id)
	}
	if priced > 0 {
		stats.MeanPrice /= float64(priced)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return attrs[ranked[i]].Volume > attrs[ranked[j]].Volume
	})
	if topN > len(ranked) {
		topN = len(ranked)
	}
	if topN > 0 {
		stats.TopByVolume = ranked[:topN]
	}
	return stats
}

// RankByDistance orders selected entity ids by great-circle distance from
// the centroid of the selected entities, nearest first. Ids without a known
// entity keep their input order at the end.
func RankByDistance(ids []string, entities map[string]model.Entity) []string {
	located := make([]string, 0, len(ids))
	missing := make([]string, 0)
	var sumLat, sumLon float64
	for _, id := range ids {
		if e, ok := entities[id]; ok {
			located = append(located, id)
			sumLat += e.Lat
			sumLon += e.Lon
		} else {
			missing = append(missing, id)
		}
	}
	if len(located) == 0 {
		return append(located, missing...)
	}

	centerLat := sumLat / float64(len(located))
	centerLon := sumLon / float64(len(located))
	sort.SliceStable(located, func(i, j int) bool {
		ei, ej := entities[located[i]], entities[located[j]]
		return Haversine(ei.Lat, ei.Lon, centerLat, centerLon) <
			Haversine(ej.Lat, ej.Lon, centerLat, centerLon)
	})
	return append(located, missing...)
}
