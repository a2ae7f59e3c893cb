package core

import (
	"math"

	"github.com/signalatlas/pointfield/model"
)

// earthRadiusKm is the mean Earth radius used for great-circle distances.
const earthRadiusKm = 6371.0

// kmPerDegreeLat is the approximate meridian arc length of one degree.
const kmPerDegreeLat = 111.0

// Haversine returns the great-circle distance in kilometres between two
// geographic coordinates given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(rlat1)*math.Cos(rlat2)*sinLon*sinLon
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// GeoBounds is a geographic bounding box in degrees.
type GeoBounds struct {
	MinLat, MinLon float64
	MaxLat, MaxLon float64
}

// BoundsOf returns the tight geographic bounding box around the entities.
// ok is false for an empty slice.
func BoundsOf(entities []model.Entity) (GeoBounds, bool) {
	if len(entities) == 0 {
		return GeoBounds{}, false
	}
	b := GeoBounds{
		MinLat: entities[0].Lat, MaxLat: entities[0].Lat,
		MinLon: entities[0].Lon, MaxLon: entities[0].Lon,
	}
	for _, e := range entities[1:] {
		b.MinLat = math.Min(b.MinLat, e.Lat)
		b.MaxLat = math.Max(b.MaxLat, e.Lat)
		b.MinLon = math.Min(b.MinLon, e.Lon)
		b.MaxLon = math.Max(b.MaxLon, e.Lon)
	}
	return b, true
}

// Expand grows the bounds by a buffer distance in kilometres, clamped to the
// valid geographic ranges. Longitude buffering scales with the cosine of the
// centre latitude.
func (b GeoBounds) Expand(bufferKm float64) GeoBounds {
	latBuffer := bufferKm / kmPerDegreeLat

	centerLat := (b.MinLat + b.MaxLat) / 2
	kmPerDegreeLon := kmPerDegreeLat * math.Cos(centerLat*math.Pi/180)
	lonBuffer := 0.0
	if kmPerDegreeLon > 0 {
		lonBuffer = bufferKm / kmPerDegreeLon
	}

	return GeoBounds{
		MinLat: math.Max(b.MinLat-latBuffer, -90),
		MinLon: math.Max(b.MinLon-lonBuffer, -180),
		MaxLat: math.Min(b.MaxLat+latBuffer, 90),
		MaxLon: math.Min(b.MaxLon+lonBuffer, 180),
	}
}
