package model

// Entity is a geolocated point of interest supplied by the host. The engine
// interprets only the coordinates; display attributes (price, volume) travel
// alongside for host-side aggregation and are never read by the core.
type Entity struct {
	ID  string
	Lat float64
	Lon float64
}

// DisplayAttributes carries the host-owned values used when aggregating a
// selection result. Kept separate from Entity so a data refresh can replace
// attributes without re-projecting.
type DisplayAttributes struct {
	Price  float64
	Volume float64
}

// ProjectedPoint is an entity's position converted to world space on the
// ground plane. Y is always zero; points live in the x/z plane.
type ProjectedPoint struct {
	ID string
	X  float32
	Y  float32
	Z  float32
}
