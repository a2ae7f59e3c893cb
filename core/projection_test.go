package core

import (
	"testing"

	"github.com/signalatlas/pointfield/model"
)

func entity(id string, lat, lon float64) model.Entity {
	return model.Entity{ID: id, Lat: lat, Lon: lon}
}

func TestProjectIsDeterministic(t *testing.T) {
	p := DefaultProjection()

	x1, y1, ok1 := p.Project(40.7, -74.0)
	x2, y2, ok2 := p.Project(40.7, -74.0)

	if !ok1 || !ok2 {
		t.Fatalf("Project(40.7, -74.0) rejected an in-domain coordinate")
	}
	if x1 != x2 || y1 != y2 {
		t.Errorf("Project not reproducible: (%v,%v) vs (%v,%v)", x1, y1, x2, y2)
	}
}

func TestProjectSeparatesEastAndWestCoast(t *testing.T) {
	p := DefaultProjection()

	nyX, _, ok := p.Project(40.7, -74.0)
	if !ok {
		t.Fatalf("New York rejected")
	}
	laX, _, ok := p.Project(34.0, -118.2)
	if !ok {
		t.Fatalf("Los Angeles rejected")
	}

	// New York is east of the -96° reference meridian, Los Angeles west.
	if nyX <= 0 {
		t.Errorf("New York x = %v, want > 0", nyX)
	}
	if laX >= 0 {
		t.Errorf("Los Angeles x = %v, want < 0", laX)
	}
}

func TestProjectRejectsOutOfRangeCoordinates(t *testing.T) {
	p := DefaultProjection()

	cases := []struct {
		name     string
		lat, lon float64
	}{
		{"lat above 90", 91, 0},
		{"lat below -90", -91, 0},
		{"lon above 180", 40, 181},
		{"lon below -180", 40, -181},
		{"antipodal", -38, 84},
		{"far longitude", 40, 20},
	}
	for _, tc := range cases {
		if _, _, ok := p.Project(tc.lat, tc.lon); ok {
			t.Errorf("%s: Project(%v, %v) accepted, want rejected", tc.name, tc.lat, tc.lon)
		}
	}
}

func TestProjectEntityLiesOnGroundPlane(t *testing.T) {
	p := DefaultProjection()

	pt, ok := p.ProjectEntity(entity("A", 40.7, -74.0))
	if !ok {
		t.Fatalf("ProjectEntity rejected an in-domain entity")
	}
	if pt.Y != 0 {
		t.Errorf("projected y = %v, want 0", pt.Y)
	}
	if pt.ID != "A" {
		t.Errorf("projected id = %q, want %q", pt.ID, "A")
	}
}

func TestProjectAllExcludesInvalidEntities(t *testing.T) {
	p := DefaultProjection()

	pts := p.ProjectAll([]model.Entity{
		entity("A", 40.7, -74.0),
		entity("bad", 120.0, -74.0),
		entity("B", 34.0, -118.2),
	})

	if len(pts) != 2 {
		t.Fatalf("ProjectAll returned %d points, want 2", len(pts))
	}
	if pts[0].ID != "A" || pts[1].ID != "B" {
		t.Errorf("ProjectAll order = [%s %s], want [A B]", pts[0].ID, pts[1].ID)
	}
}
