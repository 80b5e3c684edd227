package cluster

import (
	"testing"

	"github.com/pthm-cable/cellsim/cellgrid"
	"github.com/pthm-cable/cellsim/coord"
	"github.com/pthm-cable/cellsim/material"
	"gonum.org/v1/gonum/spatial/r2"
)

func testMaterials() *material.Table {
	return material.NewTable([]material.Def{
		{Name: "Stone", Behavior: material.Static},
		{Name: "Sand", Behavior: material.Powder, SlideResistance: 0},
	})
}

const (
	stone = material.ID(1)
	sand  = material.ID(2)
)

// fakeEngine is a minimal in-memory stand-in for an external physics
// engine, enough to drive Sync without a real Box2D-like library.
type fakeEngine struct {
	nextHandle BodyHandle
	positions  map[BodyHandle]r2.Vec
	rotations  map[BodyHandle]float64
	velocities map[BodyHandle]r2.Vec
	angular    map[BodyHandle]float64
	masses     map[BodyHandle]float64
	sleeping   map[BodyHandle]bool
	contacts   map[BodyHandle][]Contact
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		positions:  map[BodyHandle]r2.Vec{},
		rotations:  map[BodyHandle]float64{},
		velocities: map[BodyHandle]r2.Vec{},
		angular:    map[BodyHandle]float64{},
		masses:     map[BodyHandle]float64{},
		sleeping:   map[BodyHandle]bool{},
		contacts:   map[BodyHandle][]Contact{},
	}
}

func (e *fakeEngine) Step(dt float64) {}

func (e *fakeEngine) CreateBody(outline []r2.Vec, position r2.Vec) BodyHandle {
	e.nextHandle++
	h := e.nextHandle
	e.positions[h] = position
	e.masses[h] = 1
	return h
}

func (e *fakeEngine) DestroyBody(h BodyHandle) {
	delete(e.positions, h)
	delete(e.rotations, h)
	delete(e.velocities, h)
	delete(e.sleeping, h)
	delete(e.contacts, h)
}

func (e *fakeEngine) Position(h BodyHandle) r2.Vec         { return e.positions[h] }
func (e *fakeEngine) Rotation(h BodyHandle) float64        { return e.rotations[h] }
func (e *fakeEngine) LinearVelocity(h BodyHandle) r2.Vec   { return e.velocities[h] }
func (e *fakeEngine) AngularVelocity(h BodyHandle) float64 { return e.angular[h] }
func (e *fakeEngine) Mass(h BodyHandle) float64            { return e.masses[h] }
func (e *fakeEngine) IsSleeping(h BodyHandle) bool         { return e.sleeping[h] }
func (e *fakeEngine) Sleep(h BodyHandle)                   { e.sleeping[h] = true }

func (e *fakeEngine) AddForce(h BodyHandle, f r2.Vec) {}

func (e *fakeEngine) SetLinearVelocity(h BodyHandle, v r2.Vec)  { e.velocities[h] = v }
func (e *fakeEngine) SetAngularVelocity(h BodyHandle, rad float64) { e.angular[h] = rad }
func (e *fakeEngine) SetRotation(h BodyHandle, rad float64)     { e.rotations[h] = rad }

func (e *fakeEngine) GetContacts(h BodyHandle, buf []Contact) int {
	cs := e.contacts[h]
	n := copy(buf, cs)
	return n
}

func TestRegistryCreateDestroyReusesID(t *testing.T) {
	r := NewRegistry()
	id := r.Create([]Pixel{{0, 0, sand}}, r2.Vec{})
	if id == 0 {
		t.Fatal("expected nonzero id")
	}
	r.Destroy(id)
	if _, ok := r.Get(id); ok {
		t.Fatal("expected destroyed cluster to be gone")
	}
	id2 := r.Create([]Pixel{{0, 0, sand}}, r2.Vec{})
	if id2 != id {
		t.Fatalf("expected freed id %d to be reused, got %d", id, id2)
	}
}

func TestClusterLookupOutsideBoundsReturnsFalse(t *testing.T) {
	c := newCluster(1, []Pixel{{0, 0, sand}, {1, 0, sand}}, r2.Vec{})
	if _, ok := c.Lookup(0, 0); !ok {
		t.Fatal("expected pixel at origin")
	}
	if _, ok := c.Lookup(5, 5); ok {
		t.Fatal("expected out-of-bounds lookup to report false")
	}
}

func TestDisplaceFindsNearestOpenCellDownFirst(t *testing.T) {
	grid := cellgrid.New(8, 8, testMaterials())
	grid.SetCell(3, 3, sand) // occupies the target cell
	grid.SetCell(3, 4, sand) // occupies straight below too

	ok := displace(grid, 3, 3, r2.Vec{}, 16)
	if !ok {
		t.Fatal("expected displacement to find an open cell")
	}
	if !grid.Get(3, 3).IsAir() {
		t.Fatal("expected the origin cell to be vacated once its occupant was displaced")
	}
	if grid.Get(2, 4).MaterialID != sand {
		t.Fatal("expected the occupant moved to the down-left diagonal, the first open cell after straight down")
	}
}

func newSync(grid *cellgrid.Grid, engine Engine) *Sync {
	return &Sync{
		Registry: NewRegistry(),
		Grid:     grid,
		Engine:   engine,
		Tuning: Tuning{
			MaxVelocity:            16,
			MinCrushImpulse:        1,
			OpposingDot:            -0.5,
			CrushFrameThreshold:    30,
			MinPixelsToFracture:    3,
			LowVelocitySleepFrames: 30,
			BeltCarrySpeed:         4,
			LiftForceMultiplier:    1,
			GravityMagnitude:       9.8,
		},
	}
}

func TestWriteFootprintPaintsOwnedCells(t *testing.T) {
	grid := cellgrid.New(16, 16, testMaterials())
	engine := newFakeEngine()
	s := newSync(grid, engine)

	wx, wy := 0.0, 0.0
	id := s.Registry.Create([]Pixel{{0, 0, sand}}, r2.Vec{X: wx, Y: wy})
	c, _ := s.Registry.Get(id)
	c.Body = engine.CreateBody(nil, c.Position)
	engine.sleeping[c.Body] = false

	s.StepAndSync(1.0 / 60)

	cx, cy := coord.WorldToCell(wx, wy, grid.Width, grid.Height)
	cell := grid.Get(cx, cy)
	if cell.MaterialID != sand || cell.OwnerID != id {
		t.Fatalf("expected center cell owned by cluster %d painted sand, got %+v", id, cell)
	}
}

func TestClearFootprintOnlyRemovesOwnCells(t *testing.T) {
	grid := cellgrid.New(16, 16, testMaterials())
	engine := newFakeEngine()
	s := newSync(grid, engine)

	id := s.Registry.Create([]Pixel{{0, 0, sand}}, r2.Vec{})
	c, _ := s.Registry.Get(id)
	c.Body = engine.CreateBody(nil, c.Position)

	cx, cy := coord.WorldToCell(0, 0, grid.Width, grid.Height)
	grid.SetCell(cx+5, cy+5, stone) // unrelated cell, must survive untouched

	s.clearFootprint(c)

	if grid.Get(cx+5, cy+5).MaterialID != stone {
		t.Fatal("clear pass must not touch cells it doesn't own")
	}
}

func TestFractureSplitsClusterUnderSustainedCompression(t *testing.T) {
	grid := cellgrid.New(32, 32, testMaterials())
	engine := newFakeEngine()
	s := newSync(grid, engine)

	pixels := make([]Pixel, 0, 25)
	for y := int16(-2); y <= 2; y++ {
		for x := int16(-2); x <= 2; x++ {
			pixels = append(pixels, Pixel{x, y, sand})
		}
	}
	id := s.Registry.Create(pixels, r2.Vec{})
	c, _ := s.Registry.Get(id)
	c.Body = engine.CreateBody(nil, c.Position)
	engine.masses[c.Body] = 1
	engine.contacts[c.Body] = []Contact{
		{Normal: r2.Vec{X: 1, Y: 0}, NormalImpulse: 5},
		{Normal: r2.Vec{X: -1, Y: 0}, NormalImpulse: 5},
	}

	for i := 0; i < 35; i++ {
		s.StepAndSync(1.0 / 60)
		if _, ok := s.Registry.Get(id); !ok {
			break
		}
	}

	if _, ok := s.Registry.Get(id); ok {
		t.Fatal("expected original cluster to be replaced by fracture descendants")
	}
	if s.Registry.Len() < 2 {
		t.Fatalf("expected at least 2 descendant clusters, got %d", s.Registry.Len())
	}
}
