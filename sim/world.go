// Package sim ties the grid, kernel, belt/lift registries, cluster
// registry, and terrain collider extractor into the single orchestrator
// external callers drive one frame at a time.
package sim

import (
	"log/slog"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/cellsim/beltlift"
	"github.com/pthm-cable/cellsim/cellgrid"
	"github.com/pthm-cable/cellsim/cluster"
	"github.com/pthm-cable/cellsim/collider"
	"github.com/pthm-cable/cellsim/config"
	"github.com/pthm-cable/cellsim/coord"
	"github.com/pthm-cable/cellsim/kernel"
	"github.com/pthm-cable/cellsim/material"
	"github.com/pthm-cable/cellsim/telemetry"
)

// MaxAccumulatorClamp is the fixed-step accumulator ceiling (spec.md §4.9
// step 3's "clamp at 100ms"), guarding against a spiral of death when a
// frame badly overruns budget.
const MaxAccumulatorClamp = 0.1

// World is new_world's handle: every registry a frame touches, wired
// together, plus the fixed-step accumulator driving cluster_sync.
type World struct {
	Grid      *cellgrid.Grid
	Materials *material.Table
	Kernel    *kernel.Kernel
	Scheduler *kernel.Scheduler
	Belts     *beltlift.BeltRegistry
	Lifts     *beltlift.LiftRegistry
	Clusters  *cluster.Registry
	Sync      *cluster.Sync
	Colliders *collider.Extractor
	Perf      *telemetry.PerfCollector

	cfg                *config.Config
	physicsAccumulator float64
}

// New allocates a world per config cfg: an Air-filled grid at the
// configured dimensions, the material table cfg describes, and every
// registry wired to it. engine drives cluster rigid-body physics; sink
// receives terrain collider updates. Either may be nil, in which case the
// corresponding subsystem degrades gracefully (no cluster body physics, no
// collider output) rather than panicking.
func New(cfg *config.Config, engine cluster.Engine, sink collider.Sink) *World {
	materials := cfg.BuildMaterialTable()
	grid := cellgrid.New(cfg.Grid.Width, cfg.Grid.Height, materials)

	k := kernel.New(grid, kernel.Tuning{
		MaxVelocity:       int8(cfg.Kernel.MaxVelocity),
		FractionalGravity: int16(cfg.Kernel.FractionalGravity),
	})

	belts := beltlift.NewBeltRegistry(grid, cfg.MaterialID("BeltRight"), cfg.MaterialID("BeltLeft"), cfg.Belt.DefaultSpeed)
	lifts := beltlift.NewLiftRegistry(grid, cfg.Lift.DefaultForce)
	k.Lift = lifts

	clusters := cluster.NewRegistry()
	csync := &cluster.Sync{
		Registry: clusters,
		Grid:     grid,
		Engine:   engine,
		Tuning: cluster.Tuning{
			MaxVelocity:            int8(cfg.Kernel.MaxVelocity),
			MinCrushImpulse:        cfg.Cluster.MinCrushImpulse,
			OpposingDot:            cfg.Cluster.OpposingDot,
			CrushFrameThreshold:    cfg.Cluster.CrushFrameThreshold,
			MinPixelsToFracture:    cfg.Cluster.MinPixelsToFracture,
			LowVelocitySleepFrames: cfg.Cluster.LowVelocitySleepFrames,
			BeltCarrySpeed:         cfg.Cluster.BeltCarrySpeed,
			LiftForceMultiplier:    cfg.Lift.ForceMultiplier,
			GravityMagnitude:       cfg.Cluster.GravityMagnitude,
		},
		Belt: belts,
		Lift: lifts,
	}

	var colliders *collider.Extractor
	if sink != nil {
		colliders = collider.NewExtractor(grid, sink)
	}

	return &World{
		Grid:      grid,
		Materials: materials,
		Kernel:    k,
		Scheduler: kernel.NewScheduler(k),
		Belts:     belts,
		Lifts:     lifts,
		Clusters:  clusters,
		Sync:      csync,
		Colliders: colliders,
		Perf:      telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		cfg:       cfg,
	}
}

// Dispose releases whatever external resources a World holds. The core
// itself owns no file handles or OS resources; this exists so callers
// have a single symmetric teardown call to pair with New, per spec.md
// §6's new_world/dispose pairing, and so an Engine implementation that
// does own native resources has a place to be told to free them.
func (w *World) Dispose() {
	if w.Sync.Engine == nil {
		return
	}
	for _, c := range w.Clusters.All() {
		if c.Body != 0 {
			w.Sync.Engine.DestroyBody(c.Body)
		}
	}
}

// InBounds reports whether (x, y) lies inside the grid.
func (w *World) InBounds(x, y int) bool {
	return w.Grid.InBounds(x, y)
}

// GetCell returns the material id at (x, y), or Air if out of bounds.
func (w *World) GetCell(x, y int) material.ID {
	return w.Grid.GetCell(x, y)
}

// SetCell writes a material id at (x, y), between frames.
func (w *World) SetCell(x, y int, id material.ID) {
	w.Grid.SetCell(x, y, id)
}

// MarkChunkDirtyAt queues the chunk containing (x, y) for terrain
// collider regeneration, for external bulk level-authoring writes that
// bypass SetCell's own per-call dirtying (e.g. SetCell is already called,
// but the collider extractor needs telling too when it's attached after
// the fact).
func (w *World) MarkChunkDirtyAt(x, y int) {
	w.Grid.MarkDirty(x, y)
	if w.Colliders != nil {
		w.Colliders.MarkDirtyAt(x, y)
	}
}

// PlaceBelt places an 8x8 belt block, direction +1 (right) or -1 (left).
func (w *World) PlaceBelt(x, y int, direction int8) bool {
	return w.Belts.PlaceBelt(x, y, direction)
}

// RemoveBelt removes the belt block at (x, y).
func (w *World) RemoveBelt(x, y int) bool {
	return w.Belts.RemoveBelt(x, y)
}

// PlaceLift places an 8x8 lift force zone at (x, y).
func (w *World) PlaceLift(x, y int) bool {
	return w.Lifts.PlaceLift(x, y)
}

// RemoveLift removes the lift zone at (x, y).
func (w *World) RemoveLift(x, y int) bool {
	return w.Lifts.RemoveLift(x, y)
}

// SnapToGrid rounds n down to the nearest multiple of 8, the belt/lift
// block alignment — exposed so callers can preview placement footprints
// before calling PlaceBelt/PlaceLift.
func SnapToGrid(n int) int { return coord.SnapToGrid(n) }

// CreateCluster allocates a cluster from a pixel list and world position.
// pixels are (local_x, local_y, material_id) triples offset from the
// cluster's center of mass. Returns the new cluster id and true, or 0 and
// false if the cluster id pool (65535 ids) is exhausted.
func (w *World) CreateCluster(pixels []cluster.Pixel, worldPosition r2.Vec) (uint16, bool) {
	id, ok := w.Sync.CreateCluster(pixels, worldPosition)
	if !ok && w.Clusters.ExhaustedCount == 1 {
		slog.Warn("cluster id pool exhausted", "exhausted_count", w.Clusters.ExhaustedCount)
	}
	return id, ok
}

// DestroyCluster removes a cluster and its physics body.
func (w *World) DestroyCluster(id uint16) bool {
	return w.Sync.DestroyCluster(id)
}

// FractureCluster externally triggers a cluster's crack-line fracture —
// the test hook spec.md §6 names, distinct from the sustained-compression
// detector's internal trigger.
func (w *World) FractureCluster(id uint16) bool {
	return w.Sync.FractureCluster(id)
}

// CurrentFrame returns current_frame: the cell-physics frame counter,
// incremented once per SimulateFrame call at pipeline step 4, shared by
// the kernel's per-cell guard and the belt pass's tick-due check.
func (w *World) CurrentFrame() uint32 {
	return w.Kernel.CurrentFrame
}

// SimulateFrame runs one full frame of the §4.9 pipeline: belt/lift force
// write to clusters, fixed-step cluster physics substeps, the checkerboard
// cell-physics scheduler, the belt cell-movement pass, dirty-state reset,
// and (if a collider sink is attached) terrain collider regeneration for
// every chunk queued on the extractor: all chunks when the world is built,
// then the chunks passed to MarkChunkDirtyAt. Chunks changed by SetCell,
// belt placement or the cell pass are not queued for regeneration. wallDT
// is the real elapsed time since the previous call, in seconds.
func (w *World) SimulateFrame(wallDT float64) {
	w.Perf.StartTick()

	w.physicsAccumulator += wallDT
	if w.physicsAccumulator > MaxAccumulatorClamp {
		w.physicsAccumulator = MaxAccumulatorClamp
	}

	w.Perf.StartPhase(telemetry.PhaseClusterPhysics)
	fixedStep := w.cfg.Cluster.FixedStep
	for w.physicsAccumulator >= fixedStep {
		w.Perf.StartPhase(telemetry.PhaseClusterSync)
		w.Sync.StepAndSync(fixedStep)
		w.physicsAccumulator -= fixedStep
		w.Perf.StartPhase(telemetry.PhaseClusterPhysics)
	}

	w.Scheduler.BeginFrame() // advances current_frame (pipeline step 4)
	w.Perf.StartPhase(telemetry.PhaseCellGroupA)
	w.Scheduler.RunGroup(0)
	w.Perf.StartPhase(telemetry.PhaseCellGroupB)
	w.Scheduler.RunGroup(1)
	w.Perf.StartPhase(telemetry.PhaseCellGroupC)
	w.Scheduler.RunGroup(2)
	w.Perf.StartPhase(telemetry.PhaseCellGroupD)
	w.Scheduler.RunGroup(3)

	w.Perf.StartPhase(telemetry.PhaseBeltSim)
	w.Belts.SimulateBelts(w.Kernel.CurrentFrame)

	w.Scheduler.EndFrame()

	w.Perf.StartPhase(telemetry.PhaseTerrainColliders)
	if w.Colliders != nil {
		w.Colliders.ProcessDirtyChunks()
	}

	w.Perf.EndTick()
}

// LastFrameTimings reports last_frame_timings: millisecond counts per
// pipeline phase for the most recently completed SimulateFrame call.
func (w *World) LastFrameTimings() telemetry.FrameTimings {
	return w.Perf.LastFrameTimings()
}
