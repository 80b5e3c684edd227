package telemetry

import (
	"log/slog"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase names for simulate_frame's sub-stages. Order matches the frame
// pipeline: cluster physics runs first, then cluster/cell-grid sync, then
// the four checkerboard cell groups, then belts, then collider regen.
const (
	PhaseClusterPhysics   = "cluster_physics"
	PhaseClusterSync      = "cluster_sync"
	PhaseCellGroupA       = "cell_group_a"
	PhaseCellGroupB       = "cell_group_b"
	PhaseCellGroupC       = "cell_group_c"
	PhaseCellGroupD       = "cell_group_d"
	PhaseBeltSim          = "belt_sim"
	PhaseTerrainColliders = "terrain_colliders"
)

// phaseOrder lists every phase name LogStats/ToCSV report, in frame order.
var phaseOrder = []string{
	PhaseClusterPhysics, PhaseClusterSync,
	PhaseCellGroupA, PhaseCellGroupB, PhaseCellGroupC, PhaseCellGroupD,
	PhaseBeltSim, PhaseTerrainColliders,
}

// PerfSample holds timing data for a single simulated frame.
type PerfSample struct {
	FrameDuration time.Duration
	Phases        map[string]time.Duration
}

// PerfCollector tracks per-frame timing over a rolling window, the basis
// for the world's last_frame_timings snapshot and for perf.csv export.
type PerfCollector struct {
	windowSize    int
	samples       []PerfSample
	writeIndex    int
	sampleCount   int
	currentPhases map[string]time.Duration
	frameStart    time.Time
	phaseStart    time.Time
	lastPhase     string

	// Wall-clock frame pacing, recorded by RecordFrame (for an FPS readout).
	lastFrameTime time.Time
	frameDuration time.Duration
}

// NewPerfCollector creates a new performance collector.
// windowSize: number of frames to average over (e.g. 120 for 2s at 60fps).
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{
		windowSize:    windowSize,
		samples:       make([]PerfSample, windowSize),
		currentPhases: make(map[string]time.Duration),
	}
}

// StartTick begins timing a new simulated frame.
func (p *PerfCollector) StartTick() {
	p.frameStart = time.Now()
	p.currentPhases = make(map[string]time.Duration)
	p.lastPhase = ""
}

// StartPhase begins timing a specific pipeline phase, closing out whichever
// phase was previously open.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndTick finishes timing the current frame and records the sample.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	if p.lastPhase != "" {
		p.currentPhases[p.lastPhase] += now.Sub(p.phaseStart)
	}

	sample := PerfSample{
		FrameDuration: now.Sub(p.frameStart),
		Phases:        p.currentPhases,
	}

	p.samples[p.writeIndex] = sample
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
}

// RecordFrame records wall-clock frame pacing, independent of the
// simulated-frame timing above, for a render loop to call once per drawn
// frame.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrameTime.IsZero() {
		p.frameDuration = now.Sub(p.lastFrameTime)
	}
	p.lastFrameTime = now
}

// LastFrameTimings reports millisecond counts for the most recently
// completed frame's phases — the world's last_frame_timings snapshot.
func (p *PerfCollector) LastFrameTimings() FrameTimings {
	idx := p.writeIndex - 1
	if idx < 0 {
		idx = p.windowSize - 1
	}
	if p.sampleCount == 0 {
		return FrameTimings{}
	}
	s := p.samples[idx]
	return FrameTimings{
		ClusterPhysicsMS:   float64(s.Phases[PhaseClusterPhysics]) / float64(time.Millisecond),
		ClusterSyncMS:      float64(s.Phases[PhaseClusterSync]) / float64(time.Millisecond),
		CellGroupAMS:       float64(s.Phases[PhaseCellGroupA]) / float64(time.Millisecond),
		CellGroupBMS:       float64(s.Phases[PhaseCellGroupB]) / float64(time.Millisecond),
		CellGroupCMS:       float64(s.Phases[PhaseCellGroupC]) / float64(time.Millisecond),
		CellGroupDMS:       float64(s.Phases[PhaseCellGroupD]) / float64(time.Millisecond),
		BeltSimMS:          float64(s.Phases[PhaseBeltSim]) / float64(time.Millisecond),
		TerrainCollidersMS: float64(s.Phases[PhaseTerrainColliders]) / float64(time.Millisecond),
	}
}

// FrameTimings is last_frame_timings: millisecond counts per pipeline phase
// for the single most recently completed frame.
type FrameTimings struct {
	ClusterPhysicsMS   float64
	ClusterSyncMS      float64
	CellGroupAMS       float64
	CellGroupBMS       float64
	CellGroupCMS       float64
	CellGroupDMS       float64
	BeltSimMS          float64
	TerrainCollidersMS float64
}

// LogValue implements slog.LogValuer so FrameTimings logs as a single
// grouped record.
func (f FrameTimings) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Float64("cluster_physics_ms", f.ClusterPhysicsMS),
		slog.Float64("cluster_sync_ms", f.ClusterSyncMS),
		slog.Float64("cell_group_a_ms", f.CellGroupAMS),
		slog.Float64("cell_group_b_ms", f.CellGroupBMS),
		slog.Float64("cell_group_c_ms", f.CellGroupCMS),
		slog.Float64("cell_group_d_ms", f.CellGroupDMS),
		slog.Float64("belt_sim_ms", f.BeltSimMS),
		slog.Float64("terrain_colliders_ms", f.TerrainCollidersMS),
	)
}

// PerfStats holds aggregated performance statistics over the current
// rolling window.
type PerfStats struct {
	AvgFrameDuration time.Duration
	MinFrameDuration time.Duration
	MaxFrameDuration time.Duration
	P95FrameDuration time.Duration

	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	FramesPerSecond float64

	// Wall-clock frame pacing (graphics mode).
	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	var fps float64
	if p.frameDuration > 0 {
		fps = float64(time.Second) / float64(p.frameDuration)
	}

	if p.sampleCount == 0 {
		return PerfStats{
			PhaseAvg:      make(map[string]time.Duration),
			PhasePct:      make(map[string]float64),
			FrameDuration: p.frameDuration,
			FPS:           fps,
		}
	}

	durations := make([]float64, p.sampleCount)
	var total time.Duration
	var minD, maxD time.Duration
	phaseSum := make(map[string]time.Duration)

	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.FrameDuration
		durations[i] = float64(s.FrameDuration)

		if i == 0 || s.FrameDuration < minD {
			minD = s.FrameDuration
		}
		if s.FrameDuration > maxD {
			maxD = s.FrameDuration
		}
		for phase, dur := range s.Phases {
			phaseSum[phase] += dur
		}
	}

	avg := total / time.Duration(p.sampleCount)

	// gonum/stat.Quantile requires sorted input and a probability in [0,1].
	sortedDurations := append([]float64(nil), durations...)
	sortFloat64s(sortedDurations)
	p95 := time.Duration(stat.Quantile(0.95, stat.Empirical, sortedDurations, nil))

	phaseAvg := make(map[string]time.Duration)
	phasePct := make(map[string]float64)
	for phase, sum := range phaseSum {
		phaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if avg > 0 {
			phasePct[phase] = float64(phaseAvg[phase]) / float64(avg) * 100
		}
	}

	var framesPerSec float64
	if avg > 0 {
		framesPerSec = float64(time.Second) / float64(avg)
	}

	return PerfStats{
		AvgFrameDuration: avg,
		MinFrameDuration: minD,
		MaxFrameDuration: maxD,
		P95FrameDuration: p95,
		PhaseAvg:         phaseAvg,
		PhasePct:         phasePct,
		FramesPerSecond:  framesPerSec,
		FrameDuration:    p.frameDuration,
		FPS:              fps,
	}
}

// sortFloat64s is a tiny insertion sort, sufficient for the rolling
// window's size (never more than a few hundred samples) without pulling in
// sort.Float64s's reflection-free but still general-purpose machinery.
func sortFloat64s(xs []float64) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_frame_us", s.AvgFrameDuration.Microseconds(),
		"p95_frame_us", s.P95FrameDuration.Microseconds(),
		"max_frame_us", s.MaxFrameDuration.Microseconds(),
		"frames_per_sec", int(s.FramesPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, "fps", int(s.FPS))
	}

	for _, phase := range phaseOrder {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", int(pct*10)/10.0)
		}
	}

	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_frame_us", s.AvgFrameDuration.Microseconds()),
		slog.Int64("p95_frame_us", s.P95FrameDuration.Microseconds()),
		slog.Int64("max_frame_us", s.MaxFrameDuration.Microseconds()),
		slog.Float64("frames_per_sec", s.FramesPerSecond),
	}

	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}

	for phase, pct := range s.PhasePct {
		attrs = append(attrs, slog.Float64(phase+"_pct", pct))
	}

	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	WindowEnd           int64   `csv:"window_end"`
	AvgFrameUS          int64   `csv:"avg_frame_us"`
	P95FrameUS          int64   `csv:"p95_frame_us"`
	MaxFrameUS          int64   `csv:"max_frame_us"`
	FramesPerSec        float64 `csv:"frames_per_sec"`
	FPS                 float64 `csv:"fps"`
	ClusterPhysicsPct   float64 `csv:"cluster_physics_pct"`
	ClusterSyncPct      float64 `csv:"cluster_sync_pct"`
	CellGroupAPct       float64 `csv:"cell_group_a_pct"`
	CellGroupBPct       float64 `csv:"cell_group_b_pct"`
	CellGroupCPct       float64 `csv:"cell_group_c_pct"`
	CellGroupDPct       float64 `csv:"cell_group_d_pct"`
	BeltSimPct          float64 `csv:"belt_sim_pct"`
	TerrainCollidersPct float64 `csv:"terrain_colliders_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int64) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:           windowEnd,
		AvgFrameUS:          s.AvgFrameDuration.Microseconds(),
		P95FrameUS:          s.P95FrameDuration.Microseconds(),
		MaxFrameUS:          s.MaxFrameDuration.Microseconds(),
		FramesPerSec:        s.FramesPerSecond,
		FPS:                 s.FPS,
		ClusterPhysicsPct:   s.PhasePct[PhaseClusterPhysics],
		ClusterSyncPct:      s.PhasePct[PhaseClusterSync],
		CellGroupAPct:       s.PhasePct[PhaseCellGroupA],
		CellGroupBPct:       s.PhasePct[PhaseCellGroupB],
		CellGroupCPct:       s.PhasePct[PhaseCellGroupC],
		CellGroupDPct:       s.PhasePct[PhaseCellGroupD],
		BeltSimPct:          s.PhasePct[PhaseBeltSim],
		TerrainCollidersPct: s.PhasePct[PhaseTerrainColliders],
	}
}
