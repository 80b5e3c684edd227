// Headless throughput harness: runs the simulation with no window and no
// input handling, for benchmarking and perf.csv export.
//
// Usage: go run ./cmd/bench -max-ticks 3600 -out ./bench-out
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/pthm-cable/cellsim/config"
	"github.com/pthm-cable/cellsim/sim"
	"github.com/pthm-cable/cellsim/telemetry"
	"github.com/pthm-cable/cellsim/worldgen"
)

var (
	configPath   = flag.String("config", "", "path to a YAML config overriding embedded defaults")
	maxTicks     = flag.Int("max-ticks", 3600, "stop after N frames (0 = run forever)")
	outDir       = flag.String("out", "", "directory to write perf.csv into (empty disables CSV output)")
	reportEvery  = flag.Duration("report-every", 5*time.Second, "progress report interval")
	windowFrames = flag.Int("window", 120, "rolling window size, in frames, for perf stats")
	seed         = flag.Int64("seed", 1, "worldgen noise seed used to seed starting terrain")
	fixedDT      = flag.Float64("dt", 1.0/60, "simulated wall-clock dt per frame")
)

func main() {
	flag.Parse()

	config.MustInit(*configPath)
	cfg := config.Cfg()
	cfg.Telemetry.PerfCollectorWindow = *windowFrames

	out, err := telemetry.NewOutputManager(*outDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setting up output: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	world := sim.New(cfg, nil, nil)
	defer world.Dispose()

	gen := worldgen.New(*seed, worldgen.DefaultParams())
	gen.GenerateFloor(world.Grid, cfg.MaterialID("Stone"))

	runHeadless(world, out)
}

func runHeadless(world *sim.World, out *telemetry.OutputManager) {
	slog.Info("starting headless bench", "max_ticks", *maxTicks, "out_dir", out.Dir())

	startTime := time.Now()
	lastReport := startTime
	var frame int

	for {
		if *maxTicks > 0 && frame >= *maxTicks {
			slog.Info("reached max ticks, stopping", "max_ticks", *maxTicks)
			break
		}

		world.SimulateFrame(*fixedDT)
		frame++

		if time.Since(lastReport) >= *reportEvery {
			elapsed := time.Since(startTime)
			stats := world.Perf.Stats()
			stats.LogStats()
			if err := out.WritePerf(stats, int64(frame)); err != nil {
				slog.Warn("writing perf.csv", "error", err)
			}

			framesPerSec := float64(frame) / elapsed.Seconds()
			slog.Info("progress",
				"frame", frame,
				"frames_per_sec", int(framesPerSec),
				"elapsed", elapsed.Round(time.Second),
			)
			lastReport = time.Now()
		}
	}

	elapsed := time.Since(startTime)
	stats := world.Perf.Stats()
	stats.LogStats()
	if err := out.WritePerf(stats, int64(frame)); err != nil {
		slog.Warn("writing final perf.csv record", "error", err)
	}

	slog.Info("bench complete",
		"total_frames", frame,
		"elapsed", elapsed.Round(time.Millisecond),
		"avg_frames_per_sec", float64(frame)/elapsed.Seconds(),
	)
}
