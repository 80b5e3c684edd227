package kernel

import (
	"runtime"
	"sync"
)

// Scheduler partitions active chunks into the four checkerboard groups and
// runs each group's chunks in parallel, chunk tasks never touching a cell
// another same-group task might also touch — the 128-cell same-group
// separation (two chunk-widths) makes this safe with a single shared
// buffer.
type Scheduler struct {
	kernel *Kernel
	groups [4][]int
}

// NewScheduler builds a scheduler around k.
func NewScheduler(k *Kernel) *Scheduler {
	return &Scheduler{kernel: k}
}

// RunFrame advances the current frame counter, then runs groups A, B, C, D
// in order, waiting for each to finish before starting the next, and
// finally resets dirty state for the next frame.
func (s *Scheduler) RunFrame() {
	s.BeginFrame()
	for i := range s.groups {
		s.RunGroup(i)
	}
	s.EndFrame()
}

// BeginFrame advances the current frame counter and partitions active
// chunks into the four checkerboard groups. Callers that need per-group
// timing (the world's frame pipeline, for last_frame_timings) call
// BeginFrame/RunGroup(0..3)/EndFrame directly instead of RunFrame.
func (s *Scheduler) BeginFrame() {
	s.kernel.CurrentFrame++
	a, b, c, d := s.kernel.Grid.CollectChunkGroups(s.groups[0], s.groups[1], s.groups[2], s.groups[3])
	s.groups[0], s.groups[1], s.groups[2], s.groups[3] = a, b, c, d
}

// RunGroup runs checkerboard group i (0=A, 1=B, 2=C, 3=D), fanning its
// chunks across a worker pool and blocking until they finish.
func (s *Scheduler) RunGroup(i int) {
	s.runGroup(s.groups[i])
}

// EndFrame resets dirty state for the next frame. Must be called once
// after all four groups have run.
func (s *Scheduler) EndFrame() {
	s.kernel.Grid.ResetDirtyState()
}

// runGroup fans a group's chunk indices out across a worker pool, each
// worker processing a contiguous range of chunk indices end to end, and
// blocks until every worker completes.
func (s *Scheduler) runGroup(group []int) {
	n := len(group)
	if n == 0 {
		return
	}

	numWorkers := runtime.GOMAXPROCS(0)
	if numWorkers > n {
		numWorkers = n
	}
	chunkSize := (n + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(i0, i1 int) {
			defer wg.Done()
			for i := i0; i < i1; i++ {
				s.kernel.ProcessChunk(group[i])
			}
		}(start, end)
	}
	wg.Wait()
}
