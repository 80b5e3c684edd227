package collider

import "gonum.org/v1/gonum/spatial/r2"

// traceSeg wraps a segment with a consumed flag for loop tracing.
type traceSeg struct {
	a, b r2.Vec
	used bool
}

// traceContours chains marching-squares segments edge-to-edge into closed
// point loops, one per connected region. Segments are undirected and each
// interior grid edge is shared by exactly one contour, so walking from any
// unused segment and always stepping to an unused incident segment at the
// current endpoint recovers the simple loop.
func traceContours(segs []segment) [][]r2.Vec {
	nodes := make([]*traceSeg, len(segs))
	adj := map[r2.Vec][]*traceSeg{}
	for i, s := range segs {
		ts := &traceSeg{a: s.a, b: s.b}
		nodes[i] = ts
		adj[s.a] = append(adj[s.a], ts)
		adj[s.b] = append(adj[s.b], ts)
	}

	var loops [][]r2.Vec
	for _, start := range nodes {
		if start.used {
			continue
		}
		start.used = true
		loop := []r2.Vec{start.a, start.b}
		current := start.b

		for {
			var next *traceSeg
			for _, cand := range adj[current] {
				if !cand.used {
					next = cand
					break
				}
			}
			if next == nil {
				break
			}
			next.used = true
			var step r2.Vec
			if next.a == current {
				step = next.b
			} else {
				step = next.a
			}
			loop = append(loop, step)
			current = step
			if current == loop[0] {
				break
			}
		}
		loops = append(loops, loop)
	}
	return loops
}
