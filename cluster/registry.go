package cluster

import "gonum.org/v1/gonum/spatial/r2"

// MaxClusterID is the capped id pool size; id 0 is reserved as "free/no
// cluster" (spec.md §3 Cell.owner_id and §4.7 id allocation).
const MaxClusterID = 65535

// Registry owns every live cluster, stored in a contiguous vector indexed
// by id so Cell.owner_id can reference a cluster directly without a
// pointer (per §9's indirection-via-id design note); a free-list recycles
// released ids.
type Registry struct {
	slots    []*Cluster // slots[0] is always nil; 0 is the reserved sentinel id
	freeList []uint16
	nextID   uint16

	ExhaustedCount int // bumped each time Create fails from id exhaustion; logged once by the caller
}

// NewRegistry returns an empty cluster registry.
func NewRegistry() *Registry {
	return &Registry{
		slots:  make([]*Cluster, 1, 64), // index 0 reserved
		nextID: 1,
	}
}

func (r *Registry) allocID() (uint16, bool) {
	if n := len(r.freeList); n > 0 {
		id := r.freeList[n-1]
		r.freeList = r.freeList[:n-1]
		return id, true
	}
	// nextID is a uint16: after MaxClusterID is handed out it wraps to 0.
	if r.nextID == 0 || int(r.nextID) > MaxClusterID {
		return 0, false
	}
	id := r.nextID
	r.nextID++
	return id, true
}

// Create allocates a new cluster from a pixel list and world position,
// returning its id, or the sentinel id 0 if the id pool is exhausted.
func (r *Registry) Create(pixels []Pixel, worldPosition r2.Vec) uint16 {
	id, ok := r.allocID()
	if !ok {
		r.ExhaustedCount++
		return 0
	}
	c := newCluster(id, pixels, worldPosition)
	r.put(id, c)
	return id
}

// createWithID allocates a fresh id and installs a new cluster there,
// returning the cluster itself; used by fracture to mint descendants.
func (r *Registry) createWithID(pixels []Pixel, worldPosition r2.Vec) (*Cluster, bool) {
	id, ok := r.allocID()
	if !ok {
		r.ExhaustedCount++
		return nil, false
	}
	c := newCluster(id, pixels, worldPosition)
	r.put(id, c)
	return c, true
}

func (r *Registry) put(id uint16, c *Cluster) {
	for len(r.slots) <= int(id) {
		r.slots = append(r.slots, nil)
	}
	r.slots[id] = c
}

// Destroy frees a cluster's id for reuse. Destroying an unknown or
// already-freed id is a no-op.
func (r *Registry) Destroy(id uint16) {
	if id == 0 || int(id) >= len(r.slots) || r.slots[id] == nil {
		return
	}
	r.slots[id] = nil
	r.freeList = append(r.freeList, id)
}

// Get returns the cluster with the given id, or false if it does not
// exist.
func (r *Registry) Get(id uint16) (*Cluster, bool) {
	if id == 0 || int(id) >= len(r.slots) {
		return nil, false
	}
	c := r.slots[id]
	return c, c != nil
}

// All returns every live cluster. The result must not be retained across
// a fracture or destroy call.
func (r *Registry) All() []*Cluster {
	out := make([]*Cluster, 0, len(r.slots))
	for _, c := range r.slots {
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}

// Len returns the number of live clusters.
func (r *Registry) Len() int {
	n := 0
	for _, c := range r.slots {
		if c != nil {
			n++
		}
	}
	return n
}
