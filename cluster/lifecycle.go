package cluster

import "gonum.org/v1/gonum/spatial/r2"

// CreateCluster allocates a cluster from a pixel list and world position
// and, if an engine is attached, creates its physics body from a
// marching-squares-free bounding outline over the pixels (the same coarse
// outline fracture gives its descendants — see boundingOutline). Returns
// the new id and true, or 0 and false if the cluster id pool is
// exhausted.
func (s *Sync) CreateCluster(pixels []Pixel, worldPosition r2.Vec) (uint16, bool) {
	id := s.Registry.Create(pixels, worldPosition)
	if id == 0 {
		return 0, false
	}
	if s.Engine == nil {
		return id, true
	}
	c, ok := s.Registry.Get(id)
	if !ok {
		return id, true
	}
	c.Body = s.Engine.CreateBody(boundingOutline(pixels), worldPosition)
	return id, true
}

// DestroyCluster removes a cluster and its physics body. Returns false if
// the id does not name a live cluster.
func (s *Sync) DestroyCluster(id uint16) bool {
	c, ok := s.Registry.Get(id)
	if !ok {
		return false
	}
	if c.Body != 0 {
		s.Engine.DestroyBody(c.Body)
	}
	s.clearFootprint(c)
	s.Registry.Destroy(id)
	return true
}

// FractureCluster externally triggers fracture.go's split logic on a live
// cluster, bypassing the sustained-compression detector — the test hook
// spec.md §6 names explicitly, distinct from the internal trigger in
// checkCompression. Returns false if the id does not name a live cluster.
func (s *Sync) FractureCluster(id uint16) bool {
	c, ok := s.Registry.Get(id)
	if !ok {
		return false
	}
	s.fracture(c)
	return true
}
