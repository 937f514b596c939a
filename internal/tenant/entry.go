package tenant

// entry is a cache slot.  lastSeen is a UnixNano timestamp touched on every
// hit via atomic store so the evictor can rank entries without locking.
type entry struct {
	site     *Site
	lastSeen int64
}
