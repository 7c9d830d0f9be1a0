package ecs

// EntityID encodes a 32-bit index in the lower bits and a 32-bit generation
// in the upper bits. Generation increments on destroy so a stale reference
// never aliases a recycled slot.
type EntityID uint64

func NewEntityID(index uint32, generation uint32) EntityID {
	return EntityID(uint64(generation)<<32 | uint64(index))
}

func (id EntityID) Index() uint32      { return uint32(id) }
func (id EntityID) Generation() uint32 { return uint32(id >> 32) }
func (id EntityID) IsZero() bool       { return id == 0 }

// EntityPool allocates entity identifiers with generational indices and a
// free list. Destroyed indices are recycled with a bumped generation.
type EntityPool struct {
	generations []uint32
	freeList    []uint32
	nextIndex   uint32
	liveCount   int
}

func NewEntityPool() *EntityPool {
	return &EntityPool{
		generations: make([]uint32, 0, 1024),
		freeList:    make([]uint32, 0, 256),
	}
}

func (p *EntityPool) Create() EntityID {
	p.liveCount++
	if len(p.freeList) > 0 {
		idx := p.freeList[len(p.freeList)-1]
		p.freeList = p.freeList[:len(p.freeList)-1]
		return NewEntityID(idx, p.generations[idx])
	}
	idx := p.nextIndex
	p.nextIndex++
	if int(idx) >= len(p.generations) {
		p.generations = append(p.generations, 0)
	}
	return NewEntityID(idx, p.generations[idx])
}

func (p *EntityPool) Alive(id EntityID) bool {
	idx := id.Index()
	if idx >= p.nextIndex {
		return false
	}
	return p.generations[idx] == id.Generation()
}

// Destroy invalidates the identifier and reports whether it was live.
// Destroying a stale or unknown id is a no-op; double-destroy at tick
// boundaries is normal, not an error.
func (p *EntityPool) Destroy(id EntityID) bool {
	idx := id.Index()
	if idx >= p.nextIndex {
		return false
	}
	if p.generations[idx] != id.Generation() {
		return false // already destroyed (stale reference)
	}
	p.generations[idx]++
	p.freeList = append(p.freeList, idx)
	p.liveCount--
	return true
}

// Live returns the number of currently live entities.
func (p *EntityPool) Live() int {
	return p.liveCount
}
