package compiler

import "fmt"

// IDKind selects an allocator counter.
type IDKind int

const (
	// KindQuestion allocates QID1, QID2, ...
	KindQuestion IDKind = iota
	// KindBlock allocates BL_1, BL_2, ...
	KindBlock
	// KindFlow allocates FL_2, FL_3, ... (FL_1 is the reserved flow root).
	KindFlow
)

// Allocator issues identifiers that are unique for one document build. Each
// kind has its own monotonic counter, seeded fresh per build and discarded
// with it; allocators are never shared across builds, so repeated builds from
// identical input yield identical id sequences.
type Allocator struct {
	counters map[IDKind]int
}

// NewAllocator returns a freshly seeded allocator for one build.
func NewAllocator() *Allocator {
	return &Allocator{counters: map[IDKind]int{
		// The flow root claims FL_1 before allocation starts.
		KindFlow: 1,
	}}
}

// Next returns an identifier never previously issued by this allocator for
// the given kind.
func (a *Allocator) Next(kind IDKind) string {
	a.counters[kind]++
	n := a.counters[kind]
	switch kind {
	case KindQuestion:
		return fmt.Sprintf("QID%d", n)
	case KindBlock:
		return fmt.Sprintf("BL_%d", n)
	case KindFlow:
		return fmt.Sprintf("FL_%d", n)
	}
	panic(fmt.Sprintf("compiler: unknown id kind %d", kind))
}
