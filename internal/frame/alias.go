package frame

import (
	"fmt"
	"sync/atomic"
)

// AliasAllocator issues unique table aliases (_t0, _t1, ...).
//
// Every Table constructed through a Session draws one alias. Aliases are
// strictly increasing in allocation order and never reused; there is no
// reset. Safe for concurrent use (atomic operations).
type AliasAllocator struct {
	next atomic.Int64
}

// NewAliasAllocator creates an allocator whose first alias is _t0.
func NewAliasAllocator() *AliasAllocator {
	return &AliasAllocator{}
}

// NewAliasAllocatorAt creates an allocator whose first alias is _t<start>.
func NewAliasAllocatorAt(start int64) *AliasAllocator {
	a := &AliasAllocator{}
	a.next.Store(start)
	return a
}

// Next returns a fresh alias and advances the counter.
func (a *AliasAllocator) Next() string {
	n := a.next.Add(1) - 1
	return fmt.Sprintf("_t%d", n)
}

// Issued returns how many aliases have been handed out, counting from the
// allocator's start position.
func (a *AliasAllocator) Issued() int64 {
	return a.next.Load()
}
