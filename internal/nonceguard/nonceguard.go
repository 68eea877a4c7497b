// Package nonceguard remembers recently accepted record nonces so a replayed
// record can be refused even though it still authenticates.
package nonceguard

import (
	"hash/fnv"
	"sync"

	"github.com/riobard/go-bloom"
)

// Defaults sized for a long-lived tunnel: ten slots of 100k nonces each with
// a one-in-a-million false positive rate.
const (
	DefaultSlots    = 10
	DefaultCapacity = 1e6
	DefaultFPR      = 1e-6
)

// Double FNV as the bloom filter hash pair.
func doubleFNV(b []byte) (uint64, uint64) {
	hx := fnv.New64()
	hx.Write(b)
	x := hx.Sum64()
	hy := fnv.New64a()
	hy.Write(b)
	y := hy.Sum64()
	return x, y
}

// Ring is a rotating ring of bloom filters. New nonces land in the current
// slot; once it fills, the oldest slot is recycled. Memory stays bounded at
// the cost of eventually forgetting the oldest nonces, which is acceptable
// because a replay that old is outside any live record's window.
type Ring struct {
	mu           sync.RWMutex
	slots        []bloom.Filter
	slotCapacity int
	position     int
	entries      int
}

// New creates a Ring of slots bloom filters holding capacity nonces in total
// at the given false positive rate.
func New(slots, capacity int, falsePositiveRate float64) *Ring {
	if slots <= 0 {
		slots = DefaultSlots
	}
	r := &Ring{
		slots:        make([]bloom.Filter, slots),
		slotCapacity: capacity / slots,
	}
	for i := range r.slots {
		r.slots[i] = bloom.New(r.slotCapacity, falsePositiveRate, doubleFNV)
	}
	return r
}

// Add records a nonce, recycling the oldest slot when the current one fills.
func (r *Ring) Add(nonce []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries >= r.slotCapacity {
		r.position = (r.position + 1) % len(r.slots)
		r.slots[r.position].Reset()
		r.entries = 0
	}
	r.slots[r.position].Add(nonce)
	r.entries++
}

// Seen reports whether a nonce is still remembered. False positives are
// possible at the configured rate; false negatives only for nonces old
// enough to have rotated out.
func (r *Ring) Seen(nonce []byte) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.slots {
		if s.Test(nonce) {
			return true
		}
	}
	return false
}
