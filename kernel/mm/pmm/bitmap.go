package pmm

import "math/bits"

const (
	// bitmapWords defines the number of 64-bit words backing a
	// fixedBitmap. The resulting capacity (4096 bits) covers a 16Mb arena
	// which is more than enough for tracking frame reservations while the
	// kernel bootstraps itself.
	bitmapWords = 64

	// bitmapBits is the total bit capacity of a fixedBitmap.
	bitmapBits = bitmapWords * 64
)

// fixedBitmap is a fixed-capacity bit vector tracking frame allocation state.
// Bits are numbered MSB-first within each word: bit 0 of the map is the most
// significant bit of word 0. Bit index i corresponds to the i-th frame after
// the owning arena's first page-aligned frame; indices must never exceed the
// arena's frame count.
type fixedBitmap struct {
	words [bitmapWords]uint64
}

// Set marks the bit at index as used.
func (b *fixedBitmap) Set(index uintptr) {
	b.words[index>>6] |= 1 << (63 - (index & 63))
}

// Unset marks the bit at index as free.
func (b *fixedBitmap) Unset(index uintptr) {
	b.words[index>>6] &^= 1 << (63 - (index & 63))
}

// IsSet returns true if the bit at index is marked as used.
func (b *fixedBitmap) IsSet(index uintptr) bool {
	return b.words[index>>6]&(1<<(63-(index&63))) != 0
}

// FirstUnset returns the index of the first free bit. The second return
// value is false when every bit is set.
func (b *fixedBitmap) FirstUnset() (uintptr, bool) {
	for wordIndex, word := range b.words {
		if word != ^uint64(0) {
			return uintptr(wordIndex)*64 + uintptr(bits.LeadingZeros64(^word)), true
		}
	}

	return 0, false
}

// ContiguousRange returns the index of the first run of num consecutive free
// bits. The second return value is false when no such run exists.
//
// The search is a linear scan over all bits; it is intentionally simple and
// costs O(capacity) but only runs for the rare multi-frame reservations made
// while bootstrapping.
func (b *fixedBitmap) ContiguousRange(num uintptr) (uintptr, bool) {
	if num == 0 || num > bitmapBits {
		return 0, false
	}

	var count uintptr
	for wordIndex, word := range b.words {
		for bit := uintptr(0); bit < 64; bit++ {
			if word&(1<<63) == 0 {
				count++
			} else {
				count = 0
			}

			if count == num {
				return uintptr(wordIndex)*64 + bit + 1 - num, true
			}

			word <<= 1
		}
	}

	return 0, false
}
