package format

import "math"

// Alignment utilities for the heap arena.
// Block sizes are rounded to the pointer alignment; page-backed sources commit
// memory in whole pages.

// Align8 returns n aligned up to the next 8-byte boundary.
// Used for block sizes, which must be pointer aligned.
//
// Example:
//
//	Align8(1)  = 8
//	Align8(8)  = 8
//	Align8(9)  = 16
//	Align8(16) = 16
func Align8(n int) int {
	return (n + AlignmentMask) & ^AlignmentMask
}

// AlignPage returns n aligned up to the next page boundary.
//
// Example:
//
//	AlignPage(1)    = 4096
//	AlignPage(4096) = 4096
//	AlignPage(4097) = 8192
func AlignPage(n int) int {
	return (n + PageAlignmentMask) & ^PageAlignmentMask
}

// AlignDownPage returns n rounded down to the previous page boundary.
func AlignDownPage(n int) int {
	return n & ^PageAlignmentMask
}

// AlignUp rounds n up to a multiple of unit. unit must be positive.
// Returns false if the result does not fit in an int.
func AlignUp(n, unit int) (int, bool) {
	if unit <= 0 || n < 0 {
		return 0, false
	}
	rem := n % unit
	if rem == 0 {
		return n, true
	}
	if n > math.MaxInt-(unit-rem) {
		return 0, false
	}
	return n + (unit - rem), true
}

// IsAligned8 reports whether n sits on an 8-byte boundary.
func IsAligned8(n int) bool {
	return n&AlignmentMask == 0
}
