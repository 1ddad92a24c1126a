package parser

import (
	"encoding/binary"
	"math"
)

// Fixed offset readers over a byte slice. Reads past the end of the
// slice return 0 rather than panic - callers check the slice length
// before trusting a field.

func ParseUint8(b []byte, offset int) uint8 {
	if offset < 0 || offset >= len(b) {
		return 0
	}
	return b[offset]
}

func ParseUint16(b []byte, offset int) uint16 {
	if offset < 0 || offset+2 > len(b) {
		return 0
	}
	return binary.LittleEndian.Uint16(b[offset:])
}

func ParseUint32(b []byte, offset int) uint32 {
	if offset < 0 || offset+4 > len(b) {
		return 0
	}
	return binary.LittleEndian.Uint32(b[offset:])
}

func ParseUint64(b []byte, offset int) uint64 {
	if offset < 0 || offset+8 > len(b) {
		return 0
	}
	return binary.LittleEndian.Uint64(b[offset:])
}

func CapInt64(v int64, max int64) int64 {
	if v > max {
		return max
	}
	return v
}

func CapUint64(v uint64, max uint64) uint64 {
	if v > max {
		return max
	}
	return v
}

// Multiply two non-negative numbers, reporting overflow.
func mulInt64(a, b int64) (int64, bool) {
	if a < 0 || b < 0 {
		return 0, false
	}
	if a != 0 && b > math.MaxInt64/a {
		return 0, false
	}
	return a * b, true
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
