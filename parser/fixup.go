package parser

import (
	"fmt"
)

// Every 512 byte stride of an entry ends with a copy of the update
// sequence number. The real values live in the fixup array.
const FIXUP_STRIDE = 512

// A stride whose last two bytes do not hold the update sequence
// number. This usually means a torn write.
type FixupMismatch struct {
	Sector   int
	Expected uint16
	Found    uint16
}

func (self FixupMismatch) String() string {
	return fmt.Sprintf("Fixup mismatch in sector %d: expected %#04x found %#04x",
		self.Sector, self.Expected, self.Found)
}

// Check the strides of buffer against the fixup array and restore the
// original values of every stride that matches. Strides that do not
// match are reported and left alone. buffer must be a private copy.
func applyFixups(buffer []byte, fixup_offset, fixup_count int,
	restore bool) []FixupMismatch {
	if fixup_count < 2 || fixup_offset < 0 || fixup_offset+2 > len(buffer) {
		return nil
	}

	// The fixup array may claim more strides than fit in the entry.
	fixup_count = int(CapInt64(int64(fixup_count),
		int64((len(buffer)-fixup_offset)/2)))

	// Take a copy of the array before touching the buffer as the
	// array may itself overlap a stride tail.
	table := make([]byte, 2*fixup_count)
	copy(table, buffer[fixup_offset:])
	magic := ParseUint16(table, 0)

	var result []FixupMismatch
	for idx := 1; idx < fixup_count; idx++ {
		sector := idx - 1
		tail := idx*FIXUP_STRIDE - 2
		if tail+2 > len(buffer) {
			break
		}

		found := ParseUint16(buffer, tail)
		if found != magic {
			result = append(result, FixupMismatch{
				Sector:   sector,
				Expected: magic,
				Found:    found,
			})
			continue
		}

		if restore {
			buffer[tail] = table[2*idx]
			buffer[tail+1] = table[2*idx+1]
		}
	}

	return result
}
