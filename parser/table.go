package parser

import (
	"github.com/pkg/errors"
)

// The $MFT stream located by BootstrapMFT. Entries are addressed by
// index into the stream.
type EntryTable struct {
	// Absolute volume offset of the first entry.
	Base       int64
	RecordSize int64

	// Number of bytes of the stream we can address.
	Size  int64
	Count uint64

	Resident bool

	// Set for a resident $MFT - this is the fixed up payload.
	resident []byte

	// Byte ranges of a non resident $MFT in stream order.
	extents []Extent
}

func (self *EntryTable) Extents() []Extent {
	return append([]Extent{}, self.extents...)
}

// The table is fragmented when its runs are not contiguous on disk.
func (self *EntryTable) IsFragmented() bool {
	for i := 1; i < len(self.extents); i++ {
		prev := self.extents[i-1]
		if prev.Sparse || self.extents[i].Sparse ||
			prev.Offset+prev.Length != self.extents[i].Offset {
			return true
		}
	}
	return false
}

// Locate the raw bytes of the record at index. Returns the slice and
// its absolute offset in the volume.
func (self *EntryTable) Record(buffer []byte, index uint64) ([]byte, int64, error) {
	if index >= self.Count {
		return nil, 0, errors.Wrapf(ErrIndexOutOfRange,
			"entry %d (table has %d entries)", index, self.Count)
	}

	// index < Count so this can not overflow.
	relative := int64(index) * self.RecordSize

	if self.Resident {
		end := relative + self.RecordSize
		if end > int64(len(self.resident)) {
			return nil, 0, errors.Wrapf(ErrEntryTruncated,
				"entry %d is past the resident $MFT", index)
		}
		return self.resident[relative:end], self.Base + relative, nil
	}

	var file_offset int64
	for _, extent := range self.extents {
		if relative >= file_offset+extent.Length {
			file_offset += extent.Length
			continue
		}

		if extent.Sparse {
			return nil, 0, errors.Wrapf(ErrEntryUnused,
				"entry %d is in a sparse run", index)
		}

		in_run := relative - file_offset
		if in_run+self.RecordSize > extent.Length {
			return nil, 0, errors.Wrapf(ErrEntryTruncated,
				"entry %d straddles a run boundary", index)
		}

		disk_offset := extent.Offset + in_run
		if disk_offset > int64(len(buffer))-self.RecordSize {
			return nil, 0, errors.Wrapf(ErrEntryTruncated,
				"entry %d at %#x is past the end of the image",
				index, disk_offset)
		}
		return buffer[disk_offset : disk_offset+self.RecordSize], disk_offset, nil
	}

	return nil, 0, errors.Wrapf(ErrEntryTruncated,
		"entry %d is not mapped by the $MFT run list", index)
}
