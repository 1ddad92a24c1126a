package parser

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Where the value of an attribute lives.
type ResolvedAttribute struct {
	Attribute *NTFS_ATTRIBUTE
	Resident  bool

	// Absolute volume offset of a resident value.
	DataOffset int64

	// Logical size of the value.
	DataSize int64

	// Copy of a resident value.
	Data []byte

	// Run list of a non resident value.
	Runs []DataRun

	Extents []Extent
}

// Resolve the value of attr. For non resident attributes a partial
// result is returned together with any run list error.
func ResolveAttribute(entry *MFT_ENTRY, attr *NTFS_ATTRIBUTE,
	cluster_size int64) (*ResolvedAttribute, error) {
	result := &ResolvedAttribute{
		Attribute: attr,
		Resident:  attr.IsResident(),
	}

	if result.Resident {
		if len(attr.b) < RESIDENT_HEADER_SIZE {
			return nil, errors.Wrapf(ErrAttributeSizeInvalid,
				"resident attribute at %#x is only %d bytes",
				attr.Offset, len(attr.b))
		}

		content_offset := int64(attr.Content_offset())
		content_size := int64(attr.Content_size())
		if content_offset+content_size > int64(len(attr.b)) {
			return nil, errors.Wrapf(ErrAttributeSizeInvalid,
				"resident value %#x+%#x overruns attribute at %#x of size %#x",
				content_offset, content_size, attr.Offset, len(attr.b))
		}

		result.Data = make([]byte, content_size)
		copy(result.Data, attr.b[content_offset:content_offset+content_size])
		result.DataOffset = entry.Offset + attr.Offset + content_offset
		result.DataSize = content_size
		result.Extents = []Extent{{
			Offset:   result.DataOffset,
			Length:   content_size,
			Resident: true,
			Data:     result.Data,
		}}
		return result, nil
	}

	if len(attr.b) < NON_RESIDENT_HEADER_SIZE {
		return nil, errors.Wrapf(ErrAttributeSizeInvalid,
			"non resident attribute at %#x is only %d bytes",
			attr.Offset, len(attr.b))
	}

	result.DataSize = attr.DataSize()

	runlist_offset := int(attr.Runlist_offset())
	runs, err := DecodeRuns(attr.b, runlist_offset)
	result.Runs = runs

	extents, ext_err := RunsToExtents(runs, cluster_size)
	result.Extents = extents
	if err != nil {
		return result, errors.Wrapf(err, "attribute at %#x", attr.Offset)
	}
	if ext_err != nil {
		return result, errors.Wrapf(ext_err, "attribute at %#x", attr.Offset)
	}

	return result, nil
}

// Parse a resolved $FILE_NAME value.
func ParseFileName(resolved *ResolvedAttribute) (*FILE_NAME, error) {
	if !resolved.Resident {
		return nil, errors.Wrapf(ErrUnsupportedNonResidentName,
			"attribute at %#x", resolved.Attribute.Offset)
	}

	if len(resolved.Data) < FILE_NAME_HEADER_SIZE {
		return nil, errors.Wrapf(ErrAttributeSizeInvalid,
			"$FILE_NAME value is only %d bytes", len(resolved.Data))
	}

	return &FILE_NAME{b: resolved.Data, Offset: resolved.DataOffset}, nil
}

func (self *ResolvedAttribute) DebugString() string {
	result := []string{self.Attribute.DebugString()}

	name := self.Attribute.Name()
	if name != "" {
		result = append(result, "Name: "+name)
	}

	if self.Resident {
		length := CapInt64(int64(len(self.Data)), 100)
		result = append(result, fmt.Sprintf("Data: \n%s",
			hex.Dump(self.Data[:length])))
	} else {
		result = append(result, fmt.Sprintf("Runlist: %v", self.Runs))
	}

	return strings.Join(result, "\n")
}
