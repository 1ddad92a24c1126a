package parser

import (
	"time"

	"github.com/Velocidex/ordereddict"
)

// This file defines a model for a decoded MFT entry.

// A contiguous byte range of an attribute value.
type Extent struct {
	// Absolute volume offset. Meaningless for sparse extents.
	Offset   int64
	Length   int64
	Sparse   bool   `json:"Sparse,omitempty"`
	Resident bool   `json:"Resident,omitempty"`
	Stream   string `json:"Stream,omitempty"`

	// The value itself for resident extents.
	Data []byte `json:"-"`
}

type TimeStamps struct {
	CreateTime       time.Time
	FileModifiedTime time.Time
	MFTModifiedTime  time.Time
	AccessedTime     time.Time
}

type FilenameInfo struct {
	Times          TimeStamps
	Type           string
	Name           string
	ParentEntry    uint64
	ParentSequence uint16
	AllocatedSize  uint64
	Size           uint64
}

type Attribute struct {
	Type     string
	TypeId   uint64
	Id       uint64
	Inode    string
	Offset   int64

	// Length of the attribute record in the entry and the logical
	// size of its value.
	Length   uint32
	Size     int64
	Resident bool
	Name     string `json:"Name,omitempty"`
	Flags    string `json:"Flags,omitempty"`
}

// Something wrong with a single attribute. The rest of the entry is
// still usable.
type Problem struct {
	AttributeOffset int64
	AttributeType   string
	Reason          string

	Err error `json:"-"`
}

// Describe a single MFT entry.
type DecodedFile struct {
	MFTID    uint64
	Offset   int64
	Sequence uint16
	Flags    string
	InUse    bool
	IsDir    bool

	// Taken from the first $FILE_NAME attribute. Empty when the entry
	// has none.
	Name     string
	NameType string
	Parent   uint64
	Created  time.Time
	Modified time.Time
	Accessed time.Time

	// Logical size of the unnamed $DATA stream.
	Size int64

	// If multiple filenames are given, we list them here.
	Filenames []*FilenameInfo

	Attributes []*Attribute
	Extents    []Extent
	Fixups     []FixupMismatch `json:"Fixups,omitempty"`
	Problems   []*Problem      `json:"Problems,omitempty"`
}

func (self *DecodedFile) HasName() bool {
	return len(self.Filenames) > 0
}

// All $DATA extents in attribute order.
func (self *DecodedFile) DataExtents() []Extent {
	return append([]Extent{}, self.Extents...)
}

// Extents of a single named stream. "" is the default stream.
func (self *DecodedFile) StreamExtents(stream string) []Extent {
	result := []Extent{}
	for _, extent := range self.Extents {
		if extent.Stream == stream {
			result = append(result, extent)
		}
	}
	return result
}

// Logical size of a $DATA stream.
func (self *DecodedFile) StreamSize(stream string) (int64, bool) {
	for _, attr := range self.Attributes {
		if attr.TypeId == ATTR_TYPE_DATA && attr.Name == stream {
			return attr.Size, true
		}
	}
	return 0, false
}

func (self *DecodedFile) addProblem(attr *NTFS_ATTRIBUTE, err error) {
	problem := &Problem{
		Reason: err.Error(),
		Err:    err,
	}
	if attr != nil {
		problem.AttributeOffset = self.Offset + attr.Offset
		problem.AttributeType = attr.Type().Name
	}
	self.Problems = append(self.Problems, problem)
}

func (self *DecodedFile) Dict() *ordereddict.Dict {
	names := []string{}
	for _, fn := range self.Filenames {
		names = append(names, fn.Name)
	}

	return ordereddict.NewDict().
		Set("MFTID", self.MFTID).
		Set("Offset", self.Offset).
		Set("Sequence", self.Sequence).
		Set("InUse", self.InUse).
		Set("IsDir", self.IsDir).
		Set("Name", self.Name).
		Set("NameType", self.NameType).
		Set("Parent", self.Parent).
		Set("Created", self.Created).
		Set("Modified", self.Modified).
		Set("Accessed", self.Accessed).
		Set("Size", self.Size).
		Set("Names", names).
		Set("Extents", len(self.Extents)).
		Set("Fixups", len(self.Fixups)).
		Set("Problems", len(self.Problems))
}
