// Package fixtures builds small synthetic NTFS images for tests.
package fixtures

import (
	"encoding/binary"
	"unicode/utf16"
)

const (
	SectorSize  = 512
	ClusterSize = 4096
	RecordSize  = 1024

	// Encoded record size: 1 << (256 - 0xf6) = 1024.
	RecordSizeByte = 0xf6

	// 1980-01-01T00:00:00Z as a FILETIME.
	Ticks1980 = uint64(119600064000000000)

	FixupMagic = 0x0003
)

func align8(n int) int {
	return (n + 7) &^ 7
}

func utf16le(s string) []byte {
	u16s := utf16.Encode([]rune(s))
	result := make([]byte, 2*len(u16s))
	for i, c := range u16s {
		binary.LittleEndian.PutUint16(result[2*i:], c)
	}
	return result
}

type BootSector struct {
	BytesPerSector    uint16
	SectorsPerCluster uint8
	TotalSectors      uint64
	MFTCluster        uint64
	MFTMirrorCluster  uint64
	ClustersPerRecord uint8
	ClustersPerIndex  uint8
	SerialNumber      uint64
}

func DefaultBootSector() BootSector {
	return BootSector{
		BytesPerSector:    SectorSize,
		SectorsPerCluster: ClusterSize / SectorSize,
		TotalSectors:      128,
		MFTCluster:        4,
		MFTMirrorCluster:  2,
		ClustersPerRecord: RecordSizeByte,
		ClustersPerIndex:  1,
		SerialNumber:      0x1122334455667788,
	}
}

func (self BootSector) Bytes() []byte {
	b := make([]byte, SectorSize)
	copy(b[0:], []byte{0xeb, 0x52, 0x90})
	copy(b[3:], "NTFS    ")
	binary.LittleEndian.PutUint16(b[0x0b:], self.BytesPerSector)
	b[0x0d] = self.SectorsPerCluster
	b[0x15] = 0xf8
	binary.LittleEndian.PutUint64(b[0x28:], self.TotalSectors)
	binary.LittleEndian.PutUint64(b[0x30:], self.MFTCluster)
	binary.LittleEndian.PutUint64(b[0x38:], self.MFTMirrorCluster)
	b[0x40] = self.ClustersPerRecord
	b[0x44] = self.ClustersPerIndex
	binary.LittleEndian.PutUint64(b[0x48:], self.SerialNumber)
	binary.LittleEndian.PutUint16(b[0x1fe:], 0xaa55)
	return b
}

// Encode a single run. Widths are in bytes.
func EncodeRun(length uint64, delta int64, length_width, delta_width int) []byte {
	result := []byte{byte(delta_width<<4 | length_width)}
	for i := 0; i < length_width; i++ {
		result = append(result, byte(length>>(8*i)))
	}
	for i := 0; i < delta_width; i++ {
		result = append(result, byte(uint64(delta)>>(8*i)))
	}
	return result
}

// Concatenate runs and append the terminator.
func RunList(runs ...[]byte) []byte {
	result := []byte{}
	for _, run := range runs {
		result = append(result, run...)
	}
	return append(result, 0)
}

func header(attr_type uint32, non_resident bool, name string, id uint16) ([]byte, []byte) {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint32(b[0:], attr_type)
	if non_resident {
		b[8] = 1
	}
	encoded := utf16le(name)
	b[9] = byte(len(encoded) / 2)
	binary.LittleEndian.PutUint16(b[14:], id)
	return b, encoded
}

// A resident attribute record.
func ResidentAttribute(attr_type uint32, name string, id uint16, content []byte) []byte {
	hdr, encoded_name := header(attr_type, false, name, id)
	name_offset := 24
	content_offset := align8(name_offset + len(encoded_name))
	length := align8(content_offset + len(content))

	b := make([]byte, length)
	copy(b, hdr)
	binary.LittleEndian.PutUint32(b[4:], uint32(length))
	if len(encoded_name) > 0 {
		binary.LittleEndian.PutUint16(b[10:], uint16(name_offset))
		copy(b[name_offset:], encoded_name)
	}
	binary.LittleEndian.PutUint32(b[16:], uint32(len(content)))
	binary.LittleEndian.PutUint16(b[20:], uint16(content_offset))
	copy(b[content_offset:], content)
	return b
}

// A non resident attribute record. runs must include the terminator.
func NonResidentAttribute(attr_type uint32, name string, id uint16,
	runs []byte, clusters uint64, actual_size uint64) []byte {
	hdr, encoded_name := header(attr_type, true, name, id)
	name_offset := 64
	runs_offset := align8(name_offset + len(encoded_name))
	length := align8(runs_offset + len(runs))

	b := make([]byte, length)
	copy(b, hdr)
	binary.LittleEndian.PutUint32(b[4:], uint32(length))
	if len(encoded_name) > 0 {
		binary.LittleEndian.PutUint16(b[10:], uint16(name_offset))
		copy(b[name_offset:], encoded_name)
	}
	if clusters > 0 {
		binary.LittleEndian.PutUint64(b[24:], clusters-1)
	}
	binary.LittleEndian.PutUint16(b[32:], uint16(runs_offset))
	binary.LittleEndian.PutUint64(b[40:], clusters*ClusterSize)
	binary.LittleEndian.PutUint64(b[48:], actual_size)
	binary.LittleEndian.PutUint64(b[56:], actual_size)
	copy(b[runs_offset:], runs)
	return b
}

// The value of a $FILE_NAME attribute. All four timestamps are set to
// ticks.
func FileNameValue(parent uint64, parent_seq uint16, name string,
	namespace uint8, ticks uint64, size uint64) []byte {
	encoded := utf16le(name)
	b := make([]byte, 66+len(encoded))
	binary.LittleEndian.PutUint64(b[0:], parent|uint64(parent_seq)<<48)
	for _, offset := range []int{8, 16, 24, 32} {
		binary.LittleEndian.PutUint64(b[offset:], ticks)
	}
	binary.LittleEndian.PutUint64(b[40:], size)
	binary.LittleEndian.PutUint64(b[48:], size)
	b[64] = byte(len(encoded) / 2)
	b[65] = namespace
	copy(b[66:], encoded)
	return b
}

func FileName(id uint16, parent uint64, parent_seq uint16, name string,
	namespace uint8, ticks uint64, size uint64) []byte {
	return ResidentAttribute(0x30, "", id,
		FileNameValue(parent, parent_seq, name, namespace, ticks, size))
}

// Flags for Entry.
const (
	InUse     = 1
	Directory = 2
)

type Entry struct {
	Flags        uint16
	Sequence     uint16
	RecordNumber uint32

	// Allocated size. Defaults to RecordSize.
	Size int

	// Leave the sector tails alone.
	NoFixups bool

	Attributes [][]byte
}

func (self Entry) Bytes() []byte {
	size := self.Size
	if size == 0 {
		size = RecordSize
	}

	b := make([]byte, size)
	copy(b, "FILE")

	fixup_offset := 0x30
	fixup_count := size/SectorSize + 1
	if self.NoFixups {
		fixup_count = 0
	}
	attr_offset := align8(fixup_offset + 2*fixup_count)

	binary.LittleEndian.PutUint16(b[4:], uint16(fixup_offset))
	binary.LittleEndian.PutUint16(b[6:], uint16(fixup_count))
	binary.LittleEndian.PutUint16(b[16:], self.Sequence)
	binary.LittleEndian.PutUint16(b[18:], 1)
	binary.LittleEndian.PutUint16(b[20:], uint16(attr_offset))
	binary.LittleEndian.PutUint16(b[22:], self.Flags)
	binary.LittleEndian.PutUint32(b[28:], uint32(size))
	binary.LittleEndian.PutUint16(b[40:], uint16(len(self.Attributes)+1))
	binary.LittleEndian.PutUint32(b[44:], self.RecordNumber)

	offset := attr_offset
	for _, attr := range self.Attributes {
		copy(b[offset:], attr)
		offset += len(attr)
	}
	binary.LittleEndian.PutUint32(b[offset:], 0xffffffff)
	binary.LittleEndian.PutUint32(b[24:], uint32(offset+8))

	if fixup_count > 0 {
		binary.LittleEndian.PutUint16(b[fixup_offset:], FixupMagic)
		for i := 1; i < fixup_count; i++ {
			tail := i*SectorSize - 2
			copy(b[fixup_offset+2*i:], b[tail:tail+2])
			binary.LittleEndian.PutUint16(b[tail:], FixupMagic)
		}
	}

	return b
}

// An in memory volume.
type Image struct {
	Data []byte
}

func NewImage(clusters int) *Image {
	return &Image{Data: make([]byte, clusters*ClusterSize)}
}

func (self *Image) Put(offset int, data []byte) {
	copy(self.Data[offset:], data)
}

func (self *Image) PutCluster(cluster int, data []byte) {
	self.Put(cluster*ClusterSize, data)
}

func (self *Image) PutEntry(mft_offset int, index int, entry Entry) {
	self.Put(mft_offset+index*RecordSize, entry.Bytes())
}
