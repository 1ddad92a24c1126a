package parser

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// These are hand written parsers for often used structs. They all work
// over an in memory slice.

const (
	ATTR_TYPE_STANDARD_INFORMATION  = 0x10
	ATTR_TYPE_ATTRIBUTE_LIST        = 0x20
	ATTR_TYPE_FILE_NAME             = 0x30
	ATTR_TYPE_OBJECT_ID             = 0x40
	ATTR_TYPE_SECURITY_DESCRIPTOR   = 0x50
	ATTR_TYPE_VOLUME_NAME           = 0x60
	ATTR_TYPE_VOLUME_INFORMATION    = 0x70
	ATTR_TYPE_DATA                  = 0x80
	ATTR_TYPE_INDEX_ROOT            = 0x90
	ATTR_TYPE_INDEX_ALLOCATION      = 0xa0
	ATTR_TYPE_BITMAP                = 0xb0
	ATTR_TYPE_REPARSE_POINT         = 0xc0
	ATTR_TYPE_EA_INFORMATION        = 0xd0
	ATTR_TYPE_EA                    = 0xe0
	ATTR_TYPE_LOGGED_UTILITY_STREAM = 0x100
	ATTR_TYPE_END                   = 0xffffffff

	ATTRIBUTE_HEADER_SIZE    = 16
	RESIDENT_HEADER_SIZE     = 24
	NON_RESIDENT_HEADER_SIZE = 64

	// Offset of the name inside a $FILE_NAME value.
	FILE_NAME_HEADER_SIZE = 66
)

var attribute_names = map[uint32]string{
	ATTR_TYPE_STANDARD_INFORMATION:  "$STANDARD_INFORMATION",
	ATTR_TYPE_ATTRIBUTE_LIST:        "$ATTRIBUTE_LIST",
	ATTR_TYPE_FILE_NAME:             "$FILE_NAME",
	ATTR_TYPE_OBJECT_ID:             "$OBJECT_ID",
	ATTR_TYPE_SECURITY_DESCRIPTOR:   "$SECURITY_DESCRIPTOR",
	ATTR_TYPE_VOLUME_NAME:           "$VOLUME_NAME",
	ATTR_TYPE_VOLUME_INFORMATION:    "$VOLUME_INFORMATION",
	ATTR_TYPE_DATA:                  "$DATA",
	ATTR_TYPE_INDEX_ROOT:            "$INDEX_ROOT",
	ATTR_TYPE_INDEX_ALLOCATION:      "$INDEX_ALLOCATION",
	ATTR_TYPE_BITMAP:                "$BITMAP",
	ATTR_TYPE_REPARSE_POINT:         "$REPARSE_POINT",
	ATTR_TYPE_EA_INFORMATION:        "$EA_INFORMATION",
	ATTR_TYPE_EA:                    "$EA",
	ATTR_TYPE_LOGGED_UTILITY_STREAM: "$LOGGED_UTILITY_STREAM",
}

func isKnownAttributeType(value uint32) bool {
	_, pres := attribute_names[value]
	return pres
}

type Enumeration struct {
	Value uint64
	Name  string
}

func (self *Enumeration) DebugString() string {
	return fmt.Sprintf("%s (%d)", self.Name, self.Value)
}

type Flags struct {
	Value uint64
	Names map[string]bool
}

func (self *Flags) IsSet(flag string) bool {
	return self.Names[flag]
}

func (self *Flags) String() string {
	names := []string{}
	for k := range self.Names {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

func (self *Flags) DebugString() string {
	return fmt.Sprintf("%d (%v)", self.Value, self.String())
}

// An attribute record. b covers the whole record as declared by its
// Length field.
type NTFS_ATTRIBUTE struct {
	b []byte

	// Offset of the record inside its entry.
	Offset int64
}

func (self *NTFS_ATTRIBUTE) Size() int {
	return len(self.b)
}

func (self *NTFS_ATTRIBUTE) Type() *Enumeration {
	value := ParseUint32(self.b, 0)
	name, pres := attribute_names[value]
	if !pres {
		name = "Unknown"
	}
	return &Enumeration{Value: uint64(value), Name: name}
}

func (self *NTFS_ATTRIBUTE) Length() uint32 {
	return ParseUint32(self.b, 4)
}

func (self *NTFS_ATTRIBUTE) Resident() *Enumeration {
	value := ParseUint8(self.b, 8)
	name := "NON-RESIDENT"
	if value == 0 {
		name = "RESIDENT"
	}
	return &Enumeration{Value: uint64(value), Name: name}
}

func (self *NTFS_ATTRIBUTE) IsResident() bool {
	return ParseUint8(self.b, 8) == 0
}

func (self *NTFS_ATTRIBUTE) name_length() byte {
	return ParseUint8(self.b, 9)
}

func (self *NTFS_ATTRIBUTE) name_offset() uint16 {
	return ParseUint16(self.b, 10)
}

func (self *NTFS_ATTRIBUTE) Name() string {
	length := int(self.name_length()) * 2
	if length == 0 {
		return ""
	}

	start := int(self.name_offset())
	end := start + length
	if start >= len(self.b) {
		return ""
	}
	if end > len(self.b) {
		end = len(self.b)
	}
	return ParseUTF16String(self.b[start:end])
}

func (self *NTFS_ATTRIBUTE) Flags() AttributeFlags {
	return AttributeFlags(ParseUint16(self.b, 12))
}

type AttributeFlags uint64

func (self AttributeFlags) String() string {
	names := []string{}

	if self&(1<<0) != 0 {
		names = append(names, "COMPRESSED")
	}

	if self&(1<<14) != 0 {
		names = append(names, "ENCRYPTED")
	}

	if self&(1<<15) != 0 {
		names = append(names, "SPARSE")
	}

	return strings.Join(names, ",")
}

func (self AttributeFlags) DebugString() string {
	return fmt.Sprintf("%d (%v)", uint64(self), self.String())
}

func (self AttributeFlags) IsCompressed() bool {
	return self&1 != 0
}

func (self AttributeFlags) IsEncrypted() bool {
	return self&(1<<14) != 0
}

func (self AttributeFlags) IsSparse() bool {
	return self&(1<<15) != 0
}

func (self *NTFS_ATTRIBUTE) Attribute_id() uint16 {
	return ParseUint16(self.b, 14)
}

// Resident attributes.
func (self *NTFS_ATTRIBUTE) Content_size() uint32 {
	return ParseUint32(self.b, 16)
}

func (self *NTFS_ATTRIBUTE) Content_offset() uint16 {
	return ParseUint16(self.b, 20)
}

// Non resident attributes.
func (self *NTFS_ATTRIBUTE) Runlist_vcn_start() uint64 {
	return ParseUint64(self.b, 16)
}

func (self *NTFS_ATTRIBUTE) Runlist_vcn_end() uint64 {
	return ParseUint64(self.b, 24)
}

func (self *NTFS_ATTRIBUTE) Runlist_offset() uint16 {
	return ParseUint16(self.b, 32)
}

func (self *NTFS_ATTRIBUTE) Compression_unit_size() uint16 {
	return ParseUint16(self.b, 34)
}

func (self *NTFS_ATTRIBUTE) Allocated_size() uint64 {
	return ParseUint64(self.b, 40)
}

func (self *NTFS_ATTRIBUTE) Actual_size() uint64 {
	return ParseUint64(self.b, 48)
}

func (self *NTFS_ATTRIBUTE) Initialized_size() uint64 {
	return ParseUint64(self.b, 56)
}

// The logical size of the attribute's value.
func (self *NTFS_ATTRIBUTE) DataSize() int64 {
	if self.IsResident() {
		return int64(self.Content_size())
	}
	return int64(CapUint64(self.Actual_size(), math.MaxInt64))
}

func (self *NTFS_ATTRIBUTE) DebugString() string {
	result := fmt.Sprintf("struct NTFS_ATTRIBUTE @ %#x:\n", self.Offset)
	result += fmt.Sprintf("  Type: %v\n", self.Type().DebugString())
	result += fmt.Sprintf("  Length: %#0x\n", self.Length())
	result += fmt.Sprintf("  Resident: %v\n", self.Resident().DebugString())
	result += fmt.Sprintf("  name_length: %#0x\n", self.name_length())
	result += fmt.Sprintf("  name_offset: %#0x\n", self.name_offset())
	result += fmt.Sprintf("  Flags: %v\n", self.Flags().DebugString())
	result += fmt.Sprintf("  Attribute_id: %#0x\n", self.Attribute_id())
	if self.IsResident() {
		result += fmt.Sprintf("  Content_size: %#0x\n", self.Content_size())
		result += fmt.Sprintf("  Content_offset: %#0x\n", self.Content_offset())
	} else {
		result += fmt.Sprintf("  Runlist_vcn_start: %#0x\n", self.Runlist_vcn_start())
		result += fmt.Sprintf("  Runlist_vcn_end: %#0x\n", self.Runlist_vcn_end())
		result += fmt.Sprintf("  Runlist_offset: %#0x\n", self.Runlist_offset())
		result += fmt.Sprintf("  Compression_unit_size: %#0x\n", self.Compression_unit_size())
		result += fmt.Sprintf("  Allocated_size: %#0x\n", self.Allocated_size())
		result += fmt.Sprintf("  Actual_size: %#0x\n", self.Actual_size())
		result += fmt.Sprintf("  Initialized_size: %#0x\n", self.Initialized_size())
	}
	return result
}

// Header accessors for an MFT entry.
func (self *MFT_ENTRY) Magic() string {
	if len(self.b) < 4 {
		return ""
	}
	return string(self.b[0:4])
}

func (self *MFT_ENTRY) Fixup_offset() uint16 {
	return ParseUint16(self.b, 4)
}

func (self *MFT_ENTRY) Fixup_count() uint16 {
	return ParseUint16(self.b, 6)
}

func (self *MFT_ENTRY) Logfile_sequence_number() uint64 {
	return ParseUint64(self.b, 8)
}

func (self *MFT_ENTRY) Sequence_value() uint16 {
	return ParseUint16(self.b, 16)
}

func (self *MFT_ENTRY) Link_count() uint16 {
	return ParseUint16(self.b, 18)
}

func (self *MFT_ENTRY) Attribute_offset() uint16 {
	return ParseUint16(self.b, 20)
}

const (
	MFT_ENTRY_FLAG_IN_USE     = 1 << 0
	MFT_ENTRY_FLAG_DIRECTORY  = 1 << 1
	MFT_ENTRY_FLAG_IN_EXTEND  = 1 << 2
	MFT_ENTRY_FLAG_VIEW_INDEX = 1 << 3

	MFT_ENTRY_KNOWN_FLAGS = 0xf
)

func (self *MFT_ENTRY) Flags() *Flags {
	value := ParseUint16(self.b, 22)
	names := make(map[string]bool)

	if value&MFT_ENTRY_FLAG_IN_USE != 0 {
		names["ALLOCATED"] = true
	}

	if value&MFT_ENTRY_FLAG_DIRECTORY != 0 {
		names["DIRECTORY"] = true
	}

	if value&MFT_ENTRY_FLAG_IN_EXTEND != 0 {
		names["IN_EXTEND"] = true
	}

	if value&MFT_ENTRY_FLAG_VIEW_INDEX != 0 {
		names["VIEW_INDEX"] = true
	}

	return &Flags{Value: uint64(value), Names: names}
}

// Used size of the entry.
func (self *MFT_ENTRY) Mft_entry_size() uint32 {
	return ParseUint32(self.b, 24)
}

func (self *MFT_ENTRY) Mft_entry_allocated() uint32 {
	return ParseUint32(self.b, 28)
}

func (self *MFT_ENTRY) Base_record_reference() uint64 {
	return ParseUint64(self.b, 32)
}

func (self *MFT_ENTRY) Next_attribute_id() uint16 {
	return ParseUint16(self.b, 40)
}

func (self *MFT_ENTRY) Record_number() uint32 {
	return ParseUint32(self.b, 44)
}

func (self *MFT_ENTRY) DebugString() string {
	result := fmt.Sprintf("struct MFT_ENTRY @ %#x:\n", self.Offset)
	result += fmt.Sprintf("  Magic: %q\n", self.Magic())
	result += fmt.Sprintf("  Fixup_offset: %#0x\n", self.Fixup_offset())
	result += fmt.Sprintf("  Fixup_count: %#0x\n", self.Fixup_count())
	result += fmt.Sprintf("  Logfile_sequence_number: %#0x\n", self.Logfile_sequence_number())
	result += fmt.Sprintf("  Sequence_value: %#0x\n", self.Sequence_value())
	result += fmt.Sprintf("  Link_count: %#0x\n", self.Link_count())
	result += fmt.Sprintf("  Attribute_offset: %#0x\n", self.Attribute_offset())
	result += fmt.Sprintf("  Flags: %v\n", self.Flags().DebugString())
	result += fmt.Sprintf("  Mft_entry_size: %#0x\n", self.Mft_entry_size())
	result += fmt.Sprintf("  Mft_entry_allocated: %#0x\n", self.Mft_entry_allocated())
	result += fmt.Sprintf("  Base_record_reference: %#0x\n", self.Base_record_reference())
	result += fmt.Sprintf("  Next_attribute_id: %#0x\n", self.Next_attribute_id())
	result += fmt.Sprintf("  Record_number: %#0x\n", self.Record_number())
	return result
}

// The value of a $FILE_NAME attribute.
type FILE_NAME struct {
	b []byte

	// Absolute offset of the value in the volume.
	Offset int64
}

func (self *FILE_NAME) MftReference() uint64 {
	return ParseUint64(self.b, 0) & 0xffffffffffff
}

func (self *FILE_NAME) Seq_num() uint16 {
	return ParseUint16(self.b, 6)
}

func (self *FILE_NAME) Created() *WinFileTime {
	return NewWinFileTime(self.b, 8)
}

func (self *FILE_NAME) File_modified() *WinFileTime {
	return NewWinFileTime(self.b, 16)
}

func (self *FILE_NAME) Mft_modified() *WinFileTime {
	return NewWinFileTime(self.b, 24)
}

func (self *FILE_NAME) File_accessed() *WinFileTime {
	return NewWinFileTime(self.b, 32)
}

func (self *FILE_NAME) Allocated_size() uint64 {
	return ParseUint64(self.b, 40)
}

func (self *FILE_NAME) FilenameSize() uint64 {
	return ParseUint64(self.b, 48)
}

func (self *FILE_NAME) Flags() uint32 {
	return ParseUint32(self.b, 56)
}

func (self *FILE_NAME) Reparse_value() uint32 {
	return ParseUint32(self.b, 60)
}

func (self *FILE_NAME) _length_of_name() byte {
	return ParseUint8(self.b, 64)
}

func (self *FILE_NAME) NameType() *Enumeration {
	value := ParseUint8(self.b, 65)
	name := "Unknown"
	switch value {
	case 0:
		name = "POSIX"
	case 1:
		name = "Win32"
	case 2:
		name = "DOS"
	case 3:
		name = "DOS+Win32"
	}
	return &Enumeration{Value: uint64(value), Name: name}
}

// Name length declared in the header runs past the value.
func (self *FILE_NAME) IsTruncated() bool {
	return FILE_NAME_HEADER_SIZE+2*int(self._length_of_name()) > len(self.b)
}

func (self *FILE_NAME) Name() string {
	end := FILE_NAME_HEADER_SIZE + 2*int(self._length_of_name())
	if end > len(self.b) {
		end = len(self.b)
	}
	if end <= FILE_NAME_HEADER_SIZE {
		return ""
	}
	return ParseUTF16String(self.b[FILE_NAME_HEADER_SIZE:end])
}

func (self *FILE_NAME) DebugString() string {
	result := fmt.Sprintf("struct FILE_NAME @ %#x:\n", self.Offset)
	result += fmt.Sprintf("  MftReference: %#0x\n", self.MftReference())
	result += fmt.Sprintf("  Seq_num: %#0x\n", self.Seq_num())
	result += fmt.Sprintf("  Created: %v\n", self.Created().DebugString())
	result += fmt.Sprintf("  File_modified: %v\n", self.File_modified().DebugString())
	result += fmt.Sprintf("  Mft_modified: %v\n", self.Mft_modified().DebugString())
	result += fmt.Sprintf("  File_accessed: %v\n", self.File_accessed().DebugString())
	result += fmt.Sprintf("  Allocated_size: %#0x\n", self.Allocated_size())
	result += fmt.Sprintf("  FilenameSize: %#0x\n", self.FilenameSize())
	result += fmt.Sprintf("  Flags: %#0x\n", self.Flags())
	result += fmt.Sprintf("  NameType: %v\n", self.NameType().DebugString())
	result += fmt.Sprintf("  Name: %q\n", self.Name())
	return result
}
