package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	MAX_MFT_ENTRY_SIZE = 0x10000

	// The fixed header and the fixup array offset.
	MIN_MFT_ENTRY_SIZE = 0x30
)

var FILE_SIGNATURE = []byte("FILE")

// An MFT entry read into memory with its fixups applied.
type MFT_ENTRY struct {
	// Private fixed up copy of the entry.
	b []byte

	// Absolute offset of the entry in the volume.
	Offset int64

	// Strides that failed fixup validation.
	Fixups []FixupMismatch

	// Entry header is suspicious - attributes are walked tolerantly.
	Lenient bool
}

// Read the MFT entry at the start of data. data may be longer than
// the entry, the entry's own allocated size decides how much is used.
func ReadEntry(data []byte, offset int64, options Options) (*MFT_ENTRY, error) {
	if len(data) < MIN_MFT_ENTRY_SIZE {
		return nil, errors.Wrapf(ErrEntryTruncated,
			"only %d bytes available at %#x", len(data), offset)
	}

	attr_offset := ParseUint16(data, 20)
	if !bytes.Equal(data[:4], FILE_SIGNATURE) {
		// Slots which were never written are all zero.
		if attr_offset == 0 && isZero(data[:4]) {
			return nil, errors.Wrapf(ErrEntryUnused,
				"entry at %#x was never written", offset)
		}
		return nil, errors.Wrapf(ErrBadEntrySignature,
			"entry at %#x has signature %q", offset, data[:4])
	}

	if attr_offset == 0 {
		return nil, errors.Wrapf(ErrEntryUnused,
			"entry at %#x has no attributes", offset)
	}

	size := int64(ParseUint32(data, 28))
	if size == 0 || size > int64(len(data)) {
		size = int64(len(data))
	}
	size = CapInt64(size, MAX_MFT_ENTRY_SIZE)
	if size < MIN_MFT_ENTRY_SIZE {
		return nil, errors.Wrapf(ErrEntryTruncated,
			"entry at %#x is only %d bytes", offset, size)
	}

	buffer := make([]byte, size)
	copy(buffer, data)

	result := &MFT_ENTRY{b: buffer, Offset: offset}
	result.Fixups = applyFixups(buffer,
		int(result.Fixup_offset()), int(result.Fixup_count()),
		!options.NoFixupRestore)

	logger := options.logger()
	for _, mismatch := range result.Fixups {
		logger.Warn("Fixup mismatch",
			zap.Int64("entry_offset", offset),
			zap.Uint32("record_number", result.Record_number()),
			zap.Int("sector", mismatch.Sector),
			zap.Uint16("expected", mismatch.Expected),
			zap.Uint16("found", mismatch.Found))
	}

	flags := result.Flags().Value
	result.Lenient = options.ForceLenient ||
		flags&^MFT_ENTRY_KNOWN_FLAGS != 0 ||
		flags&MFT_ENTRY_FLAG_IN_USE == 0

	return result, nil
}

func (self *MFT_ENTRY) Data() []byte {
	return self.b
}

func (self *MFT_ENTRY) IsInUse() bool {
	return self.Flags().Value&MFT_ENTRY_FLAG_IN_USE != 0
}

func (self *MFT_ENTRY) IsDir() bool {
	return self.Flags().Value&MFT_ENTRY_FLAG_DIRECTORY != 0
}

// The part of the entry that holds attributes.
func (self *MFT_ENTRY) usedSize() int {
	used := int(self.Mft_entry_size())
	if used > len(self.b) {
		used = len(self.b)
	}

	// A broken used size would hide every attribute. The tolerant
	// walk uses the whole entry instead.
	if self.Lenient && used <= int(self.Attribute_offset()) {
		used = len(self.b)
	}
	return used
}

func (self *MFT_ENTRY) Attributes() *AttributeIterator {
	return NewAttributeIterator(self.b,
		int(self.Attribute_offset()), self.usedSize(), self.Lenient)
}

func (self *MFT_ENTRY) EnumerateAttributes() ([]*NTFS_ATTRIBUTE, error) {
	result := make([]*NTFS_ATTRIBUTE, 0, 16)
	it := self.Attributes()
	for it.Next() {
		result = append(result, it.Attribute())
	}
	return result, it.Err()
}

// Find the first attribute of this type and stream name.
func (self *MFT_ENTRY) GetAttribute(attr_type uint64, name string) (
	*NTFS_ATTRIBUTE, error) {
	it := self.Attributes()
	for it.Next() {
		attr := it.Attribute()
		if attr.Type().Value == attr_type && attr.Name() == name {
			return attr, nil
		}
	}
	if it.Err() != nil {
		return nil, it.Err()
	}
	return nil, errors.New("Attribute not found!")
}

func (self *MFT_ENTRY) Display() string {
	result := []string{self.DebugString()}
	for _, mismatch := range self.Fixups {
		result = append(result, mismatch.String())
	}

	result = append(result, "Attribute:")
	attrs, err := self.EnumerateAttributes()
	for _, attr := range attrs {
		result = append(result, attr.DebugString())
	}
	if err != nil {
		result = append(result, "Error: "+err.Error())
	}

	return fmt.Sprintf("[MFT_ENTRY] @ %#0x\n", self.Offset) +
		strings.Join(result, "\n")
}

// Walks the attribute records of an entry. Iteration ends at the END
// marker or when the next record would run past limit.
//
// In lenient mode records with an unknown type or an implausible size
// are skipped in 8 byte steps until something that looks like an
// attribute header turns up. This is used for entries whose header is
// suspicious, e.g. deleted or half written entries.
type AttributeIterator struct {
	entry   []byte
	offset  int
	limit   int
	lenient bool

	attr *NTFS_ATTRIBUTE
	err  error
	done bool
}

func NewAttributeIterator(entry []byte, offset, limit int,
	lenient bool) *AttributeIterator {
	if limit > len(entry) {
		limit = len(entry)
	}
	return &AttributeIterator{
		entry:   entry,
		offset:  offset,
		limit:   limit,
		lenient: lenient,
	}
}

func (self *AttributeIterator) Attribute() *NTFS_ATTRIBUTE {
	return self.attr
}

func (self *AttributeIterator) Err() error {
	return self.err
}

// Offset of the next record to examine.
func (self *AttributeIterator) Offset() int {
	return self.offset
}

func (self *AttributeIterator) stop() bool {
	self.done = true
	return false
}

func (self *AttributeIterator) Next() bool {
	for !self.done {
		if self.offset < 0 || self.offset+4 > self.limit {
			return self.stop()
		}

		attr_type := ParseUint32(self.entry, self.offset)
		if attr_type == ATTR_TYPE_END {
			return self.stop()
		}

		if self.offset+ATTRIBUTE_HEADER_SIZE > self.limit {
			return self.stop()
		}

		length := int64(ParseUint32(self.entry, self.offset+4))
		end := int64(self.offset) + length

		if self.lenient {
			if !isKnownAttributeType(attr_type) ||
				length < ATTRIBUTE_HEADER_SIZE || end > int64(self.limit) {
				DebugPrint("Skipping garbage at %#x (type %#x length %#x)\n",
					self.offset, attr_type, length)
				self.offset += 8
				continue
			}

		} else {
			if length < ATTRIBUTE_HEADER_SIZE {
				self.err = errors.Wrapf(ErrAttributeSizeInvalid,
					"attribute at %#x has size %#x", self.offset, length)
				return self.stop()
			}

			if end > int64(len(self.entry)) {
				self.err = errors.Wrapf(ErrAttributeSizeInvalid,
					"attribute at %#x with size %#x overruns the entry",
					self.offset, length)
				return self.stop()
			}

			// Runs past the used part of the entry.
			if end > int64(self.limit) {
				return self.stop()
			}
		}

		self.attr = &NTFS_ATTRIBUTE{
			b:      self.entry[self.offset:end],
			Offset: int64(self.offset),
		}
		self.offset = int(end)
		return true
	}

	return false
}
