package parser

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"www.velocidex.com/golang/ntfsdump/internal/fixtures"
)

func observedOptions() (Options, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.WarnLevel)
	options := GetDefaultOptions()
	options.Logger = zap.New(core)
	return options, logs
}

func helloEntry() fixtures.Entry {
	return fixtures.Entry{
		Flags:        fixtures.InUse,
		Sequence:     2,
		RecordNumber: 2,
		Attributes: [][]byte{
			fixtures.FileName(2, 5, 5, "hello.txt", 1, fixtures.Ticks1980, 11),
			fixtures.ResidentAttribute(ATTR_TYPE_DATA, "", 1, []byte("hello world")),
		},
	}
}

func TestAttributeIteratorSingle(t *testing.T) {
	attr := fixtures.ResidentAttribute(ATTR_TYPE_DATA, "", 1, []byte("data"))
	buf := append([]byte{}, attr...)
	buf = append(buf, 0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0)
	limit := len(buf)

	// Garbage after the usable size must never be looked at.
	buf = append(buf, 0x80, 0, 0, 0, 0x20, 0, 0, 0)

	it := NewAttributeIterator(buf, 0, limit, false)
	count := 0
	for it.Next() {
		count++
		assert.Equal(t, int64(0), it.Attribute().Offset)
		assert.Equal(t, len(attr), it.Attribute().Size())
	}
	assert.NoError(t, it.Err())
	assert.Equal(t, 1, count)
	assert.Equal(t, len(attr), it.Offset())

	// The same without an END marker stops at the limit.
	it = NewAttributeIterator(attr, 0, len(attr), false)
	count = 0
	for it.Next() {
		count++
	}
	assert.NoError(t, it.Err())
	assert.Equal(t, 1, count)
}

func TestAttributeIteratorZeroSize(t *testing.T) {
	buf := make([]byte, 64)
	binary.LittleEndian.PutUint32(buf, ATTR_TYPE_DATA)

	it := NewAttributeIterator(buf, 0, len(buf), false)
	assert.False(t, it.Next())
	assert.ErrorIs(t, it.Err(), ErrAttributeSizeInvalid)

	// Declared size runs past the end of the entry.
	binary.LittleEndian.PutUint32(buf[4:], 0x1000)
	it = NewAttributeIterator(buf, 0, len(buf), false)
	assert.False(t, it.Next())
	assert.ErrorIs(t, it.Err(), ErrAttributeSizeInvalid)
}

func TestAttributeIteratorLenient(t *testing.T) {
	attr := fixtures.ResidentAttribute(ATTR_TYPE_DATA, "", 1, []byte("data"))

	// A garbage header in front of a valid attribute.
	buf := []byte{0x78, 0x56, 0x34, 0x12, 0x03, 0, 0, 0}
	buf = append(buf, attr...)
	buf = append(buf, 0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0)

	it := NewAttributeIterator(buf, 0, len(buf), false)
	assert.False(t, it.Next())
	assert.ErrorIs(t, it.Err(), ErrAttributeSizeInvalid)

	it = NewAttributeIterator(buf, 0, len(buf), true)
	require.True(t, it.Next())
	assert.Equal(t, int64(8), it.Attribute().Offset)
	assert.Equal(t, uint64(ATTR_TYPE_DATA), it.Attribute().Type().Value)
	assert.False(t, it.Next())
	assert.NoError(t, it.Err())
}

func TestReadEntry(t *testing.T) {
	options, logs := observedOptions()
	data := helloEntry().Bytes()

	entry, err := ReadEntry(data, 0x4800, options)
	require.NoError(t, err)

	assert.Equal(t, "FILE", entry.Magic())
	assert.Equal(t, int64(0x4800), entry.Offset)
	assert.Equal(t, uint16(2), entry.Sequence_value())
	assert.Equal(t, uint32(2), entry.Record_number())
	assert.True(t, entry.IsInUse())
	assert.False(t, entry.IsDir())
	assert.False(t, entry.Lenient)
	assert.Empty(t, entry.Fixups)
	assert.Equal(t, 0, logs.Len())

	attrs, err := entry.EnumerateAttributes()
	require.NoError(t, err)
	require.Equal(t, 2, len(attrs))
	assert.Equal(t, "$FILE_NAME", attrs[0].Type().Name)
	assert.Equal(t, "$DATA", attrs[1].Type().Name)

	// The caller's buffer is left alone.
	assert.Equal(t, helloEntry().Bytes(), data)
}

func TestReadEntryFixupMismatch(t *testing.T) {
	options, logs := observedOptions()
	data := helloEntry().Bytes()
	original := append([]byte{}, data...)

	// Tear the first sector.
	data[511] ^= 0xff

	entry, err := ReadEntry(data, 0, options)
	require.NoError(t, err)
	require.Equal(t, 1, len(entry.Fixups))
	assert.Equal(t, 0, entry.Fixups[0].Sector)
	assert.Equal(t, uint16(fixtures.FixupMagic), entry.Fixups[0].Expected)
	assert.Equal(t, 1, logs.FilterMessage("Fixup mismatch").Len())

	// The second sector is restored, the torn one is not.
	assert.Equal(t, original[1022:1024], []byte{0x03, 0x00})
	assert.Equal(t, byte(0), entry.Data()[1022])
	assert.Equal(t, byte(0), entry.Data()[1023])
	assert.Equal(t, data[510:512], entry.Data()[510:512])

	// Decoding still works.
	attrs, err := entry.EnumerateAttributes()
	assert.NoError(t, err)
	assert.Equal(t, 2, len(attrs))
}

func TestReadEntryNoFixupRestore(t *testing.T) {
	options := GetDefaultOptions()
	options.NoFixupRestore = true

	entry, err := ReadEntry(helloEntry().Bytes(), 0, options)
	require.NoError(t, err)
	assert.Empty(t, entry.Fixups)
	assert.Equal(t, []byte{0x03, 0x00}, entry.Data()[510:512])

	options.NoFixupRestore = false
	entry, err = ReadEntry(helloEntry().Bytes(), 0, options)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x00}, entry.Data()[510:512])
}

func TestReadEntryUnused(t *testing.T) {
	options, logs := observedOptions()

	// Attribute offset of 0 - fixups are never checked.
	data := helloEntry().Bytes()
	binary.LittleEndian.PutUint16(data[20:], 0)
	data[511] ^= 0xff

	_, err := ReadEntry(data, 0, options)
	assert.ErrorIs(t, err, ErrEntryUnused)
	assert.Equal(t, Outcome(OutcomeUnused), Classify(err))
	assert.Equal(t, 0, logs.Len())

	// A slot that was never written.
	_, err = ReadEntry(make([]byte, fixtures.RecordSize), 0, options)
	assert.ErrorIs(t, err, ErrEntryUnused)
}

func TestReadEntryCorrupt(t *testing.T) {
	options := GetDefaultOptions()

	data := helloEntry().Bytes()
	copy(data, "BAAD")
	_, err := ReadEntry(data, 0, options)
	assert.ErrorIs(t, err, ErrBadEntrySignature)
	assert.Equal(t, OutcomeCorrupt, Classify(err))

	_, err = ReadEntry(helloEntry().Bytes()[:0x20], 0, options)
	assert.ErrorIs(t, err, ErrEntryTruncated)
}

func TestReadEntryLenientSelection(t *testing.T) {
	options := GetDefaultOptions()

	for _, test_case := range []struct {
		flags   uint16
		lenient bool
	}{
		{fixtures.InUse, false},
		{fixtures.InUse | fixtures.Directory, false},
		{0, true},
		{fixtures.InUse | 0x10, true},
	} {
		entry := helloEntry()
		entry.Flags = test_case.flags

		result, err := ReadEntry(entry.Bytes(), 0, options)
		require.NoError(t, err)
		assert.Equal(t, test_case.lenient, result.Lenient, "flags %#x", test_case.flags)
	}

	options.ForceLenient = true
	result, err := ReadEntry(helloEntry().Bytes(), 0, options)
	require.NoError(t, err)
	assert.True(t, result.Lenient)
}

func TestApplyFixups(t *testing.T) {
	// No array.
	assert.Nil(t, applyFixups(make([]byte, 1024), 0x30, 0, true))

	// Array offset past the end.
	assert.Nil(t, applyFixups(make([]byte, 1024), 0x1000, 3, true))

	// Every sector torn.
	buf := make([]byte, 1024)
	binary.LittleEndian.PutUint16(buf[0x30:], 0x0007)
	mismatches := applyFixups(buf, 0x30, 3, true)
	assert.Equal(t, []FixupMismatch{
		{Sector: 0, Expected: 7, Found: 0},
		{Sector: 1, Expected: 7, Found: 0},
	}, mismatches)
}
