package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"www.velocidex.com/golang/ntfsdump/internal/fixtures"
)

func readEntry(t *testing.T, entry fixtures.Entry, offset int64) *MFT_ENTRY {
	result, err := ReadEntry(entry.Bytes(), offset, GetDefaultOptions())
	require.NoError(t, err)
	return result
}

func TestResolveResident(t *testing.T) {
	entry := readEntry(t, helloEntry(), 0x4800)

	attr, err := entry.GetAttribute(ATTR_TYPE_DATA, "")
	require.NoError(t, err)

	resolved, err := ResolveAttribute(entry, attr, 4096)
	require.NoError(t, err)

	assert.True(t, resolved.Resident)
	assert.Equal(t, []byte("hello world"), resolved.Data)
	assert.Equal(t, int64(11), resolved.DataSize)

	// Entry offset + attribute offset + content offset.
	expected_offset := int64(0x4800) + attr.Offset + int64(attr.Content_offset())
	assert.Equal(t, expected_offset, resolved.DataOffset)
	assert.Equal(t, []Extent{{
		Offset:   expected_offset,
		Length:   11,
		Resident: true,
		Data:     []byte("hello world"),
	}}, resolved.Extents)
}

func TestResolveResidentOverrun(t *testing.T) {
	data := fixtures.ResidentAttribute(ATTR_TYPE_DATA, "", 1, []byte("hello"))

	// Claim more content than the record holds.
	data[16] = 0xff
	entry := readEntry(t, fixtures.Entry{
		Flags:      fixtures.InUse,
		Attributes: [][]byte{data},
	}, 0)

	attrs, err := entry.EnumerateAttributes()
	require.NoError(t, err)
	require.Equal(t, 1, len(attrs))

	_, err = ResolveAttribute(entry, attrs[0], 4096)
	assert.ErrorIs(t, err, ErrAttributeSizeInvalid)
}

func TestResolveNonResident(t *testing.T) {
	entry := readEntry(t, fixtures.Entry{
		Flags: fixtures.InUse,
		Attributes: [][]byte{
			fixtures.NonResidentAttribute(ATTR_TYPE_DATA, "stream", 3,
				fixtures.RunList(
					fixtures.EncodeRun(2, 10, 1, 1),
					fixtures.EncodeRun(1, -4, 1, 1)),
				3, 10000),
		},
	}, 0)

	attr, err := entry.GetAttribute(ATTR_TYPE_DATA, "stream")
	require.NoError(t, err)
	assert.False(t, attr.IsResident())
	assert.Equal(t, uint16(3), attr.Attribute_id())

	resolved, err := ResolveAttribute(entry, attr, 4096)
	require.NoError(t, err)

	assert.False(t, resolved.Resident)
	assert.Equal(t, int64(10000), resolved.DataSize)
	assert.Equal(t, []DataRun{
		{StartCluster: 10, Length: 2},
		{StartCluster: 6, Length: 1},
	}, resolved.Runs)
	assert.Equal(t, []Extent{
		{Offset: 10 * 4096, Length: 2 * 4096},
		{Offset: 6 * 4096, Length: 4096},
	}, resolved.Extents)
}

func TestResolveTruncatedRunList(t *testing.T) {
	// Run list without a terminator that fills the record.
	attr := fixtures.NonResidentAttribute(ATTR_TYPE_DATA, "", 1,
		fixtures.EncodeRun(1, 10, 1, 1), 1, 4096)
	runs_offset := int(attr[32])
	for i := runs_offset + 3; i < len(attr); i++ {
		attr[i] = 0x11
	}

	entry := readEntry(t, fixtures.Entry{
		Flags:      fixtures.InUse,
		Attributes: [][]byte{attr},
	}, 0)

	attrs, err := entry.EnumerateAttributes()
	require.NoError(t, err)

	resolved, err := ResolveAttribute(entry, attrs[0], 4096)
	assert.ErrorIs(t, err, ErrTruncatedRunList)

	// Runs decoded before the error are kept.
	require.NotNil(t, resolved)
	assert.Equal(t, DataRun{StartCluster: 10, Length: 1}, resolved.Runs[0])
}

func TestParseFileName(t *testing.T) {
	entry := readEntry(t, helloEntry(), 0)

	attr, err := entry.GetAttribute(ATTR_TYPE_FILE_NAME, "")
	require.NoError(t, err)

	resolved, err := ResolveAttribute(entry, attr, 4096)
	require.NoError(t, err)

	fn, err := ParseFileName(resolved)
	require.NoError(t, err)

	expected := time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "hello.txt", fn.Name())
	assert.Equal(t, "Win32", fn.NameType().Name)
	assert.Equal(t, uint64(5), fn.MftReference())
	assert.Equal(t, uint16(5), fn.Seq_num())
	assert.Equal(t, uint64(11), fn.FilenameSize())
	assert.True(t, expected.Equal(fn.Created().Time))
	assert.True(t, expected.Equal(fn.Mft_modified().Time))
	assert.True(t, expected.Equal(fn.File_accessed().Time))
	assert.False(t, fn.IsTruncated())
}

func TestParseFileNameNonResident(t *testing.T) {
	entry := readEntry(t, fixtures.Entry{
		Flags: fixtures.InUse,
		Attributes: [][]byte{
			fixtures.NonResidentAttribute(ATTR_TYPE_FILE_NAME, "", 1,
				fixtures.RunList(fixtures.EncodeRun(1, 10, 1, 1)), 1, 100),
		},
	}, 0)

	attrs, err := entry.EnumerateAttributes()
	require.NoError(t, err)

	resolved, err := ResolveAttribute(entry, attrs[0], 4096)
	require.NoError(t, err)

	_, err = ParseFileName(resolved)
	assert.ErrorIs(t, err, ErrUnsupportedNonResidentName)
}

func TestFileNameTruncated(t *testing.T) {
	value := fixtures.FileNameValue(5, 5, "truncated.txt", 1, fixtures.Ticks1980, 0)

	// Name length claims more characters than are present.
	value[64] = 40
	fn := &FILE_NAME{b: value}

	assert.True(t, fn.IsTruncated())
	assert.Equal(t, "truncated.txt", fn.Name())
}

func TestAttributeName(t *testing.T) {
	entry := readEntry(t, fixtures.Entry{
		Flags: fixtures.InUse,
		Attributes: [][]byte{
			fixtures.ResidentAttribute(ATTR_TYPE_DATA, "Zone.Identifier", 2, []byte("x")),
		},
	}, 0)

	attrs, err := entry.EnumerateAttributes()
	require.NoError(t, err)
	require.Equal(t, 1, len(attrs))

	assert.Equal(t, "Zone.Identifier", attrs[0].Name())
	assert.Equal(t, int64(1), attrs[0].DataSize())
	assert.Equal(t, "RESIDENT", attrs[0].Resident().Name)
}
