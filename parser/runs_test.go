package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"www.velocidex.com/golang/ntfsdump/internal/fixtures"
)

type runTestCase struct {
	name   string
	input  []byte
	output []DataRun
}

var runTestCases = []runTestCase{
	{
		name: "negative delta",
		input: fixtures.RunList(
			fixtures.EncodeRun(0x10, 100, 1, 1),
			fixtures.EncodeRun(0x8, -30, 1, 1)),
		output: []DataRun{
			{StartCluster: 100, Length: 0x10},
			{StartCluster: 70, Length: 0x8},
		},
	},
	{
		name: "wide fields",
		input: fixtures.RunList(
			fixtures.EncodeRun(0x1234, 0x123456, 2, 3),
			fixtures.EncodeRun(5, -0x10000, 1, 3),
			fixtures.EncodeRun(1, 0x10, 8, 8)),
		output: []DataRun{
			{StartCluster: 0x123456, Length: 0x1234},
			{StartCluster: 0x113456, Length: 5},
			{StartCluster: 0x113466, Length: 1},
		},
	},
	{
		name: "sparse run",
		input: fixtures.RunList(
			fixtures.EncodeRun(2, 100, 1, 1),
			fixtures.EncodeRun(4, 0, 1, 0),
			fixtures.EncodeRun(3, 5, 1, 1)),
		output: []DataRun{
			{StartCluster: 100, Length: 2},
			{Length: 4, Sparse: true},
			{StartCluster: 105, Length: 3},
		},
	},
	{
		name:   "empty",
		input:  fixtures.RunList(),
		output: []DataRun{},
	},
}

func TestDecodeRuns(t *testing.T) {
	for _, test_case := range runTestCases {
		runs, err := DecodeRuns(test_case.input, 0)
		require.NoError(t, err, test_case.name)
		assert.Equal(t, test_case.output, runs, test_case.name)
	}
}

func TestRunDecoderOffset(t *testing.T) {
	// Run list in the middle of a buffer.
	buf := append([]byte{0xaa, 0xbb, 0xcc},
		fixtures.RunList(fixtures.EncodeRun(1, 7, 1, 1))...)
	buf = append(buf, 0xff, 0xff)

	decoder := NewRunDecoder(buf, 3)
	require.True(t, decoder.Next())
	assert.Equal(t, DataRun{StartCluster: 7, Length: 1}, decoder.Run())
	assert.False(t, decoder.Next())
	assert.NoError(t, decoder.Err())

	// Stopped on the terminator.
	assert.Equal(t, 6, decoder.Offset())
}

func TestDecodeRunsErrors(t *testing.T) {
	// No terminator.
	runs, err := DecodeRuns(fixtures.EncodeRun(1, 7, 1, 1), 0)
	assert.ErrorIs(t, err, ErrTruncatedRunList)
	assert.Equal(t, []DataRun{{StartCluster: 7, Length: 1}}, runs)

	// Header wants more bytes than we have.
	_, err = DecodeRuns([]byte{0x33, 0x01}, 0)
	assert.ErrorIs(t, err, ErrTruncatedRunList)

	// Starting past the end.
	_, err = DecodeRuns([]byte{0x00}, 5)
	assert.ErrorIs(t, err, ErrTruncatedRunList)

	// Wide garbage header at the end of the buffer.
	_, err = DecodeRuns([]byte{0xFF, 0x01}, 0)
	assert.ErrorIs(t, err, ErrTruncatedRunList)

	// Field widths above 8 bytes which fit in the buffer.
	_, err = DecodeRuns([]byte{0x19, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}, 0)
	assert.ErrorIs(t, err, ErrInvalidRunList)

	// A zero width length.
	_, err = DecodeRuns([]byte{0x10, 0x01, 0x00}, 0)
	assert.ErrorIs(t, err, ErrInvalidRunList)

	// Runs can not start before the volume.
	_, err = DecodeRuns(fixtures.RunList(fixtures.EncodeRun(1, -5, 1, 1)), 0)
	assert.ErrorIs(t, err, ErrInvalidRunList)
}

func TestRunsToExtents(t *testing.T) {
	extents, err := RunsToExtents([]DataRun{
		{StartCluster: 100, Length: 0x10},
		{Length: 2, Sparse: true},
		{StartCluster: 70, Length: 1},
	}, 4096)
	require.NoError(t, err)

	assert.Equal(t, []Extent{
		{Offset: 100 * 4096, Length: 0x10 * 4096},
		{Length: 2 * 4096, Sparse: true},
		{Offset: 70 * 4096, Length: 4096},
	}, extents)

	_, err = RunsToExtents([]DataRun{{StartCluster: 1, Length: 1 << 62}}, 4096)
	assert.ErrorIs(t, err, ErrInvalidRunList)
}

func TestReadVarInt(t *testing.T) {
	assert.Equal(t, int64(-30), readVarInt([]byte{0xe2}))
	assert.Equal(t, int64(0x7f), readVarInt([]byte{0x7f}))
	assert.Equal(t, int64(-0x10000), readVarInt([]byte{0x00, 0x00, 0xff}))
	assert.Equal(t, int64(-1), readVarInt([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}))
	assert.Equal(t, uint64(0x030201), readVarUint([]byte{0x01, 0x02, 0x03}))
}
