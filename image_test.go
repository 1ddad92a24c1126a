package ntfsdump

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
	"www.velocidex.com/golang/ntfsdump/internal/fixtures"
	"www.velocidex.com/golang/ntfsdump/parser"
)

type ImageTestSuite struct {
	suite.Suite

	path string
}

func (self *ImageTestSuite) SetupTest() {
	self.path = filepath.Join(self.T().TempDir(), "test.ntfs.dd")
	err := os.WriteFile(self.path, fixtures.StandardImage().Data, 0600)
	self.Require().NoError(err)
}

func (self *ImageTestSuite) TestOpenImage() {
	image, err := OpenImage(self.path, parser.GetDefaultOptions())
	self.Require().NoError(err)
	defer image.Close()

	self.Equal(int64(fixtures.StandardClusters*fixtures.ClusterSize), image.Size())
	self.Equal(uint64(fixtures.StandardEntries), image.EntryCount())

	file, err := image.Decode(2)
	self.Require().NoError(err)
	self.Equal("hello.txt", file.Name)

	content, err := image.ReadExtent(file.DataExtents()[0])
	self.Require().NoError(err)
	self.Equal(fixtures.HelloContent, string(content))

	big, err := image.Decode(3)
	self.Require().NoError(err)

	first, err := image.ReadExtent(big.StreamExtents("")[0])
	self.Require().NoError(err)
	self.Equal(byte('A'), first[0])
	self.Equal(fixtures.ClusterSize, len(first))

	// Closing twice is fine.
	self.NoError(image.Close())
	self.NoError(image.Close())

	// The volume is unusable after close but does not crash.
	_, err = image.Decode(2)
	self.ErrorIs(err, parser.ErrVolumeClosed)

	_, err = image.Decode(3)
	self.ErrorIs(err, parser.ErrVolumeClosed)

	_, err = image.ReadExtent(big.StreamExtents("")[0])
	self.ErrorIs(err, parser.ErrVolumeClosed)
}

func (self *ImageTestSuite) TestOpenErrors() {
	_, err := OpenImage(filepath.Join(filepath.Dir(self.path), "missing.dd"),
		parser.GetDefaultOptions())
	self.Error(err)

	_, err = OpenImage(filepath.Dir(self.path), parser.GetDefaultOptions())
	self.Error(err)

	empty := filepath.Join(filepath.Dir(self.path), "empty.dd")
	self.Require().NoError(os.WriteFile(empty, nil, 0600))
	_, err = OpenImage(empty, parser.GetDefaultOptions())
	self.ErrorIs(err, parser.ErrInvalidVolumeHeader)

	garbage := filepath.Join(filepath.Dir(self.path), "garbage.dd")
	self.Require().NoError(os.WriteFile(garbage, make([]byte, 4096), 0600))
	_, err = OpenImage(garbage, parser.GetDefaultOptions())
	self.ErrorIs(err, parser.ErrInvalidVolumeHeader)
}

func (self *ImageTestSuite) TestOpenImageAt() {
	// The volume as a partition 1MiB into a disk image.
	partition_offset := 1024 * 1024
	disk := make([]byte, partition_offset)
	disk = append(disk, fixtures.StandardImage().Data...)

	path := filepath.Join(filepath.Dir(self.path), "disk.dd")
	self.Require().NoError(os.WriteFile(path, disk, 0600))

	image, err := OpenImageAt(path, int64(partition_offset),
		parser.GetDefaultOptions())
	self.Require().NoError(err)
	defer image.Close()

	self.Equal(int64(fixtures.StandardClusters*fixtures.ClusterSize), image.Size())

	file, err := image.Decode(2)
	self.Require().NoError(err)
	self.Equal("hello.txt", file.Name)

	_, err = OpenImage(path, parser.GetDefaultOptions())
	self.ErrorIs(err, parser.ErrInvalidVolumeHeader)

	_, err = OpenImageAt(path, int64(len(disk)), parser.GetDefaultOptions())
	self.ErrorIs(err, parser.ErrInvalidVolumeHeader)
}

func (self *ImageTestSuite) TestOpenBuffer() {
	image, err := OpenBuffer(fixtures.ResidentMFTImage().Data,
		parser.GetDefaultOptions())
	self.Require().NoError(err)
	defer image.Close()

	self.Equal(uint64(2), image.EntryCount())
}

func TestImage(t *testing.T) {
	suite.Run(t, &ImageTestSuite{})
}
