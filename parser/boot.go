package parser

import (
	"encoding/binary"
	"fmt"

	"github.com/go-restruct/restruct"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	BOOT_SECTOR_SIZE = 512
	BOOT_MAGIC       = 0xaa55

	// Encoded sizes at or above these values are powers of two.
	RECORD_SIZE_THRESHOLD         = 128
	SECTORS_PER_CLUSTER_THRESHOLD = 244

	// Largest shift we accept for an encoded size.
	MAX_SIZE_SHIFT = 31
)

// The on disk layout of the NTFS boot sector.
type NTFS_BOOT_SECTOR struct {
	Jump                [3]byte
	OEMName             [8]byte
	BytesPerSector      uint16
	SectorsPerCluster   uint8
	ReservedSectors     uint16
	Unused1             [3]byte
	Unused2             uint16
	MediaDescriptor     uint8
	Unused3             uint16
	SectorsPerTrack     uint16
	NumberOfHeads       uint16
	HiddenSectors       uint32
	Unused4             uint32
	Unused5             uint32
	TotalSectors        uint64
	MFTCluster          uint64
	MFTMirrorCluster    uint64
	ClustersPerRecord   uint8
	Unused6             [3]byte
	ClustersPerIndex    uint8
	Unused7             [3]byte
	VolumeSerialNumber  uint64
	Checksum            uint32
	BootCode            [426]byte
	Magic               uint16
}

func ParseBootSector(buffer []byte) (*NTFS_BOOT_SECTOR, error) {
	if len(buffer) < BOOT_SECTOR_SIZE {
		return nil, errors.Wrapf(ErrInvalidVolumeHeader,
			"image is only %d bytes", len(buffer))
	}

	result := &NTFS_BOOT_SECTOR{}
	err := restruct.Unpack(buffer[:BOOT_SECTOR_SIZE], binary.LittleEndian, result)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidVolumeHeader, err.Error())
	}
	return result, nil
}

// Decode one of the compressed size bytes of the boot sector. Values
// at or above threshold encode 1 << (256 - encoded). Returns false if
// the shift is too large to be a sane size.
func DecodeSize(encoded uint8, threshold uint8) (int64, bool) {
	if encoded < threshold {
		return int64(encoded), true
	}

	shift := 256 - int(encoded)
	if shift > MAX_SIZE_SHIFT {
		return 0, false
	}
	return int64(1) << uint(shift), true
}

// The geometry of the volume derived from the boot sector.
type VolumeLayout struct {
	OEMName           string
	BytesPerSector    int64
	SectorsPerCluster int64
	ClusterSize       int64
	RecordSize        int64
	IndexRecordSize   int64
	TotalSectors      uint64
	MFTCluster        uint64
	MFTMirrorCluster  uint64
	SerialNumber      uint64
}

func (self *VolumeLayout) VolumeSize() uint64 {
	return self.TotalSectors * uint64(self.BytesPerSector)
}

func (self *VolumeLayout) String() string {
	return fmt.Sprintf("VolumeLayout: sector %d cluster %d record %d MFT @ cluster %d",
		self.BytesPerSector, self.ClusterSize, self.RecordSize, self.MFTCluster)
}

// Records and index buffers are sized in clusters unless the encoded
// value is a power of two exponent.
func recordSize(encoded uint8, cluster_size int64) (int64, bool) {
	size, ok := DecodeSize(encoded, RECORD_SIZE_THRESHOLD)
	if !ok || size == 0 {
		return 0, false
	}
	if encoded >= RECORD_SIZE_THRESHOLD {
		return size, true
	}
	return mulInt64(size, cluster_size)
}

func ParseVolumeLayout(buffer []byte) (*VolumeLayout, error) {
	boot, err := ParseBootSector(buffer)
	if err != nil {
		return nil, err
	}
	return boot.Layout()
}

func (self *NTFS_BOOT_SECTOR) Layout() (*VolumeLayout, error) {
	if self.Magic != BOOT_MAGIC {
		return nil, errors.Wrapf(ErrInvalidVolumeHeader,
			"invalid magic %#x", self.Magic)
	}

	sector_size := int64(self.BytesPerSector)
	if sector_size == 0 || sector_size&(sector_size-1) != 0 {
		return nil, errors.Wrapf(ErrInvalidVolumeHeader,
			"invalid sector size %d", sector_size)
	}

	sectors_per_cluster, ok := DecodeSize(
		self.SectorsPerCluster, SECTORS_PER_CLUSTER_THRESHOLD)
	if !ok || sectors_per_cluster == 0 {
		return nil, errors.Wrapf(ErrInvalidVolumeHeader,
			"invalid sectors per cluster %#x", self.SectorsPerCluster)
	}

	cluster_size, ok := mulInt64(sector_size, sectors_per_cluster)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidVolumeHeader,
			"cluster size overflow")
	}

	record_size, ok := recordSize(self.ClustersPerRecord, cluster_size)
	if !ok || record_size > MAX_MFT_ENTRY_SIZE {
		return nil, errors.Wrapf(ErrInvalidVolumeHeader,
			"invalid record size %#x", self.ClustersPerRecord)
	}

	// Index buffers are not used for decoding so a broken value is
	// not fatal.
	index_size, _ := recordSize(self.ClustersPerIndex, cluster_size)

	return &VolumeLayout{
		OEMName:           string(self.OEMName[:]),
		BytesPerSector:    sector_size,
		SectorsPerCluster: sectors_per_cluster,
		ClusterSize:       cluster_size,
		RecordSize:        record_size,
		IndexRecordSize:   index_size,
		TotalSectors:      self.TotalSectors,
		MFTCluster:        self.MFTCluster,
		MFTMirrorCluster:  self.MFTMirrorCluster,
		SerialNumber:      self.VolumeSerialNumber,
	}, nil
}

// Find the $MFT entry and build the table of all entries from its
// unnamed $DATA attribute.
func BootstrapMFT(buffer []byte, layout *VolumeLayout,
	options Options) (*EntryTable, error) {
	logger := options.logger()

	if layout.MFTCluster > uint64(len(buffer)) {
		return nil, errors.Wrapf(ErrMftDataAttributeMissing,
			"$MFT cluster %d is outside the image", layout.MFTCluster)
	}

	offset, ok := mulInt64(int64(layout.MFTCluster), layout.ClusterSize)
	if !ok || offset >= int64(len(buffer)) {
		return nil, errors.Wrapf(ErrMftDataAttributeMissing,
			"$MFT cluster %d is outside the image", layout.MFTCluster)
	}

	end := CapInt64(offset+MAX_MFT_ENTRY_SIZE, int64(len(buffer)))
	root, err := ReadEntry(buffer[offset:end], offset, options)
	if err != nil {
		return nil, errors.Wrapf(ErrMftDataAttributeMissing,
			"$MFT entry at %#x: %v", offset, err)
	}

	var data_attr *NTFS_ATTRIBUTE
	it := root.Attributes()
	for it.Next() {
		attr := it.Attribute()
		if attr.Type().Value == ATTR_TYPE_DATA && attr.Name() == "" {
			data_attr = attr
			break
		}
	}

	if data_attr == nil {
		if it.Err() != nil {
			return nil, errors.Wrapf(ErrMftDataAttributeMissing,
				"$MFT entry at %#x: %v", offset, it.Err())
		}
		return nil, errors.Wrapf(ErrMftDataAttributeMissing,
			"no $DATA attribute in $MFT entry at %#x", offset)
	}

	resolved, err := ResolveAttribute(root, data_attr, layout.ClusterSize)
	if err != nil {
		return nil, errors.Wrapf(ErrMftDataAttributeMissing,
			"$MFT $DATA attribute: %v", err)
	}

	table := &EntryTable{
		RecordSize: layout.RecordSize,
		Resident:   resolved.Resident,
	}

	if resolved.Resident {
		table.Base = resolved.DataOffset
		table.Size = resolved.DataSize
		table.resident = resolved.Data
		table.Count = uint64(table.Size / table.RecordSize)

		logger.Debug("Resident $MFT",
			zap.Int64("offset", table.Base),
			zap.Uint64("entries", table.Count))
		return table, nil
	}

	extents := resolved.Extents
	if len(extents) == 0 {
		return nil, errors.Wrapf(ErrMftDataAttributeMissing,
			"$MFT $DATA attribute has no runs")
	}

	if options.FirstRunOnly {
		extents = extents[:1]
	}

	for _, extent := range extents {
		table.Size += extent.Length
	}

	// The run list may over allocate the stream. Only the first run
	// is trusted in first run mode.
	if !options.FirstRunOnly && resolved.DataSize > 0 &&
		resolved.DataSize < table.Size {
		table.Size = resolved.DataSize
	}

	table.Base = extents[0].Offset
	table.extents = extents
	table.Count = uint64(table.Size / table.RecordSize)

	logger.Debug("Non resident $MFT",
		zap.Int64("offset", table.Base),
		zap.Int("runs", len(extents)),
		zap.Uint64("entries", table.Count))

	return table, nil
}
