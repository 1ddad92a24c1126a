package fixtures

import (
	"bytes"
)

const (
	// Layout of StandardImage.
	StandardClusters   = 16
	StandardMFTCluster = 4
	StandardMFTOffset  = StandardMFTCluster * ClusterSize
	StandardEntries    = 8

	HelloContent = "hello world"
	ZoneContent  = "[ZoneTransfer]\r\nZoneId=3\r\n"
	BigSize      = 10000
)

// A 64KiB volume with a non resident $MFT of 8 entries:
//
//	0 $MFT
//	1 never written
//	2 /hello.txt, resident data
//	3 /docs/big.bin, fragmented data with a sparse run and an ADS
//	4 deleted.txt, not in use
//	5 the root directory
//	6 /docs
//	7 bad signature
func StandardImage() *Image {
	image := NewImage(StandardClusters)
	boot := DefaultBootSector()
	boot.MFTCluster = StandardMFTCluster
	image.Put(0, boot.Bytes())

	image.PutEntry(StandardMFTOffset, 0, Entry{
		Flags:        InUse,
		Sequence:     1,
		RecordNumber: 0,
		Attributes: [][]byte{
			FileName(2, 5, 5, "$MFT", 3, Ticks1980, 8192),
			NonResidentAttribute(0x80, "", 1,
				RunList(EncodeRun(2, StandardMFTCluster, 1, 1)),
				2, StandardEntries*RecordSize),
		},
	})

	image.PutEntry(StandardMFTOffset, 2, Entry{
		Flags:        InUse,
		Sequence:     2,
		RecordNumber: 2,
		Attributes: [][]byte{
			FileName(2, 5, 5, "hello.txt", 1, Ticks1980, uint64(len(HelloContent))),
			ResidentAttribute(0x80, "", 1, []byte(HelloContent)),
		},
	})

	image.PutEntry(StandardMFTOffset, 3, Entry{
		Flags:        InUse,
		Sequence:     1,
		RecordNumber: 3,
		Attributes: [][]byte{
			FileName(3, 6, 1, "BIG~1.BIN", 2, Ticks1980, BigSize),
			FileName(2, 6, 1, "big.bin", 1, Ticks1980, BigSize),
			NonResidentAttribute(0x80, "", 1,
				RunList(
					EncodeRun(1, 10, 1, 1),
					EncodeRun(1, 0, 1, 0),
					EncodeRun(1, 2, 1, 1)),
				3, BigSize),
			ResidentAttribute(0x80, "Zone.Identifier", 4, []byte(ZoneContent)),
		},
	})

	image.PutEntry(StandardMFTOffset, 4, Entry{
		Flags:        0,
		Sequence:     3,
		RecordNumber: 4,
		Attributes: [][]byte{
			FileName(2, 5, 5, "deleted.txt", 1, Ticks1980, 0),
		},
	})

	image.PutEntry(StandardMFTOffset, 5, Entry{
		Flags:        InUse | Directory,
		Sequence:     5,
		RecordNumber: 5,
		Attributes: [][]byte{
			FileName(2, 5, 5, ".", 3, Ticks1980, 0),
		},
	})

	image.PutEntry(StandardMFTOffset, 6, Entry{
		Flags:        InUse | Directory,
		Sequence:     1,
		RecordNumber: 6,
		Attributes: [][]byte{
			FileName(2, 5, 5, "docs", 1, Ticks1980, 0),
		},
	})

	bad := Entry{Flags: InUse, Sequence: 1, RecordNumber: 7}.Bytes()
	copy(bad, "BAAD")
	image.Put(StandardMFTOffset+7*RecordSize, bad)

	image.PutCluster(10, bytes.Repeat([]byte("A"), ClusterSize))
	image.PutCluster(12, bytes.Repeat([]byte("C"), ClusterSize))

	return image
}

// A volume whose $MFT holds its table in a resident $DATA attribute
// of 2 records. Record 0 is a valid entry and record 1 was never
// written.
func ResidentMFTImage() *Image {
	image := NewImage(2)
	boot := DefaultBootSector()
	boot.MFTCluster = 1
	boot.TotalSectors = 16
	image.Put(0, boot.Bytes())

	table := make([]byte, 2*RecordSize)
	copy(table, Entry{
		Flags:        InUse,
		Sequence:     1,
		RecordNumber: 0,
		Attributes: [][]byte{
			FileName(2, 5, 5, "$MFT", 3, Ticks1980, 0),
		},
	}.Bytes())

	image.PutCluster(1, Entry{
		Flags:        InUse,
		Sequence:     1,
		RecordNumber: 0,
		Size:         ClusterSize,
		Attributes: [][]byte{
			FileName(2, 5, 5, "$MFT", 3, Ticks1980, uint64(len(table))),
			ResidentAttribute(0x80, "", 1, table),
		},
	}.Bytes())

	return image
}
