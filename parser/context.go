package parser

import (
	"sync"

	"github.com/Velocidex/ordereddict"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// An opened volume. The handle only reads the buffer and never
// modifies it. It is safe to use from multiple goroutines.
type VolumeHandle struct {
	// Guards buffer against Close.
	mu     sync.RWMutex
	closed bool

	// The whole volume image
	buffer []byte

	layout *VolumeLayout
	table  *EntryTable

	options Options
	logger  *zap.Logger

	cache *MFTEntryCache
	stats *Stats
}

// Validate the boot sector and locate the MFT.
func OpenVolume(buffer []byte, options Options) (*VolumeHandle, error) {
	layout, err := ParseVolumeLayout(buffer)
	if err != nil {
		return nil, err
	}

	table, err := BootstrapMFT(buffer, layout, options)
	if err != nil {
		return nil, err
	}

	if options.MaxPathDepth <= 0 {
		options.MaxPathDepth = DefaultMaxPathDepth
	}

	logger := options.logger()
	logger.Info("Opened NTFS volume",
		zap.Int64("cluster_size", layout.ClusterSize),
		zap.Int64("record_size", layout.RecordSize),
		zap.Int64("mft_offset", table.Base),
		zap.Uint64("entries", table.Count),
		zap.Bool("resident_mft", table.Resident))

	return &VolumeHandle{
		buffer:  buffer,
		layout:  layout,
		table:   table,
		options: options,
		logger:  logger,
		cache:   NewMFTEntryCache(options.CacheSize),
		stats:   &Stats{},
	}, nil
}

func (self *VolumeHandle) Layout() *VolumeLayout {
	return self.layout
}

func (self *VolumeHandle) Table() *EntryTable {
	return self.table
}

func (self *VolumeHandle) EntryCount() uint64 {
	return self.table.Count
}

func (self *VolumeHandle) Options() Options {
	return self.options
}

func (self *VolumeHandle) Stats() *ordereddict.Dict {
	return self.stats.Dict().
		Set("Cache", self.cache.Stats())
}

func (self *VolumeHandle) Purge() {
	self.cache.Purge()
}

// Release the buffer. Calls in flight finish first, later calls fail
// with ErrVolumeClosed. Slices returned by ReadExtent are not valid
// after the buffer is unmapped.
func (self *VolumeHandle) Close() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.closed = true
	self.buffer = nil
	self.cache.Purge()
}

// Read the raw, fixed up MFT entry at index.
func (self *VolumeHandle) GetMFT(index uint64) (*MFT_ENTRY, error) {
	self.mu.RLock()
	defer self.mu.RUnlock()

	if self.closed {
		return nil, ErrVolumeClosed
	}

	record, offset, err := self.table.Record(self.buffer, index)
	if err != nil {
		return nil, err
	}

	entry, err := ReadEntry(record, offset, self.options)
	if err != nil {
		return nil, errors.Wrapf(err, "entry %d", index)
	}
	return entry, nil
}

// Return the bytes of a non sparse extent.
func (self *VolumeHandle) ReadExtent(extent Extent) ([]byte, error) {
	self.mu.RLock()
	defer self.mu.RUnlock()

	if self.closed {
		return nil, ErrVolumeClosed
	}

	if extent.Resident {
		return extent.Data, nil
	}

	if extent.Sparse {
		return nil, errors.New("Sparse extents have no data")
	}

	if extent.Offset < 0 || extent.Length < 0 ||
		extent.Offset > int64(len(self.buffer)) ||
		extent.Length > int64(len(self.buffer))-extent.Offset {
		return nil, errors.Errorf(
			"Extent %#x+%#x is outside the image", extent.Offset, extent.Length)
	}

	return self.buffer[extent.Offset : extent.Offset+extent.Length], nil
}
