// Package ntfsdump decodes the Master File Table of raw NTFS volume
// images.
//
//	image, err := ntfsdump.OpenImage("c.dd", parser.GetDefaultOptions())
//	...
//	defer image.Close()
//
//	file, err := image.Decode(42)
package ntfsdump

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	"www.velocidex.com/golang/ntfsdump/parser"
)

// A volume image mapped into memory.
type Image struct {
	*parser.VolumeHandle

	Path string

	mu     sync.Mutex
	data   []byte
	unmap  func() error
	closed bool
}

// Map the image at path read only and open the NTFS volume in it.
func OpenImage(path string, options parser.Options) (*Image, error) {
	return OpenImageAt(path, 0, options)
}

// Open the volume starting at offset in the image, e.g. a partition
// inside a disk image.
func OpenImageAt(path string, offset int64, options parser.Options) (*Image, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fd.Close()

	stat, err := fd.Stat()
	if err != nil {
		return nil, err
	}

	if stat.IsDir() {
		return nil, errors.Errorf("%s is a directory", path)
	}

	if offset < 0 || offset >= stat.Size() {
		return nil, errors.Wrapf(parser.ErrInvalidVolumeHeader,
			"%s has no data at offset %#x", path, offset)
	}

	data, unmap, err := mapFile(fd, stat.Size())
	if err != nil {
		return nil, errors.Wrapf(err, "mapping %s", path)
	}

	volume, err := parser.OpenVolume(data[offset:], options)
	if err != nil {
		unmap()
		return nil, err
	}

	return &Image{
		VolumeHandle: volume,
		Path:         path,
		data:         data[offset:],
		unmap:        unmap,
	}, nil
}

// Open a volume from an image already in memory.
func OpenBuffer(data []byte, options parser.Options) (*Image, error) {
	volume, err := parser.OpenVolume(data, options)
	if err != nil {
		return nil, err
	}

	return &Image{
		VolumeHandle: volume,
		data:         data,
		unmap:        func() error { return nil },
	}, nil
}

func (self *Image) Size() int64 {
	return int64(len(self.data))
}

// Release the mapping. Later calls on the volume fail with
// parser.ErrVolumeClosed. Slices from ReadExtent must not be used
// after this, resident data is always copied and stays valid.
func (self *Image) Close() error {
	self.mu.Lock()
	defer self.mu.Unlock()

	if self.closed {
		return nil
	}
	self.closed = true
	self.VolumeHandle.Close()
	return self.unmap()
}
