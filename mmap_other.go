//go:build !unix

package ntfsdump

import (
	"math"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"
)

// Without mmap(2) bindings the mapping is copied into memory.
func mapFile(fd *os.File, size int64) ([]byte, func() error, error) {
	if size > math.MaxInt {
		return nil, nil, errors.Errorf("image of %d bytes is too large to map", size)
	}

	reader, err := mmap.Open(fd.Name())
	if err != nil {
		return nil, nil, err
	}
	defer reader.Close()

	data := make([]byte, reader.Len())
	_, err = reader.ReadAt(data, 0)
	if err != nil {
		return nil, nil, err
	}

	return data, func() error { return nil }, nil
}
