//go:build unix

package ntfsdump

import (
	"math"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

func mapFile(fd *os.File, size int64) ([]byte, func() error, error) {
	if size > math.MaxInt {
		return nil, nil, errors.Errorf("image of %d bytes is too large to map", size)
	}

	data, err := unix.Mmap(int(fd.Fd()), 0, int(size),
		unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}

	return data, func() error {
		return unix.Munmap(data)
	}, nil
}
