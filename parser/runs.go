package parser

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// A single run from a run list. StartCluster is absolute.
type DataRun struct {
	StartCluster int64
	Length       uint64
	Sparse       bool
}

func (self DataRun) String() string {
	if self.Sparse {
		return fmt.Sprintf("Sparse (Length %d)", self.Length)
	}
	return fmt.Sprintf("Cluster %d (Length %d)", self.StartCluster, self.Length)
}

// Decodes a run list lazily:
//
//	decoder := NewRunDecoder(buf, offset)
//	for decoder.Next() {
//	    run := decoder.Run()
//	}
//	if decoder.Err() != nil { ... }
//
// Each run starts with a header byte. The low nibble is the width of
// the length field and the high nibble the width of the signed cluster
// delta. A zero header byte terminates the list.
type RunDecoder struct {
	buf    []byte
	offset int

	// Running absolute cluster.
	current int64

	run  DataRun
	err  error
	done bool
}

func NewRunDecoder(buf []byte, offset int) *RunDecoder {
	return &RunDecoder{buf: buf, offset: offset}
}

func (self *RunDecoder) fail(err error) bool {
	self.err = err
	self.done = true
	return false
}

// Offset of the next header byte.
func (self *RunDecoder) Offset() int {
	return self.offset
}

func (self *RunDecoder) Run() DataRun {
	return self.run
}

func (self *RunDecoder) Err() error {
	return self.err
}

func (self *RunDecoder) Next() bool {
	if self.done {
		return false
	}

	if self.offset < 0 || self.offset >= len(self.buf) {
		return self.fail(errors.Wrapf(ErrTruncatedRunList,
			"run header at %#x is past the end of the buffer (%#x)",
			self.offset, len(self.buf)))
	}

	header := self.buf[self.offset]
	if header == 0 {
		self.done = true
		return false
	}

	length_size := int(header & 0xf)
	delta_size := int(header >> 4)

	// Widths are checked against the buffer before their range, so a
	// garbage header at the end of the buffer reads as truncation.
	start := self.offset + 1
	end := start + length_size + delta_size
	if end > len(self.buf) {
		return self.fail(errors.Wrapf(ErrTruncatedRunList,
			"run at %#x needs %d bytes, only %d available",
			self.offset, end-self.offset, len(self.buf)-self.offset))
	}

	if length_size == 0 || length_size > 8 || delta_size > 8 {
		return self.fail(errors.Wrapf(ErrInvalidRunList,
			"invalid run header %#x at %#x", header, self.offset))
	}

	length := readVarUint(self.buf[start : start+length_size])
	DebugPrint("Run header %#x at %#x: length %d\n", header, self.offset, length)
	self.offset = end

	// No delta means the run has no clusters on disk.
	if delta_size == 0 {
		self.run = DataRun{Length: length, Sparse: true}
		return true
	}

	delta := readVarInt(self.buf[start+length_size : end])
	if (delta > 0 && self.current > math.MaxInt64-delta) ||
		(delta < 0 && self.current < math.MinInt64-delta) {
		return self.fail(errors.Wrapf(ErrInvalidRunList,
			"cluster delta %d overflows", delta))
	}

	next := self.current + delta
	if next < 0 {
		return self.fail(errors.Wrapf(ErrInvalidRunList,
			"run resolves to negative cluster %d", next))
	}

	self.current = next
	self.run = DataRun{StartCluster: next, Length: length}
	return true
}

// Decode the full run list. On error the runs decoded so far are
// returned as well.
func DecodeRuns(buf []byte, offset int) ([]DataRun, error) {
	result := []DataRun{}
	decoder := NewRunDecoder(buf, offset)
	for decoder.Next() {
		result = append(result, decoder.Run())
	}
	return result, decoder.Err()
}

// Convert cluster runs to byte extents on the volume.
func RunsToExtents(runs []DataRun, cluster_size int64) ([]Extent, error) {
	result := make([]Extent, 0, len(runs))
	for idx, run := range runs {
		if run.Length > math.MaxInt64 {
			return result, errors.Wrapf(ErrInvalidRunList,
				"run %d length %d is too large", idx, run.Length)
		}

		length, ok := mulInt64(int64(run.Length), cluster_size)
		if !ok {
			return result, errors.Wrapf(ErrInvalidRunList,
				"run %d length %d overflows", idx, run.Length)
		}

		if run.Sparse {
			result = append(result, Extent{Length: length, Sparse: true})
			continue
		}

		offset, ok := mulInt64(run.StartCluster, cluster_size)
		if !ok {
			return result, errors.Wrapf(ErrInvalidRunList,
				"run %d cluster %d overflows", idx, run.StartCluster)
		}

		result = append(result, Extent{Offset: offset, Length: length})
	}
	return result, nil
}

func readVarUint(b []byte) uint64 {
	var result uint64
	for i := len(b) - 1; i >= 0; i-- {
		result = result<<8 | uint64(b[i])
	}
	return result
}

// Little endian two's complement of arbitrary width.
func readVarInt(b []byte) int64 {
	result := readVarUint(b)
	if len(b) > 0 && len(b) < 8 && b[len(b)-1]&0x80 != 0 {
		result |= ^uint64(0) << (8 * uint(len(b)))
	}
	return int64(result)
}

type RunInfo struct {
	Index       int
	FileOffset  int64
	DiskOffset  int64
	Length      int64
	Cluster     int64
	Clusters    int64
	IsSparse    bool
	IsResident  bool
	ClusterSize int64
	Stream      string
}

func (self RunInfo) String() string {
	properties := ""
	if self.IsSparse {
		properties += "Sparse "
	}
	if self.IsResident {
		properties += "Resident "
	}

	return fmt.Sprintf("%d %v: FileOffset %v -> DiskOffset %v (Length %v, %vCluster %v)",
		self.Index, self.Stream, self.FileOffset, self.DiskOffset,
		self.Length, properties, self.ClusterSize)
}

// Describe how a list of extents maps the stream onto the volume.
func DebugRuns(extents []Extent, cluster_size int64) []*RunInfo {
	result := make([]*RunInfo, 0, len(extents))
	file_offsets := make(map[string]int64)

	for idx, extent := range extents {
		info := &RunInfo{
			Index:       idx,
			FileOffset:  file_offsets[extent.Stream],
			DiskOffset:  extent.Offset,
			Length:      extent.Length,
			IsSparse:    extent.Sparse,
			IsResident:  extent.Resident,
			ClusterSize: cluster_size,
			Stream:      extent.Stream,
		}

		if !extent.Resident && cluster_size > 0 {
			info.Clusters = extent.Length / cluster_size
			if !extent.Sparse {
				info.Cluster = extent.Offset / cluster_size
			}
		}

		file_offsets[extent.Stream] += extent.Length
		result = append(result, info)
	}

	return result
}
