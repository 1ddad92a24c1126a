// Implement some easy APIs.
package parser

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Decode the entry at index. The error separates an index past the end
// of the table (ErrIndexOutOfRange), an empty slot (ErrEntryUnused) and
// a corrupt entry (anything else) - see Classify(). Problems with single
// attributes do not fail the decode, they are listed in
// DecodedFile.Problems instead.
func (self *VolumeHandle) Decode(index uint64) (*DecodedFile, error) {
	cached, pres := self.cache.Get(index)
	if pres {
		return cached, nil
	}

	result, err := self.decode(index)
	self.stats.Inc_Decode(result, err)
	if err != nil {
		return nil, err
	}

	self.cache.Add(index, result)
	return result, nil
}

func (self *VolumeHandle) decode(index uint64) (*DecodedFile, error) {
	entry, err := self.GetMFT(index)
	if err != nil {
		return nil, err
	}

	result := self.decodeEntry(index, entry)
	for _, problem := range result.Problems {
		self.logger.Debug("Attribute problem",
			zap.Uint64("entry", index),
			zap.String("type", problem.AttributeType),
			zap.Int64("offset", problem.AttributeOffset),
			zap.Error(problem.Err))
	}
	return result, nil
}

func (self *VolumeHandle) decodeEntry(index uint64, entry *MFT_ENTRY) *DecodedFile {
	flags := entry.Flags()
	result := &DecodedFile{
		MFTID:    index,
		Offset:   entry.Offset,
		Sequence: entry.Sequence_value(),
		Flags:    flags.String(),
		InUse:    flags.IsSet("ALLOCATED"),
		IsDir:    flags.IsSet("DIRECTORY"),
		Fixups:   entry.Fixups,
	}

	cluster_size := self.layout.ClusterSize
	inodes := &InodeFormatter{}
	seen_data := false

	it := entry.Attributes()
	for it.Next() {
		attr := it.Attribute()
		attr_type := attr.Type()
		attr_id := attr.Attribute_id()
		name := attr.Name()

		model := &Attribute{
			Type:     attr_type.Name,
			TypeId:   attr_type.Value,
			Id:       uint64(attr_id),
			Inode:    inodes.Inode(index, attr_type.Value, attr_id, name),
			Offset:   entry.Offset + attr.Offset,
			Length:   attr.Length(),
			Size:     attr.DataSize(),
			Resident: attr.IsResident(),
			Name:     name,
			Flags:    attr.Flags().String(),
		}
		result.Attributes = append(result.Attributes, model)

		switch attr_type.Value {
		case ATTR_TYPE_DATA:
			resolved, err := ResolveAttribute(entry, attr, cluster_size)
			if err != nil {
				result.addProblem(attr, err)
			}
			if resolved == nil {
				continue
			}

			for _, extent := range resolved.Extents {
				extent.Stream = name
				result.Extents = append(result.Extents, extent)
			}

			if name == "" && !seen_data {
				result.Size = resolved.DataSize
				seen_data = true
			}

		case ATTR_TYPE_FILE_NAME:
			resolved, err := ResolveAttribute(entry, attr, cluster_size)
			if err != nil {
				result.addProblem(attr, err)
				continue
			}

			fn, err := ParseFileName(resolved)
			if err != nil {
				result.addProblem(attr, err)
				continue
			}

			if fn.IsTruncated() {
				result.addProblem(attr, errors.Wrapf(ErrAttributeSizeInvalid,
					"$FILE_NAME name of %d characters is truncated",
					fn._length_of_name()))
			}

			result.Filenames = append(result.Filenames, &FilenameInfo{
				Times: TimeStamps{
					CreateTime:       fn.Created().Time,
					FileModifiedTime: fn.File_modified().Time,
					MFTModifiedTime:  fn.Mft_modified().Time,
					AccessedTime:     fn.File_accessed().Time,
				},
				Type:           fn.NameType().Name,
				Name:           fn.Name(),
				ParentEntry:    fn.MftReference(),
				ParentSequence: fn.Seq_num(),
				AllocatedSize:  fn.Allocated_size(),
				Size:           fn.FilenameSize(),
			})
		}
	}

	if it.Err() != nil {
		result.addProblem(nil, it.Err())
	}

	if len(result.Filenames) > 0 {
		first := result.Filenames[0]
		result.Name = first.Name
		result.NameType = first.Type
		result.Parent = first.ParentEntry
		result.Created = first.Times.CreateTime
		result.Modified = first.Times.MFTModifiedTime
		result.Accessed = first.Times.AccessedTime
	}

	return result
}

// Parse an inode string as produced by InodeFormatter, e.g. 5-128-1.
// A missing type defaults to $DATA.
func ParseMFTId(mft_id string) (mft_idx uint64, attr uint64, id uint64, err error) {
	components := []uint64{}
	for _, component_str := range strings.Split(mft_id, "-") {
		x, err := strconv.ParseUint(component_str, 0, 64)
		if err != nil {
			return 0, 0, 0, errors.New("Incorrect format for MFTId: e.g. 5-144-1")
		}
		components = append(components, x)
	}

	switch len(components) {
	case 1:
		return components[0], ATTR_TYPE_DATA, 0, nil
	case 2:
		return components[0], components[1], 0, nil
	case 3:
		return components[0], components[1], components[2], nil
	default:
		return 0, 0, 0, errors.New("Incorrect format for MFTId: e.g. 5-144-1")
	}
}
