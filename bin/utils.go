package main

import (
	"strings"

	"github.com/pkg/errors"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
	"www.velocidex.com/golang/ntfsdump"
	"www.velocidex.com/golang/ntfsdump/logger"
	"www.velocidex.com/golang/ntfsdump/parser"
)

func getOptions() parser.Options {
	options := parser.GetDefaultOptions()
	options.Logger = logger.New(*verbose_flag)
	options.NoFixupRestore = *no_restore_flag
	options.FirstRunOnly = *first_run_flag
	options.ForceLenient = *lenient_flag
	options.CacheSize = *cache_size_flag
	options.MaxPathDepth = *max_depth_flag
	return options
}

func openImage(path string) *ntfsdump.Image {
	image, err := ntfsdump.OpenImageAt(path, *image_offset_flag, getOptions())
	kingpin.FatalIfError(err, "Can not open filesystem")
	return image
}

// An entry is either given by MFT id (e.g. 3, 3-128-4) or by its full
// path (e.g. /docs/big.bin, optionally with :stream). Paths are found
// by walking the entire table.
type target struct {
	MFTId     uint64
	AttrType  uint64
	AttrId    uint64
	Stream    string
	HasStream bool
}

func getADSName(filename string) (string, string, bool) {
	parts := strings.SplitN(filename, ":", 2)
	if len(parts) > 1 {
		return parts[0], parts[1], true
	}
	return filename, "", false
}

func resolveTarget(volume *parser.VolumeHandle, arg string) (*target, error) {
	mft_idx, attr_type, attr_id, err := parser.ParseMFTId(arg)
	if err == nil {
		return &target{
			MFTId:    mft_idx,
			AttrType: attr_type,
			AttrId:   attr_id,
		}, nil
	}

	filename, stream, has_stream := getADSName(arg)
	mft_idx, err = findPath(volume, filename)
	if err != nil {
		return nil, err
	}

	return &target{
		MFTId:     mft_idx,
		AttrType:  parser.ATTR_TYPE_DATA,
		Stream:    stream,
		HasStream: has_stream,
	}, nil
}

func findPath(volume *parser.VolumeHandle, filename string) (uint64, error) {
	filename = "/" + strings.Trim(strings.ReplaceAll(filename, "\\", "/"), "/")
	if filename == "/" {
		return parser.ROOT_MFT_ID, nil
	}

	for i := uint64(0); i < volume.EntryCount(); i++ {
		file, err := volume.Decode(i)
		if err != nil || !file.HasName() {
			continue
		}

		for _, components := range volume.GetHardLinks(i, 10) {
			if strings.EqualFold(
				"/"+strings.Join(components, "/"), filename) {
				return i, nil
			}
		}
	}

	return 0, errors.Errorf("Path %v not found", filename)
}

// Pick the stream the target refers to. An attribute id selects the
// stream of that $DATA attribute.
func (self *target) streamName(file *parser.DecodedFile) (string, error) {
	if self.HasStream || self.AttrId == 0 {
		return self.Stream, nil
	}

	for _, attr := range file.Attributes {
		if attr.TypeId == self.AttrType && attr.Id == self.AttrId {
			return attr.Name, nil
		}
	}
	return "", errors.Errorf("Attribute %d-%d not found in entry %d",
		self.AttrType, self.AttrId, self.MFTId)
}
