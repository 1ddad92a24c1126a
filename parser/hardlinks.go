/* This code traverses MFT entries to discover all the paths an entry
   is known by.

   In NTFS a file (MFT entry) may exist in multiple directories, this
   is called hardlinks. Each link adds a $FILE_NAME attribute to the
   entry pointing at a different parent. DOS short names are skipped
   as they always duplicate a long name.
*/

package parser

import (
	"fmt"
	"path"
	"strings"
)

const ROOT_MFT_ID = 5

type Visitor struct {
	Paths [][]string
	Max   int
}

func (self *Visitor) Add(idx int, depth int) int {
	self.Paths = append(self.Paths, CopySlice(self.Paths[idx][:depth]))
	return len(self.Paths) - 1
}

func (self *Visitor) AddComponent(idx int, component string) {
	self.Paths[idx] = append(self.Paths[idx], component)
}

func (self *Visitor) Components() [][]string {
	for _, p := range self.Paths {
		ReverseStringSlice(p)
	}
	return self.Paths
}

// Walks the parents of the entry to get all paths to it. At most max
// paths are returned.
func (self *VolumeHandle) GetHardLinks(index uint64, max int) [][]string {
	self.stats.Inc_PathLookups()

	visitor := &Visitor{
		Paths: [][]string{[]string{}},
		Max:   max,
	}

	file, err := self.Decode(index)
	if err != nil {
		visitor.AddComponent(0, "<Err>")
		return visitor.Components()
	}
	self.getNames(file, visitor, 0, 0)

	return visitor.Components()
}

// The path of the entry through its first $FILE_NAME.
func (self *VolumeHandle) FullPath(index uint64) (string, error) {
	if index == ROOT_MFT_ID {
		return "/", nil
	}

	file, err := self.Decode(index)
	if err != nil {
		return "", err
	}

	if !file.HasName() {
		return "", fmt.Errorf("Entry %d has no filename", index)
	}

	links := self.GetHardLinks(index, 1)
	return "/" + path.Join(links[0]...), nil
}

func (self *VolumeHandle) getNames(file *DecodedFile,
	visitor *Visitor, idx, depth int) {

	if depth > self.options.MaxPathDepth {
		visitor.AddComponent(idx, "<DirTooDeep>")
		visitor.AddComponent(idx, "<Err>")
		return
	}

	filenames := []*FilenameInfo{}
	for _, fn := range file.Filenames {
		switch fn.Type {
		case "Win32", "DOS+Win32", "POSIX":
			filenames = append(filenames, fn)
		}
	}

	// Only DOS names - better than nothing.
	if len(filenames) == 0 && len(file.Filenames) > 0 {
		filenames = file.Filenames[:1]
	}

	for i, fn := range filenames {
		// The first FN entry continues to visit the same path but the
		// next one will add a new path.
		visitor_idx := idx
		if i > 0 {
			if len(visitor.Paths) >= visitor.Max {
				break
			}
			visitor_idx = visitor.Add(idx, depth)
		}

		visitor.AddComponent(visitor_idx, fn.Name)

		if fn.ParentEntry == ROOT_MFT_ID || fn.ParentEntry == file.MFTID {
			continue
		}

		parent, err := self.Decode(fn.ParentEntry)
		if err != nil {
			visitor.AddComponent(visitor_idx, strings.ReplaceAll(err.Error(), "/", "_"))
			visitor.AddComponent(visitor_idx, "<Err>")
			continue
		}

		if fn.ParentSequence != 0 && fn.ParentSequence != parent.Sequence {
			visitor.AddComponent(visitor_idx,
				fmt.Sprintf("<Parent %v-%v need %v>", fn.ParentEntry,
					parent.Sequence, fn.ParentSequence))
			visitor.AddComponent(visitor_idx, "<Err>")
			continue
		}

		self.getNames(parent, visitor, visitor_idx, depth+1)
	}
}

func CopySlice(in []string) []string {
	result := make([]string, len(in))
	copy(result, in)
	return result
}

func ReverseStringSlice(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
