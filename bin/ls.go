package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
	"www.velocidex.com/golang/ntfsdump/parser"
)

var (
	ls_command = app.Command(
		"ls", "List files.")

	ls_command_file_arg = ls_command.Arg(
		"file", "The image file to inspect",
	).Required().String()

	ls_command_arg = ls_command.Arg(
		"path", "The path to list or an MFT entry.",
	).Default("/").String()

	ls_command_deleted = ls_command.Flag(
		"deleted", "Also list entries which are not in use.",
	).Bool()
)

type listing struct {
	MFTId    uint64
	Name     string
	FullPath string
	Size     int64
	Mtime    time.Time
	IsDir    bool
	InUse    bool
}

// There is no index traversal here: children are all entries with a
// $FILE_NAME pointing at the directory.
func listDirectory(volume *parser.VolumeHandle,
	dir_id uint64, deleted bool) ([]*listing, error) {
	dir, err := volume.Decode(dir_id)
	if err != nil {
		return nil, err
	}

	if !dir.IsDir {
		return nil, errors.Errorf("Entry %d is not a directory", dir_id)
	}

	result := []*listing{}
	for i := uint64(0); i < volume.EntryCount(); i++ {
		if i == dir_id {
			continue
		}

		file, err := volume.Decode(i)
		if err != nil || (!file.InUse && !deleted) {
			continue
		}

		name := childName(file, dir_id, dir.Sequence)
		if name == "" {
			continue
		}

		full_path, _ := volume.FullPath(i)
		result = append(result, &listing{
			MFTId:    i,
			Name:     name,
			FullPath: full_path,
			Size:     file.Size,
			Mtime:    file.Modified,
			IsDir:    file.IsDir,
			InUse:    file.InUse,
		})
	}

	return result, nil
}

// The long name of file inside the directory, if it is in there.
func childName(file *parser.DecodedFile, dir_id uint64, dir_seq uint16) string {
	result := ""
	for _, fn := range file.Filenames {
		if fn.ParentEntry != dir_id {
			continue
		}

		if fn.ParentSequence != 0 && fn.ParentSequence != dir_seq {
			continue
		}

		if fn.Type != "DOS" || result == "" {
			result = fn.Name
		}
	}
	return result
}

func writeListing(out io.Writer, volume *parser.VolumeHandle,
	arg string, deleted bool) error {
	target, err := resolveTarget(volume, arg)
	if err != nil {
		return err
	}

	children, err := listDirectory(volume, target.MFTId, deleted)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{
		"MFT Id",
		"FullPath",
		"Size",
		"Mtime",
		"IsDir",
		"InUse",
		"Filename",
	})
	table.SetCaption(true, fmt.Sprintf(
		"Directory listing for MFT %v", target.MFTId))

	for _, info := range children {
		table.Append([]string{
			fmt.Sprintf("%d", info.MFTId),
			info.FullPath,
			fmt.Sprintf("%v", info.Size),
			fmt.Sprintf("%v", info.Mtime.In(time.UTC)),
			fmt.Sprintf("%v", info.IsDir),
			fmt.Sprintf("%v", info.InUse),
			info.Name,
		})
	}
	table.Render()

	return nil
}

func doLS() {
	image := openImage(*ls_command_file_arg)
	defer image.Close()

	err := writeListing(os.Stdout, image.VolumeHandle, *ls_command_arg,
		*ls_command_deleted)
	kingpin.FatalIfError(err, "Can not list directory")
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case "ls":
			doLS()
		default:
			return false
		}
		return true
	})
}
