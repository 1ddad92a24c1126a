package main

import (
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
	"www.velocidex.com/golang/ntfsdump/parser"
)

var (
	attrs_command = app.Command(
		"attrs", "List the attributes of an MFT entry.")

	attrs_command_file_arg = attrs_command.Arg(
		"file", "The image file to inspect",
	).Required().String()

	attrs_command_arg = attrs_command.Arg(
		"path", "The path or MFT id of the entry.",
	).Default("5").String()
)

func writeAttributes(out io.Writer, volume *parser.VolumeHandle, arg string) error {
	target, err := resolveTarget(volume, arg)
	if err != nil {
		return err
	}

	file, err := volume.Decode(target.MFTId)
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{
		"Inode",
		"Offset",
		"Type",
		"Name",
		"Length",
		"Size",
		"Resident",
		"Flags",
	})
	table.SetCaption(true, fmt.Sprintf(
		"Attributes of MFT entry %d", file.MFTID))

	for _, attr := range file.Attributes {
		table.Append([]string{
			attr.Inode,
			fmt.Sprintf("%#x", attr.Offset),
			fmt.Sprintf("%#x (%s)", attr.TypeId, attr.Type),
			attr.Name,
			fmt.Sprintf("%#x", attr.Length),
			fmt.Sprintf("%d", attr.Size),
			fmt.Sprintf("%v", attr.Resident),
			attr.Flags,
		})
	}
	table.Render()

	for _, problem := range file.Problems {
		fmt.Fprintf(out, "Problem at %#x (%s): %s\n",
			problem.AttributeOffset, problem.AttributeType, problem.Reason)
	}
	return nil
}

func doAttrs() {
	image := openImage(*attrs_command_file_arg)
	defer image.Close()

	err := writeAttributes(os.Stdout, image.VolumeHandle, *attrs_command_arg)
	kingpin.FatalIfError(err, "Can not decode entry")
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case "attrs":
			doAttrs()
		default:
			return false
		}
		return true
	})
}
