package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	kingpin "gopkg.in/alecthomas/kingpin.v2"
	"www.velocidex.com/golang/ntfsdump/parser"
)

var (
	shell_command = app.Command(
		"shell", "Interactively decode entries by index.")

	shell_command_file_arg = shell_command.Arg(
		"file", "The image file to inspect",
	).Required().String()
)

// Read indexes from in, one per line, and describe each entry. Ends
// on EOF or "quit".
func runShell(in io.Reader, out io.Writer, volume *parser.VolumeHandle) error {
	fmt.Fprintf(out, "Cluster size: %#x\nMFTEntrySize: %#x\nNumEntry: %#x\n",
		volume.Layout().ClusterSize, volume.Layout().RecordSize,
		volume.EntryCount())

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "index: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "q", "quit", "exit":
			return nil
		}

		index, err := strconv.ParseUint(line, 0, 64)
		if err != nil {
			fmt.Fprintln(out, "invalid index")
			continue
		}

		file, err := volume.Decode(index)
		switch parser.Classify(err) {
		case parser.OutcomeNoSuchIndex:
			fmt.Fprintln(out, "invalid index")
		case parser.OutcomeUnused:
			fmt.Fprintln(out, "unused entry")
		case parser.OutcomeCorrupt:
			fmt.Fprintf(out, "corrupt entry: %v\n", err)
		default:
			describeEntry(out, volume, file)
		}
	}
}

func describeEntry(out io.Writer, volume *parser.VolumeHandle, file *parser.DecodedFile) {
	fmt.Fprintf(out, "MFT Entry(+%#x)\n", file.Offset)
	fmt.Fprintf(out, "Sequence: %d\nFlags: %v\n", file.Sequence, file.Flags)
	for _, mismatch := range file.Fixups {
		fmt.Fprintf(out, "\t%v\n", mismatch)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Attributes:")
	fmt.Fprintln(out, "offset type size non-resident?")
	for _, attr := range file.Attributes {
		resident := 0
		if !attr.Resident {
			resident = 1
		}
		fmt.Fprintf(out, "+%#x: %#x(%s) %#x %d\n",
			attr.Offset, attr.TypeId, attr.Type, attr.Length, resident)
	}
	fmt.Fprintln(out)

	for _, fn := range file.Filenames {
		fmt.Fprintf(out, "name: %s (%s)\n", fn.Name, fn.Type)
		fmt.Fprintf(out, "CTime: %s\nMTime: %s\n\n",
			fn.Times.CreateTime.Format(time.RFC3339),
			fn.Times.MFTModifiedTime.Format(time.RFC3339))
	}

	if len(file.Extents) > 0 {
		fmt.Fprintln(out, "Data:")
		fmt.Fprintln(out, "offset size")
		for _, extent := range file.Extents {
			stream := ""
			if extent.Stream != "" {
				stream = " :" + extent.Stream
			}
			if extent.Sparse {
				fmt.Fprintf(out, "sparse %#x%s\n", extent.Length, stream)
				continue
			}
			fmt.Fprintf(out, "+%#x %#x%s\n", extent.Offset, extent.Length, stream)
		}
		fmt.Fprintln(out)
	}

	for _, problem := range file.Problems {
		fmt.Fprintf(out, "problem: %s\n", problem.Reason)
	}

	full_path, err := volume.FullPath(file.MFTID)
	if err == nil {
		fmt.Fprintf(out, "path: %s\n", full_path)
	}
}

func doShell() {
	image := openImage(*shell_command_file_arg)
	defer image.Close()

	err := runShell(os.Stdin, os.Stdout, image.VolumeHandle)
	kingpin.FatalIfError(err, "Shell")
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case "shell":
			doShell()
		default:
			return false
		}
		return true
	})
}
