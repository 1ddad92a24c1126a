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
	runs_command = app.Command(
		"runs", "Display the runs of the $DATA streams.")

	runs_command_file_arg = runs_command.Arg(
		"file", "The image file to inspect",
	).Required().String()

	runs_command_arg = runs_command.Arg(
		"mft_id", "An inode in MFT notation e.g. 43-128-0, or a path.",
	).Required().String()

	runs_command_all = runs_command.Flag(
		"all", "Show all streams, not just the selected one.",
	).Bool()
)

func writeRuns(out io.Writer, volume *parser.VolumeHandle, arg string, all bool) error {
	target, err := resolveTarget(volume, arg)
	if err != nil {
		return err
	}

	file, err := volume.Decode(target.MFTId)
	if err != nil {
		return err
	}

	extents := file.DataExtents()
	if !all {
		stream, err := target.streamName(file)
		if err != nil {
			return err
		}
		extents = file.StreamExtents(stream)
	}

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{
		"Idx",
		"Stream",
		"File Offset",
		"Disk Offset",
		"Length",
		"Cluster",
		"Clusters",
		"Properties",
	})

	for _, run := range parser.DebugRuns(extents, volume.Layout().ClusterSize) {
		properties := ""
		if run.IsSparse {
			properties = "Sparse"
		} else if run.IsResident {
			properties = "Resident"
		}

		table.Append([]string{
			fmt.Sprintf("%d", run.Index),
			run.Stream,
			fmt.Sprintf("%d", run.FileOffset),
			fmt.Sprintf("%d", run.DiskOffset),
			fmt.Sprintf("%d", run.Length),
			fmt.Sprintf("%d", run.Cluster),
			fmt.Sprintf("%d", run.Clusters),
			properties,
		})

		parser.DebugPrint("%v\n", run)
	}
	table.Render()

	return nil
}

func doRuns() {
	image := openImage(*runs_command_file_arg)
	defer image.Close()

	err := writeRuns(os.Stdout, image.VolumeHandle, *runs_command_arg,
		*runs_command_all)
	kingpin.FatalIfError(err, "Can not list runs")
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case "runs":
			doRuns()
		default:
			return false
		}
		return true
	})
}
