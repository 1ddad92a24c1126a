package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	kingpin "gopkg.in/alecthomas/kingpin.v2"
	"www.velocidex.com/golang/ntfsdump/parser"
)

var (
	stat_command = app.Command(
		"stat", "Decode an MFT entry.")

	stat_command_file_arg = stat_command.Arg(
		"file", "The image file to inspect",
	).Required().String()

	stat_command_arg = stat_command.Arg(
		"path", "The path or MFT id of the entry.",
	).Default("5").String()

	stat_command_raw = stat_command.Flag(
		"raw", "Also show the raw entry header and attributes.",
	).Bool()
)

func writeStat(out io.Writer, volume *parser.VolumeHandle, arg string, raw bool) error {
	target, err := resolveTarget(volume, arg)
	if err != nil {
		return err
	}

	if raw {
		entry, err := volume.GetMFT(target.MFTId)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, entry.Display())
	}

	file, err := volume.Decode(target.MFTId)
	if err != nil {
		return err
	}

	serialized, err := json.MarshalIndent(file, " ", " ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(serialized))

	full_path, err := volume.FullPath(target.MFTId)
	if err == nil {
		fmt.Fprintf(out, "Path: %v\n", full_path)
	}
	return nil
}

func doSTAT() {
	image := openImage(*stat_command_file_arg)
	defer image.Close()

	err := writeStat(os.Stdout, image.VolumeHandle, *stat_command_arg,
		*stat_command_raw)
	kingpin.FatalIfError(err, "Can not decode entry")

	if *verbose_flag {
		parser.Debug(image.Stats())
	}
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case "stat":
			doSTAT()
		default:
			return false
		}
		return true
	})
}
