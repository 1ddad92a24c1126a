package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"www.velocidex.com/golang/ntfsdump/parser"
)

var (
	info_command = app.Command(
		"info", "Show the volume geometry and the location of the MFT.")

	info_command_file_arg = info_command.Arg(
		"file", "The image file to inspect",
	).Required().String()
)

func writeInfo(out io.Writer, volume *parser.VolumeHandle) {
	layout := volume.Layout()
	table := volume.Table()
	p := message.NewPrinter(language.English)

	p.Fprintf(out, "OEM: %s\n", strings.TrimSpace(layout.OEMName))
	p.Fprintf(out, "Serial: %s\n", fmt.Sprintf("%#016x", layout.SerialNumber))
	p.Fprintf(out, "Bytes per sector: %d\n", layout.BytesPerSector)
	p.Fprintf(out, "Sectors per cluster: %d\n", layout.SectorsPerCluster)
	p.Fprintf(out, "Cluster size: %d\n", layout.ClusterSize)
	p.Fprintf(out, "Record size: %d\n", layout.RecordSize)
	p.Fprintf(out, "Index record size: %d\n", layout.IndexRecordSize)
	p.Fprintf(out, "Total sectors: %d\n", layout.TotalSectors)
	p.Fprintf(out, "Volume size: %d\n", layout.VolumeSize())
	p.Fprintf(out, "MFT cluster: %d\n", layout.MFTCluster)
	p.Fprintf(out, "MFT mirror cluster: %d\n", layout.MFTMirrorCluster)
	p.Fprintf(out, "MFT offset: %d\n", table.Base)
	p.Fprintf(out, "MFT size: %d\n", table.Size)
	p.Fprintf(out, "MFT entries: %d\n", table.Count)
	p.Fprintf(out, "Resident MFT: %v\n", table.Resident)
	p.Fprintf(out, "MFT runs: %d\n", len(table.Extents()))
	p.Fprintf(out, "Fragmented: %v\n", table.IsFragmented())
}

func doInfo() {
	image := openImage(*info_command_file_arg)
	defer image.Close()

	writeInfo(os.Stdout, image.VolumeHandle)

	if *verbose_flag {
		parser.Debug(image.Layout())
	}
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case "info":
			doInfo()
		default:
			return false
		}
		return true
	})
}
