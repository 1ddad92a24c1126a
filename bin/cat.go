package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
	"www.velocidex.com/golang/ntfsdump/parser"
)

var (
	cat_command = app.Command(
		"cat", "Dump file stream.")

	cat_command_file_arg = cat_command.Arg(
		"file", "The image file to inspect",
	).Required().String()

	cat_command_arg = cat_command.Arg(
		"path", "The path or MFT id (e.g. 43-128-4) of the stream.",
	).Required().String()

	cat_command_offset = cat_command.Flag(
		"offset", "The offset to start reading.",
	).Int64()

	cat_command_output_file = cat_command.Flag(
		"out", "Write to this file",
	).OpenFile(os.O_RDWR|os.O_CREATE|os.O_TRUNC, os.FileMode(0666))
)

var zeros = make([]byte, 64*1024)

func writeZeros(out io.Writer, length int64) error {
	for length > 0 {
		n := int64(len(zeros))
		if n > length {
			n = length
		}
		_, err := out.Write(zeros[:n])
		if err != nil {
			return err
		}
		length -= n
	}
	return nil
}

// Write the stream content from offset onward. Sparse runs read as
// zeros and the output stops at the logical size of the stream.
func writeStream(out io.Writer, volume *parser.VolumeHandle,
	arg string, offset int64) (int64, error) {
	target, err := resolveTarget(volume, arg)
	if err != nil {
		return 0, err
	}

	file, err := volume.Decode(target.MFTId)
	if err != nil {
		return 0, err
	}

	stream, err := target.streamName(file)
	if err != nil {
		return 0, err
	}

	size, pres := file.StreamSize(stream)
	if !pres {
		return 0, errors.Errorf("Entry %d has no stream %q", file.MFTID, stream)
	}

	written := int64(0)
	file_offset := int64(0)
	for _, extent := range file.StreamExtents(stream) {
		start := file_offset
		end := parser.CapInt64(file_offset+extent.Length, size)
		file_offset += extent.Length

		if start < offset {
			start = offset
		}
		if start >= end {
			continue
		}

		length := end - start
		if extent.Sparse {
			err = writeZeros(out, length)
			if err != nil {
				return written, err
			}
			written += length
			continue
		}

		data, err := volume.ReadExtent(extent)
		if err != nil {
			return written, err
		}

		relative := start - (file_offset - extent.Length)
		if relative+length > int64(len(data)) {
			return written, errors.Errorf(
				"Extent at %#x is shorter than expected", extent.Offset)
		}

		n, err := out.Write(data[relative : relative+length])
		written += int64(n)
		if err != nil {
			return written, err
		}
	}

	return written, nil
}

func doCAT() {
	image := openImage(*cat_command_file_arg)
	defer image.Close()

	var fd io.WriteCloser = os.Stdout
	if *cat_command_output_file != nil {
		fd = *cat_command_output_file
		defer fd.Close()
	}

	_, err := writeStream(fd, image.VolumeHandle, *cat_command_arg,
		*cat_command_offset)
	kingpin.FatalIfError(err, "Can not read stream")
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case "cat":
			doCAT()
		default:
			return false
		}
		return true
	})
}
