package main

import (
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"www.velocidex.com/golang/ntfsdump/parser"
)

var (
	check_command = app.Command(
		"check", "Decode every entry and report the ones that fail.")

	check_command_file_arg = check_command.Arg(
		"file", "The image file to inspect",
	).Required().String()

	check_command_start_id = check_command.Flag(
		"start", "The ID to start with").Uint64()

	check_command_end_id = check_command.Flag(
		"end", "The ID to end with").Default("10000000").Uint64()
)

// Decode entries [start, end) and count the outcomes. Corrupt entries
// and entries with attribute problems are reported to out.
func checkEntries(out io.Writer, volume *parser.VolumeHandle,
	start, end uint64) map[parser.Outcome]int {
	if end > volume.EntryCount() {
		end = volume.EntryCount()
	}

	result := make(map[parser.Outcome]int)
	for i := start; i < end; i++ {
		file, err := volume.Decode(i)
		outcome := parser.Classify(err)
		result[outcome]++

		switch outcome {
		case parser.OutcomeCorrupt:
			fmt.Fprintf(out, "Error: %v: %v\n", i, err)

		case parser.OutcomeDecoded:
			for _, problem := range file.Problems {
				fmt.Fprintf(out, "Problem: %v: %v at %#x: %v\n", i,
					problem.AttributeType, problem.AttributeOffset,
					problem.Reason)
			}
			for _, mismatch := range file.Fixups {
				fmt.Fprintf(out, "Fixup: %v: %v\n", i, mismatch)
			}
		}
	}

	return result
}

func writeCheck(out io.Writer, volume *parser.VolumeHandle, start, end uint64) {
	counts := checkEntries(out, volume, start, end)

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Outcome", "Count"})
	for _, outcome := range []parser.Outcome{
		parser.OutcomeDecoded, parser.OutcomeUnused,
		parser.OutcomeNoSuchIndex, parser.OutcomeCorrupt} {
		table.Append([]string{
			outcome.String(), fmt.Sprintf("%d", counts[outcome])})
	}
	table.Render()
}

func doCheck() {
	image := openImage(*check_command_file_arg)
	defer image.Close()

	writeCheck(os.Stdout, image.VolumeHandle,
		*check_command_start_id, *check_command_end_id)

	if *verbose_flag {
		parser.Debug(image.Stats())
	}
}

func init() {
	command_handlers = append(command_handlers, func(command string) bool {
		switch command {
		case "check":
			doCheck()
		default:
			return false
		}
		return true
	})
}
