package main

import (
	"os"

	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

type CommandHandler func(command string) bool

var (
	app = kingpin.New("ntfsdump",
		"A tool for decoding the MFT of NTFS images.")

	verbose_flag = app.Flag(
		"verbose", "Show more information.").Short('v').Bool()

	no_restore_flag = app.Flag(
		"no_restore", "Compare fixups without restoring sector tails.").Bool()

	first_run_flag = app.Flag(
		"first_run_only", "Only map the first run of the $MFT.").Bool()

	lenient_flag = app.Flag(
		"lenient", "Walk attributes of every entry leniently.").Bool()

	cache_size_flag = app.Flag(
		"cache_size", "Number of decoded entries to keep.").
		Default("1000").Int()

	max_depth_flag = app.Flag(
		"max_depth", "Give up on paths deeper than this.").
		Default("20").Int()

	image_offset_flag = app.Flag(
		"image_offset", "The offset of the volume in the image.",
	).Int64()

	command_handlers []CommandHandler
)

func main() {
	app.HelpFlag.Short('h')
	app.UsageTemplate(kingpin.CompactUsageTemplate)
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	for _, command_handler := range command_handlers {
		if command_handler(command) {
			break
		}
	}
}
