package parser

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/davecgh/go-spew/spew"
)

var (
	NTFS_DEBUG      bool
	ntfs_debug_once sync.Once
)

func Debug(arg interface{}) {
	spew.Dump(arg)
}

type Debugger interface {
	DebugString() string
}

// Indent the debug representation of arg.
func DebugString(arg interface{}, indent string) string {
	debugger, ok := arg.(Debugger)
	if !ok {
		return ""
	}

	lines := strings.Split(debugger.DebugString(), "\n")
	for idx, line := range lines {
		lines[idx] = indent + line
	}
	return strings.Join(lines, "\n")
}

func DebugPrint(fmt_str string, v ...interface{}) {
	// os.Environ() seems very expensive in Go so we cache it.
	ntfs_debug_once.Do(func() {
		_, NTFS_DEBUG = os.LookupEnv("NTFS_DEBUG")
	})

	if NTFS_DEBUG {
		fmt.Printf(fmt_str, v...)
	}
}
