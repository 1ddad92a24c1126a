package parser

import (
	"fmt"
	"time"
	"unicode/utf16"

	"golang.org/x/text/encoding/unicode"
)

const (
	// FILETIME counts 100ns ticks since 1601-01-01.
	filetimeTicksPerSecond = 10000000

	// Seconds between 1601-01-01 and 1970-01-01.
	filetimeEpochDelta = 134774 * 86400
)

// Convert a FILETIME to a UTC time. Sub-second precision is dropped.
func FiletimeToTime(ticks uint64) time.Time {
	seconds := int64(ticks/filetimeTicksPerSecond) - filetimeEpochDelta
	return time.Unix(seconds, 0).UTC()
}

// A FileTime object is a timestamp in windows filetime format.
type WinFileTime struct {
	time.Time
}

func (self *WinFileTime) GoString() string {
	return fmt.Sprintf("%v", self)
}

func (self *WinFileTime) DebugString() string {
	return fmt.Sprintf("%v", self)
}

func NewWinFileTime(b []byte, offset int) *WinFileTime {
	return &WinFileTime{FiletimeToTime(ParseUint64(b, offset))}
}

// Decode little endian UTF-16 into a string. Invalid code units
// (e.g. unpaired surrogates) come out as U+FFFD.
func ParseUTF16String(b []byte) string {
	// Drop a dangling odd byte.
	b = b[:len(b)&^1]

	decoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	decoded, err := decoder.Bytes(b)
	if err == nil {
		return string(decoded)
	}

	u16s := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		u16s = append(u16s, ParseUint16(b, i))
	}
	return string(utf16.Decode(u16s))
}
