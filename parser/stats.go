package parser

import (
	"encoding/json"
	"sync"

	"github.com/Velocidex/ordereddict"
)

// Counters for a single volume.
type Stats struct {
	mu sync.Mutex

	Decode          int
	DecodeErrors    int
	EntryUnused     int
	FixupMismatches int
	Problems        int
	PathLookups     int
}

func (self *Stats) DebugString() string {
	self.mu.Lock()
	defer self.mu.Unlock()

	serialized, _ := json.MarshalIndent(self, " ", " ")
	return string(serialized)
}

func (self *Stats) Dict() *ordereddict.Dict {
	self.mu.Lock()
	defer self.mu.Unlock()

	return ordereddict.NewDict().
		Set("Decode", self.Decode).
		Set("DecodeErrors", self.DecodeErrors).
		Set("EntryUnused", self.EntryUnused).
		Set("FixupMismatches", self.FixupMismatches).
		Set("Problems", self.Problems).
		Set("PathLookups", self.PathLookups)
}

func (self *Stats) Inc_Decode(file *DecodedFile, err error) {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.Decode++
	switch Classify(err) {
	case OutcomeDecoded:
		self.FixupMismatches += len(file.Fixups)
		self.Problems += len(file.Problems)
	case OutcomeUnused:
		self.EntryUnused++
	default:
		self.DecodeErrors++
	}
}

func (self *Stats) Inc_PathLookups() {
	self.mu.Lock()
	defer self.mu.Unlock()

	self.PathLookups++
}
