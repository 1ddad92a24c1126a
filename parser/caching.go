// Manage caching of decoded MFT entries. This is mainly used for path
// traversal calculation.

package parser

import (
	"sync"

	"github.com/Velocidex/ordereddict"
	lru "github.com/hashicorp/golang-lru/v2"
)

type MFTEntryCache struct {
	mu sync.Mutex

	lru *lru.Cache[uint64, *DecodedFile]

	hit  int
	miss int
}

// A size of 0 or less gives a cache that never holds anything.
func NewMFTEntryCache(size int) *MFTEntryCache {
	result := &MFTEntryCache{}
	if size > 0 {
		result.lru, _ = lru.New[uint64, *DecodedFile](size)
	}
	return result
}

func (self *MFTEntryCache) Get(id uint64) (*DecodedFile, bool) {
	self.mu.Lock()
	defer self.mu.Unlock()

	if self.lru == nil {
		self.miss++
		return nil, false
	}

	res, pres := self.lru.Get(id)
	if pres {
		self.hit++
	} else {
		self.miss++
	}
	return res, pres
}

func (self *MFTEntryCache) Add(id uint64, file *DecodedFile) {
	if self.lru == nil {
		return
	}
	self.lru.Add(id, file)
}

func (self *MFTEntryCache) Purge() {
	if self.lru != nil {
		self.lru.Purge()
	}
}

func (self *MFTEntryCache) Stats() *ordereddict.Dict {
	self.mu.Lock()
	defer self.mu.Unlock()

	size := 0
	if self.lru != nil {
		size = self.lru.Len()
	}

	return ordereddict.NewDict().
		Set("Hit", self.hit).
		Set("Miss", self.miss).
		Set("Size", size)
}
