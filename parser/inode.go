package parser

import "fmt"

type InodeFormatter struct {
	attr_ids []uint64
}

// Format an inode unambigously
func (self *InodeFormatter) Inode(mft_id uint64,
	attr_type_id uint64, attr_id uint16, name string) string {
	inode := fmt.Sprintf("%d-%d-%d", mft_id, attr_type_id, attr_id)
	needle := uint64(attr_id)<<32 | attr_type_id

	for _, i := range self.attr_ids {
		if i == needle {
			// Only include the name if it is necessary (i.e. there
			// is another stream of the same type-id).
			if name != "" {
				inode += ":" + name
			}
			return inode
		}
	}

	self.attr_ids = append(self.attr_ids, needle)
	return inode
}
