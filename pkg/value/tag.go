package value

import (
	"fmt"
	"hash/crc32"
)

// TypeTag identifies one semantic type, either a block implementation or a
// native object a block owns. It is the CRC32 (IEEE) of a stable identity
// string, so the same identity always yields the same tag across builds.
type TypeTag uint32

// Tag computes the type tag of identity.
func Tag(identity string) TypeTag {
	return TypeTag(crc32.ChecksumIEEE([]byte(identity)))
}

func (t TypeTag) String() string {
	return fmt.Sprintf("0x%08x", uint32(t))
}
