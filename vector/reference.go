package vector

import "encoding/binary"

// ReferenceSize is the encoded size, in bytes, of a Reference record.
const ReferenceSize = 8

// Reference is the external {offset, count} record a Vector borrows a
// mutable pointer to. It survives relocation of the vector's backing
// allocation: whenever a Vector moves its storage, it rewrites Offset in
// place so every holder of the Reference observes the new location.
//
// Offset is the byte offset, from the region base, to the allocation's
// payload (not its header). Offset == 0 denotes an unbound vector.
type Reference struct {
	Offset uint32
	Count  uint32
}

// Bound reports whether the reference currently points at a backing
// allocation.
func (r Reference) Bound() bool {
	return r.Offset != 0
}

// EncodeTo writes the reference's on-region byte representation into buf,
// which must be at least ReferenceSize bytes long.
func (r Reference) EncodeTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], r.Offset)
	binary.LittleEndian.PutUint32(buf[4:8], r.Count)
}

// DecodeReference reads a Reference from its on-region byte
// representation.
func DecodeReference(buf []byte) Reference {
	return Reference{
		Offset: binary.LittleEndian.Uint32(buf[0:4]),
		Count:  binary.LittleEndian.Uint32(buf[4:8]),
	}
}
