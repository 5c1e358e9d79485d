// Package region implements a self-describing in-place allocator over a
// caller-supplied contiguous byte buffer.
//
// A region, once formatted, is a doubly-linked sequence of fixed-header
// records ("atoms") that partition every byte of the buffer into a user
// allocation, a free span, the reserved data header, or the terminal end
// sentinel. All bookkeeping lives inside the buffer itself; callers own the
// memory for the entire lifetime of any value returned from this package.
package region

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// HeaderSize is the fixed size, in bytes, of an atom header.
const HeaderSize = 16

// Errors returned by this package.
var (
	// ErrOutOfSpace is returned when no free atom can accommodate a request.
	ErrOutOfSpace = errors.New("region: out of space")

	// ErrInvalidLayout is returned by Validate when a region's invariants
	// do not hold. It is diagnostic only; the region cannot be repaired
	// in-place.
	ErrInvalidLayout = errors.New("region: invalid layout")

	// ErrInvalidArgument is returned for programmer errors: freeing a
	// non-allocation atom, an undersized or misaligned region, etc.
	ErrInvalidArgument = errors.New("region: invalid argument")
)

// Kind identifies the role of an atom. The four values are the exact
// 4-byte tags that appear in the region, little-endian; each is the
// atom's mnemonic spelled backwards.
type Kind [4]byte

// String renders the kind's mnemonic (forwards) for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindFree:
		return "free"
	case KindAllocation:
		return "allocation"
	case KindEnd:
		return "end"
	default:
		return fmt.Sprintf("unknown(% x)", [4]byte(k))
	}
}

// The four atom kinds, encoded as the raw bytes stored in the region.
var (
	KindData       = Kind{'a', 't', 'a', 'd'}
	KindFree       = Kind{'e', 'e', 'r', 'f'}
	KindAllocation = Kind{'c', 'o', 'l', 'a'}
	KindEnd        = Kind{' ', 'd', 'n', 'e'}
)

// Atom is a non-owning view of one atom header (and its payload) within a
// region. Two Atom values referring to the same offset of the same
// underlying byte slice observe the same bytes; mutating one is visible
// through the other.
type Atom struct {
	region []byte
	offset uint32
}

// Region returns the atom's backing byte slice.
func (a Atom) Region() []byte { return a.region }

// Offset returns the byte offset, from the region base, of this atom's
// header.
func (a Atom) Offset() uint32 { return a.offset }

// Length returns the atom's total size, including its header, in bytes.
func (a Atom) Length() uint32 {
	return binary.LittleEndian.Uint32(a.header()[0:4])
}

func (a Atom) setLength(v uint32) {
	binary.LittleEndian.PutUint32(a.header()[0:4], v)
}

// Kind returns the atom's identifier tag.
func (a Atom) Kind() Kind {
	return Kind(a.header()[4:8])
}

func (a Atom) setKind(k Kind) {
	copy(a.header()[4:8], k[:])
}

// Previous returns the length of the atom immediately preceding this one,
// or 0 if this is the first (data) atom.
func (a Atom) Previous() uint32 {
	return binary.LittleEndian.Uint32(a.header()[8:12])
}

func (a Atom) setPrevious(v uint32) {
	binary.LittleEndian.PutUint32(a.header()[8:12], v)
}

// User returns the tag-specific scratch field.
func (a Atom) User() uint32 {
	return binary.LittleEndian.Uint32(a.header()[12:16])
}

// SetUser sets the tag-specific scratch field.
func (a Atom) SetUser(v uint32) {
	binary.LittleEndian.PutUint32(a.header()[12:16], v)
}

func (a Atom) header() []byte {
	return a.region[a.offset : a.offset+HeaderSize]
}

// ContentsSize returns the number of payload bytes following the header.
func (a Atom) ContentsSize() uint32 {
	return a.Length() - HeaderSize
}

// Empty reports whether the atom carries zero payload bytes.
func (a Atom) Empty() bool {
	return a.Length() == HeaderSize
}

// Payload returns the atom's payload bytes. The returned slice aliases the
// region and is 16-byte aligned provided the region base is.
func (a Atom) Payload() []byte {
	return a.region[a.offset+HeaderSize : a.offset+a.Length()]
}

// Next returns the atom immediately following this one, and false if this
// atom is the end sentinel or if a's length would put the next header
// at or past the end of the region (a malformed length, or a missing/
// overwritten end sentinel).
func (a Atom) Next() (Atom, bool) {
	if a.Kind() == KindEnd {
		return Atom{}, false
	}
	next := uint64(a.offset) + uint64(a.Length())
	if next+HeaderSize > uint64(len(a.region)) {
		return Atom{}, false
	}
	return Atom{region: a.region, offset: uint32(next)}, true
}

// Prev returns the atom immediately preceding this one, and false if this
// atom is the first (data) atom or if its previous field is corrupt
// (larger than its own offset, which would otherwise underflow to a huge
// offset outside the region).
func (a Atom) Prev() (Atom, bool) {
	if a.offset == 0 {
		return Atom{}, false
	}
	prevLen := a.Previous()
	if prevLen == 0 || prevLen > a.offset {
		return Atom{}, false
	}
	return Atom{region: a.region, offset: a.offset - prevLen}, true
}

// Distance returns the number of bytes between the start of a and the
// start of b. b is assumed to be at or after a.
func Distance(a, b Atom) uint32 {
	return b.offset - a.offset
}

// aligned rounds n up to the next multiple of 16.
func aligned(n uint32) uint32 {
	return (n + 15) &^ 15
}

// DataAtom returns the first atom of region, which is always the data
// atom. region must have been formatted and not already be empty of the
// header bytes.
func DataAtom(buf []byte) Atom {
	return Atom{region: buf, offset: 0}
}

// AtomAt returns the atom whose header begins at the given byte offset of
// buf. The caller is responsible for offset actually being the start of a
// valid atom header; this is a raw constructor for callers (such as the
// vector package) that already track an atom's location externally.
func AtomAt(buf []byte, offset uint32) Atom {
	return Atom{region: buf, offset: offset}
}

// EndAtom returns the terminal end-sentinel atom of region.
func EndAtom(buf []byte) Atom {
	return Atom{region: buf, offset: uint32(len(buf)) - HeaderSize}
}

// Walk returns an iterator over every atom in region, from the data atom
// through, and including, the end sentinel.
func Walk(buf []byte) func(yield func(Atom) bool) {
	return func(yield func(Atom) bool) {
		a := DataAtom(buf)
		for {
			if !yield(a) {
				return
			}
			next, ok := a.Next()
			if !ok {
				return
			}
			a = next
		}
	}
}

// WalkBackward returns an iterator over every atom in region, from the end
// sentinel through, and including, the data atom.
func WalkBackward(buf []byte) func(yield func(Atom) bool) {
	return func(yield func(Atom) bool) {
		a := EndAtom(buf)
		for {
			if !yield(a) {
				return
			}
			prev, ok := a.Prev()
			if !ok {
				return
			}
			a = prev
		}
	}
}

// Format initializes a region of length L as a valid layout, with
// `reserved` payload bytes set aside in the data atom. If reserved is 0,
// the layout is [data(H), free(L-2H), end(H)]; if aligned(reserved)
// exactly consumes the remaining space, the free atom is omitted.
//
// buf must already be L bytes long and 16-byte aligned at its base; its
// contents are overwritten.
func Format(buf []byte, reserved uint32) error {
	l := uint32(len(buf))
	if l < 2*HeaderSize {
		return fmt.Errorf("%w: region length %d is smaller than minimum %d", ErrInvalidArgument, l, 2*HeaderSize)
	}
	if l%16 != 0 {
		return fmt.Errorf("%w: region length %d is not 16-byte aligned", ErrInvalidArgument, l)
	}

	dataContents := aligned(reserved)
	if dataContents > l-2*HeaderSize {
		return fmt.Errorf("%w: reserved size %d leaves no room for the end sentinel", ErrInvalidArgument, reserved)
	}

	for i := range buf {
		buf[i] = 0
	}

	dataLen := HeaderSize + dataContents
	freeLen := l - dataLen - HeaderSize

	data := Atom{region: buf, offset: 0}
	data.setLength(dataLen)
	data.setKind(KindData)
	data.setPrevious(0)

	if freeLen == 0 {
		end := Atom{region: buf, offset: dataLen}
		end.setLength(HeaderSize)
		end.setKind(KindEnd)
		end.setPrevious(dataLen)
		return nil
	}

	free := Atom{region: buf, offset: dataLen}
	free.setLength(freeLen)
	free.setKind(KindFree)
	free.setPrevious(dataLen)

	end := Atom{region: buf, offset: dataLen + freeLen}
	end.setLength(HeaderSize)
	end.setKind(KindEnd)
	end.setPrevious(freeLen)

	return nil
}

// Validate walks buf's entire atom chain and reports the first layout
// invariant it finds violated, or nil if the chain is well-formed: the
// first atom must be data with a zero previous field, every atom's length
// must be a positive multiple of 16 and fit within the region, no two
// free atoms may be adjacent, every atom's previous field must match its
// predecessor's length, the chain must terminate on an end atom of
// exactly HeaderSize, and every atom's length must sum to len(buf).
func Validate(buf []byte) error {
	l := uint32(len(buf))
	if l < 2*HeaderSize || l%16 != 0 {
		return fmt.Errorf("%w: region length %d is invalid", ErrInvalidLayout, l)
	}

	a := DataAtom(buf)
	if a.Kind() != KindData {
		return fmt.Errorf("%w: first atom is not data (got %s)", ErrInvalidLayout, a.Kind())
	}
	if a.Previous() != 0 {
		return fmt.Errorf("%w: data atom has nonzero previous %d", ErrInvalidLayout, a.Previous())
	}

	var total uint32
	var prevWasFree bool

	for {
		length := a.Length()
		if length == 0 || length%16 != 0 {
			return fmt.Errorf("%w: atom at offset %d has invalid length %d", ErrInvalidLayout, a.offset, length)
		}
		if uint64(a.offset)+uint64(length) > uint64(l) {
			return fmt.Errorf("%w: atom at offset %d of length %d runs past region end", ErrInvalidLayout, a.offset, length)
		}

		kind := a.Kind()
		if kind == KindFree && prevWasFree {
			return fmt.Errorf("%w: adjacent free atoms at/before offset %d", ErrInvalidLayout, a.offset)
		}
		prevWasFree = kind == KindFree

		total += length

		next, ok := a.Next()
		if !ok {
			if kind != KindEnd {
				return fmt.Errorf("%w: chain terminated on non-end atom at offset %d", ErrInvalidLayout, a.offset)
			}
			if length != HeaderSize {
				return fmt.Errorf("%w: end atom has length %d, want %d", ErrInvalidLayout, length, HeaderSize)
			}
			break
		}

		if next.Previous() != length {
			return fmt.Errorf("%w: atom at offset %d has previous %d, want %d", ErrInvalidLayout, next.offset, next.Previous(), length)
		}

		a = next
	}

	if total != l {
		return fmt.Errorf("%w: atom lengths sum to %d, want region length %d", ErrInvalidLayout, total, l)
	}

	return nil
}
