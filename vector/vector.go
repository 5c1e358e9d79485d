// Package vector implements a typed, growable array whose storage is a
// single allocation inside a region (see the region package) and whose
// identity survives reallocation through an external, caller-owned
// Reference.
//
// A Vector value itself holds no payload bytes: it holds a non-owning
// handle to the region's bytes and a mutable borrow of a Reference. Two
// Vector values must never mutate the same Reference concurrently.
package vector

import (
	"fmt"
	"iter"
	"unsafe"

	"github.com/robert-malhotra/go-region/internal/region"
)

// Vector is a dynamic array of T backed by one allocation atom inside buf.
// T must be trivially copyable: every element is read and written by
// reinterpreting raw region bytes, with no conversion step.
type Vector[T any] struct {
	buf []byte
	ref *Reference
}

// New binds a Vector[T] to the given region and reference record. The
// reference may already point at a live allocation (Offset != 0) from a
// previous binding, in which case the vector resumes from that storage.
func New[T any](buf []byte, ref *Reference) *Vector[T] {
	return &Vector[T]{buf: buf, ref: ref}
}

func elemSize[T any]() uint32 {
	var zero T
	return uint32(unsafe.Sizeof(zero))
}

// allocation returns the atom backing the vector's storage, and false if
// the vector is unbound.
func (v *Vector[T]) allocation() (region.Atom, bool) {
	if !v.ref.Bound() {
		return region.Atom{}, false
	}
	return region.AtomAt(v.buf, v.ref.Offset-region.HeaderSize), true
}

// Capacity returns the number of elements the current allocation can hold.
func (v *Vector[T]) Capacity() uint32 {
	a, ok := v.allocation()
	if !ok {
		return 0
	}
	return a.ContentsSize() / elemSize[T]()
}

// Size returns the number of live elements.
func (v *Vector[T]) Size() uint32 { return v.ref.Count }

// Empty reports whether the vector has no live elements.
func (v *Vector[T]) Empty() bool { return v.ref.Count == 0 }

// Available returns the number of additional elements that can be
// appended without growing the backing allocation.
func (v *Vector[T]) Available() uint32 { return v.Capacity() - v.Size() }

// elements returns a slice of n elements aliasing the current allocation's
// payload. n must not exceed Capacity().
func (v *Vector[T]) elements(n uint32) []T {
	if n == 0 {
		return nil
	}
	a, ok := v.allocation()
	if !ok {
		return nil
	}
	payload := a.Payload()
	return unsafe.Slice((*T)(unsafe.Pointer(&payload[0])), int(n))
}

// live returns the slice of currently-populated elements.
func (v *Vector[T]) live() []T {
	return v.elements(v.Size())
}

// ensureCapacity grows the backing allocation, if necessary, so that it
// can hold at least elems elements. Capacity never decreases.
func (v *Vector[T]) ensureCapacity(elems uint32) error {
	if elems <= v.Capacity() {
		return nil
	}
	n := elems * elemSize[T]()

	if a, ok := v.allocation(); ok {
		resized, err := region.ReserveResize(v.buf, a, n)
		if err != nil {
			return err
		}
		v.ref.Offset = resized.Offset() + region.HeaderSize
		return nil
	}

	newAtom, err := region.Reserve(v.buf, n, region.KindAllocation)
	if err != nil {
		return err
	}
	v.ref.Offset = newAtom.Offset() + region.HeaderSize
	return nil
}

// Reserve ensures the vector's capacity is at least newCap elements. It
// is a no-op if the vector's capacity is already sufficient.
func (v *Vector[T]) Reserve(newCap uint32) error {
	return v.ensureCapacity(newCap)
}

// growth implements the amortized push-back growth curve:
// growth(c) = c + max(c/2, 4).
func growth(c uint32) uint32 {
	half := c / 2
	if half < 4 {
		half = 4
	}
	return c + half
}

// PushBack appends val, growing the backing allocation if necessary.
func (v *Vector[T]) PushBack(val T) error {
	if v.Available() == 0 {
		c := v.Capacity()
		target := growth(c)
		if target < c+1 {
			target = c + 1
		}
		if err := v.ensureCapacity(target); err != nil {
			return err
		}
	}
	full := v.elements(v.Capacity())
	full[v.ref.Count] = val
	v.ref.Count++
	return nil
}

// PopBack removes the last element. It is a no-op on an empty vector.
func (v *Vector[T]) PopBack() {
	if v.ref.Count == 0 {
		return
	}
	v.ref.Count--
}

// At returns the element at index i. It panics if i is out of range.
func (v *Vector[T]) At(i uint32) T {
	if i >= v.ref.Count {
		panic(fmt.Sprintf("vector: index %d out of range (size %d)", i, v.ref.Count))
	}
	return v.elements(v.Capacity())[i]
}

// Set overwrites the element at index i.
func (v *Vector[T]) Set(i uint32, val T) {
	if i >= v.ref.Count {
		panic(fmt.Sprintf("vector: index %d out of range (size %d)", i, v.ref.Count))
	}
	v.elements(v.Capacity())[i] = val
}

// Front returns the first element. It panics on an empty vector.
func (v *Vector[T]) Front() T { return v.At(0) }

// Back returns the last element. It panics on an empty vector.
func (v *Vector[T]) Back() T { return v.At(v.ref.Count - 1) }

// Slice returns the live elements as a slice aliasing the vector's
// backing allocation. The slice is invalidated by any mutating operation.
func (v *Vector[T]) Slice() []T { return v.live() }

// All returns an iterator over the vector's live elements, in order.
func (v *Vector[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		live := v.live()
		for i, val := range live {
			if !yield(i, val) {
				return
			}
		}
	}
}

// Assign replaces the vector's contents with seq. Capacity never
// decreases; assigning an empty sequence leaves capacity intact.
func (v *Vector[T]) Assign(seq []T) error {
	if err := v.ensureCapacity(uint32(len(seq))); err != nil {
		return err
	}
	if len(seq) > 0 {
		copy(v.elements(uint32(len(seq))), seq)
	}
	v.ref.Count = uint32(len(seq))
	return nil
}

// Insert inserts a single copy of val before index pos, returning the
// index it was inserted at.
func (v *Vector[T]) Insert(pos uint32, val T) (uint32, error) {
	return v.InsertSeq(pos, []T{val})
}

// InsertN inserts count copies of val before index pos, returning the
// index of the first inserted copy, or pos unchanged when count is 0.
func (v *Vector[T]) InsertN(pos uint32, count uint32, val T) (uint32, error) {
	if count == 0 {
		return pos, nil
	}
	seq := make([]T, count)
	for i := range seq {
		seq[i] = val
	}
	return v.InsertSeq(pos, seq)
}

// InsertSeq inserts the elements of seq before index pos, returning the
// index of the first inserted element, or pos when seq is empty.
func (v *Vector[T]) InsertSeq(pos uint32, seq []T) (uint32, error) {
	if len(seq) == 0 {
		return pos, nil
	}
	if pos > v.ref.Count {
		pos = v.ref.Count
	}

	oldSize := v.ref.Count
	newSize := oldSize + uint32(len(seq))

	if err := v.ensureCapacity(newSize); err != nil {
		return 0, err
	}

	full := v.elements(v.Capacity())
	copy(full[pos+uint32(len(seq)):newSize], full[pos:oldSize])
	copy(full[pos:], seq)

	v.ref.Count = newSize
	return pos, nil
}

// Erase removes the element at index pos, returning the index of the
// element that now occupies pos (or Size(), i.e. end(), if pos was at or
// past the end). Erasing at or past the end is a no-op.
func (v *Vector[T]) Erase(pos uint32) uint32 {
	return v.EraseRange(pos, pos+1)
}

// EraseRange removes the elements in [first, last), returning first. An
// empty range is a no-op returning first; a first at or past the end is a
// no-op returning Size(), i.e. end().
func (v *Vector[T]) EraseRange(first, last uint32) uint32 {
	size := v.ref.Count
	if first >= size {
		return size
	}
	if first >= last {
		return first
	}
	if last > size {
		last = size
	}

	full := v.elements(v.Capacity())
	n := last - first
	copy(full[first:size-n], full[last:size])
	v.ref.Count = size - n
	return first
}
