package region

import "fmt"

// Reserve allocates a new atom with payload capacity of at least n bytes,
// tagged with kind (normally KindAllocation, which is also what the vector
// package uses for its backing storage; ReserveResize and Free accept only
// KindAllocation atoms). It scans forward from the
// data atom and takes the first free atom large enough to hold the
// request (first-fit), splitting it if there is room left over.
//
// n may be 0; since aligned(0) == 0, the result is a legal header-only
// atom of HeaderSize bytes with no payload.
func Reserve(buf []byte, n uint32, kind Kind) (Atom, error) {
	needed := HeaderSize + aligned(n)

	for a := range Walk(buf) {
		if a.Kind() != KindFree || a.Length() < needed {
			continue
		}
		return splitAndTake(buf, a, needed, kind), nil
	}

	return Atom{}, fmt.Errorf("%w: no free atom of at least %d bytes", ErrOutOfSpace, needed)
}

// splitAndTake carves `needed` bytes off the front of free atom a and
// returns it as a new atom of the given kind. If the residue would be
// smaller than HeaderSize, the whole free atom is consumed instead; since
// every atom length is a multiple of 16 and needed is aligned too, this
// only ever happens with a residue of exactly 0.
func splitAndTake(buf []byte, a Atom, needed uint32, kind Kind) Atom {
	residue := a.Length() - needed
	if residue < HeaderSize {
		a.setKind(kind)
		return a
	}

	taken := Atom{region: buf, offset: a.offset}
	taken.setLength(needed)
	taken.setKind(kind)
	taken.setPrevious(a.Previous())

	free := Atom{region: buf, offset: a.offset + needed}
	free.setLength(residue)
	free.setKind(KindFree)
	free.setPrevious(needed)

	if next, ok := free.Next(); ok {
		next.setPrevious(residue)
	}

	return taken
}

// ReserveResize resizes or relocates existing to have payload capacity of
// at least n bytes, returning a handle that may or may not equal existing.
// There are four cases: no change, shrink in place, grow in place into a
// following free atom, or relocate to a fresh allocation elsewhere.
func ReserveResize(buf []byte, existing Atom, n uint32) (Atom, error) {
	if existing.Kind() != KindAllocation {
		return Atom{}, fmt.Errorf("%w: resize target at offset %d is not an allocation (kind %s)", ErrInvalidArgument, existing.offset, existing.Kind())
	}

	k := aligned(n)
	c := existing.ContentsSize()

	switch {
	case k == c:
		return existing, nil

	case k < c:
		shrinkInPlace(buf, existing, k)
		return existing, nil

	default:
		if grown, ok := tryGrowInPlace(buf, existing, k); ok {
			return grown, nil
		}
		return relocate(buf, existing, n)
	}
}

// shrinkInPlace reduces existing's length to H+k, inserting a new free
// atom for the remainder, coalescing it with a following free atom if
// present.
func shrinkInPlace(buf []byte, existing Atom, k uint32) {
	oldLen := existing.Length()
	newLen := HeaderSize + k
	residue := oldLen - newLen

	existing.setLength(newLen)

	free := Atom{region: buf, offset: existing.offset + newLen}
	free.setLength(residue)
	free.setKind(KindFree)
	free.setPrevious(newLen)

	next, ok := free.Next()
	if ok && next.Kind() == KindFree {
		mergedLen := residue + next.Length()
		free.setLength(mergedLen)
		if after, ok := free.Next(); ok {
			after.setPrevious(mergedLen)
		}
		return
	}

	if ok {
		next.setPrevious(residue)
	}
}

// tryGrowInPlace extends existing into an immediately following free
// atom, if one exists and is large enough.
func tryGrowInPlace(buf []byte, existing Atom, k uint32) (Atom, bool) {
	following, ok := existing.Next()
	if !ok || following.Kind() != KindFree {
		return Atom{}, false
	}

	oldLen := existing.Length()
	newLen := HeaderSize + k
	if newLen > oldLen+following.Length() {
		return Atom{}, false
	}

	consumed := newLen - oldLen
	residue := following.Length() - consumed

	existing.setLength(newLen)

	if residue == 0 {
		if after, ok := following.Next(); ok {
			after.setPrevious(newLen)
		}
		return existing, true
	}

	remaining := Atom{region: buf, offset: existing.offset + newLen}
	remaining.setLength(residue)
	remaining.setKind(KindFree)
	remaining.setPrevious(newLen)

	if after, ok := remaining.Next(); ok {
		after.setPrevious(residue)
	}

	return existing, true
}

// relocate reserves a fresh allocation, copies the old payload into it,
// and frees the old atom. The original is left unchanged if the
// reservation fails.
func relocate(buf []byte, existing Atom, n uint32) (Atom, error) {
	fresh, err := Reserve(buf, n, existing.Kind())
	if err != nil {
		return Atom{}, err
	}

	copyLen := min(existing.ContentsSize(), fresh.ContentsSize())
	copy(fresh.Payload()[:copyLen], existing.Payload()[:copyLen])

	if _, err := Free(buf, existing); err != nil {
		return Atom{}, err
	}

	return fresh, nil
}

// Free converts allocation into a free atom, coalescing it with an
// adjacent free neighbor on either side, and returns the resulting free
// atom.
func Free(buf []byte, allocation Atom) (Atom, error) {
	if allocation.Kind() != KindAllocation {
		return Atom{}, fmt.Errorf("%w: free target at offset %d is not an allocation (kind %s)", ErrInvalidArgument, allocation.offset, allocation.Kind())
	}

	allocation.setKind(KindFree)
	freed := allocation

	if next, ok := freed.Next(); ok && next.Kind() == KindFree {
		mergedLen := freed.Length() + next.Length()
		freed.setLength(mergedLen)
		if after, ok := freed.Next(); ok {
			after.setPrevious(mergedLen)
		}
	}

	if prev, ok := freed.Prev(); ok && prev.Kind() == KindFree {
		mergedLen := prev.Length() + freed.Length()
		prev.setLength(mergedLen)
		if after, ok := prev.Next(); ok {
			after.setPrevious(mergedLen)
		}
		freed = prev
	}

	return freed, nil
}
