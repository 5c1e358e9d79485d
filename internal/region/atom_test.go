package region

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// staticLayout is the exact byte layout exercised by
// original_source/TestFormat/TestAtom.cpp's "static_data" case: a
// hand-built data/free/allocation/end chain, not produced by Format.
func staticLayout() []byte {
	return []byte{
		// data: length=16, "atad", previous=0, user=0
		16, 0, 0, 0, 'a', 't', 'a', 'd', 0, 0, 0, 0, 0, 0, 0, 0,
		// free: length=32, "eerf", previous=16, user=0
		32, 0, 0, 0, 'e', 'e', 'r', 'f', 16, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		// allocation: length=48, "cola", previous=32, user=0
		48, 0, 0, 0, 'c', 'o', 'l', 'a', 32, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		// end: length=16, "end ", previous=48, user=0
		16, 0, 0, 0, ' ', 'd', 'n', 'e', 48, 0, 0, 0, 0, 0, 0, 0,
	}
}

func TestAtomStaticData(t *testing.T) {
	buf := staticLayout()
	require.NoError(t, Validate(buf))

	data := DataAtom(buf)
	require.Equal(t, KindData, data.Kind())
	require.EqualValues(t, 16, data.Length())
	require.True(t, data.Empty())

	free, ok := data.Next()
	require.True(t, ok)
	require.Equal(t, KindFree, free.Kind())
	require.EqualValues(t, 32, free.Length())
	require.Equal(t, data.Length(), free.Previous())
	require.False(t, free.Empty())

	alloc, ok := free.Next()
	require.True(t, ok)
	require.Equal(t, KindAllocation, alloc.Kind())
	require.EqualValues(t, 48, alloc.Length())
	require.EqualValues(t, 32, alloc.Previous())
	require.Equal(t, free.Length(), alloc.Previous())
	require.False(t, alloc.Empty())

	end := EndAtom(buf)
	next, ok := alloc.Next()
	require.True(t, ok)
	require.Equal(t, end.Offset(), next.Offset())
	require.Equal(t, KindEnd, end.Kind())
	require.EqualValues(t, HeaderSize, end.Length())
	require.Equal(t, alloc.Length(), end.Previous())
	require.True(t, end.Empty())

	prevOfFree, ok := free.Prev()
	require.True(t, ok)
	require.Equal(t, data.Offset(), prevOfFree.Offset())

	prevOfAlloc, ok := alloc.Prev()
	require.True(t, ok)
	require.Equal(t, free.Offset(), prevOfAlloc.Offset())

	prevOfEnd, ok := end.Prev()
	require.True(t, ok)
	require.Equal(t, alloc.Offset(), prevOfEnd.Offset())
}

func TestFormatDefaultLayout(t *testing.T) {
	buf := make([]byte, 1024)
	require.NoError(t, Format(buf, 0))
	require.NoError(t, Validate(buf))

	data := DataAtom(buf)
	require.Equal(t, KindData, data.Kind())
	require.EqualValues(t, HeaderSize, data.Length())
	require.True(t, data.Empty())

	free, ok := data.Next()
	require.True(t, ok)
	require.Equal(t, KindFree, free.Kind())
	require.EqualValues(t, len(buf)-2*HeaderSize, free.Length())
	require.Equal(t, data.Length(), free.Previous())
	require.False(t, free.Empty())

	end := EndAtom(buf)
	next, ok := free.Next()
	require.True(t, ok)
	require.Equal(t, end.Offset(), next.Offset())
	require.Equal(t, KindEnd, end.Kind())
	require.EqualValues(t, HeaderSize, end.Length())
	require.Equal(t, free.Length(), end.Previous())
	require.True(t, end.Empty())
}

func TestFormatNonEmptyDataLayout(t *testing.T) {
	buf := make([]byte, 1024)
	require.NoError(t, Format(buf, 27))
	require.NoError(t, Validate(buf))

	data := DataAtom(buf)
	require.Equal(t, KindData, data.Kind())
	require.EqualValues(t, 48, data.Length())
	require.False(t, data.Empty())

	free, ok := data.Next()
	require.True(t, ok)
	require.Equal(t, KindFree, free.Kind())
	require.EqualValues(t, len(buf)-2*HeaderSize-32, free.Length())
	require.Equal(t, data.Length(), free.Previous())

	end := EndAtom(buf)
	require.EqualValues(t, HeaderSize, end.Length())
	require.Equal(t, free.Length(), end.Previous())
}

func TestFormatMinimumLayout(t *testing.T) {
	buf := make([]byte, 2*HeaderSize)
	require.NoError(t, Format(buf, 0))
	require.NoError(t, Validate(buf))

	data := DataAtom(buf)
	require.EqualValues(t, HeaderSize, data.Length())
	require.True(t, data.Empty())

	end := EndAtom(buf)
	next, ok := data.Next()
	require.True(t, ok)
	require.Equal(t, end.Offset(), next.Offset())
	require.Equal(t, KindEnd, end.Kind())
	require.Equal(t, data.Length(), end.Previous())

	prev, ok := end.Prev()
	require.True(t, ok)
	require.Equal(t, data.Offset(), prev.Offset())
}

func TestFormatReservedExactlyFillsRegion(t *testing.T) {
	buf := make([]byte, 64)
	// reserved=32 leaves exactly 0 bytes for a free atom: [data(48), end(16)]
	require.NoError(t, Format(buf, 32))
	require.NoError(t, Validate(buf))

	data := DataAtom(buf)
	require.EqualValues(t, 48, data.Length())

	end, ok := data.Next()
	require.True(t, ok)
	require.Equal(t, KindEnd, end.Kind())
	require.EqualValues(t, 48, end.Offset())
}

func TestFormatRejectsUndersizedRegion(t *testing.T) {
	buf := make([]byte, 16)
	err := Format(buf, 0)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestFormatRejectsOversizedReserved(t *testing.T) {
	buf := make([]byte, 64)
	err := Format(buf, 1000)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestValidateCatchesAdjacentFreeAtoms(t *testing.T) {
	buf := make([]byte, 64)
	require.NoError(t, Format(buf, 0))

	// Corrupt: split the single free atom into two adjacent free atoms.
	free := DataAtom(buf)
	free, _ = free.Next()
	half := free.Length() / 2
	free.setLength(half)
	second := AtomAt(buf, free.Offset()+half)
	second.setLength(half)
	second.setKind(KindFree)
	second.setPrevious(half)
	if end, ok := second.Next(); ok {
		end.setPrevious(half)
	}

	err := Validate(buf)
	require.ErrorIs(t, err, ErrInvalidLayout)
}

func TestValidateCatchesBadPrevious(t *testing.T) {
	buf := make([]byte, 64)
	require.NoError(t, Format(buf, 0))

	end := EndAtom(buf)
	end.setPrevious(end.Previous() + 16)

	require.ErrorIs(t, Validate(buf), ErrInvalidLayout)
}

func TestValidateCatchesMissingEndSentinel(t *testing.T) {
	buf := make([]byte, 64)
	require.NoError(t, Format(buf, 0))

	// Corrupt: overwrite the end sentinel's kind so the atom lengths still
	// sum to len(buf) but the chain never terminates on KindEnd.
	free := DataAtom(buf)
	free, _ = free.Next()
	end, ok := free.Next()
	require.True(t, ok)
	end.setKind(KindAllocation)

	err := Validate(buf)
	require.ErrorIs(t, err, ErrInvalidLayout)
}

func TestNextRejectsSuccessorPastRegionEnd(t *testing.T) {
	buf := make([]byte, 64)
	require.NoError(t, Format(buf, 0))

	// Corrupt: give the free atom a length that reaches exactly len(buf),
	// leaving no room for a header at its computed successor offset.
	free := DataAtom(buf)
	free, _ = free.Next()
	free.setLength(uint32(len(buf)) - free.Offset())
	free.setKind(KindAllocation)

	_, ok := free.Next()
	require.False(t, ok, "Next must refuse to construct a header past the region end")

	require.ErrorIs(t, Validate(buf), ErrInvalidLayout)
}

func TestPrevRejectsCorruptPreviousField(t *testing.T) {
	buf := make([]byte, 64)
	require.NoError(t, Format(buf, 0))

	end := EndAtom(buf)
	end.setPrevious(end.Offset() + 16) // larger than end's own offset

	_, ok := end.Prev()
	require.False(t, ok, "Prev must refuse to underflow into a bogus offset")
}

func TestWalkVisitsEveryAtomOnce(t *testing.T) {
	buf := make([]byte, 1024)
	require.NoError(t, Format(buf, 27))

	var kinds []Kind
	for a := range Walk(buf) {
		kinds = append(kinds, a.Kind())
	}
	require.Equal(t, []Kind{KindData, KindFree, KindEnd}, kinds)

	var backward []Kind
	for a := range WalkBackward(buf) {
		backward = append(backward, a.Kind())
	}
	require.Equal(t, []Kind{KindEnd, KindFree, KindData}, backward)
}
