package capnp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentTryAllocate(t *testing.T) {
	msg, seg, err := NewMessage(NewSingleSegmentArena(nil))
	require.NoError(t, err)
	_ = msg

	// Word 0 of segment zero is already reserved for the root pointer.
	addr, ok := seg.tryAllocate(16)
	assert.True(t, ok)
	assert.Equal(t, address(8), addr)
	assert.Equal(t, 24, len(seg.data))

	addr2, ok := seg.tryAllocate(8)
	assert.True(t, ok)
	assert.Equal(t, address(24), addr2)
}

func TestSegmentTryAllocateNoCapacity(t *testing.T) {
	seg := &Segment{data: make([]byte, 0, 8)}
	_, ok := seg.tryAllocate(16)
	assert.False(t, ok)
}

func TestSegmentTryReclaim(t *testing.T) {
	seg := &Segment{data: make([]byte, 0, 32)}
	addr, ok := seg.tryAllocate(24)
	require.True(t, ok)
	_ = addr

	end := address(len(seg.data))
	ok = seg.tryReclaim(end, 8)
	assert.True(t, ok)
	assert.Equal(t, 16, len(seg.data))

	// end no longer matches the new high-water mark.
	ok = seg.tryReclaim(end, 8)
	assert.False(t, ok)
}

func TestSegmentReadWriteUint(t *testing.T) {
	seg := &Segment{data: make([]byte, 16)}
	seg.writeUint8(0, 0xAB)
	assert.Equal(t, uint8(0xAB), seg.readUint8(0))

	seg.writeUint16(2, 0x1234)
	assert.Equal(t, uint16(0x1234), seg.readUint16(2))

	seg.writeUint32(4, 0xDEADBEEF)
	assert.Equal(t, uint32(0xDEADBEEF), seg.readUint32(4))

	seg.writeUint64(8, 0x0102030405060708)
	assert.Equal(t, uint64(0x0102030405060708), seg.readUint64(8))
}

func TestSegmentNearPointerRoundTrip(t *testing.T) {
	msg, seg, err := NewMessage(nil)
	require.NoError(t, err)

	st, err := NewStruct(msg, ObjectSize{DataSize: 8, PointerCount: 1})
	require.NoError(t, err)
	require.NoError(t, st.SetUint64(0, 42, 0))

	other, err := NewStruct(msg, ObjectSize{DataSize: 8})
	require.NoError(t, err)
	require.NoError(t, other.SetUint64(0, 7, 0))

	err = seg.writePtr(st.pointerAddr(0), other.ToPtr(), false)
	require.NoError(t, err)

	got, err := seg.readPtr(st.pointerAddr(0), maxDepth)
	require.NoError(t, err)
	gotStruct := got.Struct()
	require.True(t, gotStruct.IsValid())
	assert.Equal(t, uint64(7), gotStruct.Uint64(0, 0))
}

func TestSegmentFarPointerRoundTrip(t *testing.T) {
	msg, _, err := NewMessage(NewMultiSegmentArena())
	require.NoError(t, err)

	root, err := msg.NewRootStruct(ObjectSize{PointerCount: 1})
	require.NoError(t, err)

	// Force the target into a fresh segment by allocating a struct
	// larger than segment 0's remaining capacity.
	big, err := NewStruct(msg, ObjectSize{DataSize: 8192})
	require.NoError(t, err)
	require.NoError(t, big.SetUint64(0, 99, 0))

	require.NoError(t, root.SetPtr(0, big.ToPtr()))

	got, err := root.Ptr(0)
	require.NoError(t, err)
	gotStruct := got.Struct()
	require.True(t, gotStruct.IsValid())
	assert.Equal(t, uint64(99), gotStruct.Uint64(0, 0))
	assert.NotEqual(t, root.seg.id, gotStruct.seg.id)
}

func TestSegmentWriteNullPointerClears(t *testing.T) {
	msg, _, err := NewMessage(nil)
	require.NoError(t, err)

	root, err := msg.NewRootStruct(ObjectSize{PointerCount: 1})
	require.NoError(t, err)

	child, err := NewStruct(msg, ObjectSize{DataSize: 8})
	require.NoError(t, err)
	require.NoError(t, root.SetPtr(0, child.ToPtr()))
	assert.True(t, root.HasPtr(0))

	require.NoError(t, root.SetPtr(0, Ptr{}))
	assert.False(t, root.HasPtr(0))
}
