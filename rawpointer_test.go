package capnp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawStructPointerRoundTrip(t *testing.T) {
	sz := ObjectSize{DataSize: 16, PointerCount: 2}
	p := rawStructPointer(5, sz)
	assert.Equal(t, structPointer, p.pointerType())
	assert.Equal(t, pointerOffset(5), p.offset())
	assert.Equal(t, sz, p.structSize())
}

func TestRawListPointerRoundTrip(t *testing.T) {
	p := rawListPointer(3, byte4List, 10)
	assert.Equal(t, listPointer, p.pointerType())
	assert.Equal(t, pointerOffset(3), p.offset())
	assert.Equal(t, byte4List, p.listType())
	assert.Equal(t, int32(10), p.numListElements())
}

func TestRawFarPointerRoundTrip(t *testing.T) {
	p := rawFarPointer(SegmentID(7), address(64))
	assert.Equal(t, farPointer, p.pointerType())
	assert.Equal(t, SegmentID(7), p.farSegment())
	assert.Equal(t, address(64), p.farAddress())
}

func TestRawDoubleFarPointerRoundTrip(t *testing.T) {
	p := rawDoubleFarPointer(SegmentID(2), address(128))
	assert.Equal(t, doubleFarPointer, p.pointerType())
	assert.Equal(t, SegmentID(2), p.farSegment())
	assert.Equal(t, address(128), p.farAddress())
}

func TestRawInterfacePointer(t *testing.T) {
	p := rawInterfacePointer(CapabilityID(42))
	assert.Equal(t, otherPointer, p.pointerType())
	assert.Equal(t, CapabilityID(42), p.capabilityIndex())
	assert.Equal(t, uint32(0), p.otherPointerType())
}

func TestWithOffset(t *testing.T) {
	sz := ObjectSize{DataSize: 8}
	p := rawStructPointer(0, sz).withOffset(9)
	assert.Equal(t, pointerOffset(9), p.offset())
}

func TestBitListSize(t *testing.T) {
	assert.Equal(t, Size(0), bitListSize(0))
	assert.Equal(t, Size(1), bitListSize(1))
	assert.Equal(t, Size(1), bitListSize(8))
	assert.Equal(t, Size(2), bitListSize(9))
}
