package capnp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructPrimitiveRoundTrip(t *testing.T) {
	msg, _, err := NewMessage(nil)
	require.NoError(t, err)

	st, err := NewStruct(msg, ObjectSize{DataSize: 24})
	require.NoError(t, err)

	require.NoError(t, st.SetUint8(0, 0x7F, 0))
	require.NoError(t, st.SetUint16(2, 0x1234, 0))
	require.NoError(t, st.SetUint32(4, 0xCAFEBABE, 0))
	require.NoError(t, st.SetUint64(8, 0x0102030405060708, 0))
	require.NoError(t, st.SetFloat32(16, 1.5, 0))
	require.NoError(t, st.SetFloat64(20, 0, 0)) // only 4 bytes remain; default write is a no-op

	assert.Equal(t, uint8(0x7F), st.Uint8(0, 0))
	assert.Equal(t, uint16(0x1234), st.Uint16(2, 0))
	assert.Equal(t, uint32(0xCAFEBABE), st.Uint32(4, 0))
	assert.Equal(t, uint64(0x0102030405060708), st.Uint64(8, 0))
	assert.Equal(t, float32(1.5), st.Float32(16, 0))
}

func TestStructXORDefaultEncoding(t *testing.T) {
	msg, _, err := NewMessage(nil)
	require.NoError(t, err)

	st, err := NewStruct(msg, ObjectSize{DataSize: 8})
	require.NoError(t, err)

	// Writing the default value leaves the underlying word at zero.
	require.NoError(t, st.SetUint32(0, 42, 42))
	assert.Equal(t, uint8(0), st.dataSlice()[0])
	assert.Equal(t, uint32(42), st.Uint32(0, 42))

	require.NoError(t, st.SetUint32(0, 7, 42))
	assert.NotEqual(t, uint8(0), st.dataSlice()[0])
	assert.Equal(t, uint32(7), st.Uint32(0, 42))
}

func TestStructShortStructDefaultRule(t *testing.T) {
	// Zero-valued fields: a handle with no data section reads every
	// field as its default and silently ignores a write of the default.
	var zero Struct
	assert.Equal(t, uint32(99), zero.Uint32(0, 99))

	msg, _, err := NewMessage(nil)
	require.NoError(t, err)
	st, err := NewStruct(msg, ObjectSize{DataSize: 0})
	require.NoError(t, err)

	assert.NoError(t, st.SetUint32(0, 5, 5))
	err = st.SetUint32(0, 5, 0)
	assert.ErrorIs(t, err, ErrShortStruct)
}

func TestStructBoolField(t *testing.T) {
	msg, _, err := NewMessage(nil)
	require.NoError(t, err)
	st, err := NewStruct(msg, ObjectSize{DataSize: 8})
	require.NoError(t, err)

	require.NoError(t, st.SetBool(0, true, false))
	assert.True(t, st.Bool(0, false))
	require.NoError(t, st.SetBool(9, true, false))
	assert.True(t, st.Bool(9, false))
	assert.False(t, st.Bool(8, false))
}

func TestStructSetPtrCrossMessageRejected(t *testing.T) {
	msgA, _, err := NewMessage(nil)
	require.NoError(t, err)
	msgB, _, err := NewMessage(nil)
	require.NoError(t, err)

	root, err := msgA.NewRootStruct(ObjectSize{PointerCount: 1})
	require.NoError(t, err)

	other, err := NewStruct(msgB, ObjectSize{DataSize: 8})
	require.NoError(t, err)

	err = root.SetPtr(0, other.ToPtr())
	assert.ErrorIs(t, err, ErrCrossMessagePointer)
}

func TestStructSetPtrOutOfRange(t *testing.T) {
	msg, _, err := NewMessage(nil)
	require.NoError(t, err)
	st, err := NewStruct(msg, ObjectSize{})
	require.NoError(t, err)

	other, err := NewStruct(msg, ObjectSize{DataSize: 8})
	require.NoError(t, err)
	err = st.SetPtr(0, other.ToPtr())
	assert.ErrorIs(t, err, ErrPointerIndexOutOfRange)
}

func TestStructUpgradedListElementRejectsPointerWrites(t *testing.T) {
	msg, _, err := NewMessage(nil)
	require.NoError(t, err)

	l, err := NewUInt32List(msg, 2)
	require.NoError(t, err)

	elem := List(l).Struct(0)
	assert.True(t, elem.IsValid())
	assert.Equal(t, ObjectSize{DataSize: 4}, elem.Size())

	other, err := NewStruct(msg, ObjectSize{DataSize: 8})
	require.NoError(t, err)
	err = elem.SetPtr(0, other.ToPtr())
	assert.ErrorIs(t, err, ErrUpgradedListElement)
}
