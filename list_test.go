package capnp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUInt32ListRoundTrip(t *testing.T) {
	msg, _, err := NewMessage(nil)
	require.NoError(t, err)

	l, err := NewUInt32List(msg, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, l.Len())

	for i := 0; i < 4; i++ {
		require.NoError(t, l.Set(i, uint32(i*10)))
	}
	for i := 0; i < 4; i++ {
		assert.Equal(t, uint32(i*10), l.At(i))
	}
	assert.Equal(t, uint32(0), l.At(-1))
	assert.Equal(t, uint32(0), l.At(4))
}

func TestBitListRoundTrip(t *testing.T) {
	msg, _, err := NewMessage(nil)
	require.NoError(t, err)

	bl, err := NewBitList(msg, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, bl.Len())

	require.NoError(t, bl.Set(0, true))
	require.NoError(t, bl.Set(9, true))
	require.NoError(t, bl.Set(5, false))

	assert.True(t, bl.At(0))
	assert.True(t, bl.At(9))
	assert.False(t, bl.At(5))
	assert.False(t, bl.At(1))

	err = bl.Set(10, true)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestPointerListRoundTrip(t *testing.T) {
	msg, _, err := NewMessage(nil)
	require.NoError(t, err)

	pl, err := NewPointerList(msg, 2)
	require.NoError(t, err)

	text, err := NewText(msg, "hello")
	require.NoError(t, err)
	require.NoError(t, pl.Set(0, text))

	got, err := pl.At(0)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Text())

	got, err = pl.At(1)
	require.NoError(t, err)
	assert.False(t, got.IsValid())
}

func TestCompositeListRoundTrip(t *testing.T) {
	msg, _, err := NewMessage(nil)
	require.NoError(t, err)

	cl, err := NewCompositeList(msg, ObjectSize{DataSize: 8, PointerCount: 1}, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, cl.Len())

	for i := 0; i < 3; i++ {
		elem := cl.At(i)
		require.NoError(t, elem.SetUint64(0, uint64(i+1), 0))
	}
	for i := 0; i < 3; i++ {
		assert.Equal(t, uint64(i+1), cl.At(i).Uint64(0, 0))
	}
}

func TestCompositeListElementPointerWrite(t *testing.T) {
	msg, _, err := NewMessage(nil)
	require.NoError(t, err)

	cl, err := NewCompositeList(msg, ObjectSize{DataSize: 0, PointerCount: 1}, 2)
	require.NoError(t, err)

	text, err := NewText(msg, "x")
	require.NoError(t, err)

	elem := cl.At(0)
	require.NoError(t, elem.SetPtr(0, text))

	got, err := elem.Ptr(0)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Text())
}

func TestListStructOnPrimitiveListIsUpgraded(t *testing.T) {
	msg, _, err := NewMessage(nil)
	require.NoError(t, err)

	l, err := NewUInt8List(msg, 2)
	require.NoError(t, err)
	raw := List(l)

	elem := raw.Struct(0)
	assert.True(t, elem.IsValid())
	assert.Equal(t, uint16(0), elem.Size().PointerCount)
}
