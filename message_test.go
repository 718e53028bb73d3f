package capnp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageDefaultArena(t *testing.T) {
	msg, first, err := NewMessage(nil)
	require.NoError(t, err)
	assert.NotNil(t, first)
	assert.Equal(t, SegmentID(0), first.ID())
	assert.Equal(t, int64(1), msg.NumSegments())
}

func TestMessageSetRootAndRoot(t *testing.T) {
	msg, _, err := NewMessage(nil)
	require.NoError(t, err)

	st, err := msg.NewRootStruct(ObjectSize{DataSize: 8})
	require.NoError(t, err)
	require.NoError(t, st.SetUint64(0, 123, 0))

	root, err := msg.RootStruct()
	require.NoError(t, err)
	assert.Equal(t, uint64(123), root.Uint64(0, 0))
}

func TestMessageRootOfFreshMessageIsNull(t *testing.T) {
	msg, _, err := NewMessage(nil)
	require.NoError(t, err)

	root, err := msg.Root()
	require.NoError(t, err)
	assert.False(t, root.IsValid())
}

func TestMessageReadLimit(t *testing.T) {
	msg, _, err := NewMessage(nil)
	require.NoError(t, err)
	msg.TraverseLimit = 16

	assert.True(t, msg.canRead(8))
	assert.True(t, msg.canRead(8))
	assert.False(t, msg.canRead(1))

	msg.ResetReadLimit(8)
	assert.Equal(t, uint64(8), msg.ReadLimit())
}

func TestMessageDepthLimitDefault(t *testing.T) {
	msg := &Message{}
	assert.Equal(t, uint(maxDepth), msg.depthLimit())

	msg.DepthLimit = 3
	assert.Equal(t, uint(3), msg.depthLimit())
}

type fakeClient struct{ id int }

func (c *fakeClient) IsSame(other Client) bool {
	o, ok := other.(*fakeClient)
	return ok && o.id == c.id
}

func TestMessageAddCapInterns(t *testing.T) {
	msg, _, err := NewMessage(nil)
	require.NoError(t, err)

	a := &fakeClient{id: 1}
	b := &fakeClient{id: 1}
	c := &fakeClient{id: 2}

	id1 := msg.AddCap(a)
	id2 := msg.AddCap(b)
	id3 := msg.AddCap(c)

	assert.Equal(t, id1, id2)
	assert.NotEqual(t, id1, id3)
	assert.Len(t, msg.CapTable(), 2)
	assert.Same(t, a, msg.Client(id1))
}

func TestMessageClientOutOfRange(t *testing.T) {
	msg, _, err := NewMessage(nil)
	require.NoError(t, err)
	assert.Nil(t, msg.Client(0))
	assert.Nil(t, msg.Client(99))
}

func TestMessageAllocatePrefersLastSegment(t *testing.T) {
	msg, _, err := NewMessage(NewMultiSegmentArena())
	require.NoError(t, err)

	seg1, _, err := msg.Allocate(8)
	require.NoError(t, err)
	seg2, _, err := msg.Allocate(8)
	require.NoError(t, err)

	assert.Equal(t, seg1.ID(), seg2.ID())
}
