package capnp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoClient struct{ name string }

func (c *echoClient) IsSame(other Client) bool {
	o, ok := other.(*echoClient)
	return ok && o.name == c.name
}

func TestSetCapabilityAndReadBack(t *testing.T) {
	msg, _, err := NewMessage(nil)
	require.NoError(t, err)

	root, err := msg.NewRootStruct(ObjectSize{PointerCount: 1})
	require.NoError(t, err)

	client := &echoClient{name: "svc"}
	require.NoError(t, root.SetCapability(0, client))

	p, err := root.Ptr(0)
	require.NoError(t, err)
	iface := p.Interface()
	require.True(t, iface.IsValid())
	assert.Same(t, client, iface.Client())
}

func TestSetCapabilityInterns(t *testing.T) {
	msg, _, err := NewMessage(nil)
	require.NoError(t, err)

	root, err := msg.NewRootStruct(ObjectSize{PointerCount: 2})
	require.NoError(t, err)

	a := &echoClient{name: "same"}
	b := &echoClient{name: "same"}
	require.NoError(t, root.SetCapability(0, a))
	require.NoError(t, root.SetCapability(1, b))

	p0, err := root.Ptr(0)
	require.NoError(t, err)
	p1, err := root.Ptr(1)
	require.NoError(t, err)

	assert.Equal(t, p0.Interface().Capability(), p1.Interface().Capability())
	assert.Len(t, msg.CapTable(), 1)
}

func TestInterfaceZeroValue(t *testing.T) {
	var i Interface
	assert.False(t, i.IsValid())
	assert.Nil(t, i.Client())
	assert.Nil(t, i.Message())
}
