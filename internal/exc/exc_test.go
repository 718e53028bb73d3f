package exc

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnnotatorNewAndFailedf(t *testing.T) {
	a := Annotator("capnp")
	err := a.New("bad %s", "wire")
	assert.EqualError(t, err, "capnp: bad wire")
	assert.Equal(t, Failed, TypeOf(err))
	assert.EqualError(t, a.Failedf("bad %s", "wire"), "capnp: bad wire")
}

func TestAnnotatorAnnotatefPreservesCause(t *testing.T) {
	a := Annotator("capnp")
	cause := New(Disconnected, "", "lost connection")
	wrapped := a.Annotatef(cause, "read pointer")

	assert.Equal(t, Disconnected, TypeOf(wrapped))
	assert.True(t, IsType(wrapped, Disconnected))
	assert.ErrorIs(t, wrapped, cause)
}

func TestAnnotatefNilIsNil(t *testing.T) {
	a := Annotator("capnp")
	assert.NoError(t, a.Annotatef(nil, "unused"))
}

func TestTypeOfNonException(t *testing.T) {
	assert.Equal(t, Failed, TypeOf(stderrors.New("plain")))
}

func TestTypeStringAndGoString(t *testing.T) {
	assert.Equal(t, "unimplemented", Unimplemented.String())
	assert.Equal(t, "Unimplemented", Unimplemented.GoString())
	assert.Equal(t, "type(99)", Type(99).String())
}
