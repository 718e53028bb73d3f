package errorhandling

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinErrorsEmpty(t *testing.T) {
	assert.NoError(t, JoinErrors(nil))
	assert.NoError(t, JoinErrors([]error{}))
}

func TestJoinErrorsCombinesMessages(t *testing.T) {
	err := JoinErrors([]error{errors.New("first"), errors.New("second")})
	require := assert.New(t)
	require.Error(err)
	require.True(strings.Contains(err.Error(), "first"))
	require.True(strings.Contains(err.Error(), "second"))
}
