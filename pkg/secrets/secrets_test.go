package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestSessionID(t *testing.T) {
	id, err := SessionID()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "sess_"))
	assert.Greater(t, len(id), len("sess_")+20)
}
