package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateRandByteArray(t *testing.T) {
	a := GenerateRandByteArray(32)
	b := GenerateRandByteArray(32)
	require.Len(t, a, 32)
	require.Len(t, b, 32)
	assert.NotEqual(t, a, b)

	assert.Empty(t, GenerateRandByteArray(0))
}

func TestWipeByteArray(t *testing.T) {
	key := []byte{1, 2, 3, 4, 5}
	WipeByteArray(key)
	assert.Equal(t, make([]byte, 5), key)

	assert.NotPanics(t, func() { WipeByteArray(nil) })
}

func TestCloneBytes(t *testing.T) {
	src := []byte{1, 2, 3}
	dst := CloneBytes(src)
	dst[0] = 9
	assert.Equal(t, byte(1), src[0])

	assert.Nil(t, CloneBytes(nil))
	assert.NotNil(t, CloneBytes([]byte{}))
}

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"alice@example.com", "alice@example.com"},
		{"  Alice@Example.COM ", "alice@example.com"},
		{"\tBOB@example.com\n", "bob@example.com"},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, NormalizeEmail(tc.in), tc.in)
	}
}
