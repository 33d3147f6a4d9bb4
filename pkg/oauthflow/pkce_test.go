package oauthflow

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePKCE(t *testing.T) {
	pair, err := GeneratePKCE()
	require.NoError(t, err)

	assert.Len(t, pair.Verifier, 64)
	for _, r := range pair.Verifier {
		assert.True(t, strings.ContainsRune(unreservedChars, r), "unexpected char %q in verifier", r)
	}

	sum := sha256.Sum256([]byte(pair.Verifier))
	want := base64.RawURLEncoding.EncodeToString(sum[:])
	assert.Equal(t, want, pair.Challenge)
}

func TestGeneratePKCEIsRandom(t *testing.T) {
	p1, err := GeneratePKCE()
	require.NoError(t, err)
	p2, err := GeneratePKCE()
	require.NoError(t, err)

	assert.NotEqual(t, p1.Verifier, p2.Verifier)
}

func TestRandomState(t *testing.T) {
	s1, err := RandomState()
	require.NoError(t, err)
	s2, err := RandomState()
	require.NoError(t, err)

	assert.NotEmpty(t, s1)
	assert.NotEqual(t, s1, s2)
}
