package objects_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abstracted-labs/inv4-git/internal/objects"
)

func TestFingerprintIsDeterministicAndOrderSensitive(t *testing.T) {
	a := []objects.OID{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"}
	b := []objects.OID{"bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}

	fa1, err := objects.Fingerprint(a)
	require.NoError(t, err)
	fa2, err := objects.Fingerprint(a)
	require.NoError(t, err)
	assert.Equal(t, fa1, fa2, "fingerprinting the same ordered list twice must agree")

	fb, err := objects.Fingerprint(b)
	require.NoError(t, err)
	assert.NotEqual(t, fa1, fb, "reordering the list changes the canonical encoding, so the label differs")
}

func TestFingerprintEmptyList(t *testing.T) {
	f, err := objects.Fingerprint(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, f)
}
