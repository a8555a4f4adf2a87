package cas_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abstracted-labs/inv4-git/internal/cas"
	"github.com/abstracted-labs/inv4-git/internal/inv4test"
)

func TestCompressingBlobstoreRoundTrip(t *testing.T) {
	inner := inv4test.NewFakeBlobstore()
	store := cas.NewCompressingBlobstore(inner)

	payload := []byte(strings.Repeat("the quick brown fox jumps over the lazy dog ", 50))

	id, err := store.Put(payload)
	require.NoError(t, err)

	got, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestCompressingBlobstoreStoresSmallerThanInput(t *testing.T) {
	inner := inv4test.NewFakeBlobstore()
	store := cas.NewCompressingBlobstore(inner)

	payload := []byte(strings.Repeat("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", 100))
	id, err := store.Put(payload)
	require.NoError(t, err)

	stored, err := inner.Get(id)
	require.NoError(t, err)
	assert.Less(t, len(stored), len(payload))
}
