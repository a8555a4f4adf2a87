package objects_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abstracted-labs/inv4-git/internal/objects"
)

func TestMultiObjectRoundTrip(t *testing.T) {
	m := objects.NewMultiObject()
	m.Hash = "1234567890"
	m.Add(&objects.GitObject{
		Hash: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		Data: []byte("blob"),
		Kind: objects.KindBlob,
	})
	m.Add(&objects.GitObject{
		Hash: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		Data: []byte("tree"),
		Kind: objects.KindTree,
		Tree: &objects.TreeMeta{EntryOIDs: []objects.OID{"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}},
	})
	m.Add(&objects.GitObject{
		Hash: "cccccccccccccccccccccccccccccccccccccccc",
		Data: []byte("commit"),
		Kind: objects.KindCommit,
		Commit: &objects.CommitMeta{
			TreeOID:    "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
			ParentOIDs: []objects.OID{"dddddddddddddddddddddddddddddddddddddddd"},
		},
	})
	m.Add(&objects.GitObject{
		Hash: "eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee",
		Data: []byte("tag"),
		Kind: objects.KindTag,
		Tag:  &objects.TagMeta{TargetOID: "cccccccccccccccccccccccccccccccccccccccc"},
	})

	encoded, err := objects.EncodeMultiObject(m)
	require.NoError(t, err)

	decoded, err := objects.DecodeMultiObject(encoded)
	require.NoError(t, err)

	assert.Equal(t, m.Hash, decoded.Hash)
	assert.Equal(t, m.GitHashes, decoded.GitHashes)
	require.Len(t, decoded.Objects, 4)
	for oid, obj := range m.Objects {
		got, ok := decoded.Objects[oid]
		require.True(t, ok)
		assert.Equal(t, obj.Data, got.Data)
		assert.Equal(t, obj.Kind, got.Kind)
	}
	assert.Equal(t, m.Objects["bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"].Tree.EntryOIDs,
		decoded.Objects["bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"].Tree.EntryOIDs)
	assert.Equal(t, m.Objects["cccccccccccccccccccccccccccccccccccccccc"].Commit.ParentOIDs,
		decoded.Objects["cccccccccccccccccccccccccccccccccccccccc"].Commit.ParentOIDs)
	assert.Equal(t, m.Objects["eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"].Tag.TargetOID,
		decoded.Objects["eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"].Tag.TargetOID)
}

func TestRepoDataRoundTripIsDeterministic(t *testing.T) {
	r := objects.NewRepoData()
	r.Refs["refs/heads/main"] = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	r.Refs["refs/heads/dev"] = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	r.Objects["aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"] = "111"
	r.Objects["bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"] = "111"
	r.Objects["cccccccccccccccccccccccccccccccccccccccc"] = objects.SubmoduleTipMarker

	encodedA, err := objects.EncodeRepoData(r)
	require.NoError(t, err)
	encodedB, err := objects.EncodeRepoData(r)
	require.NoError(t, err)
	assert.Equal(t, encodedA, encodedB, "encoding the same manifest twice must produce identical bytes")

	decoded, err := objects.DecodeRepoData(encodedA)
	require.NoError(t, err)
	assert.Equal(t, r.Refs, decoded.Refs)
	assert.Equal(t, r.Objects, decoded.Objects)
}

func TestDecodeMultiObjectRejectsUnknownVersion(t *testing.T) {
	_, err := objects.DecodeMultiObject([]byte{0xff})
	assert.Error(t, err)
}
