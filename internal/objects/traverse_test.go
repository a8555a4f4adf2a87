package objects_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abstracted-labs/inv4-git/internal/objects"
)

type fakeLocalReader struct {
	store map[objects.OID]*objects.GitObject
}

func newFakeLocalReader() *fakeLocalReader {
	return &fakeLocalReader{store: make(map[objects.OID]*objects.GitObject)}
}

func (r *fakeLocalReader) put(o *objects.GitObject) { r.store[o.Hash] = o }

func (r *fakeLocalReader) HasObject(oid objects.OID) bool { _, ok := r.store[oid]; return ok }

func (r *fakeLocalReader) ReadObject(oid objects.OID) (*objects.GitObject, error) {
	o, ok := r.store[oid]
	if !ok {
		return nil, assert.AnError
	}
	return o, nil
}

func TestEnumerateForPush_SkipsKnownAndClassifiesSubmodules(t *testing.T) {
	reader := newFakeLocalReader()

	blob := &objects.GitObject{Hash: "111111111111111111111111111111111111111a", Kind: objects.KindBlob, Data: []byte("x")}
	reader.put(blob)

	submoduleTip := objects.OID("222222222222222222222222222222222222222b")

	tree := &objects.GitObject{
		Hash: "333333333333333333333333333333333333333c", Kind: objects.KindTree,
		Tree: &objects.TreeMeta{EntryOIDs: []objects.OID{blob.Hash}, Submodules: []objects.OID{submoduleTip}},
	}
	reader.put(tree)

	parent := &objects.GitObject{
		Hash: "444444444444444444444444444444444444444d", Kind: objects.KindCommit,
		Commit: &objects.CommitMeta{TreeOID: tree.Hash},
	}
	reader.put(parent)

	commit := &objects.GitObject{
		Hash: "555555555555555555555555555555555555555e", Kind: objects.KindCommit,
		Commit: &objects.CommitMeta{TreeOID: tree.Hash, ParentOIDs: []objects.OID{parent.Hash}},
	}
	reader.put(commit)

	manifest := objects.NewRepoData()
	toPush, submodules, err := objects.EnumerateForPush(commit.Hash, reader, manifest)
	require.NoError(t, err)

	assert.ElementsMatch(t, []objects.OID{commit.Hash, tree.Hash, blob.Hash, parent.Hash}, toPush)
	assert.Equal(t, []objects.OID{submoduleTip}, submodules)
	assert.NotContains(t, toPush, submoduleTip, "a submodule tip is never pushed as a local object")

	// Now mark everything but the new commit as already on the remote:
	// only the new tip itself should be discovered.
	manifest.Objects[tree.Hash] = "some-label"
	manifest.Objects[blob.Hash] = "some-label"
	manifest.Objects[parent.Hash] = "some-label"

	toPush2, submodules2, err := objects.EnumerateForPush(commit.Hash, reader, manifest)
	require.NoError(t, err)
	assert.Equal(t, []objects.OID{commit.Hash}, toPush2)
	assert.Empty(t, submodules2)
}

type fakeRemoteFetcher struct {
	byOID map[objects.OID]*objects.GitObject
}

func (f *fakeRemoteFetcher) FetchObject(oid objects.OID, label string) (*objects.GitObject, error) {
	o, ok := f.byOID[oid]
	if !ok {
		return nil, assert.AnError
	}
	return o, nil
}

func TestEnumerateForFetch_StopsAtLocalObjectsAndSubmoduleTips(t *testing.T) {
	blob := &objects.GitObject{Hash: "111111111111111111111111111111111111111a", Kind: objects.KindBlob, Data: []byte("x")}
	submoduleTip := objects.OID("222222222222222222222222222222222222222b")
	tree := &objects.GitObject{
		Hash: "333333333333333333333333333333333333333c", Kind: objects.KindTree,
		Tree: &objects.TreeMeta{EntryOIDs: []objects.OID{blob.Hash}},
	}
	commit := &objects.GitObject{
		Hash: "555555555555555555555555555555555555555e", Kind: objects.KindCommit,
		Commit: &objects.CommitMeta{TreeOID: tree.Hash},
	}

	manifest := objects.NewRepoData()
	manifest.Objects[commit.Hash] = "label-a"
	manifest.Objects[tree.Hash] = "label-a"
	manifest.Objects[blob.Hash] = "label-a"
	manifest.Objects[submoduleTip] = objects.SubmoduleTipMarker

	fetcher := &fakeRemoteFetcher{byOID: map[objects.OID]*objects.GitObject{
		commit.Hash: commit,
		tree.Hash:   tree,
		blob.Hash:   blob,
	}}

	localHas := map[objects.OID]bool{blob.Hash: true}
	hasLocal := func(oid objects.OID) bool { return localHas[oid] }

	toFetch, err := objects.EnumerateForFetch(commit.Hash, manifest, hasLocal, fetcher)
	require.NoError(t, err)
	assert.ElementsMatch(t, []objects.OID{commit.Hash, tree.Hash}, toFetch)
	assert.NotContains(t, toFetch, blob.Hash, "already-local objects are never scheduled")
	assert.NotContains(t, toFetch, submoduleTip, "submodule tips are never fetched")
}
