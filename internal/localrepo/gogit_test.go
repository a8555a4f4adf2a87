package localrepo

import (
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abstracted-labs/inv4-git/internal/objects"
)

func newMemoryRepo(t *testing.T) *GoGitRepo {
	t.Helper()
	r, err := git.Init(memory.NewStorage(), nil)
	require.NoError(t, err)
	return &GoGitRepo{repo: r}
}

const (
	emptyTreeOID = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"
	authorLine   = "A U Thor <author@example.com> 1700000000 +0000"
)

func writeCommit(t *testing.T, g *GoGitRepo, tree objects.OID, parents ...objects.OID) objects.OID {
	t.Helper()
	data := "tree " + string(tree) + "\n"
	for _, p := range parents {
		data += "parent " + string(p) + "\n"
	}
	data += "author " + authorLine + "\ncommitter " + authorLine + "\n\ninitial\n"
	oid, err := g.WriteObject(objects.KindCommit, []byte(data))
	require.NoError(t, err)
	return oid
}

func TestWriteAndReadBlob(t *testing.T) {
	g := newMemoryRepo(t)

	oid, err := g.WriteObject(objects.KindBlob, []byte("hello"))
	require.NoError(t, err)
	assert.True(t, g.HasObject(oid))

	obj, err := g.ReadObject(oid)
	require.NoError(t, err)
	assert.Equal(t, objects.KindBlob, obj.Kind)
	assert.Equal(t, []byte("hello"), obj.Data)
	assert.Equal(t, oid, obj.Hash)
}

func TestWriteEmptyTreeMatchesWellKnownHash(t *testing.T) {
	g := newMemoryRepo(t)
	oid, err := g.WriteObject(objects.KindTree, nil)
	require.NoError(t, err)
	assert.Equal(t, objects.OID(emptyTreeOID), oid)
}

func TestReadCommitMetadata(t *testing.T) {
	g := newMemoryRepo(t)
	tree, err := g.WriteObject(objects.KindTree, nil)
	require.NoError(t, err)

	parent := writeCommit(t, g, tree)
	child := writeCommit(t, g, tree, parent)

	obj, err := g.ReadObject(child)
	require.NoError(t, err)
	require.Equal(t, objects.KindCommit, obj.Kind)
	assert.Equal(t, tree, obj.Commit.TreeOID)
	assert.Equal(t, []objects.OID{parent}, obj.Commit.ParentOIDs)
}

func TestReadTreeClassifiesSubmoduleEntries(t *testing.T) {
	g := newMemoryRepo(t)

	blob, err := g.WriteObject(objects.KindBlob, []byte("content"))
	require.NoError(t, err)
	submoduleTip := objects.OID("ffffffffffffffffffffffffffffffffffffffff")

	blobHash := plumbing.NewHash(string(blob))
	subHash := plumbing.NewHash(string(submoduleTip))
	raw := append([]byte("100644 f\x00"), blobHash[:]...)
	raw = append(raw, []byte("160000 sub\x00")...)
	raw = append(raw, subHash[:]...)

	tree, err := g.WriteObject(objects.KindTree, raw)
	require.NoError(t, err)

	obj, err := g.ReadObject(tree)
	require.NoError(t, err)
	require.Equal(t, objects.KindTree, obj.Kind)
	assert.Equal(t, []objects.OID{blob}, obj.Tree.EntryOIDs)
	assert.Equal(t, []objects.OID{submoduleTip}, obj.Tree.Submodules)
}

func TestResolveReferenceShorthandAndRefs(t *testing.T) {
	g := newMemoryRepo(t)
	tree, err := g.WriteObject(objects.KindTree, nil)
	require.NoError(t, err)
	commit := writeCommit(t, g, tree)

	require.NoError(t, g.SetReference("refs/heads/main", commit))

	got, err := g.ResolveReference("refs/heads/main")
	require.NoError(t, err)
	assert.Equal(t, commit, got)

	got, err = g.ResolveReference("main")
	require.NoError(t, err)
	assert.Equal(t, commit, got)
}

func TestResolveReferenceKeepsAnnotatedTagAsTip(t *testing.T) {
	g := newMemoryRepo(t)
	tree, err := g.WriteObject(objects.KindTree, nil)
	require.NoError(t, err)
	commit := writeCommit(t, g, tree)

	tagData := "object " + string(commit) + "\ntype commit\ntag v1\ntagger " + authorLine + "\n\nrelease\n"
	tag, err := g.WriteObject(objects.KindTag, []byte(tagData))
	require.NoError(t, err)
	require.NoError(t, g.SetReference("refs/tags/v1", tag))

	got, err := g.ResolveReference("refs/tags/v1")
	require.NoError(t, err)
	assert.Equal(t, tag, got, "an annotated tag ref resolves to the tag object, not its target")

	isTag, err := g.IsTagObject(got)
	require.NoError(t, err)
	assert.True(t, isTag)

	obj, err := g.ReadObject(tag)
	require.NoError(t, err)
	require.Equal(t, objects.KindTag, obj.Kind)
	assert.Equal(t, commit, obj.Tag.TargetOID)
}

func TestDeleteReferenceIsIdempotent(t *testing.T) {
	g := newMemoryRepo(t)
	tree, err := g.WriteObject(objects.KindTree, nil)
	require.NoError(t, err)
	commit := writeCommit(t, g, tree)

	require.NoError(t, g.SetReference("refs/heads/gone", commit))
	require.NoError(t, g.DeleteReference("refs/heads/gone"))
	require.NoError(t, g.DeleteReference("refs/heads/gone"))

	_, err = g.ResolveReference("refs/heads/gone")
	assert.Error(t, err)
}
