package localrepo

import (
	"bytes"
	"io"
	"sort"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/pkg/errors"

	"github.com/abstracted-labs/inv4-git/internal/objects"
)

// GoGitRepo implements LocalRepo over a go-git repository, operating
// directly on the object store rather than shelling out to the git
// binary.
type GoGitRepo struct {
	repo *git.Repository
}

// Open opens the repository rooted at (or containing, per
// DetectDotGit) path.
func Open(path string) (*GoGitRepo, error) {
	r, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, errors.Wrap(err, "open local repository")
	}
	return &GoGitRepo{repo: r}, nil
}

func toPlumbingHash(oid objects.OID) plumbing.Hash {
	return plumbing.NewHash(string(oid))
}

func toOID(h plumbing.Hash) objects.OID {
	return objects.OID(h.String())
}

func kindOf(t plumbing.ObjectType) objects.Kind {
	switch t {
	case plumbing.TreeObject:
		return objects.KindTree
	case plumbing.CommitObject:
		return objects.KindCommit
	case plumbing.TagObject:
		return objects.KindTag
	default:
		return objects.KindBlob
	}
}

func kindToPlumbing(k objects.Kind) plumbing.ObjectType {
	switch k {
	case objects.KindTree:
		return plumbing.TreeObject
	case objects.KindCommit:
		return plumbing.CommitObject
	case objects.KindTag:
		return plumbing.TagObject
	default:
		return plumbing.BlobObject
	}
}

// HasObject reports whether oid exists in the local ODB.
func (g *GoGitRepo) HasObject(oid objects.OID) bool {
	_, err := g.repo.Storer.EncodedObject(plumbing.AnyObject, toPlumbingHash(oid))
	return err == nil
}

// ReadObject reads data, kind, and child OIDs for oid from the local
// ODB.
func (g *GoGitRepo) ReadObject(oid objects.OID) (*objects.GitObject, error) {
	hash := toPlumbingHash(oid)
	enc, err := g.repo.Storer.EncodedObject(plumbing.AnyObject, hash)
	if err != nil {
		return nil, errors.Wrapf(err, "read object %s", oid)
	}

	rd, err := enc.Reader()
	if err != nil {
		return nil, errors.Wrapf(err, "open object reader %s", oid)
	}
	defer rd.Close()
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, errors.Wrapf(err, "read object bytes %s", oid)
	}

	kind := kindOf(enc.Type())
	out := &objects.GitObject{Hash: oid, Data: data, Kind: kind}

	switch kind {
	case objects.KindCommit:
		c := &object.Commit{}
		if err := c.Decode(enc); err != nil {
			return nil, errors.Wrapf(err, "decode commit %s", oid)
		}
		parents := make([]objects.OID, 0, len(c.ParentHashes))
		for _, p := range c.ParentHashes {
			parents = append(parents, toOID(p))
		}
		sortOIDs(parents)
		out.Commit = &objects.CommitMeta{ParentOIDs: parents, TreeOID: toOID(c.TreeHash)}
	case objects.KindTree:
		t := &object.Tree{}
		if err := t.Decode(enc); err != nil {
			return nil, errors.Wrapf(err, "decode tree %s", oid)
		}
		entrySet := make(map[objects.OID]bool)
		subSet := make(map[objects.OID]bool)
		for _, e := range t.Entries {
			if e.Mode == filemode.Submodule {
				subSet[toOID(e.Hash)] = true
				continue
			}
			entrySet[toOID(e.Hash)] = true
		}
		out.Tree = &objects.TreeMeta{
			EntryOIDs:  setToSortedSlice(entrySet),
			Submodules: setToSortedSlice(subSet),
		}
	case objects.KindTag:
		tg := &object.Tag{}
		if err := tg.Decode(enc); err != nil {
			return nil, errors.Wrapf(err, "decode tag %s", oid)
		}
		out.Tag = &objects.TagMeta{TargetOID: toOID(tg.Target)}
	case objects.KindBlob:
	}
	return out, nil
}

func setToSortedSlice(set map[objects.OID]bool) []objects.OID {
	out := make([]objects.OID, 0, len(set))
	for oid := range set {
		out = append(out, oid)
	}
	sortOIDs(out)
	return out
}

func sortOIDs(oids []objects.OID) {
	sort.Slice(oids, func(i, j int) bool { return oids[i] < oids[j] })
}

// WriteObject writes data of kind into the local ODB, returning the
// OID the ODB computed. The caller is responsible for comparing it
// against any declared OID.
func (g *GoGitRepo) WriteObject(kind objects.Kind, data []byte) (objects.OID, error) {
	t := kindToPlumbing(kind)
	obj := g.repo.Storer.NewEncodedObject()
	obj.SetType(t)
	obj.SetSize(int64(len(data)))
	w, err := obj.Writer()
	if err != nil {
		return "", errors.Wrap(err, "open object writer")
	}
	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", errors.Wrap(err, "write object bytes")
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "close object writer")
	}
	hash, err := g.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return "", errors.Wrap(err, "store object")
	}
	return toOID(hash), nil
}

// ResolveReference finds ref (full name or shorthand), follows
// symbolic refs, and returns the object the ref lands on: the tag
// object itself for an annotated tag, else the commit. The tag object
// stays the tip so a push of refs/tags/* ships the tag along with its
// target.
func (g *GoGitRepo) ResolveReference(ref string) (objects.OID, error) {
	r, err := g.repo.Reference(plumbing.ReferenceName(ref), true)
	if err != nil {
		for _, prefix := range []string{"refs/heads/", "refs/tags/", "refs/"} {
			r, err = g.repo.Reference(plumbing.ReferenceName(prefix+ref), true)
			if err == nil {
				break
			}
		}
	}
	var hash plumbing.Hash
	if err == nil {
		hash = r.Hash()
	} else if plumbing.IsHash(ref) {
		hash = plumbing.NewHash(ref)
	} else {
		return "", errors.Wrapf(err, "resolve reference %s", ref)
	}

	if _, err := g.repo.Storer.EncodedObject(plumbing.AnyObject, hash); err != nil {
		return "", errors.Wrapf(err, "resolve reference %s", ref)
	}
	return toOID(hash), nil
}

// ResolveSymbolicRef follows name one level as a symbolic ref.
func (g *GoGitRepo) ResolveSymbolicRef(name string) (string, bool, error) {
	r, err := g.repo.Reference(plumbing.ReferenceName(name), false)
	if err != nil {
		return "", false, nil
	}
	if r.Type() != plumbing.SymbolicReference {
		return "", false, nil
	}
	return string(r.Target()), true, nil
}

// SetReference points name at oid.
func (g *GoGitRepo) SetReference(name string, oid objects.OID) error {
	ref := plumbing.NewHashReference(plumbing.ReferenceName(name), toPlumbingHash(oid))
	return errors.Wrapf(g.repo.Storer.SetReference(ref), "set reference %s", name)
}

// DeleteReference removes name, ignoring an already-absent reference.
func (g *GoGitRepo) DeleteReference(name string) error {
	err := g.repo.Storer.RemoveReference(plumbing.ReferenceName(name))
	if err != nil && err != plumbing.ErrReferenceNotFound {
		return errors.Wrapf(err, "delete reference %s", name)
	}
	return nil
}

// IsTagObject reports whether oid is itself an annotated tag object.
func (g *GoGitRepo) IsTagObject(oid objects.OID) (bool, error) {
	enc, err := g.repo.Storer.EncodedObject(plumbing.AnyObject, toPlumbingHash(oid))
	if err != nil {
		return false, errors.Wrapf(err, "inspect object %s", oid)
	}
	return enc.Type() == plumbing.TagObject, nil
}
