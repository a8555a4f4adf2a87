package sync

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/abstracted-labs/inv4-git/internal/cas"
	"github.com/abstracted-labs/inv4-git/internal/inv4err"
	"github.com/abstracted-labs/inv4-git/internal/objects"
)

// fetchCache is the session-scoped cache of MultiObjects already
// downloaded, keyed by label, so a blob referenced by multiple
// commits in one traversal is downloaded once.
//
// A label alone does not address a CAS blob: the ledger is what ties
// a MultiObject's label to the 32-byte digest its CID is derived
// from, so the cache resolves label -> digest -> CID before ever
// calling the blobstore.
type fetchCache struct {
	blobs       cas.Blobstore
	labelDigest map[string][32]byte
	labels      map[string]*objects.MultiObject
}

func newFetchCache(blobs cas.Blobstore, labelDigest map[string][32]byte) *fetchCache {
	return &fetchCache{blobs: blobs, labelDigest: labelDigest, labels: make(map[string]*objects.MultiObject)}
}

func (c *fetchCache) get(label string) (*objects.MultiObject, error) {
	if m, ok := c.labels[label]; ok {
		return m, nil
	}
	digest, ok := c.labelDigest[label]
	if !ok {
		return nil, inv4err.NewIntegrityError("ledger has no reference labeled %q", label)
	}
	cid, err := cas.DigestToCID(digest)
	if err != nil {
		return nil, errors.Wrapf(err, "derive cid for multiobject %s", label)
	}
	encoded, err := c.blobs.Get(cid)
	if err != nil {
		return nil, errors.Wrapf(err, "download multiobject %s", label)
	}
	m, err := objects.DecodeMultiObject(encoded)
	if err != nil {
		return nil, errors.Wrapf(err, "decode multiobject %s", label)
	}
	c.labels[label] = m
	return m, nil
}

// remoteFetcher adapts a fetchCache into objects.RemoteFetcher.
type remoteFetcher struct {
	cache *fetchCache
}

// newRemoteFetcher reads the repository's current ledger bag once to
// build the label->digest index the fetchCache needs, then returns a
// fetcher good for one traversal.
func newRemoteFetcher(s *Session) (*remoteFetcher, error) {
	bag, err := s.Chain.ReadManifest(s.RepoID, s.SubassetID)
	if err != nil {
		return nil, errors.Wrap(err, "read ledger bag")
	}
	index := make(map[string][32]byte, len(bag))
	for _, ref := range bag {
		index[string(ref.Label)] = ref.Digest
	}
	return &remoteFetcher{cache: newFetchCache(s.Blobs, index)}, nil
}

func (f *remoteFetcher) FetchObject(oid objects.OID, label string) (*objects.GitObject, error) {
	m, err := f.cache.get(label)
	if err != nil {
		return nil, err
	}
	obj, ok := m.Objects[oid]
	if !ok {
		return nil, inv4err.NewIntegrityError("multiobject %s does not contain expected object %s", label, oid)
	}
	return obj, nil
}

// Fetch materializes everything reachable from sha into the local
// ODB, verifying each written object's identity, then points name at
// sha.
func Fetch(s *Session, manifest *objects.RepoData, sha, name string) error {
	if name == "HEAD" {
		return nil
	}

	root := objects.OID(sha)
	fetcher, err := newRemoteFetcher(s)
	if err != nil {
		return errors.Wrapf(err, "fetch %s %s: preparing fetcher", sha, name)
	}

	toFetch, err := objects.EnumerateForFetch(root, manifest, s.Local.HasObject, fetcher)
	if err != nil {
		return errors.Wrapf(err, "fetch %s %s: enumerating objects", sha, name)
	}
	if s.Log != nil {
		s.Log.Debug("fetch enumerated missing objects", "ref", name, "count", len(toFetch))
	}

	for _, oid := range toFetch {
		if s.Local.HasObject(oid) {
			continue
		}
		label, known := manifest.Objects[oid]
		if !known {
			return inv4err.NewIntegrityError("manifest does not account for object %s", oid)
		}
		obj, err := fetcher.FetchObject(oid, label)
		if err != nil {
			return errors.Wrapf(err, "fetch %s %s: resolving object %s", sha, name, oid)
		}

		written, err := s.Local.WriteObject(obj.Kind, obj.Data)
		if err != nil {
			return errors.Wrapf(inv4err.NewLocalError("write object "+string(oid), err), "fetch %s %s", sha, name)
		}
		if written != oid {
			return inv4err.NewIntegrityError("object declared as %s rehashed to %s after write", oid, written)
		}
	}

	isTag, err := isTagTip(s, root)
	if err != nil {
		return errors.Wrapf(err, "fetch %s %s: classifying tip", sha, name)
	}
	if isTag {
		return nil
	}
	if strings.HasPrefix(name, "refs/tags") {
		// A refs/tags/* name whose tip is not itself a tag object is a
		// lightweight tag pointed directly at a commit; git manages
		// refs/tags/* itself in that case too.
		return nil
	}

	if err := s.Local.SetReference(name, root); err != nil {
		return errors.Wrapf(inv4err.NewLocalError("set reference "+name, err), "fetch %s %s", sha, name)
	}
	if s.Log != nil {
		s.Log.Info("fetched ref", "ref", name, "oid", sha)
	}
	return nil
}

func isTagTip(s *Session, oid objects.OID) (bool, error) {
	if !s.Local.HasObject(oid) {
		return false, nil
	}
	return s.Local.IsTagObject(oid)
}
