// Package sync implements the push and fetch paths: the orchestration
// that sits between the traversal engine and the CAS/ledger clients.
package sync

import (
	"crypto/sha256"
	"strings"

	"github.com/pkg/errors"

	"github.com/abstracted-labs/inv4-git/internal/cas"
	"github.com/abstracted-labs/inv4-git/internal/inv4err"
	"github.com/abstracted-labs/inv4-git/internal/ledger"
	"github.com/abstracted-labs/inv4-git/internal/localrepo"
	"github.com/abstracted-labs/inv4-git/internal/objects"
)

// RepoDataLabel is the ledger label reserved for the manifest blob.
const RepoDataLabel = "RepoData"

// Session bundles the collaborators a push/fetch needs.
type Session struct {
	RepoID     uint32
	SubassetID uint32
	Local      localrepo.LocalRepo
	Blobs      cas.Blobstore
	Chain      ledger.Ledger
	Signer     ledger.Signer
	Log        Logger
}

// Logger is the narrow slice of internal/logging.Logger this package
// needs, kept local to avoid an import cycle on the concrete type.
type Logger interface {
	Debug(msg string, keyValues ...interface{})
	Info(msg string, keyValues ...interface{})
	Warn(msg string, keyValues ...interface{})
	Error(msg string, keyValues ...interface{})
}

// Push ships everything reachable from the refspec's source that the
// remote does not yet hold, then swaps the manifest reference on the
// ledger, returning the manifest the session should adopt on success.
// On any error the caller must discard the return value and keep
// using manifest unchanged: Push never mutates its input in place, so
// the rollback is simply "don't adopt the result".
func Push(s *Session, manifest *objects.RepoData, refspec string) (*objects.RepoData, error) {
	forced := strings.HasPrefix(refspec, "+")
	if forced {
		refspec = refspec[1:]
	}

	src, dst := refspec, refspec
	if i := strings.IndexByte(refspec, ':'); i >= 0 {
		src, dst = refspec[:i], refspec[i+1:]
	}

	next := manifest.Clone()

	if src == "" {
		delete(next.Refs, dst)
		return next, nil
	}

	tip, err := s.Local.ResolveReference(src)
	if err != nil {
		return nil, errors.Wrapf(inv4err.NewLocalError("resolve "+src, err), "push %s", refspec)
	}
	if s.Log != nil {
		s.Log.Debug("resolved push source", "ref", src, "oid", string(tip), "forced", forced)
	}

	if !forced {
		if remoteTip, exists := manifest.Refs[dst]; exists {
			fetcher, ferr := newRemoteFetcher(s)
			if ferr != nil {
				return nil, errors.Wrapf(ferr, "push %s: checking remote state", refspec)
			}
			missing, ferr := objects.EnumerateForFetch(remoteTip, manifest, s.Local.HasObject, fetcher)
			if ferr != nil {
				return nil, errors.Wrapf(ferr, "push %s: checking remote state", refspec)
			}
			if len(missing) > 0 {
				return nil, inv4err.NewProtocolError("local is behind remote; fetch first or use force")
			}
		}
	}

	toPush, submodules, err := objects.EnumerateForPush(tip, s.Local, manifest)
	if err != nil {
		return nil, errors.Wrapf(err, "push %s: enumerating objects", refspec)
	}

	if len(toPush) == 0 && manifest.Refs[dst] == tip {
		// Re-push of the same tip: nothing to ship, nothing to record.
		// Any other empty enumeration (a new ref name, or a ref moved
		// back to an already-known commit) still has to re-upload the
		// manifest and swap, or the ref change dies with this session.
		if s.Log != nil {
			s.Log.Debug("push is a no-op, remote already has this ref", "ref", dst)
		}
		next.Refs[dst] = tip
		return next, nil
	}

	var multiRef *ledger.LedgerRef
	if len(toPush) > 0 {
		if s.Log != nil {
			s.Log.Info("pushing new objects", "ref", dst, "count", len(toPush), "submodules", len(submodules))
		}
		multi := objects.NewMultiObject()
		for _, oid := range toPush {
			obj, rerr := s.Local.ReadObject(oid)
			if rerr != nil {
				return nil, errors.Wrapf(rerr, "push %s: reading %s", refspec, oid)
			}
			multi.Add(obj)
		}

		label, err := objects.Fingerprint(multi.GitHashes)
		if err != nil {
			return nil, errors.Wrap(err, "compute multiobject label")
		}
		multi.Hash = label

		encoded, err := objects.EncodeMultiObject(multi)
		if err != nil {
			return nil, errors.Wrap(err, "encode multiobject")
		}
		if _, err := s.Blobs.Put(encoded); err != nil {
			return nil, errors.Wrap(err, "upload multiobject")
		}

		for _, oid := range toPush {
			next.Objects[oid] = label
		}
		for _, oid := range submodules {
			next.Objects[oid] = objects.SubmoduleTipMarker
		}

		ref, err := s.Chain.Mint([]byte(label), digestOf(encoded), s.Signer)
		if err != nil {
			return nil, errors.Wrap(err, "mint multiobject reference")
		}
		multiRef = &ref
	}

	next.Refs[dst] = tip

	encodedManifest, err := objects.EncodeRepoData(next)
	if err != nil {
		return nil, errors.Wrap(err, "encode repodata")
	}
	if _, err := s.Blobs.Put(encodedManifest); err != nil {
		return nil, errors.Wrap(err, "upload repodata")
	}
	manifestRef, err := s.Chain.Mint([]byte(RepoDataLabel), digestOf(encodedManifest), s.Signer)
	if err != nil {
		return nil, errors.Wrap(err, "mint repodata reference")
	}

	var remove []ledger.LedgerRef
	current, rerr := s.Chain.ReadManifest(s.RepoID, s.SubassetID)
	if rerr != nil && !inv4err.IsNotFound(rerr) {
		return nil, errors.Wrap(rerr, "read current ledger bag before swap")
	}
	for _, r := range current {
		if string(r.Label) == RepoDataLabel {
			remove = append(remove, r)
		}
	}

	appendRefs := []ledger.LedgerRef{manifestRef}
	if multiRef != nil {
		appendRefs = append(appendRefs, *multiRef)
	}
	if err := s.Chain.Swap(s.RepoID, s.SubassetID, remove, appendRefs, s.Signer); err != nil {
		return nil, errors.Wrap(err, "swap ledger manifest")
	}
	if s.Log != nil {
		s.Log.Info("ledger bag swapped", "ref", dst, "oid", string(tip))
	}

	return next, nil
}

func digestOf(data []byte) [32]byte {
	return sha256.Sum256(data)
}
