// Package inv4test provides in-memory fakes for Ledger, Blobstore,
// and LocalRepo so the push/fetch paths can be exercised without a
// real chain, CAS, or git object database.
package inv4test

import (
	"crypto/sha256"
	"sync"

	"github.com/abstracted-labs/inv4-git/internal/cas"
	"github.com/abstracted-labs/inv4-git/internal/inv4err"
	"github.com/abstracted-labs/inv4-git/internal/ledger"
	"github.com/abstracted-labs/inv4-git/internal/objects"
)

// FakeBlobstore is an in-memory content-addressed store.
type FakeBlobstore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewFakeBlobstore builds an empty store.
func NewFakeBlobstore() *FakeBlobstore {
	return &FakeBlobstore{blobs: make(map[string][]byte)}
}

func (f *FakeBlobstore) Put(data []byte) (string, error) {
	sum := sha256.Sum256(data)
	id, err := cas.DigestToCID(sum)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[id] = append([]byte(nil), data...)
	return id, nil
}

func (f *FakeBlobstore) Get(cid string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.blobs[cid]
	if !ok {
		return nil, inv4err.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// FakeLedger is an in-memory ledger: one bag of refs per (repoID,
// subassetID), with single-writer swap semantics enforced by a
// monotonic generation counter.
type FakeLedger struct {
	mu     sync.Mutex
	bags   map[[2]uint32][]ledger.LedgerRef
	nextID uint64
	// ForceConflict, if set, makes the next Swap fail with ErrConflict.
	ForceConflict bool
}

// NewFakeLedger builds an empty ledger.
func NewFakeLedger() *FakeLedger {
	return &FakeLedger{bags: make(map[[2]uint32][]ledger.LedgerRef)}
}

func (f *FakeLedger) key(repoID, subassetID uint32) [2]uint32 { return [2]uint32{repoID, subassetID} }

func (f *FakeLedger) ReadManifest(repoID, subassetID uint32) ([]ledger.LedgerRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bag, ok := f.bags[f.key(repoID, subassetID)]
	if !ok {
		return nil, inv4err.ErrNotFound
	}
	return append([]ledger.LedgerRef(nil), bag...), nil
}

func (f *FakeLedger) Mint(label []byte, digest [32]byte, signer ledger.Signer) (ledger.LedgerRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	return ledger.LedgerRef{Label: append([]byte(nil), label...), Digest: digest, ID: f.nextID}, nil
}

func (f *FakeLedger) Swap(repoID, subassetID uint32, remove, appendRefs []ledger.LedgerRef, signer ledger.Signer) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ForceConflict {
		f.ForceConflict = false
		return inv4err.ErrConflict
	}

	k := f.key(repoID, subassetID)
	bag := f.bags[k]
	for _, r := range remove {
		bag = removeRef(bag, r)
	}
	bag = append(bag, appendRefs...)
	f.bags[k] = bag
	return nil
}

func removeRef(bag []ledger.LedgerRef, target ledger.LedgerRef) []ledger.LedgerRef {
	out := bag[:0]
	for _, r := range bag {
		if r.ID == target.ID {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FakeSigner is a no-op Signer sufficient for tests.
type FakeSigner struct{ Account string }

func (s *FakeSigner) AccountID() string { return s.Account }
func (s *FakeSigner) Sign(payload []byte) ([]byte, error) {
	sum := sha256.Sum256(payload)
	return sum[:], nil
}

// FakeLocalRepo is an in-memory object database and ref table
// implementing localrepo.LocalRepo, backed by plain maps instead of a
// real git repository.
type FakeLocalRepo struct {
	mu      sync.Mutex
	objects map[objects.OID]*objects.GitObject
	refs    map[string]objects.OID
	symrefs map[string]string
}

// NewFakeLocalRepo builds an empty repository.
func NewFakeLocalRepo() *FakeLocalRepo {
	return &FakeLocalRepo{
		objects: make(map[objects.OID]*objects.GitObject),
		refs:    make(map[string]objects.OID),
		symrefs: make(map[string]string),
	}
}

// Seed inserts obj directly, bypassing hash verification, for test
// setup convenience.
func (r *FakeLocalRepo) Seed(obj *objects.GitObject) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objects[obj.Hash] = obj
}

// SeedRef points name at oid.
func (r *FakeLocalRepo) SeedRef(name string, oid objects.OID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refs[name] = oid
}

func (r *FakeLocalRepo) HasObject(oid objects.OID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.objects[oid]
	return ok
}

func (r *FakeLocalRepo) ReadObject(oid objects.OID) (*objects.GitObject, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.objects[oid]
	if !ok {
		return nil, inv4err.NewLocalError("read object "+string(oid), inv4err.ErrNotFound)
	}
	return obj, nil
}

func (r *FakeLocalRepo) WriteObject(kind objects.Kind, data []byte) (objects.OID, error) {
	oid := FakeHash(kind, data)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.objects[oid]; !exists {
		r.objects[oid] = &objects.GitObject{Hash: oid, Data: data, Kind: kind}
	}
	return oid, nil
}

func (r *FakeLocalRepo) ResolveReference(ref string) (objects.OID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if oid, ok := r.refs[ref]; ok {
		return oid, nil
	}
	if oid, ok := r.refs["refs/heads/"+ref]; ok {
		return oid, nil
	}
	if objects.OID(ref).Valid() {
		return objects.OID(ref), nil
	}
	return "", inv4err.NewLocalError("resolve reference "+ref, inv4err.ErrNotFound)
}

func (r *FakeLocalRepo) ResolveSymbolicRef(name string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	target, ok := r.symrefs[name]
	return target, ok, nil
}

func (r *FakeLocalRepo) SetReference(name string, oid objects.OID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refs[name] = oid
	return nil
}

func (r *FakeLocalRepo) DeleteReference(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.refs, name)
	return nil
}

func (r *FakeLocalRepo) IsTagObject(oid objects.OID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.objects[oid]
	if !ok {
		return false, nil
	}
	return obj.Kind == objects.KindTag, nil
}
