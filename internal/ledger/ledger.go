// Package ledger implements the ledger client: reading a repository's
// manifest bag and atomically minting/swapping labeled blob
// references.
package ledger

// Ref is a labeled blob reference as the ledger models it: a label
// (either the literal "RepoData" or a MultiObject hash string) paired
// with the 32-byte digest of the referenced blob.
type Ref struct {
	Label  []byte
	Digest [32]byte
}

// LedgerRef is the ledger's own identifier for a minted reference, as
// returned by Mint and consumed by a later Swap's remove/append lists.
type LedgerRef struct {
	Label  []byte
	Digest [32]byte
	// ID is the ledger-internal handle for this reference (e.g. a
	// storage key or asset index); opaque to the core.
	ID uint64
}

// Signer is the credential collaborator: an opaque account identifier
// plus a byte-signing capability, produced before the first
// ledger-mutating operation.
type Signer interface {
	AccountID() string
	Sign(payload []byte) ([]byte, error)
}

// Ledger is the external transactional store owning per-repository
// bags of labeled blob references. All operations are network calls
// and may block.
type Ledger interface {
	// ReadManifest returns the repository's bag of labeled references.
	// Fails with inv4err.ErrNotFound if repoID is unknown.
	ReadManifest(repoID, subassetID uint32) ([]LedgerRef, error)

	// Mint creates a new labeled blob reference owned by signer. Fails
	// with inv4err.ErrUnavailable or inv4err.ErrUnauthorized.
	Mint(label []byte, digest [32]byte, signer Signer) (LedgerRef, error)

	// Swap atomically removes every ref in remove and appends every
	// ref in append to the repository's bag, in one transaction. Fails
	// with inv4err.ErrConflict if the repository moved since the
	// caller's last read, or inv4err.ErrUnavailable/ErrUnauthorized.
	Swap(repoID, subassetID uint32, remove, append []LedgerRef, signer Signer) error
}
