// Package localrepo adapts the local git object database to the
// LocalRepo capability consumed by the traversal, push, and fetch
// components: find-reference, resolve symbolic ref, read/write
// objects, set/delete refs. The concrete implementation is backed by
// go-git.
package localrepo

import "github.com/abstracted-labs/inv4-git/internal/objects"

// LocalRepo is everything the core needs from the repository git
// invoked this helper for.
type LocalRepo interface {
	objects.LocalReader

	// ResolveReference finds ref (full name or shorthand), follows
	// symbolic refs, then peels to a tag if present else to a commit,
	// returning the final OID.
	ResolveReference(ref string) (objects.OID, error)

	// ResolveSymbolicRef follows a symbolic ref one level, returning
	// the full reference name it points at.
	ResolveSymbolicRef(name string) (string, bool, error)

	// WriteObject writes data of the given kind into the local ODB,
	// returning the OID the ODB computed for it.
	WriteObject(kind objects.Kind, data []byte) (objects.OID, error)

	// SetReference points name at oid, creating it if absent.
	SetReference(name string, oid objects.OID) error

	// DeleteReference removes name. It is not an error if name is
	// already absent.
	DeleteReference(name string) error

	// IsTagObject reports whether oid is itself a tag object (as
	// opposed to a lightweight tag, which is just a ref to a commit).
	IsTagObject(oid objects.OID) (bool, error)
}
