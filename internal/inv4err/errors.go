// Package inv4err defines the error taxonomy shared by the ledger,
// blobstore, and sync packages.
package inv4err

import (
	"errors"
	"fmt"
)

// Sentinel kinds that do not carry extra fields.
var (
	// ErrNotFound indicates a repository or blob absent from a remote store.
	ErrNotFound = fmt.Errorf("not found")
	// ErrUnavailable indicates a transient network/RPC failure.
	ErrUnavailable = fmt.Errorf("unavailable")
	// ErrUnauthorized indicates the signer cannot author this transaction.
	ErrUnauthorized = fmt.Errorf("unauthorized")
	// ErrConflict indicates the ledger rejected a swap because the
	// repository moved since it was last read.
	ErrConflict = fmt.Errorf("conflict")
)

// ProtocolError wraps a malformed command from git or an unparsable URL.
type ProtocolError struct {
	Msg string
}

func (e *ProtocolError) Error() string { return "protocol: " + e.Msg }

// NewProtocolError builds a ProtocolError.
func NewProtocolError(format string, a ...interface{}) error {
	return &ProtocolError{Msg: fmt.Sprintf(format, a...)}
}

// IntegrityError indicates a decoded object's bytes did not hash to the
// declared OID, or a manifest/MultiObject is missing an OID it should
// contain.
type IntegrityError struct {
	Msg string
}

func (e *IntegrityError) Error() string { return "integrity: " + e.Msg }

// NewIntegrityError builds an IntegrityError.
func NewIntegrityError(format string, a ...interface{}) error {
	return &IntegrityError{Msg: fmt.Sprintf(format, a...)}
}

// LocalError wraps a local ODB or working-copy error.
type LocalError struct {
	Msg string
	Err error
}

func (e *LocalError) Error() string {
	if e.Err != nil {
		return "local: " + e.Msg + ": " + e.Err.Error()
	}
	return "local: " + e.Msg
}

func (e *LocalError) Unwrap() error { return e.Err }

// NewLocalError wraps err with a local-ODB-error classification.
func NewLocalError(msg string, err error) error {
	return &LocalError{Msg: msg, Err: err}
}

// IsNotFound reports whether err is (or wraps) ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err is (or wraps) ErrConflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsUnavailable reports whether err is (or wraps) ErrUnavailable.
func IsUnavailable(err error) bool { return errors.Is(err, ErrUnavailable) }

// IsIntegrity reports whether err is (or wraps) an *IntegrityError.
func IsIntegrity(err error) bool {
	var target *IntegrityError
	return errors.As(err, &target)
}

// IsProtocol reports whether err is (or wraps) a *ProtocolError.
func IsProtocol(err error) bool {
	var target *ProtocolError
	return errors.As(err, &target)
}
