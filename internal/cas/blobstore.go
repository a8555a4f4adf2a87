package cas

// Blobstore puts and gets opaque, content-addressed bytes. Put is
// idempotent, and there is no listing or enumeration operation.
type Blobstore interface {
	// Put stores data and returns the CID equal to
	// DigestToCID(sha256(data)). Fails with inv4err.ErrUnavailable on
	// transport error.
	Put(data []byte) (string, error)

	// Get returns the full content addressed by cid. Fails with
	// inv4err.ErrNotFound or inv4err.ErrUnavailable.
	Get(cid string) ([]byte, error)
}
