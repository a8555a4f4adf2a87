package cas

import (
	"bytes"
	"compress/flate"
	"io"

	"github.com/pkg/errors"
)

// CompressingBlobstore wraps a Blobstore with transparent flate
// compression of blob bytes (supplemented from the original
// implementation's compression.rs; not part of the core Blobstore
// contract, so it stays an optional decorator wired only at the CLI
// entry point).
type CompressingBlobstore struct {
	inner Blobstore
}

// NewCompressingBlobstore wraps inner.
func NewCompressingBlobstore(inner Blobstore) *CompressingBlobstore {
	return &CompressingBlobstore{inner: inner}
}

func (c *CompressingBlobstore) Put(data []byte) (string, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestSpeed)
	if err != nil {
		return "", errors.Wrap(err, "open compressor")
	}
	if _, err := w.Write(data); err != nil {
		return "", errors.Wrap(err, "compress blob")
	}
	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "flush compressor")
	}
	return c.inner.Put(buf.Bytes())
}

func (c *CompressingBlobstore) Get(cid string) ([]byte, error) {
	compressed, err := c.inner.Get(cid)
	if err != nil {
		return nil, err
	}
	r := flate.NewReader(bytes.NewReader(compressed))
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "decompress blob %s", cid)
	}
	return data, nil
}
