// Package cas implements the address codec and blobstore client:
// converting between the ledger's raw 32-byte digests and the CAS's
// string content identifiers, and putting/getting opaque bytes.
package cas

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/pkg/errors"
)

// DigestSize is the length of the raw SHA-256 digest the ledger
// stores for every blob reference.
const DigestSize = 32

// DigestToCID wraps a 32-byte SHA-256 digest in a CIDv0 multihash
// (the `0x12 0x20 || d` form) and renders it base58btc-encoded.
func DigestToCID(digest [DigestSize]byte) (string, error) {
	mh, err := multihash.Encode(digest[:], multihash.SHA2_256)
	if err != nil {
		return "", errors.Wrap(err, "encode multihash")
	}
	c := cid.NewCidV0(mh)
	return c.String(), nil
}

// CIDToDigest is the inverse of DigestToCID: it parses c and returns
// the trailing 32 bytes of its multihash digest.
func CIDToDigest(c string) ([DigestSize]byte, error) {
	var out [DigestSize]byte
	parsed, err := cid.Decode(c)
	if err != nil {
		return out, errors.Wrapf(err, "decode cid %q", c)
	}
	decoded, err := multihash.Decode(parsed.Hash())
	if err != nil {
		return out, errors.Wrapf(err, "decode multihash of cid %q", c)
	}
	if len(decoded.Digest) != DigestSize {
		return out, errors.Errorf("cid %q: digest is %d bytes, want %d", c, len(decoded.Digest), DigestSize)
	}
	copy(out[:], decoded.Digest)
	return out, nil
}
