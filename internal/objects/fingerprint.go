package objects

import (
	"bytes"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v4"
)

// Fingerprint computes the deterministic MultiObject label from an
// ordered OID list: a 64-bit xxhash of the canonical encoding of the
// list, rendered as a decimal string. It is a deduplication label,
// not a security primitive.
func Fingerprint(gitHashes []OID) (string, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := encodeOIDList(enc, gitHashes); err != nil {
		return "", err
	}
	sum := xxhash.Sum64(buf.Bytes())
	return strconv.FormatUint(sum, 10), nil
}
