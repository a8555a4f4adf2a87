package inv4test

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"github.com/abstracted-labs/inv4-git/internal/objects"
)

// FakeHash reproduces git's own object-hashing convention (the
// "<type> <len>\0<data>" SHA-1 scheme) so FakeLocalRepo.WriteObject
// recomputes identity the same way a real ODB would, letting
// integrity-failure tests trigger a genuine mismatch rather than a
// contrived one.
func FakeHash(kind objects.Kind, data []byte) objects.OID {
	h := sha1.New()
	fmt.Fprintf(h, "%s %d\x00", kind.String(), len(data))
	h.Write(data)
	return objects.OID(hex.EncodeToString(h.Sum(nil)))
}
