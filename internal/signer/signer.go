// Package signer provides a minimal Signer so cmd/git-remote-inv4 has
// something concrete to hand the ledger client. A real deployment
// replaces this with its own keystore-backed credential collaborator.
package signer

import (
	"crypto/ed25519"
	"encoding/hex"
	"os"

	"github.com/pkg/errors"
)

// EnvPrivateKeyHex names the environment variable this stub reads a
// hex-encoded Ed25519 seed from.
const EnvPrivateKeyHex = "INV4_SIGNING_KEY"

// Ed25519Signer implements ledger.Signer over a raw in-memory Ed25519
// key.
type Ed25519Signer struct {
	accountID string
	priv      ed25519.PrivateKey
}

// FromEnv builds a signer from EnvPrivateKeyHex, or returns an error
// naming the variable if it is unset or malformed.
func FromEnv() (*Ed25519Signer, error) {
	hexSeed := os.Getenv(EnvPrivateKeyHex)
	if hexSeed == "" {
		return nil, errors.Errorf("%s is not set; no signer available", EnvPrivateKeyHex)
	}
	seed, err := hex.DecodeString(hexSeed)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", EnvPrivateKeyHex)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, errors.Errorf("%s: seed is %d bytes, want %d", EnvPrivateKeyHex, len(seed), ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &Ed25519Signer{accountID: hex.EncodeToString(pub), priv: priv}, nil
}

func (s *Ed25519Signer) AccountID() string { return s.accountID }

func (s *Ed25519Signer) Sign(payload []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, payload), nil
}
