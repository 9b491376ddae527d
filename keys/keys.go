package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/chewton2k/Imprint/model"
)

// KeyPair holds an Ed25519 keypair. Both halves are exchanged externally
// as lowercase hex; the private half never reaches a record store.
type KeyPair struct {
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
}

// Generate creates a fresh keypair from the operating system's secure
// random source. A failing source aborts generation entirely; there is no
// weaker fallback.
func Generate() (*KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("keys: secure random source unavailable: %w", err)
	}
	return &KeyPair{PrivateKey: priv, PublicKey: pub}, nil
}

// FromSeed reconstructs a keypair from a 32-byte Ed25519 seed.
func FromSeed(seed []byte) (*KeyPair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, model.NewError(model.ErrMalformedInput,
			fmt.Sprintf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed)))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &KeyPair{PrivateKey: priv, PublicKey: priv.Public().(ed25519.PublicKey)}, nil
}

// PublicHex returns the 32-byte public key as lowercase hex.
func (k *KeyPair) PublicHex() string {
	return hex.EncodeToString(k.PublicKey)
}

// PrivateHex returns the 32-byte private seed as lowercase hex. Go's
// ed25519.PrivateKey carries the public suffix; only the seed is exchanged.
func (k *KeyPair) PrivateHex() string {
	return hex.EncodeToString(k.PrivateKey.Seed())
}

// DID derives the keypair's portable identity string.
func (k *KeyPair) DID() (string, error) {
	return DeriveDID(k.PublicKey)
}

// ParsePublicHex decodes a lowercase-hex Ed25519 public key, rejecting
// malformed encodings before any cryptographic work.
func ParsePublicHex(s string) (ed25519.PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, model.WrapError(model.ErrMalformedInput, "public key is not valid hex", err)
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, model.NewError(model.ErrMalformedInput,
			fmt.Sprintf("ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, len(b)))
	}
	return ed25519.PublicKey(b), nil
}

// ParsePrivateHex decodes a lowercase-hex 32-byte seed into a keypair.
func ParsePrivateHex(s string) (*KeyPair, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, model.WrapError(model.ErrMalformedInput, "private key is not valid hex", err)
	}
	return FromSeed(b)
}
