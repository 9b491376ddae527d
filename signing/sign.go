// Package signing produces and checks signatures over canonical payloads,
// and implements the short-lived action-authorization protocol used for
// destructive operations.
//
// Signing is digest-then-sign: the payload is hashed with a named digest
// algorithm and the digest is signed. ed25519 is the protocol default;
// dilithium3 (post-quantum) is supported for externally produced records.
package signing

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"

	"github.com/chewton2k/Imprint/model"
)

// Signature algorithms.
const (
	AlgEd25519    = "ed25519"
	AlgDilithium3 = "dilithium3"
)

// Digest algorithms.
const (
	HashSHA256  = "sha256"
	HashSHA512  = "sha512"
	HashSHA3256 = "sha3-256"
)

// DefaultHashAlg is the digest used unless a record says otherwise.
const DefaultHashAlg = HashSHA256

// DigestFor hashes message with the named digest algorithm.
func DigestFor(hashAlg string, message []byte) ([]byte, error) {
	switch hashAlg {
	case HashSHA256:
		s := sha256.Sum256(message)
		return s[:], nil
	case HashSHA512:
		s := sha512.Sum512(message)
		return s[:], nil
	case HashSHA3256:
		s := sha3.Sum256(message)
		return s[:], nil
	default:
		return nil, model.NewError(model.ErrMalformedInput, fmt.Sprintf("unsupported hash algorithm %q", hashAlg))
	}
}

// SignEd25519 returns a base64 ed25519 signature over hashAlg(payload).
// It fails only on a malformed key or an unknown digest.
func SignEd25519(payload []byte, hashAlg string, privateKey ed25519.PrivateKey) (string, error) {
	if len(privateKey) != ed25519.PrivateKeySize {
		return "", model.NewError(model.ErrMalformedInput,
			fmt.Sprintf("ed25519 private key must be %d bytes, got %d", ed25519.PrivateKeySize, len(privateKey)))
	}
	digest, err := DigestFor(hashAlg, payload)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(ed25519.Sign(privateKey, digest)), nil
}

// VerifyEd25519 is a pure predicate: it returns false for any malformed
// input and never panics.
func VerifyEd25519(payload []byte, hashAlg, signatureB64 string, publicKey ed25519.PublicKey) bool {
	if len(publicKey) != ed25519.PublicKeySize {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	digest, err := DigestFor(hashAlg, payload)
	if err != nil {
		return false
	}
	return ed25519.Verify(publicKey, digest, sig)
}

// SignDilithium3 returns a base64 dilithium3 signature over hashAlg(payload).
func SignDilithium3(payload []byte, hashAlg string, privateKey *mode3.PrivateKey) (string, error) {
	if privateKey == nil {
		return "", model.NewError(model.ErrMalformedInput, "missing dilithium3 private key")
	}
	digest, err := DigestFor(hashAlg, payload)
	if err != nil {
		return "", err
	}
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(privateKey, digest, sig)
	return base64.StdEncoding.EncodeToString(sig), nil
}

// VerifyDilithium3 is the dilithium3 counterpart of VerifyEd25519.
func VerifyDilithium3(payload []byte, hashAlg, signatureB64 string, publicKey *mode3.PublicKey) bool {
	if publicKey == nil {
		return false
	}
	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil || len(sig) != mode3.SignatureSize {
		return false
	}
	digest, err := DigestFor(hashAlg, payload)
	if err != nil {
		return false
	}
	return mode3.Verify(publicKey, digest, sig)
}

// GenerateDilithium3Keypair returns a new dilithium3 keypair.
func GenerateDilithium3Keypair(rand io.Reader) (*mode3.PublicKey, *mode3.PrivateKey, error) {
	return mode3.GenerateKey(rand)
}

// Verify checks a signature against a record's stored algorithm fields and
// hex-encoded public key. Like the per-algorithm predicates it returns
// false on any malformed input.
func Verify(payload []byte, sigAlg, hashAlg, signatureB64, publicKeyHex string) bool {
	pub, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return false
	}
	switch sigAlg {
	case AlgEd25519:
		if len(pub) != ed25519.PublicKeySize {
			return false
		}
		return VerifyEd25519(payload, hashAlg, signatureB64, ed25519.PublicKey(pub))
	case AlgDilithium3:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return false
		}
		return VerifyDilithium3(payload, hashAlg, signatureB64, &pk)
	default:
		return false
	}
}
