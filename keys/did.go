package keys

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/multiformats/go-multibase"
	"github.com/multiformats/go-varint"

	"github.com/chewton2k/Imprint/model"
)

// didKeyPrefix is the scheme label for did:key identity strings.
const didKeyPrefix = "did:key:"

// ed25519PubCodec is the multicodec code for an Ed25519 public key. Its
// varint form is the fixed two-byte tag 0xed 0x01 that prefixes the key
// bytes before multibase encoding.
const ed25519PubCodec = 0xed

// DeriveDID derives the portable identity string for an Ed25519 public key:
//
//	did:key:z<base58btc(varint(0xed) || pubkey)>
//
// Derivation is pure and one-way: the same public key always yields the
// same identity string, and nothing but the public key goes in.
func DeriveDID(pub ed25519.PublicKey) (string, error) {
	if len(pub) != ed25519.PublicKeySize {
		return "", model.NewError(model.ErrMalformedInput,
			fmt.Sprintf("ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, len(pub)))
	}
	tagged := append(varint.ToUvarint(ed25519PubCodec), pub...)
	enc, err := multibase.Encode(multibase.Base58BTC, tagged)
	if err != nil {
		return "", model.WrapError(model.ErrInternal, "multibase encoding failed", err)
	}
	return didKeyPrefix + enc, nil
}

// DecodeDID recovers the Ed25519 public key embedded in a did:key identity
// string. Every malformation is rejected as MALFORMED_INPUT before any
// cryptographic use.
func DecodeDID(did string) (ed25519.PublicKey, error) {
	if !strings.HasPrefix(did, didKeyPrefix) {
		return nil, model.NewError(model.ErrMalformedInput, "identity must use the did:key scheme")
	}
	enc, tagged, err := multibase.Decode(strings.TrimPrefix(did, didKeyPrefix))
	if err != nil {
		return nil, model.WrapError(model.ErrMalformedInput, "invalid multibase identity", err)
	}
	if enc != multibase.Base58BTC {
		return nil, model.NewError(model.ErrMalformedInput, "identity must be base58btc (z) encoded")
	}
	code, n, err := varint.FromUvarint(tagged)
	if err != nil || code != ed25519PubCodec {
		return nil, model.NewError(model.ErrMalformedInput, "identity does not carry an ed25519 key tag")
	}
	pub := tagged[n:]
	if len(pub) != ed25519.PublicKeySize {
		return nil, model.NewError(model.ErrMalformedInput,
			fmt.Sprintf("identity key must be %d bytes, got %d", ed25519.PublicKeySize, len(pub)))
	}
	return ed25519.PublicKey(bytes.Clone(pub)), nil
}
