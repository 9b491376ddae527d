// Package keys manages creator identity: Ed25519 keypair generation, the
// hex exchange encoding for both key halves, and the did:key identity
// string derived from a public key.
//
// Stable (SemVer-protected):
//   - Pure, deterministic primitives: DID derivation and decoding, hex codecs.
//
// Experimental:
//   - Filesystem-backed key storage (KeyStore). A local-first convenience
//     for the CLI, not part of the protocol contract.
package keys
