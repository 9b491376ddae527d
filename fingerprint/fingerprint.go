// Package fingerprint derives exact content fingerprints and record
// identifiers. Both are pure functions of their input bytes.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// Content returns the exact cryptographic fingerprint of raw bytes: the
// sha2-256 digest as 64 lowercase hex characters. Two fingerprints are
// equal iff the inputs are byte-identical.
func Content(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// RecordID derives a record's identifier from its canonical payload as a
// CIDv1 string using the "raw" multicodec and a sha2-256 multihash.
// Identical logical records therefore get identical IDs.
func RecordID(canonicalPayload []byte) (string, error) {
	id, err := RecordCID(canonicalPayload)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// RecordCID is RecordID returning the structured CID.
func RecordCID(canonicalPayload []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(canonicalPayload, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// ValidRecordID reports whether s parses as a defined CID.
func ValidRecordID(s string) bool {
	id, err := cid.Decode(s)
	return err == nil && id.Defined()
}
