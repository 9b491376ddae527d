package model

import "time"

// Permission is a usage-policy grant value.
type Permission string

const (
	PermissionAllowed Permission = "ALLOWED"
	PermissionDenied  Permission = "DENIED"
)

// Valid reports whether p is one of the two defined grant values.
func (p Permission) Valid() bool {
	return p == PermissionAllowed || p == PermissionDenied
}

// UsagePolicy is a pure value object embedded by value in a record.
// It has no identity of its own.
type UsagePolicy struct {
	License                string     `cbor:"license" json:"license"`
	AITraining             Permission `cbor:"ai_training" json:"ai_training"`
	AIDerivativeGeneration Permission `cbor:"ai_derivative_generation" json:"ai_derivative_generation"`
	CommercialUse          Permission `cbor:"commercial_use" json:"commercial_use"`
	AttributionRequired    bool       `cbor:"attribution_required" json:"attribution_required"`
	PolicyNote             string     `cbor:"policy_note" json:"policy_note"`
}

// SignedAtLayout is the canonical textual form of a record's signing
// timestamp: ISO-8601 UTC with millisecond precision. The record stores
// the rendered string so the payload reconstructed at verify time is
// byte-identical to the one originally signed.
const SignedAtLayout = "2006-01-02T15:04:05.000Z"

// ProvenanceRecord is the aggregate persisted by a record store.
//
// PublicKey is the creator's public key in lowercase hex; the private key
// never reaches a store. PerceptualHash is empty for non-image content.
type ProvenanceRecord struct {
	ID             string      `cbor:"id" json:"id"`
	Title          string      `cbor:"title" json:"title"`
	ContentType    string      `cbor:"content_type" json:"content_type"`
	CreatorID      string      `cbor:"creator_id" json:"creator_id"`
	PublicKey      string      `cbor:"public_key" json:"public_key"`
	ContentHash    string      `cbor:"content_hash" json:"content_hash"`
	PerceptualHash string      `cbor:"perceptual_hash,omitempty" json:"perceptual_hash,omitempty"`
	Policy         UsagePolicy `cbor:"usage_policy" json:"usage_policy"`
	PayloadHash    string      `cbor:"payload_hash" json:"payload_hash"`
	Signature      string      `cbor:"signature" json:"signature"`
	SignatureAlg   string      `cbor:"signature_alg" json:"signature_alg"`
	HashAlg        string      `cbor:"hash_alg" json:"hash_alg"`
	SignedAt       string      `cbor:"signed_at" json:"signed_at"`
}

// SignedAtTime parses the record's canonical signing timestamp.
func (r *ProvenanceRecord) SignedAtTime() (time.Time, error) {
	return time.Parse(SignedAtLayout, r.SignedAt)
}

// Clone returns a deep copy. Stores hand out clones so callers can never
// mutate persisted state in place.
func (r *ProvenanceRecord) Clone() *ProvenanceRecord {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}
