// Package store defines the record-store contract the provenance core
// consumes, plus an in-memory implementation.
//
// Contract:
//   - Create MUST be atomic per call (no partial record ever visible) and
//     idempotent for a byte-identical record under the same ID.
//   - Stored records MUST be immutable; re-creating an ID with different
//     contents is an error, and there is no update operation.
//   - FindByContentHash MUST order results by ascending signing time
//     (earliest = presumptive original).
//   - Lookups MUST return ErrNotFound when nothing matches an ID.
package store

import (
	"context"
	"encoding/hex"
	"errors"

	"github.com/chewton2k/Imprint/model"
)

var (
	ErrNotFound      = errors.New("store: record not found")
	ErrInvalidRecord = errors.New("store: invalid record")
	ErrImmutable     = errors.New("store: record is immutable")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// Creator accepts new records.
type Creator interface {
	Create(ctx context.Context, r *model.ProvenanceRecord) (string, error)
}

// Finder retrieves a record by its ID.
type Finder interface {
	FindByID(ctx context.Context, id string) (*model.ProvenanceRecord, error)
}

// Searcher serves the two lookup tiers of match resolution.
type Searcher interface {
	FindByContentHash(ctx context.Context, contentHash string) ([]*model.ProvenanceRecord, error)
	FindAllWithPerceptualHash(ctx context.Context) ([]*model.ProvenanceRecord, error)
}

// Deleter removes a record. Callers are responsible for running the
// action-authorization check first; a Deleter itself never re-verifies.
type Deleter interface {
	Delete(ctx context.Context, id string) error
}

// Store is the full record-store surface.
type Store interface {
	Creator
	Finder
	Searcher
	Deleter
}

// ValidateRecord rejects records that could never have come from a
// successful sign-and-submit. Malformed records are refused before any
// storage work.
func ValidateRecord(r *model.ProvenanceRecord) error {
	if r == nil || r.ID == "" {
		return ErrInvalidRecord
	}
	if !isHex(r.ContentHash, 64) {
		return ErrInvalidRecord
	}
	if r.PerceptualHash != "" && !isHex(r.PerceptualHash, 16) {
		return ErrInvalidRecord
	}
	if r.CreatorID == "" || r.PublicKey == "" || r.Signature == "" || r.SignatureAlg == "" || r.HashAlg == "" {
		return ErrInvalidRecord
	}
	if _, err := r.SignedAtTime(); err != nil {
		return ErrInvalidRecord
	}
	return nil
}

func isHex(s string, length int) bool {
	if len(s) != length {
		return false
	}
	b, err := hex.DecodeString(s)
	return err == nil && len(b) == length/2
}
