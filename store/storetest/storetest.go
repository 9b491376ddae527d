// Package storetest provides record fixtures and a conformance suite every
// Store implementation must pass.
package storetest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/chewton2k/Imprint/model"
	"github.com/chewton2k/Imprint/store"
)

// Record builds a structurally valid record. seed varies every identity
// field so distinct seeds never collide.
func Record(t *testing.T, seed int) *model.ProvenanceRecord {
	t.Helper()
	contentSum := sha256.Sum256([]byte(fmt.Sprintf("content-%d", seed)))
	keySum := sha256.Sum256([]byte(fmt.Sprintf("key-%d", seed)))
	signedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC).
		Add(time.Duration(seed) * time.Minute).
		Format(model.SignedAtLayout)
	return &model.ProvenanceRecord{
		ID:           fmt.Sprintf("rec-%d", seed),
		Title:        fmt.Sprintf("title %d", seed),
		ContentType:  "text/plain",
		CreatorID:    fmt.Sprintf("did:key:zTest%d", seed),
		PublicKey:    hex.EncodeToString(keySum[:]),
		ContentHash:  hex.EncodeToString(contentSum[:]),
		Policy:       model.UsagePolicy{License: "CC0", AITraining: model.PermissionDenied, AIDerivativeGeneration: model.PermissionDenied, CommercialUse: model.PermissionAllowed},
		PayloadHash:  hex.EncodeToString(contentSum[:]),
		Signature:    "c2lnbmF0dXJl",
		SignatureAlg: "ed25519",
		HashAlg:      "sha256",
		SignedAt:     signedAt,
	}
}

// ImageRecord is Record with a perceptual hash attached.
func ImageRecord(t *testing.T, seed int, perceptualHash string) *model.ProvenanceRecord {
	t.Helper()
	r := Record(t, seed)
	r.ContentType = "image/png"
	r.PerceptualHash = perceptualHash
	return r
}

// RunSuite exercises the Store contract against a fresh implementation per
// subtest.
func RunSuite(t *testing.T, open func(t *testing.T) store.Store) {
	ctx := context.Background()

	t.Run("CreateAndFindByID", func(t *testing.T) {
		s := open(t)
		r := Record(t, 1)
		id, err := s.Create(ctx, r)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if id != r.ID {
			t.Fatalf("Create returned %q, want %q", id, r.ID)
		}
		got, err := s.FindByID(ctx, id)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if *got != *r {
			t.Fatalf("stored record differs:\n got %+v\nwant %+v", got, r)
		}

		// Mutating the returned record must not affect stored state.
		got.Title = "mutated"
		again, err := s.FindByID(ctx, id)
		if err != nil {
			t.Fatalf("FindByID: %v", err)
		}
		if again.Title != r.Title {
			t.Fatal("store handed out shared mutable state")
		}
	})

	t.Run("CreateIdempotentAndImmutable", func(t *testing.T) {
		s := open(t)
		r := Record(t, 2)
		if _, err := s.Create(ctx, r); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if _, err := s.Create(ctx, r.Clone()); err != nil {
			t.Fatalf("idempotent re-create failed: %v", err)
		}
		changed := r.Clone()
		changed.Title = "rewritten history"
		if _, err := s.Create(ctx, changed); !errors.Is(err, store.ErrImmutable) {
			t.Fatalf("conflicting re-create: got %v, want ErrImmutable", err)
		}
	})

	t.Run("CreateRejectsMalformed", func(t *testing.T) {
		s := open(t)
		bad := Record(t, 3)
		bad.ContentHash = "zzzz"
		if _, err := s.Create(ctx, bad); !errors.Is(err, store.ErrInvalidRecord) {
			t.Fatalf("got %v, want ErrInvalidRecord", err)
		}
		bad = Record(t, 3)
		bad.SignedAt = "yesterday"
		if _, err := s.Create(ctx, bad); !errors.Is(err, store.ErrInvalidRecord) {
			t.Fatalf("got %v, want ErrInvalidRecord", err)
		}
	})

	t.Run("FindByIDNotFound", func(t *testing.T) {
		s := open(t)
		if _, err := s.FindByID(ctx, "rec-missing"); !store.IsNotFound(err) {
			t.Fatalf("got %v, want ErrNotFound", err)
		}
	})

	t.Run("FindByContentHashOrdersBySignedAt", func(t *testing.T) {
		s := open(t)
		// Same content registered three times, newest first.
		newest, middle, oldest := Record(t, 30), Record(t, 20), Record(t, 10)
		middle.ContentHash = newest.ContentHash
		oldest.ContentHash = newest.ContentHash
		for _, r := range []*model.ProvenanceRecord{newest, middle, oldest} {
			if _, err := s.Create(ctx, r); err != nil {
				t.Fatalf("Create: %v", err)
			}
		}
		got, err := s.FindByContentHash(ctx, newest.ContentHash)
		if err != nil {
			t.Fatalf("FindByContentHash: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("found %d records, want 3", len(got))
		}
		if got[0].ID != oldest.ID || got[1].ID != middle.ID || got[2].ID != newest.ID {
			t.Fatalf("wrong order: %s, %s, %s", got[0].ID, got[1].ID, got[2].ID)
		}

		other, err := s.FindByContentHash(ctx, Record(t, 99).ContentHash)
		if err != nil {
			t.Fatalf("FindByContentHash(miss): %v", err)
		}
		if len(other) != 0 {
			t.Fatalf("unexpected matches: %d", len(other))
		}
	})

	t.Run("FindAllWithPerceptualHash", func(t *testing.T) {
		s := open(t)
		img1 := ImageRecord(t, 1, "00000000000000ff")
		img2 := ImageRecord(t, 2, "ff00000000000000")
		plain := Record(t, 3)
		for _, r := range []*model.ProvenanceRecord{img1, img2, plain} {
			if _, err := s.Create(ctx, r); err != nil {
				t.Fatalf("Create: %v", err)
			}
		}
		got, err := s.FindAllWithPerceptualHash(ctx)
		if err != nil {
			t.Fatalf("FindAllWithPerceptualHash: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("found %d records, want 2", len(got))
		}
		for _, r := range got {
			if r.PerceptualHash == "" {
				t.Fatalf("record %s has no perceptual hash", r.ID)
			}
		}
	})

	t.Run("Delete", func(t *testing.T) {
		s := open(t)
		r := Record(t, 4)
		if _, err := s.Create(ctx, r); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if err := s.Delete(ctx, r.ID); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if _, err := s.FindByID(ctx, r.ID); !store.IsNotFound(err) {
			t.Fatalf("record survived deletion: %v", err)
		}
		if err := s.Delete(ctx, r.ID); !store.IsNotFound(err) {
			t.Fatalf("double delete: got %v, want ErrNotFound", err)
		}
	})
}
