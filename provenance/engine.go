// Package provenance orchestrates the core protocol: registering signed
// authorship records, verifying candidate files against them, resolving
// matches, and the signature-authorized delete flow.
//
// The engine holds no records and no caches; the injected store is the
// only shared mutable state. Every cryptographic step is a pure
// computation over its inputs.
package provenance

import (
	"context"
	"fmt"
	"strings"

	"github.com/chewton2k/Imprint/canonical"
	"github.com/chewton2k/Imprint/fingerprint"
	"github.com/chewton2k/Imprint/keys"
	"github.com/chewton2k/Imprint/model"
	"github.com/chewton2k/Imprint/phash"
	"github.com/chewton2k/Imprint/resolve"
	"github.com/chewton2k/Imprint/signing"
	"github.com/chewton2k/Imprint/store"
)

// Engine wires the protocol components around an injected record store.
type Engine struct {
	Store store.Store

	// Decoder decodes images for perceptual fingerprinting;
	// phash.StdDecoder when nil.
	Decoder phash.Decoder

	// Clock drives signing timestamps and the authorization window; the
	// real clock when nil.
	Clock signing.Clock
}

func New(s store.Store) *Engine {
	return &Engine{Store: s}
}

func (e *Engine) clock() signing.Clock {
	if e.Clock != nil {
		return e.Clock
	}
	return signing.RealClock{}
}

// RegisterRequest carries everything a creator supplies at registration.
// The private key is used to sign and is never persisted.
type RegisterRequest struct {
	Content     []byte
	Title       string
	ContentType string
	Policy      model.UsagePolicy
	Creator     *keys.KeyPair
}

// Register fingerprints the content, canonicalizes the record fields,
// signs them, and submits the resulting record. The original bytes are
// never stored or transmitted.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*model.ProvenanceRecord, error) {
	if req.Creator == nil {
		return nil, model.NewError(model.ErrMalformedInput, "missing creator keypair")
	}
	if req.ContentType == "" {
		return nil, model.NewError(model.ErrMalformedInput, "missing content type")
	}
	for _, p := range []model.Permission{req.Policy.AITraining, req.Policy.AIDerivativeGeneration, req.Policy.CommercialUse} {
		if !p.Valid() {
			return nil, model.NewError(model.ErrMalformedInput, fmt.Sprintf("usage policy grant %q is not ALLOWED or DENIED", p))
		}
	}

	contentHash := fingerprint.Content(req.Content)

	perceptualHash := ""
	if isImage(req.ContentType) {
		ph, err := phash.FromImage(req.Content, e.Decoder)
		if err != nil {
			return nil, err
		}
		perceptualHash = ph
	}

	creatorID, err := req.Creator.DID()
	if err != nil {
		return nil, err
	}

	signedAt := e.clock().Now().UTC().Format(model.SignedAtLayout)
	payload := canonical.Payload(canonical.PayloadFields{
		ContentHash: contentHash,
		ContentType: req.ContentType,
		CreatorID:   creatorID,
		SignedAt:    signedAt,
		Title:       req.Title,
		Policy:      req.Policy,
	})

	sig, err := signing.SignEd25519(payload, signing.DefaultHashAlg, req.Creator.PrivateKey)
	if err != nil {
		return nil, err
	}
	id, err := fingerprint.RecordID(payload)
	if err != nil {
		return nil, err
	}

	record := &model.ProvenanceRecord{
		ID:             id,
		Title:          req.Title,
		ContentType:    req.ContentType,
		CreatorID:      creatorID,
		PublicKey:      req.Creator.PublicHex(),
		ContentHash:    contentHash,
		PerceptualHash: perceptualHash,
		Policy:         req.Policy,
		PayloadHash:    fingerprint.Content(payload),
		Signature:      sig,
		SignatureAlg:   signing.AlgEd25519,
		HashAlg:        signing.DefaultHashAlg,
		SignedAt:       signedAt,
	}
	if _, err := e.Store.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// VerifyStatus classifies a verification outcome.
type VerifyStatus string

const (
	// StatusVerified means the content fingerprint matches and the stored
	// signature verifies over the reconstructed canonical payload.
	StatusVerified VerifyStatus = "VERIFIED"

	// StatusHashMismatch means the candidate bytes differ from the
	// registered content.
	StatusHashMismatch VerifyStatus = "HASH_MISMATCH"

	// StatusSignatureInvalid means the stored fields and signature do not
	// agree: a tamper signal.
	StatusSignatureInvalid VerifyStatus = "SIGNATURE_INVALID"
)

// VerifyOutcome reports a verification against one record.
type VerifyOutcome struct {
	Status VerifyStatus
	Record *model.ProvenanceRecord
}

// VerifyContent checks candidate bytes against a stored record: it
// recomputes the content fingerprint, rebuilds the canonical payload from
// stored fields, and verifies the stored signature over it. The transported
// serialization of the record is never trusted.
func (e *Engine) VerifyContent(ctx context.Context, recordID string, content []byte) (*VerifyOutcome, error) {
	rec, err := e.Store.FindByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if fingerprint.Content(content) != rec.ContentHash {
		return &VerifyOutcome{Status: StatusHashMismatch, Record: rec}, nil
	}
	if !verifyRecordSignature(rec) {
		return &VerifyOutcome{Status: StatusSignatureInvalid, Record: rec}, nil
	}
	return &VerifyOutcome{Status: StatusVerified, Record: rec}, nil
}

// Candidate is one resolver match plus the result of re-verifying the
// candidate record's own signature. A perceptual match located a record;
// it proves nothing until the signature checks out.
type Candidate struct {
	Record         *model.ProvenanceRecord
	Distance       int
	SignatureValid bool
}

// ResolveResult is a resolution outcome with per-candidate signature
// verification.
type ResolveResult struct {
	Status     resolve.Status
	Candidates []Candidate
}

// ResolveContent fingerprints content and resolves it against the store:
// exact match first, perceptual fallback for images. Signature
// verification is never skipped because a perceptual match located the
// record.
func (e *Engine) ResolveContent(ctx context.Context, content []byte, contentType string) (*ResolveResult, error) {
	contentHash := fingerprint.Content(content)

	perceptualHash := ""
	if isImage(contentType) {
		ph, err := phash.FromImage(content, e.Decoder)
		if err != nil {
			return nil, err
		}
		perceptualHash = ph
	}

	res, err := resolve.New(e.Store).Resolve(ctx, contentHash, perceptualHash)
	if err != nil {
		return nil, err
	}
	out := &ResolveResult{Status: res.Status}
	for _, m := range res.Matches {
		out.Candidates = append(out.Candidates, Candidate{
			Record:         m.Record,
			Distance:       m.Distance,
			SignatureValid: verifyRecordSignature(m.Record),
		})
	}
	return out, nil
}

// AuthorizeDeletion signs a deletion proof for a record with the creator's
// private key at the engine clock's current time.
func (e *Engine) AuthorizeDeletion(recordID string, creator *keys.KeyPair) (signing.ActionProof, error) {
	if creator == nil {
		return signing.ActionProof{}, model.NewError(model.ErrMalformedInput, "missing creator keypair")
	}
	return signing.SignAction(signing.ActionDelete, recordID, creator.PrivateKey, e.clock())
}

// Delete destroys a record after the action-authorization check passes.
// With verifyOnly it runs the signature and freshness checks without the
// side effect, so a caller can confirm authorization before presenting an
// irreversible confirmation step.
func (e *Engine) Delete(ctx context.Context, recordID string, proof signing.ActionProof, verifyOnly bool) error {
	rec, err := e.Store.FindByID(ctx, recordID)
	if err != nil {
		return err
	}
	pub, err := keys.ParsePublicHex(rec.PublicKey)
	if err != nil {
		return err
	}
	if err := signing.VerifyAction(signing.ActionDelete, recordID, proof, pub, e.clock()); err != nil {
		return err
	}
	if verifyOnly {
		return nil
	}
	return e.Store.Delete(ctx, recordID)
}

// verifyRecordSignature rebuilds a record's canonical payload and checks
// the stored signature under the record's own algorithm fields.
func verifyRecordSignature(rec *model.ProvenanceRecord) bool {
	payload := canonical.RecordPayload(rec)
	if fingerprint.Content(payload) != rec.PayloadHash {
		return false
	}
	return signing.Verify(payload, rec.SignatureAlg, rec.HashAlg, rec.Signature, rec.PublicKey)
}

func isImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}
