package canonical

import "github.com/chewton2k/Imprint/model"

// PayloadFields is the logical field set a provenance signature covers.
// SignedAt must already be in the canonical model.SignedAtLayout form.
type PayloadFields struct {
	ContentHash string
	ContentType string
	CreatorID   string
	SignedAt    string
	Title       string
	Policy      model.UsagePolicy
}

// Payload serializes the field set into the canonical signable byte string.
// Key order is fixed by the serializer, not by this assembly.
func Payload(f PayloadFields) []byte {
	return Marshal(Map{
		"content_hash": String(f.ContentHash),
		"content_type": String(f.ContentType),
		"creator_id":   String(f.CreatorID),
		"signed_at":    String(f.SignedAt),
		"title":        String(f.Title),
		"usage_policy": Map{
			"ai_derivative_generation": String(f.Policy.AIDerivativeGeneration),
			"ai_training":              String(f.Policy.AITraining),
			"attribution_required":     Bool(f.Policy.AttributionRequired),
			"commercial_use":           String(f.Policy.CommercialUse),
			"license":                  String(f.Policy.License),
			"policy_note":              String(f.Policy.PolicyNote),
		},
	})
}

// RecordPayload reconstructs the exact canonical bytes a stored record's
// signature was computed over. Verification always recomputes the payload
// from stored fields instead of trusting any transported serialization.
func RecordPayload(r *model.ProvenanceRecord) []byte {
	return Payload(PayloadFields{
		ContentHash: r.ContentHash,
		ContentType: r.ContentType,
		CreatorID:   r.CreatorID,
		SignedAt:    r.SignedAt,
		Title:       r.Title,
		Policy:      r.Policy,
	})
}
