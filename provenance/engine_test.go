package provenance

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/chewton2k/Imprint/fingerprint"
	"github.com/chewton2k/Imprint/keys"
	"github.com/chewton2k/Imprint/model"
	"github.com/chewton2k/Imprint/phash"
	"github.com/chewton2k/Imprint/resolve"
	"github.com/chewton2k/Imprint/signing"
	"github.com/chewton2k/Imprint/store"
)

type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStubClock() *stubClock {
	return &stubClock{now: time.Date(2026, time.August, 26, 10, 30, 0, 0, time.UTC)}
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newEngine(t *testing.T) (*Engine, *stubClock) {
	t.Helper()
	clock := newStubClock()
	return &Engine{Store: store.NewMemory(), Clock: clock}, clock
}

func newCreator(t *testing.T) *keys.KeyPair {
	t.Helper()
	kp, err := keys.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return kp
}

func testPolicy() model.UsagePolicy {
	return model.UsagePolicy{
		AITraining:             model.PermissionDenied,
		AIDerivativeGeneration: model.PermissionDenied,
		CommercialUse:          model.PermissionAllowed,
		AttributionRequired:    true,
		License:                "CC-BY-4.0",
	}
}

// texturePNG renders a deterministic smooth pseudo-random texture by
// bilinearly interpolating a seeded coarse grid, so re-renders at other
// sizes stay perceptually close to the original. Textured content keeps
// every retained frequency populated; a flat ramp would leave most of the
// hash as rounding noise.
func texturePNG(t *testing.T, size int) []byte {
	t.Helper()
	const cells = 8
	rng := rand.New(rand.NewSource(11))
	grid := make([][]float64, cells+1)
	for i := range grid {
		grid[i] = make([]float64, cells+1)
		for j := range grid[i] {
			grid[i][j] = rng.Float64() * 255
		}
	}
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			gx := float64(x) / float64(size-1) * cells
			gy := float64(y) / float64(size-1) * cells
			x0, y0 := int(gx), int(gy)
			if x0 >= cells {
				x0 = cells - 1
			}
			if y0 >= cells {
				y0 = cells - 1
			}
			fx, fy := gx-float64(x0), gy-float64(y0)
			v := grid[y0][x0]*(1-fx)*(1-fy) +
				grid[y0][x0+1]*fx*(1-fy) +
				grid[y0+1][x0]*(1-fx)*fy +
				grid[y0+1][x0+1]*fx*fy
			c := uint8(v)
			img.Set(x, y, color.RGBA{R: c, G: c, B: c, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func TestRegisterThenVerifyRoundTrip(t *testing.T) {
	eng, _ := newEngine(t)
	creator := newCreator(t)
	content := []byte("the moon is a harsh mistress")

	rec, err := eng.Register(context.Background(), RegisterRequest{
		Content:     content,
		Title:       "Working Notes",
		ContentType: "text/plain",
		Policy:      testPolicy(),
		Creator:     creator,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !fingerprint.ValidRecordID(rec.ID) {
		t.Fatalf("record ID %q is not a valid CID", rec.ID)
	}
	if rec.PerceptualHash != "" {
		t.Fatalf("non-image content got perceptual hash %q", rec.PerceptualHash)
	}
	did, err := keys.DecodeDID(rec.CreatorID)
	if err != nil {
		t.Fatalf("DecodeDID: %v", err)
	}
	if !did.Equal(creator.PublicKey) {
		t.Fatal("creator identity does not decode back to the signing key")
	}
	if _, err := time.Parse(model.SignedAtLayout, rec.SignedAt); err != nil {
		t.Fatalf("SignedAt %q is not canonical: %v", rec.SignedAt, err)
	}

	out, err := eng.VerifyContent(context.Background(), rec.ID, content)
	if err != nil {
		t.Fatalf("VerifyContent: %v", err)
	}
	if out.Status != StatusVerified {
		t.Fatalf("status = %s, want %s", out.Status, StatusVerified)
	}
	if out.Record.Policy != testPolicy() {
		t.Fatalf("verified record policy = %+v", out.Record.Policy)
	}
}

func TestRegisterIsIdempotentPerPayload(t *testing.T) {
	eng, _ := newEngine(t)
	creator := newCreator(t)
	req := RegisterRequest{
		Content:     []byte("same bytes, same clock tick"),
		Title:       "Twice",
		ContentType: "text/plain",
		Policy:      testPolicy(),
		Creator:     creator,
	}

	first, err := eng.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("first Register: %v", err)
	}
	// The stub clock has not advanced, so the canonical payload and
	// therefore the ID are identical.
	second, err := eng.Register(context.Background(), req)
	if err != nil {
		t.Fatalf("second Register: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("IDs differ: %s vs %s", first.ID, second.ID)
	}
}

func TestRegisterRejectsMalformedRequests(t *testing.T) {
	eng, _ := newEngine(t)
	creator := newCreator(t)

	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing creator", RegisterRequest{Content: []byte("x"), ContentType: "text/plain", Policy: testPolicy()}},
		{"missing content type", RegisterRequest{Content: []byte("x"), Policy: testPolicy(), Creator: creator}},
		{"invalid policy grant", RegisterRequest{
			Content:     []byte("x"),
			ContentType: "text/plain",
			Policy:      model.UsagePolicy{AITraining: "MAYBE", AIDerivativeGeneration: model.PermissionDenied, CommercialUse: model.PermissionDenied},
			Creator:     creator,
		}},
		{"undecodable image", RegisterRequest{
			Content:     []byte("not an image"),
			ContentType: "image/png",
			Policy:      testPolicy(),
			Creator:     creator,
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := eng.Register(context.Background(), tc.req)
			if model.CodeOf(err) != model.ErrMalformedInput {
				t.Fatalf("err = %v, want %s", err, model.ErrMalformedInput)
			}
		})
	}
}

func TestVerifyContentHashMismatch(t *testing.T) {
	eng, _ := newEngine(t)
	rec, err := eng.Register(context.Background(), RegisterRequest{
		Content:     []byte("original"),
		Title:       "Original",
		ContentType: "text/plain",
		Policy:      testPolicy(),
		Creator:     newCreator(t),
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	out, err := eng.VerifyContent(context.Background(), rec.ID, []byte("edited"))
	if err != nil {
		t.Fatalf("VerifyContent: %v", err)
	}
	if out.Status != StatusHashMismatch {
		t.Fatalf("status = %s, want %s", out.Status, StatusHashMismatch)
	}
}

func TestVerifyContentDetectsTamperedRecord(t *testing.T) {
	eng, _ := newEngine(t)
	creator := newCreator(t)
	content := []byte("tamper target")

	// A record whose stored fields never matched its signature: the
	// signature bytes are valid base64 but were not produced over this
	// payload.
	forged := &model.ProvenanceRecord{
		ID:           "rec-forged",
		Title:        "Forged",
		ContentType:  "text/plain",
		CreatorID:    "did:key:z6MkforgedForgedForged",
		PublicKey:    creator.PublicHex(),
		ContentHash:  fingerprint.Content(content),
		Policy:       testPolicy(),
		PayloadHash:  fingerprint.Content([]byte("something else")),
		Signature:    "c2lnbmF0dXJl",
		SignatureAlg: signing.AlgEd25519,
		HashAlg:      signing.DefaultHashAlg,
		SignedAt:     "2026-08-26T10:30:00.000Z",
	}
	if _, err := eng.Store.Create(context.Background(), forged); err != nil {
		t.Fatalf("Create: %v", err)
	}

	out, err := eng.VerifyContent(context.Background(), forged.ID, content)
	if err != nil {
		t.Fatalf("VerifyContent: %v", err)
	}
	if out.Status != StatusSignatureInvalid {
		t.Fatalf("status = %s, want %s", out.Status, StatusSignatureInvalid)
	}
}

func TestVerifyContentUnknownRecord(t *testing.T) {
	eng, _ := newEngine(t)
	_, err := eng.VerifyContent(context.Background(), "rec-missing", []byte("x"))
	if !store.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestResolveContentExactMatch(t *testing.T) {
	eng, _ := newEngine(t)
	content := []byte("findable")
	rec, err := eng.Register(context.Background(), RegisterRequest{
		Content:     content,
		Title:       "Findable",
		ContentType: "text/plain",
		Policy:      testPolicy(),
		Creator:     newCreator(t),
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	res, err := eng.ResolveContent(context.Background(), content, "text/plain")
	if err != nil {
		t.Fatalf("ResolveContent: %v", err)
	}
	if res.Status != resolve.StatusHashMatch {
		t.Fatalf("status = %s, want %s", res.Status, resolve.StatusHashMatch)
	}
	if len(res.Candidates) != 1 || res.Candidates[0].Record.ID != rec.ID {
		t.Fatalf("candidates = %+v", res.Candidates)
	}
	if !res.Candidates[0].SignatureValid {
		t.Fatal("exact match failed signature re-verification")
	}
}

func TestResolveContentPerceptualFallback(t *testing.T) {
	eng, _ := newEngine(t)
	original := texturePNG(t, 64)
	rerender := texturePNG(t, 96)

	rec, err := eng.Register(context.Background(), RegisterRequest{
		Content:     original,
		Title:       "Gradient",
		ContentType: "image/png",
		Policy:      testPolicy(),
		Creator:     newCreator(t),
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(rec.PerceptualHash) != phash.HexLength {
		t.Fatalf("image record perceptual hash = %q", rec.PerceptualHash)
	}

	res, err := eng.ResolveContent(context.Background(), rerender, "image/png")
	if err != nil {
		t.Fatalf("ResolveContent: %v", err)
	}
	if res.Status != resolve.StatusPerceptualMatch {
		t.Fatalf("status = %s, want %s", res.Status, resolve.StatusPerceptualMatch)
	}
	if len(res.Candidates) == 0 {
		t.Fatal("no candidates for near-identical re-render")
	}
	got := res.Candidates[0]
	if got.Record.ID != rec.ID {
		t.Fatalf("top candidate = %s, want %s", got.Record.ID, rec.ID)
	}
	if got.Distance < 0 || got.Distance > phash.DefaultThreshold {
		t.Fatalf("distance = %d, want within [0, %d]", got.Distance, phash.DefaultThreshold)
	}
	if !got.SignatureValid {
		t.Fatal("perceptual candidate failed signature re-verification")
	}
}

func TestResolveContentNotFound(t *testing.T) {
	eng, _ := newEngine(t)
	res, err := eng.ResolveContent(context.Background(), []byte("never registered"), "text/plain")
	if err != nil {
		t.Fatalf("ResolveContent: %v", err)
	}
	if res.Status != resolve.StatusNotFound {
		t.Fatalf("status = %s, want %s", res.Status, resolve.StatusNotFound)
	}
	if len(res.Candidates) != 0 {
		t.Fatalf("candidates = %+v", res.Candidates)
	}
}

func TestDeleteRequiresCreatorSignature(t *testing.T) {
	eng, clock := newEngine(t)
	creator := newCreator(t)
	content := []byte("deletable")
	rec, err := eng.Register(context.Background(), RegisterRequest{
		Content:     content,
		Title:       "Deletable",
		ContentType: "text/plain",
		Policy:      testPolicy(),
		Creator:     creator,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	stranger := newCreator(t)
	badProof, err := eng.AuthorizeDeletion(rec.ID, stranger)
	if err != nil {
		t.Fatalf("AuthorizeDeletion: %v", err)
	}
	if err := eng.Delete(context.Background(), rec.ID, badProof, false); model.CodeOf(err) != model.ErrSignatureInvalid {
		t.Fatalf("stranger delete err = %v, want %s", err, model.ErrSignatureInvalid)
	}

	proof, err := eng.AuthorizeDeletion(rec.ID, creator)
	if err != nil {
		t.Fatalf("AuthorizeDeletion: %v", err)
	}

	// Verify-only runs the full authorization check without the side
	// effect.
	if err := eng.Delete(context.Background(), rec.ID, proof, true); err != nil {
		t.Fatalf("verify-only delete: %v", err)
	}
	if _, err := eng.Store.FindByID(context.Background(), rec.ID); err != nil {
		t.Fatalf("record gone after verify-only delete: %v", err)
	}

	clock.Advance(signing.ActionWindow + time.Second)
	if err := eng.Delete(context.Background(), rec.ID, proof, false); model.CodeOf(err) != model.ErrActionExpired {
		t.Fatalf("stale proof err = %v, want %s", err, model.ErrActionExpired)
	}

	fresh, err := eng.AuthorizeDeletion(rec.ID, creator)
	if err != nil {
		t.Fatalf("AuthorizeDeletion: %v", err)
	}
	if err := eng.Delete(context.Background(), rec.ID, fresh, false); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := eng.Store.FindByID(context.Background(), rec.ID); !store.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
}
