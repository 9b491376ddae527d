package fingerprint

import (
	"math/bits"
	"strings"
	"testing"
)

func TestContentFormat(t *testing.T) {
	got := Content([]byte("hello"))
	if len(got) != 64 {
		t.Fatalf("digest length = %d, want 64", len(got))
	}
	if got != strings.ToLower(got) {
		t.Fatal("digest must be lowercase hex")
	}
	// Known sha256("hello").
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want {
		t.Fatalf("Content = %s, want %s", got, want)
	}
}

func TestContentAvalanche(t *testing.T) {
	base := []byte("the quick brown fox jumps over the lazy dog")
	a := Content(base)

	flipped := append([]byte(nil), base...)
	flipped[0] ^= 0x01
	b := Content(flipped)

	if a == b {
		t.Fatal("single-bit change produced the same digest")
	}
	if d := hexBitDiff(t, a, b); d <= 64 {
		// 256 bits total; >25% difference expected on average.
		t.Fatalf("bit difference %d of 256 is implausibly low", d)
	}
}

func TestRecordIDDeterministic(t *testing.T) {
	payload := []byte(`{"content_hash":"ab","title":"T"}`)
	a, err := RecordID(payload)
	if err != nil {
		t.Fatalf("RecordID: %v", err)
	}
	b, err := RecordID(payload)
	if err != nil {
		t.Fatalf("RecordID: %v", err)
	}
	if a != b {
		t.Fatalf("record IDs differ for identical payloads: %s vs %s", a, b)
	}
	if !ValidRecordID(a) {
		t.Fatalf("RecordID produced an undecodable ID %q", a)
	}
	if ValidRecordID("not-a-cid") {
		t.Fatal("ValidRecordID accepted garbage")
	}

	c, err := RecordID([]byte(`{"content_hash":"ac","title":"T"}`))
	if err != nil {
		t.Fatalf("RecordID: %v", err)
	}
	if a == c {
		t.Fatal("different payloads produced the same record ID")
	}
}

func hexBitDiff(t *testing.T, a, b string) int {
	t.Helper()
	if len(a) != len(b) {
		t.Fatalf("digest lengths differ: %d vs %d", len(a), len(b))
	}
	diff := 0
	for i := range a {
		diff += bits.OnesCount8(hexNibble(t, a[i]) ^ hexNibble(t, b[i]))
	}
	return diff
}

func hexNibble(t *testing.T, c byte) uint8 {
	t.Helper()
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	}
	t.Fatalf("not a hex digit: %q", c)
	return 0
}
