package provider

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"

	"PriceGate/internal/domain/models"
)

func testKeyPair(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return pub, priv
}

func testUpdate() models.Update {
	var feed models.FeedID
	feed[0] = 0xab
	return models.Update{
		FeedID:      feed,
		Price:       123_456,
		Conf:        789,
		Expo:        -8,
		EmaPrice:    123_000,
		EmaConf:     700,
		PublishTime: 1_700_000_000,
	}
}

func TestGenuineRoundTrip(t *testing.T) {
	pub, priv := testKeyPair(t)
	p, err := NewGenuine(pub, 1)
	if err != nil {
		t.Fatalf("new genuine: %v", err)
	}

	want := testUpdate()
	payload, err := Encode(want, priv)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := p.ParseAndVerify(payload)
	if err != nil {
		t.Fatalf("parse and verify: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: %+v != %+v", got, want)
	}
}

func TestGenuineRejectsUnsigned(t *testing.T) {
	pub, _ := testKeyPair(t)
	p, _ := NewGenuine(pub, 1)

	payload, err := Encode(testUpdate(), nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := p.ParseAndVerify(payload); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestGenuineRejectsTamperedBody(t *testing.T) {
	pub, priv := testKeyPair(t)
	p, _ := NewGenuine(pub, 1)

	payload, err := Encode(testUpdate(), priv)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	payload[headerLen] ^= 0xff

	if _, err := p.ParseAndVerify(payload); err == nil {
		t.Fatalf("tampered payload must be rejected")
	}
}

func TestGenuineRejectsWrongKey(t *testing.T) {
	pub, _ := testKeyPair(t)
	_, otherPriv := testKeyPair(t)
	p, _ := NewGenuine(pub, 1)

	payload, err := Encode(testUpdate(), otherPriv)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := p.ParseAndVerify(payload); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("expected ErrBadSignature, got %v", err)
	}
}

func TestGenuineConstructUnavailable(t *testing.T) {
	pub, _ := testKeyPair(t)
	p, _ := NewGenuine(pub, 1)
	if _, err := p.ConstructUpdate(testUpdate()); err == nil {
		t.Fatalf("genuine provider must refuse construction")
	}
	if p.Synthetic() {
		t.Fatalf("genuine provider must not report synthetic")
	}
}

func TestNewGenuineBadKeySize(t *testing.T) {
	if _, err := NewGenuine(make([]byte, 16), 1); err == nil {
		t.Fatalf("short key must be rejected")
	}
}

func TestSyntheticRoundTrip(t *testing.T) {
	p := NewSynthetic(2)
	want := testUpdate()

	payload, err := p.ConstructUpdate(want)
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	got, err := p.ParseAndVerify(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: %+v != %+v", got, want)
	}
	if !p.Synthetic() {
		t.Fatalf("synthetic provider must report synthetic")
	}
}

func TestSyntheticAcceptsSignedPayload(t *testing.T) {
	_, priv := testKeyPair(t)
	p := NewSynthetic(2)

	payload, err := Encode(testUpdate(), priv)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	// The trailer is ignored in synthetic mode.
	if _, err := p.ParseAndVerify(payload); err != nil {
		t.Fatalf("synthetic must accept signed payloads: %v", err)
	}
}

func TestQuoteFee(t *testing.T) {
	p := NewSynthetic(3)
	if got := p.QuoteFee(4); got != 12 {
		t.Fatalf("unexpected quote %d", got)
	}
	if got := p.QuoteFee(0); got != 0 {
		t.Fatalf("empty batch must quote 0, got %d", got)
	}
}

func TestDecodeMalformed(t *testing.T) {
	valid, err := Encode(testUpdate(), nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	cases := map[string][]byte{
		"short header":   valid[:5],
		"bad magic":      append([]byte("XXXX"), valid[4:]...),
		"bad version":    append(append([]byte{}, valid[:4]...), append([]byte{99}, valid[5:]...)...),
		"truncated body": valid[:len(valid)-3],
		"bad trailer":    append(append([]byte{}, valid...), 1, 2, 3),
	}
	for name, payload := range cases {
		if _, _, err := decode(payload); !errors.Is(err, ErrBadPayload) {
			t.Fatalf("%s: expected ErrBadPayload, got %v", name, err)
		}
	}
}
