package models

import "testing"

func TestNormalizeAsset(t *testing.T) {
	if got := NormalizeAsset("  0xAbCd  "); got != "0xabcd" {
		t.Fatalf("unexpected asset %q", got)
	}
}

func TestFeedIDZeroSentinel(t *testing.T) {
	if !ZeroFeedID.IsZero() {
		t.Fatalf("zero value must report IsZero")
	}
	var f FeedID
	f[31] = 1
	if f.IsZero() {
		t.Fatalf("non-zero id must not report IsZero")
	}
}

func TestParseFeedID(t *testing.T) {
	var want FeedID
	want[0] = 0xde
	want[31] = 0x01

	got, err := ParseFeedID(want.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch")
	}

	// 0x prefix is accepted.
	got, err = ParseFeedID("0x" + want.String())
	if err != nil {
		t.Fatalf("parse with prefix: %v", err)
	}
	if got != want {
		t.Fatalf("prefixed round trip mismatch")
	}
}

func TestParseFeedIDRejectsBadInput(t *testing.T) {
	if _, err := ParseFeedID("zz"); err == nil {
		t.Fatalf("non-hex input must fail")
	}
	if _, err := ParseFeedID("abcd"); err == nil {
		t.Fatalf("short input must fail")
	}
}

func TestUpdatePair(t *testing.T) {
	u := Update{Price: 10, Conf: 1, Expo: -8, EmaPrice: 9, EmaConf: 2, PublishTime: 77}
	pair := u.Pair()
	if pair.Spot.Price != 10 || pair.Spot.Conf != 1 || pair.Spot.PublishTime != 77 {
		t.Fatalf("unexpected spot %+v", pair.Spot)
	}
	if pair.Ema.Price != 9 || pair.Ema.Conf != 2 || pair.Ema.Expo != -8 || pair.Ema.PublishTime != 77 {
		t.Fatalf("unexpected ema %+v", pair.Ema)
	}
}
