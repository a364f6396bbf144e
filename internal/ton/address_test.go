package ton

import (
	"errors"
	"strings"
	"testing"
)

const zeroBounceable = "EQAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAM9c"

func TestNormalizeAddressFriendly(t *testing.T) {
	got, err := NormalizeAddress(zeroBounceable)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "UQ") {
		t.Fatalf("expected non-bounceable form, got %s", got)
	}

	again, err := NormalizeAddress(got)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != got {
		t.Fatalf("not idempotent: %s != %s", again, got)
	}
}

func TestNormalizeAddressRaw(t *testing.T) {
	raw := "0:" + strings.Repeat("0", 64)
	fromRaw, err := NormalizeAddress(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fromFriendly, err := NormalizeAddress("  " + zeroBounceable + "\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fromRaw != fromFriendly {
		t.Fatalf("raw and friendly forms differ: %s vs %s", fromRaw, fromFriendly)
	}
}

func TestNormalizeAddressInvalid(t *testing.T) {
	for _, s := range []string{
		"",
		"   ",
		"not-an-address",
		"EQAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAM9d", // bad checksum
		"0:xyz",
	} {
		if _, err := NormalizeAddress(s); !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("NormalizeAddress(%q): expected ErrInvalidAddress, got %v", s, err)
		}
	}
}
