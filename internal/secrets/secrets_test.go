package secrets

import (
	"testing"
)

func TestGenerateToken(t *testing.T) {
	a, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
	b, err := GenerateToken(32)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	if a == b {
		t.Fatalf("two tokens should not collide")
	}
}

func TestGenerateTokenDefaultLength(t *testing.T) {
	tok, err := GenerateToken(0)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	if len(tok) != 64 {
		t.Fatalf("expected default 32-byte token, got %d hex chars", len(tok))
	}
}

func TestHashHexStable(t *testing.T) {
	if HashHex("abc") != HashHex("abc") {
		t.Fatalf("same input should hash identically")
	}
	if HashHex("abc") == HashHex("abd") {
		t.Fatalf("different inputs should not hash identically")
	}
}

func TestDeriveKeyByPurpose(t *testing.T) {
	k1, err := DeriveKey("master-secret", PurposeBSSID)
	if err != nil {
		t.Fatalf("DeriveKey error: %v", err)
	}
	k2, err := DeriveKey("master-secret", PurposeNFCUID)
	if err != nil {
		t.Fatalf("DeriveKey error: %v", err)
	}
	if len(k1) != 32 || len(k2) != 32 {
		t.Fatalf("derived keys should be 32 bytes")
	}
	if HMACHex(k1, "aa:bb:cc") == HMACHex(k2, "aa:bb:cc") {
		t.Fatalf("different purposes should derive unrelated keys")
	}

	if _, err := DeriveKey("", PurposeBSSID); err == nil {
		t.Fatalf("empty master key should be rejected")
	}
}

func TestConstantTimeEqual(t *testing.T) {
	h := HashHex("token")
	if !ConstantTimeEqual(h, HashHex("token")) {
		t.Fatalf("equal digests should compare true")
	}
	if ConstantTimeEqual(h, HashHex("other")) {
		t.Fatalf("different digests should compare false")
	}
	if ConstantTimeEqual(h, h[:10]) {
		t.Fatalf("length mismatch should compare false")
	}
}
