package util

import (
	"bytes"
	"testing"
)

func TestHKDF(t *testing.T) {
	seed := []byte("seed material")

	t.Run("Deterministic", func(t *testing.T) {
		k1, err := HKDF(seed, nil, []byte("purpose-a"))
		if err != nil {
			t.Fatalf("HKDF failed: %v", err)
		}
		k2, err := HKDF(seed, nil, []byte("purpose-a"))
		if err != nil {
			t.Fatalf("HKDF failed: %v", err)
		}
		if !bytes.Equal(k1, k2) {
			t.Error("same seed and info should derive the same key")
		}
	})

	t.Run("InfoSeparatesKeys", func(t *testing.T) {
		k1, _ := HKDF(seed, nil, []byte("purpose-a"))
		k2, _ := HKDF(seed, nil, []byte("purpose-b"))
		if bytes.Equal(k1, k2) {
			t.Error("different info strings should derive different keys")
		}
	})

	t.Run("Length", func(t *testing.T) {
		k, _ := HKDF(seed, nil, []byte("purpose"))
		if len(k) != HKDFKeyLength {
			t.Errorf("expected %d-byte key, got %d", HKDFKeyLength, len(k))
		}
	})
}

func TestCopyBytes(t *testing.T) {
	src := []byte{1, 2, 3}
	dst := CopyBytes(src)
	if !bytes.Equal(src, dst) {
		t.Fatal("copy differs from source")
	}
	dst[0] = 9
	if src[0] != 1 {
		t.Error("copy must not alias the source")
	}
}
