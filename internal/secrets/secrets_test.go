package secrets

import (
	"encoding/base64"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	c, err := New(key)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	plaintext := "provider-password"
	encrypted, err := c.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if encrypted == plaintext {
		t.Error("ciphertext equals plaintext")
	}

	decrypted, err := c.Decrypt(encrypted)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if decrypted != plaintext {
		t.Errorf("decrypted = %q, want %q", decrypted, plaintext)
	}
}

func TestEncryptProducesDistinctCiphertexts(t *testing.T) {
	key, _ := GenerateKey()
	c, err := New(key)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	first, _ := c.Encrypt("same value")
	second, _ := c.Encrypt("same value")
	if first == second {
		t.Error("two encryptions of the same value must differ (random nonce)")
	}
}

func TestNewRejectsBadKeys(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Error("expected error for empty key")
	}
	if _, err := New("not-base64!!!"); err == nil {
		t.Error("expected error for invalid base64")
	}

	short := base64.StdEncoding.EncodeToString([]byte("short"))
	if _, err := New(short); err == nil {
		t.Error("expected error for wrong key length")
	}
}

func TestDecryptRejectsTampering(t *testing.T) {
	key, _ := GenerateKey()
	c, _ := New(key)

	encrypted, _ := c.Encrypt("secret")
	raw, _ := base64.StdEncoding.DecodeString(encrypted)
	raw[len(raw)-1] ^= 0xff
	tampered := base64.StdEncoding.EncodeToString(raw)

	if _, err := c.Decrypt(tampered); err == nil {
		t.Error("expected error for tampered ciphertext")
	}
}
