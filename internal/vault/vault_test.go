package vault

import (
	"bytes"
	"path/filepath"
	"testing"

	"agora/internal/config"
	"agora/internal/store"
)

func TestRoundTrip(t *testing.T) {
	v := New("test-passphrase")
	plaintext := []byte("hello, vault!")

	ciphertext, nonce, err := v.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	decrypted, err := v.Decrypt(ciphertext, nonce)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}

	if !bytes.Equal(plaintext, decrypted) {
		t.Fatalf("got %q, want %q", decrypted, plaintext)
	}
}

func TestWrongPassphrase(t *testing.T) {
	v1 := New("correct-passphrase")
	v2 := New("wrong-passphrase")

	ciphertext, nonce, err := v1.Encrypt([]byte("secret"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	_, err = v2.Decrypt(ciphertext, nonce)
	if err == nil {
		t.Fatal("expected error decrypting with wrong passphrase")
	}
}

func TestDifferentPassphrasesDifferentKeys(t *testing.T) {
	v1 := New("passphrase-one")
	v2 := New("passphrase-two")

	if v1.key == v2.key {
		t.Fatal("different passphrases produced the same key")
	}
}

func TestEmptyPlaintext(t *testing.T) {
	v := New("test")

	ciphertext, nonce, err := v.Encrypt([]byte{})
	if err != nil {
		t.Fatalf("encrypt empty: %v", err)
	}

	decrypted, err := v.Decrypt(ciphertext, nonce)
	if err != nil {
		t.Fatalf("decrypt empty: %v", err)
	}

	if len(decrypted) != 0 {
		t.Fatalf("expected empty, got %d bytes", len(decrypted))
	}
}

func newTestKeeper(t *testing.T) *Keeper {
	t.Helper()
	s, err := store.New(config.StoreConfig{Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewKeeper(New("test-passphrase"), s)
}

func TestKeeperPutGet(t *testing.T) {
	k := newTestKeeper(t)

	if err := k.Put("serpapi", "api_key", []byte("sk-123")); err != nil {
		t.Fatalf("put: %v", err)
	}

	value, err := k.Get("serpapi")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(value) != "sk-123" {
		t.Fatalf("got %q, want sk-123", value)
	}

	// Overwrite keeps a single secret under the name.
	if err := k.Put("serpapi", "api_key", []byte("sk-456")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	value, err = k.Get("serpapi")
	if err != nil {
		t.Fatalf("get after overwrite: %v", err)
	}
	if string(value) != "sk-456" {
		t.Fatalf("got %q, want sk-456", value)
	}
}

func TestKeeperMissingSecret(t *testing.T) {
	k := newTestKeeper(t)

	value, err := k.Get("absent")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if value != nil {
		t.Fatalf("expected nil for missing secret, got %q", value)
	}
}

func TestKeeperDelete(t *testing.T) {
	k := newTestKeeper(t)

	if err := k.Put("smtp", "password", []byte("hunter2")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := k.Delete("smtp"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	value, err := k.Get("smtp")
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if value != nil {
		t.Fatal("expected secret gone after delete")
	}
}
