// Package vault encrypts API credentials at rest. Secrets are sealed
// with AES-256-GCM under a passphrase-derived key and persisted through
// the store.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"agora/internal/store"
)

func deriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, 32)
}

// Vault provides AES-256-GCM encryption/decryption with a passphrase-derived key.
type Vault struct {
	key [32]byte
}

// New creates a Vault by deriving an AES-256 key from the passphrase via Argon2id.
// The salt is deterministic (SHA-256 of passphrase), so the same passphrase always
// produces the same key across restarts.
func New(passphrase string) *Vault {
	salt := sha256.Sum256([]byte(passphrase))
	key := deriveKey([]byte(passphrase), salt[:16])

	v := &Vault{}
	copy(v.key[:], key)
	return v
}

// Encrypt encrypts plaintext using AES-256-GCM with a random nonce.
func (v *Vault) Encrypt(plaintext []byte) (ciphertext, nonce []byte, err error) {
	gcm, err := v.gcm()
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext = gcm.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// Decrypt decrypts ciphertext using AES-256-GCM with the provided nonce.
func (v *Vault) Decrypt(ciphertext, nonce []byte) ([]byte, error) {
	gcm, err := v.gcm()
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("decrypt: %w", err)
	}

	return plaintext, nil
}

func (v *Vault) gcm() (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.key[:])
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}
	return gcm, nil
}

// Keeper stores named secrets encrypted in the store.
type Keeper struct {
	vault *Vault
	store *store.Store
}

func NewKeeper(v *Vault, s *store.Store) *Keeper {
	return &Keeper{vault: v, store: s}
}

// Put seals the value and persists it under name, overwriting any
// existing secret with that name.
func (k *Keeper) Put(name, kind string, value []byte) error {
	ciphertext, nonce, err := k.vault.Encrypt(value)
	if err != nil {
		return fmt.Errorf("seal secret %s: %w", name, err)
	}

	sec, err := k.store.GetSecretByName(name)
	if err != nil {
		return err
	}
	id := uuid.NewString()
	if sec != nil {
		id = sec.ID
	}

	return k.store.SaveSecret(&store.Secret{
		ID:    id,
		Name:  name,
		Kind:  kind,
		Value: ciphertext,
		Nonce: nonce,
	})
}

// Get opens the named secret. A missing secret returns nil without
// error so callers can fall back to environment configuration.
func (k *Keeper) Get(name string) ([]byte, error) {
	sec, err := k.store.GetSecretByName(name)
	if err != nil {
		return nil, err
	}
	if sec == nil {
		return nil, nil
	}

	value, err := k.vault.Decrypt(sec.Value, sec.Nonce)
	if err != nil {
		return nil, fmt.Errorf("open secret %s: %w", name, err)
	}
	return value, nil
}

func (k *Keeper) Delete(name string) error {
	sec, err := k.store.GetSecretByName(name)
	if err != nil {
		return err
	}
	if sec == nil {
		return nil
	}
	return k.store.DeleteSecret(sec.ID)
}
