package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const masterKeySize = 32

// GenerateMasterKey returns a random AES-256 master key, hex encoded for
// the MASTER_KEY environment variable.
func GenerateMasterKey() (string, error) {
	key := make([]byte, masterKeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("failed to read random key: %w", err)
	}
	return hex.EncodeToString(key), nil
}

// sealer encrypts secrets with AES-256-GCM. Every secret id gets its own
// key derived from the master key, so a sealed value only opens under the
// id it was stored with.
type sealer struct {
	masterKey []byte
}

func newSealer(masterKeyHex string) (*sealer, error) {
	masterKey, err := hex.DecodeString(masterKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode master key: %w", err)
	}
	if len(masterKey) == 0 {
		return nil, fmt.Errorf("master key is empty")
	}
	return &sealer{masterKey: masterKey}, nil
}

func (s *sealer) aead(secretID string) (cipher.AEAD, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, s.masterKey, []byte(secretID), nil), key); err != nil {
		return nil, fmt.Errorf("failed to derive key for %s: %w", secretID, err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// seal returns hex(nonce || ciphertext).
func (s *sealer) seal(secretID string, plaintext []byte) (string, error) {
	gcm, err := s.aead(secretID)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to read nonce: %w", err)
	}
	return hex.EncodeToString(gcm.Seal(nonce, nonce, plaintext, nil)), nil
}

func (s *sealer) open(secretID string, sealed string) ([]byte, error) {
	data, err := hex.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode secret %s: %w", secretID, err)
	}
	gcm, err := s.aead(secretID)
	if err != nil {
		return nil, err
	}
	if len(data) < gcm.NonceSize() {
		return nil, fmt.Errorf("secret %s is truncated", secretID)
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt secret %s: %w", secretID, err)
	}
	return plaintext, nil
}
