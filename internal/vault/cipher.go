package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Cipher seals secret values for storage and opens them on read. It is a
// strategy object so the at-rest algorithm can be upgraded without touching
// vault logic.
type Cipher interface {
	Seal(plaintext []byte) ([]byte, error)
	Open(sealed []byte) ([]byte, error)
}

// AESGCM is the production cipher: AES-256-GCM with a random nonce prepended
// to the ciphertext. Tampered or truncated records fail to open.
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM derives a 256-bit key from the provided key material. Accepting
// arbitrary-length material keeps configuration forgiving; the derivation is
// a plain SHA-256, not a KDF, because the input is already a server secret.
func NewAESGCM(key string) (*AESGCM, error) {
	sum := sha256.Sum256([]byte(key))
	block, err := aes.NewCipher(sum[:])
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return &AESGCM{aead: aead}, nil
}

func (c *AESGCM) Seal(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (c *AESGCM) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < c.aead.NonceSize() {
		return nil, fmt.Errorf("sealed value too short")
	}
	nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("open sealed value: %w", err)
	}
	return plaintext, nil
}

// Encoding is the legacy reversible base64 obfuscation. It provides no
// confidentiality and exists only for dev parity with older deployments;
// production configuration must use AESGCM.
type Encoding struct{}

func (Encoding) Seal(plaintext []byte) ([]byte, error) {
	out := make([]byte, base64.StdEncoding.EncodedLen(len(plaintext)))
	base64.StdEncoding.Encode(out, plaintext)
	return out, nil
}

func (Encoding) Open(sealed []byte) ([]byte, error) {
	out := make([]byte, base64.StdEncoding.DecodedLen(len(sealed)))
	n, err := base64.StdEncoding.Decode(out, sealed)
	if err != nil {
		return nil, fmt.Errorf("decode sealed value: %w", err)
	}
	return out[:n], nil
}
