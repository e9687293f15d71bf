package credstore

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	dErrors "biovault/pkg/domain-errors"
)

// Sealer provides at-rest protection for entry values held in external
// backends (Redis, Postgres). The key is derived from a caller-supplied
// master secret; each sealed value binds its service and account so a blob
// moved between keys fails to open.
//
// The in-memory store does not seal: it never leaves the process.
type Sealer struct {
	aead interface {
		Seal(dst, nonce, plaintext, additionalData []byte) []byte
		Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
	}
}

// NewSealer derives the sealing key from masterSecret via HKDF-SHA256 and
// prepares an XChaCha20-Poly1305 AEAD.
func NewSealer(masterSecret []byte) (*Sealer, error) {
	if len(masterSecret) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidParams, "master secret is required")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, masterSecret, nil, []byte("biovault/credstore/v1"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("derive sealing key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("build aead: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts value bound to (service, account). Output is nonce || box.
func (s *Sealer) Seal(service, account string, value []byte) ([]byte, error) {
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, value, aad(service, account)), nil
}

// Open decrypts a sealed value previously bound to (service, account).
func (s *Sealer) Open(service, account string, sealed []byte) ([]byte, error) {
	if len(sealed) < chacha20poly1305.NonceSizeX {
		return nil, dErrors.New(dErrors.CodeInvalidParams, "sealed value too short")
	}
	nonce, box := sealed[:chacha20poly1305.NonceSizeX], sealed[chacha20poly1305.NonceSizeX:]
	value, err := s.aead.Open(nil, nonce, box, aad(service, account))
	if err != nil {
		return nil, fmt.Errorf("open sealed value: %w", err)
	}
	return value, nil
}

func aad(service, account string) []byte {
	return []byte(service + "\x00" + account)
}
