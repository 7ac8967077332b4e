// Package crypto seals exported report files with AES-256-GCM.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

// SealedExtension is appended to the name of a sealed file.
const SealedExtension = ".enc"

const keySize = 32

var magic = []byte("WSX1")

var (
	ErrKeyLength = errors.New("DATA_ENCRYPTION_KEY must be 32 bytes after decoding")
	ErrNotSealed = errors.New("data is not sealed")
)

type Sealer struct {
	aead cipher.AEAD
}

// New accepts a hex, base64 or raw 32 byte key. An empty key gives a sealer
// that passes data through unchanged.
func New(key string) (*Sealer, error) {
	if key == "" {
		return &Sealer{}, nil
	}
	decoded := decodeKey(key)
	if len(decoded) != keySize {
		return nil, ErrKeyLength
	}
	block, err := aes.NewCipher(decoded)
	if err != nil {
		return nil, fmt.Errorf("cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

func (s *Sealer) Configured() bool {
	return s != nil && s.aead != nil
}

// Seal returns magic || nonce || ciphertext.
func (s *Sealer) Seal(plain []byte) ([]byte, error) {
	if !s.Configured() {
		return plain, nil
	}
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	out := make([]byte, 0, len(magic)+len(nonce)+len(plain)+s.aead.Overhead())
	out = append(out, magic...)
	out = append(out, nonce...)
	return s.aead.Seal(out, nonce, plain, magic), nil
}

func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	if !s.Configured() {
		return sealed, nil
	}
	if !bytes.HasPrefix(sealed, magic) {
		return nil, ErrNotSealed
	}
	body := sealed[len(magic):]
	if len(body) < s.aead.NonceSize() {
		return nil, ErrNotSealed
	}
	nonce, data := body[:s.aead.NonceSize()], body[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, data, magic)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return plain, nil
}

// decodeKey tries hex then base64 and keeps a decoding only when it yields
// a full key; anything else is taken as raw bytes.
func decodeKey(raw string) []byte {
	decoders := []func(string) ([]byte, error){
		hex.DecodeString,
		base64.StdEncoding.DecodeString,
		base64.RawStdEncoding.DecodeString,
		base64.URLEncoding.DecodeString,
		base64.RawURLEncoding.DecodeString,
	}
	for _, decode := range decoders {
		if decoded, err := decode(raw); err == nil && len(decoded) == keySize {
			return decoded
		}
	}
	return []byte(raw)
}
