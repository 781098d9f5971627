package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const sealInfo = "resumeforge session cookie v1"

// Sealer encrypts and authenticates cookie values so the browser can hold them
// without being able to read or alter them
type Sealer struct {
	key []byte
}

// NewSealer derives the cookie key from secret
func NewSealer(secret string) (*Sealer, error) {
	if secret == "" {
		return nil, errors.New("[NewSealer] secret is required")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(sealInfo)), key); err != nil {
		return nil, errors.Wrap(err, "[NewSealer] derive key")
	}
	return &Sealer{key: key}, nil
}

// Seal encrypts value. The entry name is bound as additional data so a value
// sealed for one entry cannot be replayed as another.
func (s *Sealer) Seal(name, value string) (string, error) {
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", errors.Wrap(err, "[Seal] cipher")
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(value)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", errors.Wrap(err, "[Seal] nonce")
	}
	sealed := aead.Seal(nonce, nonce, []byte(value), []byte(name))
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open reverses Seal
func (s *Sealer) Open(name, sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", errors.Wrap(err, "[Open] decode")
	}
	aead, err := chacha20poly1305.NewX(s.key)
	if err != nil {
		return "", errors.Wrap(err, "[Open] cipher")
	}
	if len(raw) < aead.NonceSize() {
		return "", errors.New("[Open] value too short")
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, []byte(name))
	if err != nil {
		return "", errors.Wrap(err, "[Open] authenticate")
	}
	return string(plain), nil
}
