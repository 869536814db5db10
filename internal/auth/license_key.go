package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrMalformedLicenseKey covers every key that does not decrypt to a
// (secret, shop id) pair under this server's key.
var ErrMalformedLicenseKey = errors.New("malformed license key")

// LicenseCodec turns a (secret, shop id) pair into the opaque key handed to a
// customer and back. The shop id travels inside the key so nobody types it.
type LicenseCodec struct {
	key [chacha20poly1305.KeySize]byte
}

// NewLicenseCodec derives the AEAD key from the configured passphrase.
func NewLicenseCodec(passphrase string) *LicenseCodec {
	return &LicenseCodec{key: sha256.Sum256([]byte(passphrase))}
}

// Encode seals secret and shopID into a URL-safe license key.
func (c *LicenseCodec) Encode(secret string, shopID uint) (string, error) {
	if secret == "" || strings.Contains(secret, ":") {
		return "", errors.New("license secret must be non-empty and colon free")
	}
	aead, err := chacha20poly1305.NewX(c.key[:])
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+64)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	plain := fmt.Sprintf("%s:%d", secret, shopID)
	sealed := aead.Seal(nonce, nonce, []byte(plain), nil)

	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decode opens a license key. Any tampering or a key from another server
// fails with ErrMalformedLicenseKey.
func (c *LicenseCodec) Decode(licenseKey string) (secret string, shopID uint, err error) {
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(licenseKey))
	if err != nil {
		return "", 0, ErrMalformedLicenseKey
	}
	aead, err := chacha20poly1305.NewX(c.key[:])
	if err != nil {
		return "", 0, err
	}
	if len(raw) < aead.NonceSize()+aead.Overhead() {
		return "", 0, ErrMalformedLicenseKey
	}

	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", 0, ErrMalformedLicenseKey
	}

	secret, idStr, ok := strings.Cut(string(plain), ":")
	if !ok || secret == "" {
		return "", 0, ErrMalformedLicenseKey
	}
	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		return "", 0, ErrMalformedLicenseKey
	}

	return secret, uint(id), nil
}
