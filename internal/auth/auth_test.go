package auth

import (
	"testing"
	"time"

	"go-pos-gst/internal/apperr"
	"go-pos-gst/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-for-tokens-0001")

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokens(testSecret, 24*time.Hour)
	in := Principal{ShopID: 7, UserID: 42, Role: models.RoleStaff}

	signed, err := tokens.GenerateToken(in)
	require.NoError(t, err)

	out, err := tokens.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestTokenExpiresAfterTTL(t *testing.T) {
	issued := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	tokens := NewTokens(testSecret, 24*time.Hour)
	tokens.now = func() time.Time { return issued }

	signed, err := tokens.GenerateToken(Principal{ShopID: 1, UserID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)

	tokens.now = func() time.Time { return issued.Add(23 * time.Hour) }
	_, err = tokens.ValidateToken(signed)
	assert.NoError(t, err)

	tokens.now = func() time.Time { return issued.Add(25 * time.Hour) }
	_, err = tokens.ValidateToken(signed)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenRejectsForeignSignature(t *testing.T) {
	signed, err := NewTokens([]byte("another-secret-entirely-xx"), time.Hour).
		GenerateToken(Principal{ShopID: 1, UserID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = NewTokens(testSecret, time.Hour).ValidateToken(signed)
	assert.Error(t, err)
}

func TestTokenRejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{ShopID: 1, UserID: 1, Role: models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokens(testSecret, time.Hour).ValidateToken(unsigned)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("pw1")
	require.NoError(t, err)

	assert.NotEqual(t, "pw1", hash)
	assert.True(t, CheckPassword(hash, "pw1"))
	assert.False(t, CheckPassword(hash, "pw2"))
}

func TestPrincipalRequire(t *testing.T) {
	tests := []struct {
		name     string
		p        Principal
		cap      Capability
		wantKind apperr.Kind
		wantErr  bool
	}{
		{"admin as member", Principal{1, 1, models.RoleAdmin}, AnyMember, 0, false},
		{"staff as member", Principal{1, 2, models.RoleStaff}, AnyMember, 0, false},
		{"admin as admin", Principal{1, 1, models.RoleAdmin}, AdminOnly, 0, false},
		{"staff as admin", Principal{1, 2, models.RoleStaff}, AdminOnly, apperr.Forbidden, true},
		{"unknown role", Principal{1, 3, "auditor"}, AnyMember, apperr.Forbidden, true},
		{"anonymous", Principal{}, AnyMember, apperr.Unauthorized, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Require(tt.cap)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperr.Is(err, tt.wantKind), "got %v", err)
		})
	}
}

func TestLicenseCodec(t *testing.T) {
	codec := NewLicenseCodec("issuer passphrase")

	key, err := codec.Encode("5f2b9c", 12)
	require.NoError(t, err)

	secret, shopID, err := codec.Decode(key)
	require.NoError(t, err)
	assert.Equal(t, "5f2b9c", secret)
	assert.Equal(t, uint(12), shopID)

	again, err := codec.Encode("5f2b9c", 12)
	require.NoError(t, err)
	assert.NotEqual(t, key, again, "fresh nonce per key")
}

func TestLicenseCodecRejectsBadKeys(t *testing.T) {
	codec := NewLicenseCodec("issuer passphrase")
	key, err := codec.Encode("abc", 3)
	require.NoError(t, err)

	other, err := NewLicenseCodec("someone else").Encode("abc", 3)
	require.NoError(t, err)

	tampered := []byte(key)
	if tampered[10] == 'A' {
		tampered[10] = 'B'
	} else {
		tampered[10] = 'A'
	}

	for name, k := range map[string]string{
		"empty":        "",
		"not base64":   "%%%%",
		"too short":    "AAAA",
		"other server": other,
		"tampered":     string(tampered),
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := codec.Decode(k)
			assert.ErrorIs(t, err, ErrMalformedLicenseKey)
		})
	}
}

func TestLicenseCodecRejectsColonSecret(t *testing.T) {
	_, err := NewLicenseCodec("x").Encode("a:b", 1)
	assert.Error(t, err)
}
