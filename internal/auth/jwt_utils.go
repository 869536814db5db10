package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims defines what is inside the token (the "ID Card").
type Claims struct {
	ShopID uint   `json:"shop_id"`
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies identity tokens with one HS256 secret.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret []byte, ttl time.Duration) *Tokens {
	return &Tokens{secret: secret, ttl: ttl, now: time.Now}
}

// GenerateToken creates a signed JWT for a principal.
func (t *Tokens) GenerateToken(p Principal) (string, error) {
	now := t.now()
	claims := &Claims{
		ShopID: p.ShopID,
		UserID: p.UserID,
		Role:   p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// ValidateToken checks if a token is forged or expired and returns its principal.
func (t *Tokens) ValidateToken(tokenString string) (Principal, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil {
		return Principal{}, err
	}

	if !token.Valid {
		return Principal{}, errors.New("invalid token")
	}
	if claims.ShopID == 0 || claims.UserID == 0 {
		return Principal{}, errors.New("token missing shop or user")
	}

	return Principal{ShopID: claims.ShopID, UserID: claims.UserID, Role: claims.Role}, nil
}
