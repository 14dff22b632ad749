package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "kindklick"

// UnlockToken is a signed token standing in for the PIN until it expires
type UnlockToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type unlockClaims struct {
	PinTag string `json:"pin"`
	jwt.RegisteredClaims
}

// SessionIssuer signs and verifies unlock tokens. Every token is bound to
// a fingerprint of the PIN digest, so changing or clearing the PIN
// invalidates all outstanding tokens.
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionIssuer creates a new SessionIssuer. An empty secret gets a
// random one, which invalidates tokens on restart.
func NewSessionIssuer(secret string, ttl time.Duration) *SessionIssuer {
	key := []byte(secret)
	if len(key) == 0 {
		key = GenerateSecret()
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SessionIssuer{secret: key, ttl: ttl, now: time.Now}
}

// Issue signs a token for the given PIN digest
func (i *SessionIssuer) Issue(pinHash string) (*UnlockToken, error) {
	now := i.now()
	expires := now.Add(i.ttl)
	claims := unlockClaims{
		PinTag: pinTag(pinHash),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("sign unlock token: %w", err)
	}
	return &UnlockToken{Token: signed, ExpiresAt: expires}, nil
}

// Verify checks signature, expiry and the PIN binding of a token
func (i *SessionIssuer) Verify(token, pinHash string) error {
	var claims unlockClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.PinTag != pinTag(pinHash) {
		return ErrInvalidToken
	}
	return nil
}

// pinTag fingerprints a PIN digest without exposing it
func pinTag(pinHash string) string {
	sum := sha256.Sum256([]byte(pinHash))
	return hex.EncodeToString(sum[:8])
}

// GenerateSecret returns 32 random bytes for token signing
func GenerateSecret() []byte {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(errors.New("crypto/rand unavailable"))
	}
	return b
}
