package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"kindklick/internal/metrics"
	"kindklick/internal/models"
	"kindklick/internal/storage"
)

var (
	ErrPinRequired  = errors.New("parent PIN required")
	ErrInvalidPin   = errors.New("incorrect PIN")
	ErrPinTooShort  = errors.New("PIN must be at least 4 characters")
	ErrPinMismatch  = errors.New("PIN confirmation does not match")
	ErrNoPinSet     = errors.New("no parent PIN is set")
	ErrInvalidToken = errors.New("invalid or expired unlock token")
)

// MinPinLength is the shortest PIN SetPin accepts
const MinPinLength = 4

// PinAlgorithm selects how new PINs are digested
type PinAlgorithm string

const (
	PinSHA256 PinAlgorithm = "sha256"
	PinBcrypt PinAlgorithm = "bcrypt"
)

// Credentials carries whatever proof of parent presence a caller supplied
type Credentials struct {
	PIN   string
	Token string
}

// Empty reports whether no credential was supplied at all
func (c Credentials) Empty() bool {
	return c.PIN == "" && c.Token == ""
}

// HashPin returns the hex SHA-256 digest of a PIN
func HashPin(pin string) string {
	sum := sha256.Sum256([]byte(pin))
	return hex.EncodeToString(sum[:])
}

// HashPinWith digests a PIN with the given algorithm
func HashPinWith(alg PinAlgorithm, pin string) (string, error) {
	switch alg {
	case PinBcrypt:
		// Cost 10 keeps unlocks fast on small devices
		hash, err := bcrypt.GenerateFromPassword([]byte(pin), 10)
		if err != nil {
			return "", err
		}
		return string(hash), nil
	case PinSHA256, "":
		return HashPin(pin), nil
	default:
		return "", fmt.Errorf("unknown PIN algorithm %q", alg)
	}
}

// VerifyPin checks a PIN against a stored digest of either algorithm
func VerifyPin(pin, stored string) bool {
	if stored == "" {
		return false
	}
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(pin)) == nil
	}
	got := HashPin(pin)
	return subtle.ConstantTimeCompare([]byte(got), []byte(strings.ToLower(stored))) == 1
}

// ValidateNewPin applies the PIN rules to a new PIN and its confirmation
func ValidateNewPin(pin, confirm string) (string, error) {
	pin = strings.TrimSpace(pin)
	if len(pin) < MinPinLength {
		return "", ErrPinTooShort
	}
	if pin != strings.TrimSpace(confirm) {
		return "", ErrPinMismatch
	}
	return pin, nil
}

// Gate guards parent-only operations behind the PIN
type Gate struct {
	store     *storage.Store
	algorithm PinAlgorithm
	sessions  *SessionIssuer
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// NewGate creates a new Gate. sessions may be nil to disable unlock tokens.
func NewGate(store *storage.Store, alg PinAlgorithm, sessions *SessionIssuer, logger *slog.Logger, m *metrics.Metrics) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	if alg == "" {
		alg = PinSHA256
	}
	return &Gate{
		store:     store,
		algorithm: alg,
		sessions:  sessions,
		logger:    logger,
		metrics:   m,
	}
}

// Authorize checks creds against the PIN stored in s. Without a PIN
// every caller is authorized.
func (g *Gate) Authorize(s *models.Settings, creds Credentials) error {
	if !s.HasPin() {
		return nil
	}

	if creds.Token != "" && g.sessions != nil {
		if err := g.sessions.Verify(creds.Token, s.PinHash); err == nil {
			return nil
		}
		if creds.PIN == "" {
			g.metrics.ObservePinFailure()
			return ErrInvalidToken
		}
	}

	if creds.PIN == "" {
		return ErrPinRequired
	}
	if !VerifyPin(creds.PIN, s.PinHash) {
		g.metrics.ObservePinFailure()
		return ErrInvalidPin
	}
	return nil
}

// Check loads the current settings and authorizes creds against them
func (g *Gate) Check(ctx context.Context, creds Credentials) error {
	s, err := g.store.Snapshot(ctx)
	if err != nil {
		return err
	}
	return g.Authorize(s, creds)
}

// SetPin sets or changes the parent PIN. Changing an existing PIN requires
// valid credentials for the current one.
func (g *Gate) SetPin(ctx context.Context, pin, confirm string, creds Credentials) error {
	pin, err := ValidateNewPin(pin, confirm)
	if err != nil {
		return err
	}
	hash, err := HashPinWith(g.algorithm, pin)
	if err != nil {
		return err
	}

	_, err = g.store.Update(ctx, func(s *models.Settings) error {
		if err := g.Authorize(s, creds); err != nil {
			return err
		}
		s.PinHash = hash
		return nil
	})
	if err != nil {
		return err
	}

	g.logger.Info("parent PIN updated", "algorithm", g.algorithm)
	return nil
}

// ClearPin removes the parent PIN
func (g *Gate) ClearPin(ctx context.Context, creds Credentials) error {
	_, err := g.store.Update(ctx, func(s *models.Settings) error {
		if !s.HasPin() {
			return storage.ErrNoChange
		}
		if err := g.Authorize(s, creds); err != nil {
			return err
		}
		s.PinHash = ""
		return nil
	})
	if err != nil {
		return err
	}

	g.logger.Info("parent PIN cleared")
	return nil
}

// Unlock exchanges a correct PIN for a short-lived unlock token
func (g *Gate) Unlock(ctx context.Context, pin string) (*UnlockToken, error) {
	if g.sessions == nil {
		return nil, errors.New("unlock tokens are disabled")
	}

	s, err := g.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if !s.HasPin() {
		return nil, ErrNoPinSet
	}
	if !VerifyPin(pin, s.PinHash) {
		g.metrics.ObservePinFailure()
		return nil, ErrInvalidPin
	}
	return g.sessions.Issue(s.PinHash)
}
