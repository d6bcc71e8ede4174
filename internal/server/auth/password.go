package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher turns plaintext passwords into salted one-way digests and
// checks candidates against them.
type PasswordHasher interface {
	// Hash returns a new digest; two calls with the same input differ.
	Hash(password string) (string, error)

	// Verify returns (true, nil) on match, (false, nil) on mismatch and an
	// error only when digest is not a usable hash.
	Verify(password, digest string) (bool, error)

	// DummyVerify burns the same CPU as a real Verify against a throwaway
	// digest, so unknown accounts take as long to reject as wrong passwords.
	DummyVerify(password string)
}

// BcryptHasher implements PasswordHasher with bcrypt.
type BcryptHasher struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

func (h *BcryptHasher) Verify(password, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("verify password: %w", err)
}

func (h *BcryptHasher) DummyVerify(password string) {
	h.dummyOnce.Do(func() {
		seed := make([]byte, 16)
		_, _ = rand.Read(seed)
		h.dummy, _ = bcrypt.GenerateFromPassword(seed, h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
}
