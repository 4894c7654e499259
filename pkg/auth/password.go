package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/matthewhartstonge/argon2"
	"golang.org/x/crypto/bcrypt"
)

const (
	BcryptCost     = 12
	MinPasswordLen = 8
	MaxPasswordLen = 128

	argon2Prefix = "$argon2"
)

// ErrPasswordMismatch is returned when a password does not match its hash
var ErrPasswordMismatch = errors.New("password does not match")

// PasswordValidationError lists the rules a password broke. Error() stays
// generic so callers cannot echo the rules back to a client.
type PasswordValidationError struct {
	Violations []string
}

func (e *PasswordValidationError) Error() string {
	return "invalid password"
}

// passwordRule reports a violation message, or "" when the password passes
type passwordRule func(password string) string

var passwordRules = []passwordRule{
	func(p string) string {
		if n := len(p); n < MinPasswordLen || n > MaxPasswordLen {
			return fmt.Sprintf("length must be between %d and %d bytes", MinPasswordLen, MaxPasswordLen)
		}
		return ""
	},
	requireClass("uppercase letter", unicode.IsUpper),
	requireClass("lowercase letter", unicode.IsLower),
	requireClass("digit", unicode.IsDigit),
	requireClass("special character", func(r rune) bool { return unicode.IsPunct(r) || unicode.IsSymbol(r) }),
	func(p string) string {
		if _, weak := commonPasswords[strings.ToLower(p)]; weak {
			return "is a commonly used password"
		}
		return ""
	},
}

func requireClass(name string, in func(rune) bool) passwordRule {
	return func(p string) string {
		if strings.IndexFunc(p, in) < 0 {
			return "must contain at least one " + name
		}
		return ""
	}
}

var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "password123!": {},
	"passw0rd": {}, "p@ssw0rd": {}, "12345678": {}, "123456789": {},
	"qwerty123": {}, "qwertyuiop": {}, "iloveyou": {}, "letmein": {},
	"welcome1": {}, "trustno1": {}, "sunshine": {}, "football": {},
	"taskvault": {}, "taskvault1": {}, "changeme": {}, "admin123": {},
}

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// ComparePassword checks a password against a bcrypt hash, or an argon2 encoded hash
// for accounts imported from systems that used argon2. Both comparisons are constant time.
func ComparePassword(hashedPassword, password string) error {
	if strings.HasPrefix(hashedPassword, argon2Prefix) {
		ok, err := argon2.VerifyEncoded([]byte(password), []byte(hashedPassword))
		if err != nil {
			return fmt.Errorf("failed to verify argon2 hash: %w", err)
		}
		if !ok {
			return ErrPasswordMismatch
		}
		return nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// DummyHash returns a bcrypt hash at BcryptCost that matches no real password.
// Comparing against it keeps unknown-account paths as slow as real ones.
func DummyHash() string {
	dummyHashOnce.Do(func() {
		hashed, err := bcrypt.GenerateFromPassword([]byte("taskvault-dummy-password"), BcryptCost)
		if err != nil {
			panic(fmt.Sprintf("failed to generate dummy hash: %v", err))
		}
		dummyHash = string(hashed)
	})
	return dummyHash
}

// ValidatePassword applies every password rule and returns a
// *PasswordValidationError listing the broken ones
func ValidatePassword(password string) error {
	var violations []string
	for _, rule := range passwordRules {
		if msg := rule(password); msg != "" {
			violations = append(violations, msg)
		}
	}
	if len(violations) > 0 {
		return &PasswordValidationError{Violations: violations}
	}
	return nil
}
