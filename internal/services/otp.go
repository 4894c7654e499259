package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
)

// OTPCodeLength is the number of decimal digits in a login code
const OTPCodeLength = 6

// generateOTPCode returns a uniformly random numeric code of OTPCodeLength digits
func generateOTPCode() (string, error) {
	code := make([]byte, OTPCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate otp digit: %w", err)
		}
		code[i] = byte('0' + n.Int64())
	}
	return string(code), nil
}

// hashOTPCode is the at-rest form of a code. Codes never touch storage in plaintext.
func hashOTPCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}
