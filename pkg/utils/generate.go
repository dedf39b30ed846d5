package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"

	"golang.org/x/crypto/blake2b"
)

// GenerateOTP returns a numeric code of exactly length digits with no
// leading zero.
func GenerateOTP(length int) (string, error) {
	if length <= 0 {
		length = 5
	}

	low := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length-1)), nil)
	span := new(big.Int).Mul(low, big.NewInt(9))

	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}

	return n.Add(n, low).String(), nil
}

// HashOTP binds a code to its email so a digest cannot be replayed for
// another address.
func HashOTP(email, code string) string {
	return Digest(email + ":" + code)
}

// Digest returns the hex blake2b-256 of s.
func Digest(s string) string {
	sum := blake2b.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
