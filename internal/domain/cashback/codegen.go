package cashback

import (
	"crypto/rand"
	"fmt"
)

// Unambiguous alphabet: no 0/O, 1/I/L
const codeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

const (
	baseCodeLength = 10
	maxCodeLength  = 16

	// Attempts per code before the length is escalated
	collisionRetries = 3
)

// generateCode produces a random code of the given length from the
// unambiguous alphabet
func generateCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// escalateLength widens the code space after repeated collisions so
// the retry loop stays bounded even under load
func escalateLength(current int) int {
	next := current + 2
	if next > maxCodeLength {
		return maxCodeLength
	}
	return next
}
