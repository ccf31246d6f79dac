// Package otp generates and checks the one-time codes used to confirm
// registration, password resets, and email/phone changes.
package otp

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

// TTL is how long a code stays valid after it is issued.
const TTL = 5 * time.Minute

// Generate returns a random 6-digit code in the range 100000-999999.
// Codes with a leading zero are never produced; the keyspace is 900,000
// values, not the full 1,000,000.
func Generate() string {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		// crypto/rand only fails when the OS entropy source is broken
		panic(err)
	}
	return strconv.FormatInt(n.Int64()+100000, 10)
}

// Expiry returns the expiry timestamp for a code issued at now.
func Expiry(now time.Time) time.Time {
	return now.Add(TTL)
}

// IsExpired reports whether expiresAt has passed. The boundary is strict:
// a code checked at exactly its expiry instant is still valid.
func IsExpired(expiresAt, now time.Time) bool {
	return now.After(expiresAt)
}

// IsValidFormat reports whether code is exactly 6 ASCII digits. Malformed
// codes are rejected here, before any account lookup happens.
func IsValidFormat(code string) bool {
	if len(code) != 6 {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
