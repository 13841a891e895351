// backend/pkg/utils/identity.go
package utils

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// GenerateEvaluatorID derives a stable anonymous evaluator identifier from a
// client fingerprint (IP + user agent). The hash rotates hourly so identifiers
// are not permanently linkable.
func GenerateEvaluatorID(fingerprint string) string {
	hash := md5.Sum([]byte(fingerprint + fmt.Sprintf("%d", time.Now().Unix()/3600)))
	return hex.EncodeToString(hash[:])[:16]
}

// GenerateRandomID generates a random hex ID of the given length
func GenerateRandomID(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based ID
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)[:length]
}
