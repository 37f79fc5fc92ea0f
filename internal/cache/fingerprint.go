package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint returns a stable cache key for a logical request. Each part is
// lowercased and whitespace-collapsed before hashing, so "Acme  Corp" and
// "acme corp" name the same cached computation across runs.
func Fingerprint(parts ...string) string {
	norm := make([]string, 0, len(parts))
	for _, p := range parts {
		norm = append(norm, strings.Join(strings.Fields(strings.ToLower(p)), " "))
	}

	sum := sha256.Sum256([]byte(strings.Join(norm, "\x1f")))
	return hex.EncodeToString(sum[:16])
}
