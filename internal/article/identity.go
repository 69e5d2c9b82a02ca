package article

import (
	"crypto/sha256"
	"encoding/hex"
)

// IdentityHash digests the URL exactly as supplied. No normalization is
// applied, so "https://a.com/x" and "https://a.com/x/" are distinct
// articles.
func IdentityHash(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:])
}
