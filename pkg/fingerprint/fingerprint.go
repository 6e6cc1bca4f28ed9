package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// DetailURL creates a deterministic identifier for a listing from its
// detail page URL. The identifier is the uppercase hex SHA256 digest of
// the raw URL string and doubles as the primary key in the rentals
// table, so the same listing always maps to the same row. The URL is
// hashed as is; an empty string is still a valid input and yields the
// digest of no bytes.
func DetailURL(url string) string {
	hash := sha256.Sum256([]byte(url))
	return strings.ToUpper(hex.EncodeToString(hash[:]))
}
