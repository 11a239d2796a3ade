package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Fingerprint builds the deterministic cache key for an analysis request.
// The key embeds the subject and input kind in clear text for scoped
// invalidation and debugging, plus a short digest of the request payload so
// distinct inputs never collide.
func Fingerprint(subjectID, kind string, payload []byte, origin string) string {
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("%s:%s:%s:%s",
		sanitizeKeyPart(subjectID),
		sanitizeKeyPart(kind),
		sanitizeKeyPart(origin),
		hex.EncodeToString(sum[:8]))
}

// SubjectFromKey recovers the subject segment of a fingerprint, or "" when
// the key does not look like one of ours.
func SubjectFromKey(key string) string {
	parts := strings.SplitN(key, ":", 2)
	if len(parts) != 2 {
		return ""
	}
	return parts[0]
}

// sanitizeKeyPart keeps key segments unambiguous under ":"-splitting.
func sanitizeKeyPart(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}
