package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_Deterministic(t *testing.T) {
	payload := []byte(`{"moods":[{"mood":55}]}`)

	a := Fingerprint("subj-1", "data", payload, "mobile")
	b := Fingerprint("subj-1", "data", payload, "mobile")
	assert.Equal(t, a, b)
}

func TestFingerprint_DistinctInputs(t *testing.T) {
	base := Fingerprint("subj-1", "data", []byte("a"), "mobile")

	assert.NotEqual(t, base, Fingerprint("subj-1", "data", []byte("b"), "mobile"))
	assert.NotEqual(t, base, Fingerprint("subj-2", "data", []byte("a"), "mobile"))
	assert.NotEqual(t, base, Fingerprint("subj-1", "voice", []byte("a"), "mobile"))
	assert.NotEqual(t, base, Fingerprint("subj-1", "data", []byte("a"), "web"))
}

func TestFingerprint_SanitizesColons(t *testing.T) {
	key := Fingerprint("subj:with:colons", "data", []byte("x"), "mobile")

	// Exactly three separators survive, so the subject segment stays
	// recoverable.
	assert.Equal(t, 3, strings.Count(key, ":"))
	assert.Equal(t, "subj_with_colons", SubjectFromKey(key))
}

func TestSubjectFromKey(t *testing.T) {
	key := Fingerprint("subj-9", "voice", []byte("hello"), "")
	assert.Equal(t, "subj-9", SubjectFromKey(key))
	assert.Equal(t, "", SubjectFromKey("no-separator"))
}
