// Package fingerprint computes the short hash that names a snapshot directory.
package fingerprint

import (
	"bytes"
	"cmp"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"slices"

	ferrors "git.home.luguber.info/inful/docsnap/internal/foundation/errors"
)

// Length is the number of hex characters kept from the digest.
const Length = 8

// Pair is one (key, value) of a snapshot.
type Pair struct {
	Key   string
	Value any
}

// Serialize encodes pairs as comma-joined JSON arrays `["key",value]`, ordered by key.
// The input slice is not reordered.
func Serialize(pairs []Pair) ([]byte, error) {
	sorted := slices.Clone(pairs)
	slices.SortFunc(sorted, func(a, b Pair) int { return cmp.Compare(a.Key, b.Key) })

	var buf bytes.Buffer
	for i, p := range sorted {
		if i > 0 {
			buf.WriteByte(',')
		}
		encoded, err := json.Marshal([]any{p.Key, p.Value})
		if err != nil {
			return nil, ferrors.SnapshotError("serialize snapshot entry").WithCause(err).
				WithContext("key", p.Key).
				Build()
		}
		buf.Write(encoded)
	}
	return buf.Bytes(), nil
}

// Sum returns the first Length hex characters of the SHA-512 digest of data.
func Sum(data []byte) string {
	digest := sha512.Sum512(data)
	return hex.EncodeToString(digest[:])[:Length]
}

// Compute serializes pairs and returns their fingerprint.
func Compute(pairs []Pair) (string, error) {
	serial, err := Serialize(pairs)
	if err != nil {
		return "", err
	}
	return Sum(serial), nil
}
