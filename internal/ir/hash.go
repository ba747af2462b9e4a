package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainQuery = "grizzly/query/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes the content-addressed identity of a compiled query.
// Identical SQL text with identical parameters always yields the same
// fingerprint, independent of which frames produced it.
func Fingerprint(dialect, sql string, params []Value) (string, error) {
	if params == nil {
		params = []Value{}
	}
	obj := map[string]any{
		"dialect": dialect,
		"sql":     sql,
		"params":  params,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("Fingerprint: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainQuery, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
func MustFingerprint(dialect, sql string, params []Value) string {
	fp, err := Fingerprint(dialect, sql, params)
	if err != nil {
		panic(err)
	}
	return fp
}
