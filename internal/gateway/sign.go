// Package gateway implements the outbound client for the external payment
// gateway and the signature scheme shared by outbound requests and inbound
// webhook callbacks.
//
// The scheme is HMAC-SHA256 over a canonical raw string: the request fields
// sorted by key and joined as "k1=v1&k2=v2&...", hex-encoded. Webhook bodies
// are signed as-is (raw bytes), so callers must verify before parsing.
package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// BuildRawSignature joins the fields as "k=v" pairs sorted by key, separated
// by "&". This is the canonical string both sides sign.
func BuildRawSignature(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+fields[k])
	}
	return strings.Join(parts, "&")
}

// Sign computes the hex-encoded HMAC-SHA256 of raw under secret.
func Sign(raw []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(raw)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifySignature reports whether signature is the valid HMAC of raw under
// secret. The comparison is constant time.
func VerifySignature(raw []byte, signature, secret string) bool {
	expected := Sign(raw, secret)
	return hmac.Equal([]byte(expected), []byte(signature))
}
