package token

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Wire tokens are three dot-joined base64url segments without padding; the
// signing input is exactly header_segment + "." + claims_segment.

// EncodeSegment base64url-encodes raw bytes without padding
func EncodeSegment(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeSegment decodes one base64url token segment
func DecodeSegment(segment string) ([]byte, error) {
	data, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		return nil, fmt.Errorf("invalid base64url segment: %w", err)
	}
	return data, nil
}

// EncodeString base64url-encodes a UTF-8 string
func EncodeString(s string) string {
	return EncodeSegment([]byte(s))
}

// DecodeString decodes a base64url segment back into a UTF-8 string
func DecodeString(segment string) (string, error) {
	data, err := DecodeSegment(segment)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SplitToken splits a wire token into its three segments. Segment count is a
// structural check; anything other than exactly three is malformed.
func SplitToken(token string) (header, claims, signature string, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("expected 3 token segments, found %d", len(parts))
	}
	return parts[0], parts[1], parts[2], nil
}

// SigningInput re-derives the exact byte sequence covered by the signature
func SigningInput(header, claims string) []byte {
	return []byte(header + "." + claims)
}
