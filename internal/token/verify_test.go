package token

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entauth/internal/domain"
)

func mintTestIdentity(t *testing.T, minter *Minter) string {
	t.Helper()
	signed, _, err := minter.MintIdentity("user@example.com")
	require.NoError(t, err)
	return signed
}

func TestVerify_WrongKeyPairAlwaysRejects(t *testing.T) {
	signed := mintTestIdentity(t, testMinter(t))

	verifier := NewVerifier("entauth", otherKeySet(t))
	_, err := verifier.Verify(signed, domain.PurposeIdentity)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_PurposeMismatch(t *testing.T) {
	minter := testMinter(t)
	verifier := NewVerifier("entauth", testKeySet(t))

	identity := mintTestIdentity(t, minter)
	_, err := verifier.Verify(identity, domain.PurposeEntitlement)
	assert.ErrorIs(t, err, ErrInvalidToken)

	entitlement, _, _, err := minter.MintEntitlement("user@example.com", nil)
	require.NoError(t, err)
	_, err = verifier.Verify(entitlement, domain.PurposeIdentity)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_AudienceMismatch(t *testing.T) {
	signed := mintTestIdentity(t, testMinter(t))

	verifier := NewVerifier("someone-else", testKeySet(t))
	_, err := verifier.Verify(signed, domain.PurposeIdentity)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_Expired(t *testing.T) {
	minter := testMinter(t)
	minter.now = func() time.Time { return time.Now().Add(-200 * time.Hour) }
	signed := mintTestIdentity(t, minter)

	verifier := NewVerifier("entauth", testKeySet(t))
	_, err := verifier.Verify(signed, domain.PurposeIdentity)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_TamperedClaims(t *testing.T) {
	signed := mintTestIdentity(t, testMinter(t))
	header, claimsSeg, sig, err := SplitToken(signed)
	require.NoError(t, err)

	// Re-encode the claims with a different subject; the signature still
	// covers the original bytes and must no longer match
	claimsJSON, err := DecodeSegment(claimsSeg)
	require.NoError(t, err)
	var claims map[string]interface{}
	require.NoError(t, json.Unmarshal(claimsJSON, &claims))
	claims["sub"] = "attacker@example.com"
	forged, err := json.Marshal(claims)
	require.NoError(t, err)

	tampered := header + "." + EncodeSegment(forged) + "." + sig

	verifier := NewVerifier("entauth", testKeySet(t))
	_, err = verifier.Verify(tampered, domain.PurposeIdentity)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_TamperedSingleByte(t *testing.T) {
	signed := mintTestIdentity(t, testMinter(t))
	verifier := NewVerifier("entauth", testKeySet(t))

	header, claimsSeg, _, err := SplitToken(signed)
	require.NoError(t, err)
	offset := len(header) + 1

	// Flip each byte of the claim segment in turn; every variant must fail
	for i := 0; i < len(claimsSeg); i++ {
		mutated := []byte(signed)
		if mutated[offset+i] == 'A' {
			mutated[offset+i] = 'B'
		} else {
			mutated[offset+i] = 'A'
		}
		if string(mutated) == signed {
			continue
		}
		_, err := verifier.Verify(string(mutated), domain.PurposeIdentity)
		assert.Error(t, err, "byte %d", i)
	}
}

func TestVerify_Malformed(t *testing.T) {
	verifier := NewVerifier("entauth", testKeySet(t))

	tests := []struct {
		name  string
		token string
	}{
		{"Empty", ""},
		{"One segment", "abc"},
		{"Two segments", "abc.def"},
		{"Four segments", "a.b.c.d"},
		{"Garbage segments", "!!!.###.$$$"},
		{"Valid base64, invalid JSON", EncodeString("hi") + "." + EncodeString("there") + "." + EncodeString("sig")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := verifier.Verify(tt.token, domain.PurposeIdentity)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerify_UnknownPurpose(t *testing.T) {
	verifier := NewVerifier("entauth", testKeySet(t))
	_, err := verifier.Verify(mintTestIdentity(t, testMinter(t)), "session")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectionsAreGeneric(t *testing.T) {
	verifier := NewVerifier("entauth", testKeySet(t))

	// Different internal causes, one caller-visible sentinel
	_, errMalformed := verifier.Verify("abc", domain.PurposeIdentity)
	_, errWrongKey := NewVerifier("entauth", otherKeySet(t)).Verify(mintTestIdentity(t, testMinter(t)), domain.PurposeIdentity)

	assert.ErrorIs(t, errMalformed, ErrInvalidToken)
	assert.ErrorIs(t, errWrongKey, ErrInvalidToken)
	// The wrapped causes differ for logging
	assert.NotEqual(t, errMalformed.Error(), errWrongKey.Error())
}
