package token

import (
	"crypto/ed25519"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"entauth/internal/domain"
)

// KeyPair holds one imported Ed25519 signing key pair plus the armored public
// key text handed out for offline verification.
type KeyPair struct {
	Private   ed25519.PrivateKey
	Public    ed25519.PublicKey
	PublicPEM string
}

// KeySet holds the per-kind key pairs. It is imported once at startup and
// shared for the lifetime of the process; keys are immutable after import.
type KeySet struct {
	identity    KeyPair
	entitlement KeyPair
}

// LoadKeySet imports both armored key pairs. Any parse failure is a fatal
// configuration error, distinct from a runtime verification failure.
func LoadKeySet(identityPrivPEM, identityPubPEM, entitlementPrivPEM, entitlementPubPEM string) (*KeySet, error) {
	identity, err := loadKeyPair(identityPrivPEM, identityPubPEM)
	if err != nil {
		return nil, fmt.Errorf("identity key pair: %w", err)
	}
	entitlement, err := loadKeyPair(entitlementPrivPEM, entitlementPubPEM)
	if err != nil {
		return nil, fmt.Errorf("entitlement key pair: %w", err)
	}
	return &KeySet{identity: identity, entitlement: entitlement}, nil
}

func loadKeyPair(privPEM, pubPEM string) (KeyPair, error) {
	priv, err := jwt.ParseEdPrivateKeyFromPEM([]byte(privPEM))
	if err != nil {
		return KeyPair{}, fmt.Errorf("failed to parse private key: %w", err)
	}
	edPriv, ok := priv.(ed25519.PrivateKey)
	if !ok {
		return KeyPair{}, fmt.Errorf("private key is not Ed25519")
	}

	pub, err := jwt.ParseEdPublicKeyFromPEM([]byte(pubPEM))
	if err != nil {
		return KeyPair{}, fmt.Errorf("failed to parse public key: %w", err)
	}
	edPub, ok := pub.(ed25519.PublicKey)
	if !ok {
		return KeyPair{}, fmt.Errorf("public key is not Ed25519")
	}

	return KeyPair{Private: edPriv, Public: edPub, PublicPEM: pubPEM}, nil
}

// Pair returns the key pair for a token purpose
func (ks *KeySet) Pair(purpose domain.Purpose) (KeyPair, error) {
	switch purpose {
	case domain.PurposeIdentity:
		return ks.identity, nil
	case domain.PurposeEntitlement:
		return ks.entitlement, nil
	default:
		return KeyPair{}, fmt.Errorf("unknown token purpose %q", purpose)
	}
}
