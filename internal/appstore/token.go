package appstore

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenLifetime is how long a signed token stays valid. Apple rejects
	// tokens that live longer than 20 minutes.
	TokenLifetime = 20 * time.Minute

	// Audience is the aud claim App Store Connect expects.
	Audience = "appstoreconnect-v1"
)

var (
	// ErrInvalidKey is returned when the private key is not an EC key in PEM form.
	ErrInvalidKey = errors.New("invalid app store connect private key")

	errKeyIdentifierRequired = errors.New("key identifier must be provided")
	errIssuerRequired        = errors.New("issuer id must be provided")
)

// Signer creates App Store Connect bearer tokens.
type Signer struct {
	key      *ecdsa.PrivateKey
	keyID    string
	issuerID string
	lifetime time.Duration
	now      func() time.Time
}

// NewSigner parses the PEM encoded .p8 key and prepares a signer for keyID and issuerID.
func NewSigner(keyPEM []byte, keyID, issuerID string) (*Signer, error) {
	if keyID == "" {
		return nil, errKeyIdentifierRequired
	}

	if issuerID == "" {
		return nil, errIssuerRequired
	}

	key, err := jwt.ParseECPrivateKeyFromPEM(keyPEM)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}

	return &Signer{
		key:      key,
		keyID:    keyID,
		issuerID: issuerID,
		lifetime: TokenLifetime,
		now:      time.Now,
	}, nil
}

// Token signs a fresh token expiring TokenLifetime from now.
func (s *Signer) Token() (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": s.issuerID,
		"exp": s.now().Add(s.lifetime).Unix(),
		"aud": Audience,
	})
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}
