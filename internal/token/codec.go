package token

import (
	"crypto/rsa"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed        = errors.New("malformed token")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrAudienceMismatch = errors.New("token audience mismatch")
)

// Claims is the payload carried by every issued token. Expires is epoch
// millis and is deliberately a custom claim, not the registered exp claim:
// the codec never enforces it, callers check it against their own clock.
type Claims struct {
	PrincipalID string `json:"principalId"`
	Expires     int64  `json:"expires"`
	jwt.RegisteredClaims
}

// Codec signs and verifies RS256 tokens for a single audience. The private
// key may be nil for verify-only deployments.
type Codec struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	audience   string
}

func NewCodec(privateKey *rsa.PrivateKey, publicKey *rsa.PublicKey, audience string) *Codec {
	return &Codec{
		privateKey: privateKey,
		publicKey:  publicKey,
		audience:   audience,
	}
}

func (c *Codec) Sign(principalID string, expires int64) (string, error) {
	if c.privateKey == nil {
		return "", errors.New("codec has no signing key")
	}

	claims := Claims{
		PrincipalID: principalID,
		Expires:     expires,
		RegisteredClaims: jwt.RegisteredClaims{
			Audience: jwt.ClaimStrings{c.audience},
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(c.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Verify checks the signature and audience and returns the decoded claims.
// It does not evaluate the Expires claim.
func (c *Codec) Verify(tokenString string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		return c.publicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(c.audience),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		case errors.Is(err, jwt.ErrTokenInvalidAudience):
			return Claims{}, fmt.Errorf("%w: %v", ErrAudienceMismatch, err)
		default:
			return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, ErrMalformed
	}

	return *claims, nil
}
