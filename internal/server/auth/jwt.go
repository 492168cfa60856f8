package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/appauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// TokenLifetime is the fixed validity window of issued tokens.
const TokenLifetime = time.Hour

// TokenClaims are the claims carried by an access token. Times are Unix
// seconds.
type TokenClaims struct {
	Sub string
	Iat int64
	Exp int64
}

// Encode signs claims with HS256. The payload is {"sub","iat","exp"}.
func Encode(claims TokenClaims, secret []byte) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   claims.Sub,
		IssuedAt:  jwt.NewNumericDate(time.Unix(claims.Iat, 0)),
		ExpiresAt: jwt.NewNumericDate(time.Unix(claims.Exp, 0)),
	})

	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// Decode verifies tokenString against secret and returns its claims. Expired
// tokens yield common.ErrTokenExpired; any other failure, including a missing
// sub, iat or exp, yields an error wrapping common.ErrInvalidToken.
func Decode(tokenString string, secret []byte, now time.Time) (TokenClaims, error) {
	rc := &jwt.RegisteredClaims{}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	token, err := parser.ParseWithClaims(tokenString, rc, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenClaims{}, common.ErrTokenExpired
		}
		return TokenClaims{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return TokenClaims{}, common.ErrInvalidToken
	}
	if rc.Subject == "" || rc.IssuedAt == nil {
		return TokenClaims{}, fmt.Errorf("%w: missing sub or iat", common.ErrInvalidToken)
	}

	return TokenClaims{
		Sub: rc.Subject,
		Iat: rc.IssuedAt.Unix(),
		Exp: rc.ExpiresAt.Unix(),
	}, nil
}

// TokenCodec binds Encode and Decode to the process secret and a clock.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

func NewTokenCodec(secret []byte, now func() time.Time) *TokenCodec {
	if now == nil {
		now = time.Now
	}
	return &TokenCodec{secret: secret, now: now}
}

// Issue creates a token for sub valid for TokenLifetime from now.
func (c *TokenCodec) Issue(sub string) (string, TokenClaims, error) {
	iat := c.now().Unix()
	claims := TokenClaims{Sub: sub, Iat: iat, Exp: iat + int64(TokenLifetime/time.Second)}

	token, err := Encode(claims, c.secret)
	if err != nil {
		return "", TokenClaims{}, err
	}
	return token, claims, nil
}

// Verify decodes tokenString using the codec clock.
func (c *TokenCodec) Verify(tokenString string) (TokenClaims, error) {
	return Decode(tokenString, c.secret, c.now())
}
