// Package signedtoken issues and verifies HS256 signed-claims tokens. Demo grants,
// OAuth state and session tokens all go through it.
package signedtoken

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalid = errors.New("signedtoken: invalid token")
	ErrExpired = errors.New("signedtoken: token expired")
)

// Claims is the decoded claim set of a verified token.
type Claims = jwt.MapClaims

// Sign signs claims with secret. iat and exp are derived from issuedAt and ttl and
// override any values already present in claims.
func Sign(claims Claims, secret []byte, issuedAt time.Time, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("signedtoken: empty secret")
	}
	out := make(jwt.MapClaims, len(claims)+2)
	for k, v := range claims {
		out[k] = v
	}
	out["iat"] = issuedAt.Unix()
	out["exp"] = issuedAt.Add(ttl).Unix()

	return jwt.NewWithClaims(jwt.SigningMethodHS256, out).SignedString(secret)
}

// VerifyOption adjusts how Verify validates a token.
type VerifyOption func(*[]jwt.ParserOption)

// At checks expiry against now instead of the wall clock.
func At(now func() time.Time) VerifyOption {
	return func(opts *[]jwt.ParserOption) {
		if now != nil {
			*opts = append(*opts, jwt.WithTimeFunc(now))
		}
	}
}

// Verify checks signature and expiry and returns the claims.
func Verify(token string, secret []byte, opts ...VerifyOption) (Claims, error) {
	parserOpts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	for _, opt := range opts {
		opt(&parserOpts)
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, parserOpts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalid
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalid
	}
	return claims, nil
}

// String returns a string claim, or "" when missing or of another type.
func String(claims Claims, key string) string {
	s, _ := claims[key].(string)
	return s
}

// Time returns a numeric (epoch seconds) claim as time.
func Time(claims Claims, key string) (time.Time, bool) {
	switch v := claims[key].(type) {
	case float64:
		return time.Unix(int64(v), 0), true
	case int64:
		return time.Unix(v, 0), true
	case int:
		return time.Unix(int64(v), 0), true
	}
	return time.Time{}, false
}

// Strings returns a string-array claim.
func Strings(claims Claims, key string) []string {
	raw, ok := claims[key].([]interface{})
	if !ok {
		if direct, ok := claims[key].([]string); ok {
			return direct
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
