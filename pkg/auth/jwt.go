package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleVisitor    = "visitor"
	RoleUser       = "user"
	RoleSuperadmin = "superadmin"

	audience = "nikosoko-api"
)

// Claims identify a browsing session. Sub is the bound provider id, zero
// until the session logs in.
type Claims struct {
	Sid   string `json:"sid"`
	Sub   int64  `json:"sub,omitempty"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func NewSessionToken(sid string, sub int64, phone, role, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Sid:   sid,
		Sub:   sub,
		Phone: phone,
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sid,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Audience:  []string{audience},
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func Parse(tokenString, secret string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
	)
	if err != nil {
		return nil, err
	}
	if claims, ok := tok.Claims.(*Claims); ok && tok.Valid && claims.Sid != "" {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
