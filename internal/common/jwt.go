package common

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"

	"nirala/internal/config"
)

// Claims identifies the caller. Tokens are minted by the identity service.
type Claims struct {
	UserID string `json:"user_id"`
	Handle string `json:"handle"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// RoleService marks tokens of internal producer services. Only they may act
// on behalf of other users over the internal RPC.
const RoleService = "service"

// TokenValidator verifies HS256 bearer tokens and keeps recently validated
// claims in memory.
type TokenValidator struct {
	secret []byte
	issuer string
	ttl    time.Duration
	cache  *cache.Cache
}

func NewTokenValidator(cfg *config.Config) *TokenValidator {
	ttl := cfg.Auth.TokenCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TokenValidator{
		secret: []byte(cfg.Auth.JWTSecret),
		issuer: cfg.Auth.Issuer,
		ttl:    ttl,
		cache:  cache.New(ttl, time.Minute),
	}
}

func (v *TokenValidator) GenerateToken(userID, handle string, validFor time.Duration) (string, error) {
	return v.sign(&Claims{UserID: userID, Handle: handle}, validFor)
}

// GenerateServiceToken mints a token for an internal producer such as the
// forum or marketplace service.
func (v *TokenValidator) GenerateServiceToken(service string, validFor time.Duration) (string, error) {
	return v.sign(&Claims{UserID: service, Handle: service, Role: RoleService}, validFor)
}

func (v *TokenValidator) sign(claims *Claims, validFor time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(validFor)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    v.issuer,
		Subject:   claims.UserID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(v.secret)
}

// Validate returns the claims carried by tokenString or an error wrapping
// ErrUnauthorized.
func (v *TokenValidator) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: missing token", ErrUnauthorized)
	}
	if cached, found := v.cache.Get(tokenString); found {
		claims := cached.(*Claims)
		if claims.ExpiresAt == nil || claims.ExpiresAt.After(time.Now()) {
			return claims, nil
		}
		v.cache.Delete(tokenString)
	}

	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}

	ttl := v.ttl
	if remaining := time.Until(claims.ExpiresAt.Time); remaining < ttl {
		ttl = remaining
	}
	v.cache.Set(tokenString, claims, ttl)

	return claims, nil
}
