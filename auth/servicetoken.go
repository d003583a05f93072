package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"lostfound/models"
)

// ServiceClaims identifies the user on whose behalf the backend calls the
// notify relay. The relay re-checks uid and role against the claim
// document, so a token never grants more than its subject could do.
type ServiceClaims struct {
	UID  string      `json:"uid"`
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// ServiceTokens mints and validates short-lived HS256 tokens for
// backend-to-relay calls.
type ServiceTokens struct {
	secretKey []byte
	ttl       time.Duration
}

// NewServiceTokens creates a new service token manager
func NewServiceTokens(secret string, ttl time.Duration) *ServiceTokens {
	return &ServiceTokens{
		secretKey: []byte(secret),
		ttl:       ttl,
	}
}

// Mint generates a token asserting the given user identity
func (s *ServiceTokens) Mint(uid string, role models.Role) (string, error) {
	now := time.Now()
	claims := ServiceClaims{
		UID:  uid,
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "lostfound-api",
			Subject:   uid,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// Verify validates a service token and returns its claims
func (s *ServiceTokens) Verify(tokenString string) (*ServiceClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ServiceClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*ServiceClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// ExtractBearer extracts the token from an Authorization header.
// Expected format: "Bearer <token>"
func ExtractBearer(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("authorization header is empty")
	}

	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return "", errors.New("invalid authorization header format")
	}

	return authHeader[7:], nil
}
