package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Errors of token validation
var (
	ErrTokenIsInvalid = errors.New("token is invalid")
	ErrTokenIsExpired = errors.New("token is expired")
)

// tokenTTL is the lifetime of an issued token
const tokenTTL = 24 * time.Hour

// JWTService issues and validates HS256 tokens signed with a shared secret
type JWTService struct {
	authSecretKey string
}

// NewJWTService creates a JWTService signing with authSecretKey
func NewJWTService(authSecretKey string) *JWTService {
	return &JWTService{authSecretKey: authSecretKey}
}

// GenerateJWT signs an HS256 token for subject that expires in 24 hours.
func (j *JWTService) GenerateJWT(subject string) (string, error) {
	now := time.Now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": now.Add(tokenTTL).Unix(),
	})

	tokenString, err := token.SignedString([]byte(j.authSecretKey))
	if err != nil {
		return "", fmt.Errorf("error while generating token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken parses tokenString and checks its signature and expiry.
// An expired token yields ErrTokenIsExpired.
func (j *JWTService) ValidateToken(tokenString string) (*jwt.Token, error) {
	parsedToken, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Only HMAC signatures are accepted
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(j.authSecretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenIsExpired
		}
		return nil, fmt.Errorf("error while validating token: %w", err)
	}

	if !parsedToken.Valid {
		return nil, ErrTokenIsInvalid
	}

	return parsedToken, nil
}
