package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// TokenClaims represents the claims stored in a session token
type TokenClaims struct {
	UserID    string    `json:"user_id"` // UUID stored as string in token
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// jwtClaims is the wire format of the JWT payload: userId, email plus
// the registered iat/exp claims.
type jwtClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// JWTService handles JWT session token creation and validation using HS256
type JWTService struct {
	signingSecret []byte
}

func NewJWTService(signingSecret string) (*JWTService, error) {
	if signingSecret == "" {
		return nil, errors.New("signing secret must not be empty")
	}
	return &JWTService{signingSecret: []byte(signingSecret)}, nil
}

// CreateToken generates a signed HS256 JWT with the given claims and duration
func (s *JWTService) CreateToken(userID uuid.UUID, email string, duration time.Duration) (string, error) {
	now := time.Now()

	claims := jwtClaims{
		UserID: userID.String(),
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(duration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.signingSecret)
}

// VerifyToken validates a JWT and returns the claims
func (s *JWTService) VerifyToken(tokenStr string) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &jwtClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.signingSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwtClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return &TokenClaims{
		UserID:    claims.UserID,
		Email:     claims.Email,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
