package services

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	accessTokenTTL  = 24 * time.Hour
	refreshTokenTTL = 7 * 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid or expired token")

// TokenPair carries both tokens issued at registration/login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func jwtSecret() []byte {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "secret_key_change_me"
	}
	return []byte(secret)
}

// IssueTokenPair signs a fresh access+refresh pair for a user.
func IssueTokenPair(userID uint) (TokenPair, error) {
	access, err := signToken(userID, TokenTypeAccess, accessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := signToken(userID, TokenTypeRefresh, refreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// RefreshAccessToken validates a refresh token and mints a new access token.
func RefreshAccessToken(refreshToken string) (string, error) {
	userID, err := ParseToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", err
	}
	return signToken(userID, TokenTypeAccess, accessTokenTTL)
}

func signToken(userID uint, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"type":    tokenType,
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	})
	return token.SignedString(jwtSecret())
}

// ParseToken verifies signature, expiry and token type, returning the user id.
func ParseToken(tokenString, wantType string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return jwtSecret(), nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	if typ, _ := claims["type"].(string); typ != wantType {
		return 0, ErrInvalidToken
	}
	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return 0, ErrInvalidToken
	}
	return uint(userID), nil
}
