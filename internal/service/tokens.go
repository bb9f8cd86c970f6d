package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/digiplay/digiplay-server/internal/models"
)

const refreshTokenBytes = 32

// ParseAccessToken validates an HS256 access token and returns its subject
func ParseAccessToken(tokenString string, secret []byte) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrUnauthorized
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", ErrUnauthorized
	}
	return subject, nil
}

func (s *DefaultService) generateJWT(parent *models.Parent, issuedAt time.Time) (string, error) {
	expirationTime := issuedAt.Add(s.tokenDuration)

	claims := jwt.MapClaims{
		"sub": parent.ID, // subject
		"exp": expirationTime.Unix(),
		"iat": issuedAt.Unix(), // issued at
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// newTokenPair returns the token data for the client and the refresh token
// row to persist.
func (s *DefaultService) newTokenPair(parent *models.Parent) (*models.AuthTokenData, *models.RefreshToken, error) {
	issuedAt := s.now().UTC()

	access, err := s.generateJWT(parent, issuedAt)
	if err != nil {
		return nil, nil, fmt.Errorf("error generating token: %w", err)
	}

	refresh, err := generateRefreshToken()
	if err != nil {
		return nil, nil, fmt.Errorf("error generating refresh token: %w", err)
	}

	data := &models.AuthTokenData{
		AccessToken:      access,
		RefreshToken:     refresh,
		TokenType:        "Bearer",
		ExpiresIn:        int(s.tokenDuration / time.Second),
		IssuedAt:         issuedAt.Format(time.RFC3339),
		RefreshExpiresIn: int(s.refreshDuration / time.Second),
	}
	row := &models.RefreshToken{
		TokenHash: hashRefreshToken(refresh),
		ParentID:  parent.ID,
		ExpiresAt: issuedAt.Add(s.refreshDuration).UnixMilli(),
		CreatedAt: issuedAt.UnixMilli(),
	}
	return data, row, nil
}

func generateRefreshToken() (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Only the hash of a refresh token is stored.
func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
