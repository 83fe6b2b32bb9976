package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const guestTokenTTL = 24 * time.Hour

// GuestTokens signs and verifies the tokens guests use to reattach
type GuestTokens struct {
	secret []byte
	ttl    time.Duration
}

func NewGuestTokens(secret string) *GuestTokens {
	return &GuestTokens{secret: []byte(secret), ttl: guestTokenTTL}
}

func (g *GuestTokens) Issue(playerID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   playerID,
		"guest": true,
		"exp":   now.Add(g.ttl).Unix(),
		"iat":   now.Unix(),
		"nbf":   now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(g.secret)
}

// Parse returns the guest player id carried by tokenString
func (g *GuestTokens) Parse(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return g.secret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	if guest, _ := claims["guest"].(bool); !guest {
		return "", errors.New("not a guest token")
	}

	playerID, ok := claims["sub"].(string)
	if !ok || playerID == "" {
		return "", errors.New("sub not found")
	}
	return playerID, nil
}
