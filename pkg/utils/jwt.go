package utils

import (
	"fmt"
	"time"

	"github.com/alimikegami/e-commerce/storefront-service/pkg/errs"
	"github.com/golang-jwt/jwt"
)

type TokenClaims struct {
	ID        string
	Email     string
	Role      string
	ExpiresAt int64
}

func CreateJWTToken(userID string, email string, role string, jwtSecretKey string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{}
	claims["id"] = userID
	claims["email"] = email
	claims["role"] = role
	claims["exp"] = time.Now().Add(ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecretKey))
}

// ParseJWTToken returns errs.ErrInvalidToken for every kind of failure.
func ParseJWTToken(tokenString string, jwtSecretKey string) (TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(jwtSecretKey), nil
	})
	if err != nil || !token.Valid {
		return TokenClaims{}, errs.ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, errs.ErrInvalidToken
	}

	id, _ := claims["id"].(string)
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	exp, _ := claims["exp"].(float64)
	if id == "" || role == "" || exp == 0 {
		return TokenClaims{}, errs.ErrInvalidToken
	}

	return TokenClaims{
		ID:        id,
		Email:     email,
		Role:      role,
		ExpiresAt: int64(exp),
	}, nil
}
