package cataloro

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt"
)

// TokenClaims is the claim set the backend puts inside its bearer tokens.
type TokenClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

// DecodeToken parses the token without verifying the signature. The probe
// does not hold the backend's signing key; it only checks the claims the
// backend advertises.
func DecodeToken(tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return claims, nil
}

// VerifyToken parses and verifies an HS256 token. Used by the mock backend
// where the signing key is ours.
func VerifyToken(tokenString string, secret []byte) (*TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("token is invalid")
}

// SignToken issues an HS256 token for the mock backend.
func SignToken(claims TokenClaims, secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("empty jwt key")
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
