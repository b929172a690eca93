package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Picture URLs are not served openly; a download link carries a
// short-lived HS256 token binding the link to one filename, the same
// way an object store's presigned URL works.

// ErrBadPictureToken is returned when a download token is missing,
// malformed, expired or issued for a different file.
var ErrBadPictureToken = errors.New("invalid picture token")

// SignPictureToken issues a token granting access to the given
// filename until the TTL elapses.
func SignPictureToken(secret, filename string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"file": filename,
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign picture token: %w", err)
	}
	return signed, nil
}

// VerifyPictureToken checks the token's signature and expiry and that
// it was issued for the given filename.
func VerifyPictureToken(secret, filename, token string) error {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return ErrBadPictureToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return ErrBadPictureToken
	}
	file, _ := claims["file"].(string)
	if file == "" || file != filename {
		return ErrBadPictureToken
	}
	return nil
}
