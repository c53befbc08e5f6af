// Package auth issues and verifies scene join tokens. Account management
// lives outside this service; the game server only needs to know which
// user is connecting, to which scene, and with what role.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lukeharby/wildspace/internal/perms"
	apperrors "github.com/lukeharby/wildspace/internal/platform/errors"
)

// ErrTokenInvalid indicates a join token that failed verification.
var ErrTokenInvalid = apperrors.New(apperrors.CodeTokenInvalid, "join token invalid")

// ErrTokenExpired indicates a join token past its expiry.
var ErrTokenExpired = apperrors.New(apperrors.CodeTokenExpired, "join token expired")

// Grant is the verified content of a scene join token.
type Grant struct {
	UserID  int64
	SceneID int64
	Role    perms.Role
}

type joinClaims struct {
	SceneID int64  `json:"scene_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// IssueSceneToken signs a join token for one user, scene, and role.
func IssueSceneToken(secret []byte, grant Grant, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := joinClaims{
		SceneID: grant.SceneID,
		Role:    grant.Role.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(grant.UserID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign join token: %w", err)
	}
	return signed, nil
}

// ParseSceneToken verifies a join token and returns its grant.
func ParseSceneToken(secret []byte, raw string) (Grant, error) {
	var claims joinClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Grant{}, ErrTokenExpired
		}
		return Grant{}, apperrors.Wrap(apperrors.CodeTokenInvalid, "join token invalid", err)
	}
	if !token.Valid {
		return Grant{}, ErrTokenInvalid
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Grant{}, ErrTokenInvalid
	}
	return Grant{
		UserID:  userID,
		SceneID: claims.SceneID,
		Role:    perms.ParseRole(claims.Role),
	}, nil
}
