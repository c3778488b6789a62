package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/samansalari/seenovate-appforge/internal/domain"
)

// TTL is how long an issued token remains valid.
const TTL = 7 * 24 * time.Hour

// ErrInvalidToken is returned by Verify for a malformed token, a bad
// signature, or an expired one.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// Claims is the payload carried by a bearer token.
type Claims struct {
	UserID    string `json:"sub"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

// Issue produces an opaque bearer token for user, signed with secret. The
// wire format is base64url(json(claims)) + "." + hex(hmac-sha256(payload)),
// not a JOSE/JWT library's output — no such library appears anywhere in the
// pack, so this stays deliberately narrow rather than hand-rolling one.
func Issue(secret string, user *domain.User) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(TTL).Unix(),
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	encoded := base64.RawURLEncoding.EncodeToString(payload)
	sig := sign(secret, encoded)
	return encoded + "." + sig, nil
}

// Verify checks a token's signature and expiry, returning its claims.
func Verify(secret, token string) (*Claims, error) {
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok || encoded == "" || sig == "" {
		return nil, ErrInvalidToken
	}
	if !hmac.Equal([]byte(sig), []byte(sign(secret, encoded))) {
		return nil, ErrInvalidToken
	}
	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidToken
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, ErrInvalidToken
	}
	if time.Now().UTC().Unix() > claims.ExpiresAt {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func sign(secret, encoded string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(encoded))
	return hex.EncodeToString(mac.Sum(nil))
}
