// Package auth issues and verifies the bearer tokens editors use for admin and write routes.
package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

const (
	issuer      = "news-recommendations"
	editorScope = "edit_recommendations"
	minSecret   = 32
)

// ErrInvalidToken is returned for tokens that are malformed, expired or wrongly signed.
var ErrInvalidToken = eris.New("invalid editor token")

// Claims are the editor token claims.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies HS256 editor tokens.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens returns a token service. The secret must be at least 32 bytes.
func NewTokens(secret string, ttl time.Duration) (*Tokens, error) {
	if len(strings.TrimSpace(secret)) < minSecret {
		return nil, eris.Errorf("editor token secret must be at least %d bytes", minSecret)
	}
	if ttl <= 0 {
		return nil, eris.New("editor token ttl must be greater than zero")
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for the named editor.
func (t *Tokens) Issue(editor string) (string, time.Time, error) {
	editor = strings.TrimSpace(editor)
	if editor == "" {
		return "", time.Time{}, eris.New("editor name is required")
	}

	now := t.now()
	expires := now.Add(t.ttl)
	claims := Claims{
		Scope: editorScope,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   editor,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, eris.Wrap(err, "signing editor token")
	}
	return signed, expires, nil
}

// Verify checks the token and returns the editor it was issued to. A "Bearer " prefix is
// accepted.
func (t *Tokens) Verify(raw string) (string, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Bearer "))
	if raw == "" {
		return "", eris.Wrap(ErrInvalidToken, "token is empty")
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return "", eris.Wrapf(ErrInvalidToken, "parsing token: %v", err)
	}
	if !token.Valid || claims.Scope != editorScope || claims.Subject == "" {
		return "", eris.Wrap(ErrInvalidToken, "token lacks editor scope")
	}

	return claims.Subject, nil
}
