package auth0

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"granjas-del-carmen/internal/ports/auth"
)

var (
	ErrTokenEmpty = errors.New("token is empty")
)

// Verifier implementa auth.AuthVerifier contra Auth0.
// Intenta primero validar el token localmente como JWT HS256 (id tokens
// firmados con el client secret); si el token no es un JWT nuestro,
// cae a /userinfo, que acepta access tokens opacos.
type Verifier struct {
	client *Client
}

func NewVerifier(client *Client) *Verifier {
	return &Verifier{client: client}
}

func (v *Verifier) Verify(ctx context.Context, token string) (auth.Claims, error) {
	if v == nil || v.client == nil || !v.client.IsConfigured() {
		return auth.Claims{}, ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return auth.Claims{}, ErrTokenEmpty
	}

	if claims, err := v.verifyJWT(token); err == nil {
		return claims, nil
	}

	claims, err := v.client.UserInfo(ctx, token)
	if err != nil {
		return auth.Claims{}, fmt.Errorf("auth0 verify failed: %w", err)
	}
	return claims, nil
}

type idTokenClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

func (v *Verifier) verifyJWT(token string) (auth.Claims, error) {
	parsed := idTokenClaims{}

	_, err := jwt.ParseWithClaims(token, &parsed, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(v.client.clientSecret), nil
	},
		jwt.WithIssuer("https://"+v.client.domain+"/"),
		jwt.WithAudience(v.client.clientID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return auth.Claims{}, err
	}

	sub := strings.TrimSpace(parsed.Subject)
	if sub == "" {
		return auth.Claims{}, errors.New("id token missing sub")
	}

	return auth.Claims{
		Subject: sub,
		Email:   strings.TrimSpace(parsed.Email),
		Name:    strings.TrimSpace(parsed.Name),
		Picture: strings.TrimSpace(parsed.Picture),
	}, nil
}
