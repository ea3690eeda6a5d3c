package auth0

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"granjas-del-carmen/internal/platform/httpclient"
	"granjas-del-carmen/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("auth0 client not configured")
	ErrUnauthorized  = errors.New("auth0 unauthorized")
	ErrUpstream      = errors.New("auth0 upstream error")
)

// Config del tenant de Auth0.
// Domain es el dominio del tenant (p.ej. granjas.us.auth0.com), sin esquema.
type Config struct {
	Domain       string
	ClientID     string
	ClientSecret string
	Audience     string

	// URL del frontend para el returnTo del logout.
	FrontendURL string

	// Callback del backend para el authorize redirect.
	CallbackURL string

	Timeout time.Duration
}

type Client struct {
	domain       string
	clientID     string
	clientSecret string
	audience     string
	frontendURL  string
	callbackURL  string

	http *httpclient.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		domain:       strings.TrimSpace(cfg.Domain),
		clientID:     strings.TrimSpace(cfg.ClientID),
		clientSecret: strings.TrimSpace(cfg.ClientSecret),
		audience:     strings.TrimSpace(cfg.Audience),
		frontendURL:  strings.TrimRight(strings.TrimSpace(cfg.FrontendURL), "/"),
		callbackURL:  strings.TrimSpace(cfg.CallbackURL),
		http:         httpclient.New(cfg.Timeout),
	}
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.domain != "" && c.clientID != ""
}

// LoginURL arma la URL de /authorize para redirigir al usuario a Auth0.
func (c *Client) LoginURL(state string) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", c.callbackURL)
	q.Set("scope", "openid profile email")
	if c.audience != "" {
		q.Set("audience", c.audience)
	}
	if state != "" {
		q.Set("state", state)
	}

	return "https://" + c.domain + "/authorize?" + q.Encode(), nil
}

// LogoutURL arma la URL de /v2/logout con returnTo al frontend.
func (c *Client) LogoutURL() (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	q := url.Values{}
	q.Set("returnTo", c.frontendURL)
	q.Set("client_id", c.clientID)

	return "https://" + c.domain + "/v2/logout?" + q.Encode(), nil
}

// UserInfo consulta /userinfo de Auth0 con un access token.
// Sirve para tokens opacos que no podemos validar localmente.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (auth.Claims, error) {
	if !c.IsConfigured() {
		return auth.Claims{}, ErrNotConfigured
	}
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return auth.Claims{}, ErrUnauthorized
	}

	var out struct {
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}

	err := c.http.DoJSON(ctx, "GET", "https://"+c.domain+"/userinfo",
		map[string]string{"Authorization": "Bearer " + accessToken}, nil, &out)
	if err != nil {
		var he *httpclient.HTTPError
		if errors.As(err, &he) && (he.StatusCode == 401 || he.StatusCode == 403) {
			return auth.Claims{}, ErrUnauthorized
		}
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	out.Sub = strings.TrimSpace(out.Sub)
	if out.Sub == "" {
		return auth.Claims{}, errors.New("auth0 userinfo missing sub")
	}

	return auth.Claims{
		Subject: out.Sub,
		Email:   strings.TrimSpace(out.Email),
		Name:    strings.TrimSpace(out.Name),
		Picture: strings.TrimSpace(out.Picture),
	}, nil
}
