package middleware

import (
	"context"
	"net/http"
	"strings"

	"granjas-del-carmen/internal/ports/auth"
)

type ctxKey string

const principalKey ctxKey = "principal"

// Principal es la identidad efectiva del request: claims del IdP
// más el id y rol locales resueltos contra nuestra DB.
type Principal struct {
	Subject string
	Email   string
	Name    string
	Picture string

	UserID string // id de la fila en users; vacío hasta el primer login
	Role   string
}

// AuthContext:
//   - Con verifier: si viene Bearer token intenta Verify() y setea el principal,
//     resolviendo el rol local vía resolver (si falla, queda sin rol).
//   - Sin verifier (modo dev): los headers X-Debug-User-ID / X-Debug-Role
//     inyectan la identidad directamente.
//   - Sin identidad el request sigue igual; cada handler decide si exige auth.
func AuthContext(verifier auth.AuthVerifier, resolver auth.IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if verifier == nil {
				uid := strings.TrimSpace(r.Header.Get("X-Debug-User-ID"))
				if uid == "" {
					next.ServeHTTP(w, r)
					return
				}
				role := strings.TrimSpace(r.Header.Get("X-Debug-Role"))
				if role == "" {
					role = "USER"
				}
				// En dev el header hace de subject y de id local a la vez.
				p := Principal{Subject: uid, UserID: uid, Role: role}
				next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
				return
			}

			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := verifier.Verify(r.Context(), token)
			if err != nil {
				// No cortamos acá; el handler responde 401 si el endpoint lo exige.
				next.ServeHTTP(w, r)
				return
			}

			p := Principal{
				Subject: claims.Subject,
				Email:   claims.Email,
				Name:    claims.Name,
				Picture: claims.Picture,
			}
			if resolver != nil {
				if id, err := resolver.IdentityBySubject(r.Context(), claims.Subject); err == nil {
					p.UserID = id.UserID
					p.Role = id.Role
				}
			}

			next.ServeHTTP(w, r.WithContext(withPrincipal(r.Context(), p)))
		})
	}
}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func GetPrincipal(ctx context.Context) (Principal, bool) {
	v := ctx.Value(principalKey)
	if v == nil {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// IsAdmin es el gate para operaciones restringidas (vender, descartar,
// deshabilitar usuarios).
func (p Principal) IsAdmin() bool {
	return p.Role == "ADMIN"
}

func bearerToken(authHeader string) string {
	if strings.TrimSpace(authHeader) == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
