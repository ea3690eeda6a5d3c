package auth

import "context"

// AuthVerifier verifica un bearer token y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// IdentityResolver resuelve la identidad local (id + rol) de un usuario
// a partir de su subject. Lo implementa el servicio de usuarios; id y
// rol viven en nuestra DB, no en el IdP.
type IdentityResolver interface {
	IdentityBySubject(ctx context.Context, subject string) (Identity, error)
}
