package auth

// Claims representa la identidad extraída de un token del IdP.
// Subject es el `sub` de Auth0 (opaco para nosotros).
type Claims struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// Identity es la identidad local resuelta contra la tabla users.
type Identity struct {
	UserID string
	Role   string
}
