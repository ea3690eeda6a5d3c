package users

import "time"

// Role define los roles locales de la aplicación.
// El IdP solo autentica; el rol vive en nuestra tabla users.
// @Enum ADMIN, USER, VIEWER
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleUser   Role = "USER"
	RoleViewer Role = "VIEWER"
)

func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleUser, RoleViewer:
		return true
	}
	return false
}

// User representa una cuenta de la granja.
// Se crea en el primer login exitoso (upsert por Subject) y nunca se
// borra físicamente: Active=false la deshabilita conservando historial.
type User struct {
	ID      string
	Subject string // `sub` de Auth0

	Email   string
	Name    string
	Phone   string
	Address string
	Picture string

	Role   Role
	Active bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
