package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/tern/v2/migrate"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const versionTable = "schema_version"

// Migrate aplica las migraciones pendientes contra la base de datos.
// Usa una conexión propia porque tern trabaja sobre pgx directamente.
func Migrate(ctx context.Context, dsn string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("conectar para migrar: %w", err)
	}
	defer conn.Close(ctx)

	migrator, err := migrate.NewMigrator(ctx, conn, versionTable)
	if err != nil {
		return fmt.Errorf("crear migrator: %w", err)
	}

	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("leer migraciones embebidas: %w", err)
	}

	if err := migrator.LoadMigrations(sub); err != nil {
		return fmt.Errorf("cargar migraciones: %w", err)
	}

	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("aplicar migraciones: %w", err)
	}

	return nil
}
