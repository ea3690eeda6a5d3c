//go:build integration

package postgres

import (
	"context"
	"testing"

	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// Corre con: go test -tags integration ./internal/adapters/storage/postgres/
// Requiere Docker.
func TestMigrate_SecondRunIsNoOp(t *testing.T) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("granjas"),
		tcpostgres.WithUsername("granjas"),
		tcpostgres.WithPassword("granjas"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	if err := Migrate(ctx, dsn); err != nil {
		t.Fatalf("first Migrate: %v", err)
	}

	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	version := func() int32 {
		var v int32
		if err := db.QueryRowContext(ctx, `SELECT version FROM schema_version`).Scan(&v); err != nil {
			t.Fatalf("reading schema_version: %v", err)
		}
		return v
	}

	files, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("reading embedded migrations: %v", err)
	}

	first := version()
	if int(first) != len(files) {
		t.Fatalf("version after first run = %d, want %d (one per migration file)", first, len(files))
	}

	// La segunda corrida no debe aplicar nada ni fallar.
	if err := Migrate(ctx, dsn); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
	if second := version(); second != first {
		t.Fatalf("version changed on second run: %d -> %d", first, second)
	}

	// Y el esquema sigue usable.
	var n int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM animals`).Scan(&n); err != nil {
		t.Fatalf("querying animals after re-run: %v", err)
	}
	if n != 0 {
		t.Fatalf("animals count = %d, want 0", n)
	}
}
