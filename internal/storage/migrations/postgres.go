package migrations

import (
	"context"
	"fmt"

	"chain-gateway/internal/storage/postgres"
)

// RunPostgresMigrations creates the route_audits journal. Every script uses
// IF NOT EXISTS, so running on each start is safe.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	scripts, err := loadScripts(schemas, postgresDir)
	if err != nil {
		return err
	}
	for _, s := range scripts {
		// pgx runs a multi-statement script in one simple-protocol Exec.
		if _, err := pool.Exec(ctx, s.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", s.name, err)
		}
	}
	return nil
}
