package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"solana-token-sentinel/internal/storage/postgres"
)

// RunPostgresMigrations applies the embedded schema files in lexical order and
// returns how many were applied. Files are idempotent.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) (int, error) {
	files, err := sqlFiles(PostgresFS, "postgres")
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, file := range files {
		data, err := fs.ReadFile(PostgresFS, file)
		if err != nil {
			return applied, fmt.Errorf("read migration %s: %w", file, err)
		}
		if strings.TrimSpace(string(data)) == "" {
			continue
		}
		// Exec without arguments uses the simple protocol, which accepts several statements.
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return applied, fmt.Errorf("apply migration %s: %w", file, err)
		}
		applied++
	}
	return applied, nil
}
