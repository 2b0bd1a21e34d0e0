package sqlstore

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
)

//go:embed migrations/*/*.sql
var migrationsFS embed.FS

// Migrate creates any missing tables for the store's dialect.
//
// Every statement is written with IF NOT EXISTS, so running Migrate against
// an already-migrated database is a no-op. Files are applied in lexical
// order (001_…, 002_…). There is no version table: the schema is small
// enough that re-applying idempotent DDL on every start is the simpler
// contract.
func (s *Store) Migrate(ctx context.Context) error {
	files, err := migrationFiles(s.dialect.name)
	if err != nil {
		return err
	}

	for _, name := range files {
		body, err := migrationsFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("sqlstore: reading migration %s: %w", name, err)
		}

		for i, stmt := range splitStatements(string(body)) {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("sqlstore: migration %s statement %d: %w", name, i+1, err)
			}
		}

		s.logger.Info("migration applied", slog.String("file", path.Base(name)))
	}

	return nil
}

func migrationFiles(dialectName string) ([]string, error) {
	dir := path.Join("migrations", dialectName)

	entries, err := fs.ReadDir(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: listing migrations for %s: %w", dialectName, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, path.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	return files, nil
}

// splitStatements breaks a migration file into single statements. Not every
// driver accepts several statements in one Exec (MySQL needs
// multiStatements=true), so they are sent one at a time. Migration files
// must not contain semicolons inside string literals.
func splitStatements(body string) []string {
	var stmts []string
	for _, part := range strings.Split(body, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
