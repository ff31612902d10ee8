package postgresrepo

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

//go:embed migrations/*.sql
var migrations embed.FS

var tables = map[string]string{
	"development": "invitations_development",
	"staging":     "invitations_staging",
	"production":  "invitations_production",
}

// TableName returns the invitations table used in env.
func TableName(env string) (string, error) {
	t, ok := tables[env]
	if !ok {
		return "", fmt.Errorf("postgresrepo.TableName: unknown environment %q", env)
	}
	return t, nil
}

// Migrate applies every embedded migration to the table of env. Migrations
// are idempotent and safe to re-run.
func Migrate(ctx context.Context, db DB, env string) ([]string, error) {
	const op = "postgresrepo.Migrate"

	table, err := TableName(env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sort.Strings(names)

	r := strings.NewReplacer(
		"{{table}}", pgx.Identifier{table}.Sanitize(),
		"{{index}}", table,
	)

	applied := make([]string, 0, len(names))
	for _, name := range names {
		b, err := migrations.ReadFile(name)
		if err != nil {
			return applied, fmt.Errorf("%s: %w", op, err)
		}
		if _, err := db.Exec(ctx, r.Replace(string(b))); err != nil {
			return applied, fmt.Errorf("%s: %s: %w", op, name, err)
		}
		applied = append(applied, name)
	}

	return applied, nil
}
