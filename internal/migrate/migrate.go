// Package migrate applies the embedded SQL schema migrations.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/jurix/jurix/infrastructure/service/logger"
)

//go:embed migrations/*.sql
var embedded embed.FS

// Migrations returns the schema shipped with the binary
func Migrations() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// Migration is one numbered schema step
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// Migrator applies migrations and tracks them in schema_migrations
type Migrator struct {
	db         *sql.DB
	migrations []Migration
	logger     logger.Logger
}

// New loads every migration from source
func New(db *sql.DB, source fs.FS, log logger.Logger) (*Migrator, error) {
	migrations, err := Load(source)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Migrator{
		db:         db,
		migrations: migrations,
		logger:     log.WithFields(map[string]interface{}{"component": "migrator"}),
	}, nil
}

// Load reads NNN_name.up.sql and NNN_name.down.sql pairs from source, ordered by version
func Load(source fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(source, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		lower := strings.ToLower(name)

		var kind string
		switch {
		case strings.HasSuffix(lower, ".up.sql"):
			kind = "up"
		case strings.HasSuffix(lower, ".down.sql"):
			kind = "down"
		default:
			continue
		}

		version, migName, err := parseFilename(name, kind)
		if err != nil {
			return nil, err
		}

		body, err := fs.ReadFile(source, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &Migration{Version: version, Name: migName}
			byVersion[version] = m
		} else if m.Name != migName {
			return nil, fmt.Errorf("migration %03d has conflicting names %q and %q", version, m.Name, migName)
		}

		if kind == "up" {
			m.Up = string(body)
		} else {
			m.Down = string(body)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if strings.TrimSpace(m.Up) == "" {
			return nil, fmt.Errorf("migration %03d_%s has no up script", m.Version, m.Name)
		}
		migrations = append(migrations, *m)
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

// expected: 001_create_users.up.sql
func parseFilename(filename, kind string) (int, string, error) {
	base := strings.TrimSuffix(path.Base(filename), "."+kind+".sql")
	parts := strings.SplitN(base, "_", 2)
	if len(parts) < 2 || parts[1] == "" {
		return 0, "", fmt.Errorf("invalid migration filename %q", filename)
	}
	version, err := strconv.Atoi(parts[0])
	if err != nil || version < 1 {
		return 0, "", fmt.Errorf("invalid migration version in %q", filename)
	}
	return version, parts[1], nil
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	_, err := m.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("failed to ensure schema_migrations: %w", err)
	}
	return nil
}

func (m *Migrator) applied(ctx context.Context) (map[int]bool, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	defer rows.Close()

	done := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan schema_migrations: %w", err)
		}
		done[v] = true
	}
	return done, rows.Err()
}

// Up applies every pending migration, each in its own transaction. It returns the number applied.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.ensureTable(ctx); err != nil {
		return 0, err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, mig := range Pending(m.migrations, done) {
		m.logger.Info(ctx, "Applying migration", map[string]interface{}{
			"version": mig.Version,
			"name":    mig.Name,
		})
		err := m.inTx(ctx, mig.Up, `INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`, mig.Version, mig.Name)
		if err != nil {
			return count, fmt.Errorf("failed applying %03d_%s: %w", mig.Version, mig.Name, err)
		}
		count++
	}
	return count, nil
}

// Down reverts the latest steps applied migrations. It returns the number reverted.
func (m *Migrator) Down(ctx context.Context, steps int) (int, error) {
	if steps < 1 {
		return 0, errors.New("steps must be at least 1")
	}
	if err := m.ensureTable(ctx); err != nil {
		return 0, err
	}
	done, err := m.applied(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for i := len(m.migrations) - 1; i >= 0 && count < steps; i-- {
		mig := m.migrations[i]
		if !done[mig.Version] {
			continue
		}
		if strings.TrimSpace(mig.Down) == "" {
			return count, fmt.Errorf("migration %03d_%s has no down script", mig.Version, mig.Name)
		}

		m.logger.Info(ctx, "Reverting migration", map[string]interface{}{
			"version": mig.Version,
			"name":    mig.Name,
		})
		err := m.inTx(ctx, mig.Down, `DELETE FROM schema_migrations WHERE version = $1`, mig.Version)
		if err != nil {
			return count, fmt.Errorf("failed reverting %03d_%s: %w", mig.Version, mig.Name, err)
		}
		count++
	}
	return count, nil
}

// Pending returns the migrations not yet in done, in version order
func Pending(migrations []Migration, done map[int]bool) []Migration {
	var out []Migration
	for _, mig := range migrations {
		if !done[mig.Version] {
			out = append(out, mig)
		}
	}
	return out
}

func (m *Migrator) inTx(ctx context.Context, script, bookkeeping string, args ...interface{}) (err error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, script); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, bookkeeping, args...); err != nil {
		return err
	}
	return tx.Commit()
}
