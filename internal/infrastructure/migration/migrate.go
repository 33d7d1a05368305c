// Package migration applies the SQL schema of the row store.
// Only the postgres backend is migrated here; sqlite creates its table
// through the store's AutoMigrate.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"
)

// Migrator runs the files of one migrations directory against postgres
type Migrator struct {
	m   *migrate.Migrate
	dir string
	log *zap.Logger
}

// Status compares the database with the migrations directory
type Status struct {
	Version uint
	Dirty   bool
	Applied []string
	Pending []string
}

// zapMigrateLogger forwards golang-migrate's progress lines to zap
type zapMigrateLogger struct {
	log *zap.Logger
}

func (l zapMigrateLogger) Printf(format string, v ...any) {
	l.log.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (l zapMigrateLogger) Verbose() bool {
	return l.log.Core().Enabled(zap.DebugLevel)
}

// New binds a Migrator to an open postgres connection
func New(db *sql.DB, dir string, log *zap.Logger) (*Migrator, error) {
	if log == nil {
		log = zap.NewNop()
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres migrate driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("open migrations in %s: %w", dir, err)
	}
	m.Log = zapMigrateLogger{log: log.Named("migrate")}
	return &Migrator{m: m, dir: dir, log: log}, nil
}

// run executes one golang-migrate operation, treating "no change" as success
func (mg *Migrator) run(op string, fn func() error) error {
	err := fn()
	if errors.Is(err, migrate.ErrNoChange) {
		mg.log.Info("schema already current", zap.String("op", op))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", op, err)
	}
	version, dirty, err := mg.Version()
	if err != nil {
		return err
	}
	mg.log.Info("migrations applied",
		zap.String("op", op),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty))
	return nil
}

// Up applies every pending migration
func (mg *Migrator) Up() error {
	return mg.run("up", mg.m.Up)
}

// Down rolls every migration back
func (mg *Migrator) Down() error {
	return mg.run("down", mg.m.Down)
}

// Steps moves n migrations forward, or back when n is negative
func (mg *Migrator) Steps(n int) error {
	return mg.run(fmt.Sprintf("steps %d", n), func() error { return mg.m.Steps(n) })
}

// Version returns the applied version, zero before the first migration
func (mg *Migrator) Version() (uint, bool, error) {
	version, dirty, err := mg.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("read migration version: %w", err)
	}
	return version, dirty, nil
}

// Status lists applied and pending files against the current version
func (mg *Migrator) Status() (*Status, error) {
	version, dirty, err := mg.Version()
	if err != nil {
		return nil, err
	}
	files, err := ListMigrations(mg.dir)
	if err != nil {
		return nil, err
	}

	st := &Status{Version: version, Dirty: dirty}
	for _, f := range files {
		if f.Version <= version {
			st.Applied = append(st.Applied, f.Base)
		} else {
			st.Pending = append(st.Pending, f.Base)
		}
	}
	return st, nil
}

// Force records version without running anything. It clears the dirty
// flag after a failed migration was repaired by hand.
func (mg *Migrator) Force(version int) error {
	mg.log.Warn("forcing migration version", zap.Int("version", version))
	if err := mg.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Close releases the source and the database driver
func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}
