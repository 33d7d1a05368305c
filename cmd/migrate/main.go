package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	"github.com/lotledger/backend/internal/infrastructure/config"
	"github.com/lotledger/backend/internal/infrastructure/logger"
	"github.com/lotledger/backend/internal/infrastructure/migration"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

// command is one migrate subcommand. Commands with a migrator run against
// the configured postgres database; the others only touch the directory.
type command struct {
	usage string
	help  string
	args  int
	local func(dir string, args []string, log *zap.Logger) error
	db    func(m *migration.Migrator, args []string, log *zap.Logger) error
}

var commands = map[string]command{
	"up":      {usage: "up", help: "Apply all pending migrations", db: func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Up() }},
	"down":    {usage: "down", help: "Roll back all migrations", db: func(m *migration.Migrator, _ []string, _ *zap.Logger) error { return m.Down() }},
	"step":    {usage: "step <n>", help: "Apply n migrations (negative rolls back)", args: 1, db: runSteps},
	"version": {usage: "version", help: "Show the applied version", db: runVersion},
	"status":  {usage: "status", help: "Show applied and pending migrations", db: runStatus},
	"force":   {usage: "force <version>", help: "Record a version without running it", args: 1, db: runForce},
	"create":  {usage: "create <name>", help: "Create an up/down migration pair", args: 1, local: runCreate},
	"list":    {usage: "list", help: "List migration files", local: runList},
}

var commandOrder = []string{"up", "down", "step", "version", "status", "force", "create", "list"}

func main() {
	var (
		migrationsPath string
		configPath     string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "Path to migrations directory (default: ./migrations)")
	flag.StringVar(&configPath, "config", "", "Path to a config file (default: ./config.toml)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}
	cmd, ok := commands[args[0]]
	if !ok || len(args)-1 < cmd.args {
		printUsage()
		os.Exit(2)
	}

	log, err := logger.New(logger.Config{Level: logLevel, Format: "console", Service: "lotledger-migrate"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync(log) }()

	dir, err := resolveMigrationsPath(migrationsPath)
	if err != nil {
		log.Fatal("resolve migrations path", zap.Error(err))
	}
	log = log.With(zap.String("command", args[0]), zap.String("migrations_path", dir))

	if err := run(cmd, dir, configPath, args[1:], log); err != nil {
		log.Fatal("migrate failed", zap.Error(err))
	}
}

func run(cmd command, dir, configPath string, args []string, log *zap.Logger) error {
	if cmd.local != nil {
		return cmd.local(dir, args, log)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("database driver %q is not migrated here; sqlite creates its table on startup", cfg.Database.Driver)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	m, err := migration.New(db, dir, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("close migrator", zap.Error(err))
		}
	}()
	return cmd.db(m, args, log)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func runSteps(m *migration.Migrator, args []string, _ *zap.Logger) error {
	n, err := strconv.Atoi(args[0])
	if err != nil || n == 0 {
		return fmt.Errorf("step count must be a non-zero integer, got %q", args[0])
	}
	return m.Steps(n)
}

func runVersion(m *migration.Migrator, _ []string, log *zap.Logger) error {
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if version == 0 {
		log.Info("no migrations applied")
		return nil
	}
	log.Info("current version", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

func runStatus(m *migration.Migrator, _ []string, log *zap.Logger) error {
	st, err := m.Status()
	if err != nil {
		return err
	}
	log.Info("migration status",
		zap.Uint("version", st.Version),
		zap.Bool("dirty", st.Dirty),
		zap.Int("applied", len(st.Applied)),
		zap.Strings("pending", st.Pending),
	)
	return nil
}

func runForce(m *migration.Migrator, args []string, _ *zap.Logger) error {
	version, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("version must be an integer, got %q", args[0])
	}
	return m.Force(version)
}

func runCreate(dir string, args []string, log *zap.Logger) error {
	created, err := migration.CreateMigration(dir, args[0])
	if err != nil {
		return err
	}
	log.Info("migration created",
		zap.Uint("version", created.Version),
		zap.String("up_file", created.UpPath),
		zap.String("down_file", created.DownPath),
	)
	return nil
}

func runList(dir string, _ []string, log *zap.Logger) error {
	files, err := migration.ListMigrations(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Info("no migrations found")
		return nil
	}
	for _, f := range files {
		fmt.Println(f.Base)
	}
	return nil
}

// resolveMigrationsPath prefers ./migrations, then the directory two levels
// above the executable (bin/<os>/migrate)
func resolveMigrationsPath(path string) (string, error) {
	if path != "" {
		return filepath.Abs(path)
	}
	candidates := []string{defaultMigrationsPath}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), "..", "..", defaultMigrationsPath))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return filepath.Abs(c)
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", err
		}
	}
	return filepath.Abs(defaultMigrationsPath)
}

func printUsage() {
	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "Lot ledger database migrations")
	fmt.Fprintln(out, "\nUsage:\n  migrate [flags] <command> [arguments]")
	fmt.Fprintln(out, "\nCommands:")
	for _, name := range commandOrder {
		c := commands[name]
		fmt.Fprintf(out, "  %-20s %s\n", c.usage, c.help)
	}
	fmt.Fprintln(out, "\nFlags:")
	flag.PrintDefaults()
	fmt.Fprintln(out, "\nThe database is read from config.toml and LOTLEDGER_DATABASE_* variables.")
}
