// Command migrate manages the goose schema migrations.
//
//	migrate -cmd=up                 apply pending migrations from -dir
//	migrate -cmd=up -embedded       apply the migrations built into the binary
//	migrate -cmd=down|status
//	migrate -cmd=version -version=20260301090600
//	migrate -cmd=create -name=add_task_icons
//	migrate -cmd=validate
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/multierr"

	"github.com/earnpro/rewards-backend/pkg/config"
	"github.com/earnpro/rewards-backend/pkg/db"
	"github.com/earnpro/rewards-backend/pkg/logger"
	"github.com/earnpro/rewards-backend/pkg/migrate"
)

const serviceName = "migrate"

type options struct {
	cmd      string
	dir      string
	name     string
	version  string
	embedded bool
}

func main() {
	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "up|down|status|version|create|validate")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.BoolVar(&opts.embedded, "embedded", false, "use the migrations compiled into the binary (up and validate)")
	flag.Parse()

	_ = godotenv.Load()

	// create and validate work on files only and must run without a
	// database or a full environment.
	if err := offline(opts); !errors.Is(err, errNeedsDatabase) {
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "load config:", err)
		os.Exit(1)
	}
	logg := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	dialect := migrate.DialectFor(cfg.DB.Driver)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"cmd":      opts.cmd,
		"dir":      opts.dir,
		"dialect":  dialect,
		"embedded": opts.embedded,
	})

	if err := online(ctx, cfg, logg, dialect, opts); err != nil {
		logg.Error(ctx, "migration failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migration finished")
}

var errNeedsDatabase = errors.New("command needs a database")

func offline(opts options) error {
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return errors.New("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return fmt.Errorf("create migration: %w", err)
		}
		fmt.Println("created", path)
		return nil
	case "validate":
		validate := func() error { return migrate.ValidateDir(opts.dir) }
		if opts.embedded {
			validate = migrate.ValidateEmbedded
		}
		if err := validate(); err != nil {
			return fmt.Errorf("validate migrations: %w", err)
		}
		fmt.Println("migrations ok")
		return nil
	}
	return errNeedsDatabase
}

func online(ctx context.Context, cfg *config.Config, logg *logger.Logger, dialect string, opts options) (err error) {
	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, client.Close()) }()

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	return dispatch(ctx, sqlDB, dialect, opts)
}

func dispatch(ctx context.Context, sqlDB *sql.DB, dialect string, opts options) error {
	switch opts.cmd {
	case "up":
		if opts.embedded {
			return migrate.Up(ctx, sqlDB, dialect)
		}
		return migrate.Run(ctx, sqlDB, dialect, opts.dir, "up")
	case "down", "status":
		return migrate.Run(ctx, sqlDB, dialect, opts.dir, opts.cmd)
	case "version":
		if opts.version == "" {
			return errors.New("missing -version")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, dialect, opts.dir, opts.version)
	}
	return fmt.Errorf("unknown -cmd %q", opts.cmd)
}
