package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/wealthguardian-backend/pkg/config"
	"github.com/angelmondragon/wealthguardian-backend/pkg/db"
	"github.com/angelmondragon/wealthguardian-backend/pkg/logger"
	"github.com/angelmondragon/wealthguardian-backend/pkg/migrate"
)

const usage = `usage: migrate -cmd <command> [flags]

commands that need no database:
  create    -name "add wallet limits"   write an empty migration into -dir
  validate                              check file names and goose markers in -dir

commands against WEALTHGUARDIAN_DB_*:
  up        apply pending migrations (sqlite: GORM AutoMigrate)
  down      roll back the latest migration
  status    list migrations and when they were applied
  to        -version YYYYMMDDHHMMSS      migrate up or down to that version
`

func main() {
	cmd := flag.String("cmd", "up", "create|validate|up|down|status|to")
	dir := flag.String("dir", migrate.DefaultDir, "migrations directory for create and validate")
	name := flag.String("name", "", "migration name for create")
	version := flag.String("version", "", "target version for to")
	flag.Usage = func() { fmt.Fprint(flag.CommandLine.Output(), usage) }
	flag.Parse()

	if err := run(*cmd, *dir, *name, *version); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", *cmd, err)
		os.Exit(1)
	}
}

func run(cmd, dir, name, version string) error {
	switch cmd {
	case "create":
		if name == "" {
			return fmt.Errorf("-name is required")
		}
		path, err := migrate.CreateSQLMigration(dir, name, time.Now())
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	case "validate":
		if err := migrate.Validate(os.DirFS(dir)); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"env": cfg.App.Env, "cmd": cmd})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer client.Close()

	if cfg.DB.IsSQLite() {
		if cmd != "up" {
			return fmt.Errorf("sqlite only supports up")
		}
		return migrate.AutoMigrate(client)
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return err
	}
	runner, err := migrate.NewRunner(sqlDB, migrate.Migrations(), logg)
	if err != nil {
		return err
	}

	switch cmd {
	case "up":
		return runner.Up(ctx)
	case "down":
		return runner.Down(ctx)
	case "to":
		target, err := migrate.ParseVersion(version)
		if err != nil {
			return err
		}
		return runner.To(ctx, target)
	case "status":
		rows, err := runner.Status(ctx)
		if err != nil {
			return err
		}
		printStatus(rows)
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func printStatus(rows []migrate.Status) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tAPPLIED AT\tFILE")
	for _, row := range rows {
		applied := "pending"
		if row.Applied {
			applied = row.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", row.Version, applied, row.Path)
	}
	_ = tw.Flush()
}
