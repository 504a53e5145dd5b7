package main

import (
	"context"
	"encoding/json"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"

	"github.com/conejoswing/restoeasy/db"
	"github.com/conejoswing/restoeasy/internal/domain/auth"
	"github.com/conejoswing/restoeasy/internal/domain/inventory"
	"github.com/conejoswing/restoeasy/internal/domain/menu"
	"github.com/conejoswing/restoeasy/internal/storage/postgres"
)

type options struct {
	databaseURL string
	seedDir     string
	apiKey      string
	apiKeyName  string
	apiKeyRole  string
	pepper      string
}

func main() {
	var opts options

	flag.StringVar(&opts.databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&opts.seedDir, "seed-dir", "", "directory with menu.json, inventory.json and rules.json (default: embedded seed)")
	flag.StringVar(&opts.apiKey, "api-key", "", "API key to seed (or POS_SEED_API_KEY env); empty skips it")
	flag.StringVar(&opts.apiKeyName, "api-key-name", "Default admin key", "display name of the seeded API key")
	flag.StringVar(&opts.apiKeyRole, "api-key-role", "admin", "role of the seeded API key: waiter, cashier or admin")
	flag.StringVar(&opts.pepper, "auth-pepper", "", "HMAC pepper for API key hashing (or POS_AUTH_PEPPER env)")
	flag.Parse()

	if opts.databaseURL == "" {
		opts.databaseURL = os.Getenv("DATABASE_URL")
	}
	if opts.databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if opts.apiKey == "" {
		opts.apiKey = os.Getenv("POS_SEED_API_KEY")
	}
	if opts.pepper == "" {
		opts.pepper = os.Getenv("POS_AUTH_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, opts); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, opts options) error {
	var role auth.Role
	if opts.apiKey != "" {
		var err error
		if role, err = auth.ParseRole(opts.apiKeyRole); err != nil {
			return err
		}
	}

	src, err := seedFS(opts.seedDir)
	if err != nil {
		return err
	}

	// Validate everything before touching the database.
	var (
		items []menu.Item
		stock []inventory.Item
		rules []inventory.Rule
	)
	if err := readJSON(src, "menu.json", &items); err != nil {
		return err
	}
	if _, err := menu.NewCatalog(items); err != nil {
		return errors.Wrap(err, "validate menu")
	}
	if err := readJSON(src, "inventory.json", &stock); err != nil {
		return err
	}
	if err := readJSON(src, "rules.json", &rules); err != nil {
		return err
	}
	if _, err := inventory.NewRuleTable(rules); err != nil {
		return errors.Wrap(err, "validate deduction rules")
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, opts.databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("upserting menu", slog.Int("count", len(items)))
	if err := postgres.NewMenuRepository(pool).Upsert(ctx, items); err != nil {
		return errors.Wrap(err, "seed menu")
	}

	inv := postgres.NewInventoryRepository(pool)
	slog.Info("upserting inventory", slog.Int("count", len(stock)))
	if err := inv.Save(ctx, stock); err != nil {
		return errors.Wrap(err, "seed inventory")
	}
	slog.Info("replacing deduction rules", slog.Int("count", len(rules)))
	if err := inv.ReplaceRules(ctx, rules); err != nil {
		return errors.Wrap(err, "seed deduction rules")
	}

	if opts.apiKey == "" {
		slog.Info("no API key given, skipping")
		return nil
	}
	return seedAPIKey(ctx, postgres.NewAPIKeyRepository(pool), opts, role)
}

func seedFS(dir string) (fs.FS, error) {
	if dir != "" {
		slog.Info("reading seed files", slog.String("dir", dir))
		return os.DirFS(dir), nil
	}
	slog.Info("reading embedded seed files")
	sub, err := fs.Sub(db.Seed, "seed")
	if err != nil {
		return nil, errors.Wrap(err, "open embedded seed")
	}
	return sub, nil
}

func readJSON(src fs.FS, name string, v any) error {
	data, err := fs.ReadFile(src, name)
	if err != nil {
		return errors.Wrapf(err, "read %s", name)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrapf(err, "parse %s", name)
	}
	return nil
}

func seedAPIKey(ctx context.Context, repo *postgres.APIKeyRepository, opts options, role auth.Role) error {
	slog.Info("seeding API key", slog.String("role", string(role)))

	if err := repo.Upsert(ctx, auth.APIKeyInfo{
		ID:      "default-" + string(role),
		KeyHash: auth.Hash([]byte(opts.pepper), opts.apiKey),
		Name:    opts.apiKeyName,
		Role:    role,
	}); err != nil {
		return errors.Wrap(err, "upsert API key")
	}

	slog.Info("upserted API key", slog.String("name", opts.apiKeyName))
	return nil
}
