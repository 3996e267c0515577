// Package bootstrap initializes shared infrastructure: logging and the
// key store selected by configuration.
package bootstrap

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	coreconfig "github.com/m3rciful/keybot/core/config"
	coredatabase "github.com/m3rciful/keybot/core/database"
	"github.com/m3rciful/keybot/core/logger"
	"github.com/m3rciful/keybot/keys"
	keyspostgres "github.com/m3rciful/keybot/keys/postgres"
	keyssupabase "github.com/m3rciful/keybot/keys/supabase"
)

// Options control the bootstrap pipeline. Function fields default to the
// production implementations and exist for tests.
type Options struct {
	Config *coreconfig.Config

	LoggerInit func(*coreconfig.Config) error
	Connect    func(coreconfig.DatabaseConfig) (*sqlx.DB, error)
	Migrate    func(coreconfig.DatabaseConfig) error
}

// Result exposes infrastructure initialized by the bootstrap pipeline.
// DB is nil for the rest store driver.
type Result struct {
	Store keys.Store
	DB    *sqlx.DB
}

// Run initializes the logger and constructs the configured key store.
func Run(opts Options) (*Result, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("bootstrap: nil config provided")
	}
	cfg := opts.Config

	loggerInit := opts.LoggerInit
	if loggerInit == nil {
		loggerInit = logger.InitLogger
	}
	if err := loggerInit(cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: logger init failed: %w", err)
	}

	switch cfg.Store.Driver {
	case coreconfig.StoreDriverPostgres:
		connect := opts.Connect
		if connect == nil {
			connect = coredatabase.Connect
		}
		db, err := connect(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("bootstrap: database initialization failed: %w", err)
		}

		migrate := opts.Migrate
		if migrate == nil {
			migrate = coredatabase.RunMigrations
		}
		if err := migrate(cfg.Database); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("bootstrap: migrations failed: %w", err)
		}

		return &Result{Store: keyspostgres.New(db), DB: db}, nil

	case coreconfig.StoreDriverREST:
		client, err := keyssupabase.New(keyssupabase.Config{
			URL:     cfg.Supabase.URL,
			AnonKey: cfg.Supabase.AnonKey,
			Table:   cfg.Supabase.Table,
		})
		if err != nil {
			return nil, fmt.Errorf("bootstrap: store initialization failed: %w", err)
		}
		return &Result{Store: client}, nil

	default:
		return nil, fmt.Errorf("bootstrap: unknown store driver %q", cfg.Store.Driver)
	}
}
