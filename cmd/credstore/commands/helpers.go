package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/credstore/credstore/internal/config"
	"github.com/credstore/credstore/internal/crypto"
	"github.com/credstore/credstore/internal/db"
	"github.com/credstore/credstore/internal/logging"
	"github.com/credstore/credstore/internal/ratelimit"
	"github.com/credstore/credstore/internal/secrets"
)

// Origin recorded in audit entries for operations started from this CLI.
const cliOrigin = "cli"

// App carries state shared by every command, populated by the root
// command's PersistentPreRun.
type App struct {
	ConfigPath  string
	Logger      *logging.Logger
	PrincipalID string
}

// runtime is the fully wired service stack behind one command invocation.
type runtime struct {
	cfg     *config.Config
	conn    *sql.DB
	dialect db.Dialect
	engine  *crypto.Engine
	svc     *secrets.Service
}

func (r *runtime) close() {
	r.engine.Close()
	_ = r.conn.Close()
}

// openRuntime loads config, connects to the database and builds the
// service. Callers must close the returned runtime.
func openRuntime(app *App) (*runtime, error) {
	cfg, err := config.Load(app.ConfigPath)
	if err != nil {
		return nil, err
	}

	key, err := cfg.EncryptionKey()
	if err != nil {
		return nil, err
	}
	engine, err := crypto.New(key)
	if err != nil {
		return nil, err
	}

	conn, dialect, err := db.Open(cfg.Database.URL)
	if err != nil {
		engine.Close()
		return nil, err
	}

	opts := []secrets.Option{secrets.WithLogger(app.Logger)}
	if cfg.RateLimit.MaxRequests > 0 || cfg.RateLimit.WindowSeconds > 0 {
		opts = append(opts, secrets.WithLimiter(
			ratelimit.New(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window()),
		))
	}

	return &runtime{
		cfg:     cfg,
		conn:    conn,
		dialect: dialect,
		engine:  engine,
		svc:     secrets.NewService(engine, dialect, opts...),
	}, nil
}

// withTx runs fn inside a transaction, committing on success. Mutating
// commands use this so their audit entry and data change land atomically.
func withTx(ctx context.Context, conn *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
