// Package app wires configuration, storage, sources and the batch scheduler
// into the components the command line drives.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"github.com/vmunix/codarr/internal/config"
	"github.com/vmunix/codarr/internal/events"
	"github.com/vmunix/codarr/internal/job"
	"github.com/vmunix/codarr/internal/metadata"
	"github.com/vmunix/codarr/internal/migrations"
)

// ErrLocked is returned by Lock when another process holds the database.
var ErrLocked = errors.New("database is locked by another codarr process")

// App holds the opened database and the stores built on it.
type App struct {
	Config *config.Config
	DB     *sql.DB
	Jobs   *job.Store
	Failed *job.FailedStore
	Events *events.EventLog
	Bus    *events.Bus
	Cache  *metadata.Cache
	Logger *slog.Logger

	lock *flock.Flock
}

// Open creates the database directory if needed, opens the database and
// brings its schema up to date.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(cfg.Database.Path))
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY between our own goroutines.
	db.SetMaxOpenConns(1)

	if err := migrations.Apply(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	eventLog := events.NewEventLog(db)
	a := &App{
		Config: cfg,
		DB:     db,
		Jobs:   job.NewStore(db),
		Failed: job.NewFailedStore(db),
		Events: eventLog,
		Bus:    events.NewBus(eventLog, logger),
		Cache:  metadata.NewCache(db),
		Logger: logger,
	}
	a.Jobs.OnTransition(func(e job.TransitionEvent) {
		logger.Debug("job transition", "component", "job", "job_id", e.JobID, "path", e.Path,
			"from", e.From, "to", e.To, "reason", e.Reason)
	})
	return a, nil
}

func dsn(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

// Lock takes an exclusive advisory lock next to the database so that only one
// process runs batches against it at a time. It returns ErrLocked when the lock
// is held elsewhere.
func (a *App) Lock() error {
	if a.lock != nil {
		return nil
	}
	l := flock.New(a.Config.Database.Path + ".lock")
	ok, err := l.TryLock()
	if err != nil {
		return fmt.Errorf("lock database: %w", err)
	}
	if !ok {
		return ErrLocked
	}
	a.lock = l
	return nil
}

// Close releases the lock, stops the event bus and closes the database.
func (a *App) Close() error {
	var errs []error
	if a.lock != nil {
		errs = append(errs, a.lock.Unlock())
		a.lock = nil
	}
	errs = append(errs, a.Bus.Close(), a.DB.Close())
	return errors.Join(errs...)
}
