// Package postgres uploads journal captures into a Postgres (or Timescale)
// samples table with retryable batch inserts.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"

	"github.com/andrasq/kstats/internal/journal"
	"github.com/andrasq/kstats/internal/misc"
	"github.com/andrasq/kstats/internal/ports"
)

// ErrNoDSN is returned when the backend is selected without a DSN.
var ErrNoDSN = errors.New("postgres: dsn required")

// Config describes the Postgres backend.
type Config struct {
	DSN        string
	Instance   string
	StaleAfter time.Duration
	Rejects    ports.RejectSink
}

// Store implements ports.Uploader on a samples table.
type Store struct {
	db     *sql.DB
	parser journal.Parser
}

var _ ports.Uploader = (*Store)(nil)

var retryablePGCodes = map[string]struct{}{
	pgerrcode.ConnectionException:                           {},
	pgerrcode.ConnectionDoesNotExist:                        {},
	pgerrcode.ConnectionFailure:                             {},
	pgerrcode.SQLClientUnableToEstablishSQLConnection:       {},
	pgerrcode.SQLServerRejectedEstablishmentOfSQLConnection: {},
	pgerrcode.TransactionResolutionUnknown:                  {},
	pgerrcode.ProtocolViolation:                             {},
	pgerrcode.SerializationFailure:                          {},
	pgerrcode.DeadlockDetected:                              {},
	pgerrcode.LockNotAvailable:                              {},
	pgerrcode.TooManyConnections:                            {},
	pgerrcode.AdminShutdown:                                 {},
	pgerrcode.CrashShutdown:                                 {},
	pgerrcode.CannotConnectNow:                              {},
	pgerrcode.QueryCanceled:                                 {},
}

// New wraps an open database handle. The caller owns the handle's lifecycle;
// Open is the usual way to get a migrated one.
func New(db *sql.DB, cfg Config) *Store {
	return &Store{
		db: db,
		parser: journal.Parser{
			Instance:   cfg.Instance,
			StaleAfter: cfg.StaleAfter,
			Rejects:    cfg.Rejects,
		},
	}
}

// Open connects to the configured DSN, runs migrations with retry, and
// returns a ready Store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, ErrNoDSN
	}
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	op := func() error {
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		return Migrate(db)
	}
	if err := misc.Retry(ctx, misc.DefaultBackoff, IsRetryable, op); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	return New(db, cfg), nil
}

const insertSample = `
INSERT INTO samples (name, value, collected_at, instance)
VALUES ($1, $2, $3, $4)
ON CONFLICT (name, instance, collected_at) DO NOTHING;`

// Upload parses the capture contents and inserts the valid samples in one
// transaction. The conflict target dedupes replays of the same capture, so
// at-least-once retries never double-count a sample.
func (s *Store) Upload(ctx context.Context, contents []byte) error {
	samples := s.parser.Parse(string(contents))
	if len(samples) == 0 {
		return nil
	}

	attempt := func() error {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return err
		}
		defer func() {
			_ = tx.Rollback()
		}()

		for _, smp := range samples {
			if _, err := tx.ExecContext(ctx, insertSample, smp.Name, smp.Value, smp.CollectedAt, smp.Instance); err != nil {
				return err
			}
		}
		return tx.Commit()
	}
	if err := misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, attempt); err != nil {
		return fmt.Errorf("insert samples: %w", err)
	}
	return nil
}

// Ping verifies the database connection using a short-lived context.
func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	op := func() error {
		return s.db.PingContext(ctx)
	}
	return misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op)
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// IsRetryable reports whether the error should trigger a retry according to
// Postgres semantics.
func IsRetryable(err error) bool {
	return isRetryablePG(err)
}

func isRetryablePG(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var pqe *pq.Error
	if errors.As(err, &pqe) {
		return isRetryablePGCode(string(pqe.Code))
	}
	return false
}

func isRetryablePGCode(code string) bool {
	if _, ok := retryablePGCodes[code]; ok {
		return true
	}
	if strings.HasPrefix(code, "08") {
		return true
	}
	if strings.HasPrefix(code, "40") {
		return true
	}
	return false
}
