// Package pgalertstore implements surveillance.AlertSink by inserting each
// dispatched alert into a Postgres table through a pooled connection,
// matching the connection-pool-first style this codebase uses for its
// Postgres-backed services.
package pgalertstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bhanukaranwal/DharmaGuard/internal/surveillance"
)

// Store persists alerts to a "surveillance_alerts" table.
type Store struct {
	pool *pgxpool.Pool
}

// New builds a store over an already-open pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens a pool for the given DSN, following this codebase's
// pool-per-service construction pattern.
func Connect(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgalertstore: connect: %w", err)
	}
	return &Store{pool: pool}, nil
}

const insertAlertSQL = `
INSERT INTO surveillance_alerts
	(alert_id, pattern_name, trade_id, instrument_symbol, account_id, severity, confidence, message, evidence, generated_at)
VALUES
	($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (alert_id) DO NOTHING
`

// Send implements surveillance.AlertSink.
func (s *Store) Send(alert surveillance.Alert) error {
	evidenceJSON, err := json.Marshal(alert.Evidence)
	if err != nil {
		return fmt.Errorf("pgalertstore: marshal evidence: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = s.pool.Exec(ctx, insertAlertSQL,
		alert.AlertID,
		alert.PatternName,
		alert.Trade.TradeID,
		alert.Trade.InstrumentSymbol,
		alert.Trade.AccountID,
		alert.Severity.String(),
		alert.Confidence.String(),
		alert.Message,
		evidenceJSON,
		alert.GeneratedAt,
	)
	if err != nil {
		return fmt.Errorf("pgalertstore: insert: %w", err)
	}
	return nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}
