// Package runs persists chain run history to sqlite. Each run records the
// chain name, outcome and timing, plus the published context values as JSON.
package runs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"

	"github.com/aschepis/backscratcher/chains/chain"
)

// Run statuses.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run is a recorded chain execution.
type Run struct {
	ID         int64
	ChainName  string
	Status     string
	Error      string
	FinalKey   string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Store handles persistence of chain run history.
type Store struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewStore creates a run history store.
func NewStore(db *sql.DB, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger.With().Str("component", "runs_store").Logger(),
	}
}

// RecordRun saves a finished run and its published context values in one
// transaction, so a run row never exists without its values.
// Values that cannot be JSON-marshaled are stored via fmt.Sprintf.
func (s *Store) RecordRun(ctx context.Context, chainName string, startedAt time.Time, res chain.RunResult) (int64, error) {
	status := StatusCompleted
	var errText string
	if res.Err != nil {
		status = StatusFailed
		errText = res.Err.Error()
	}

	var finalKey string
	if res.Context != nil {
		finalKey = res.Context.LastKey()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	query := sq.Insert("runs").
		Columns("chain_name", "status", "error", "final_key", "started_at", "finished_at").
		Values(chainName, status, errText, finalKey, startedAt.Unix(), time.Now().Unix())

	queryStr, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	result, err := tx.ExecContext(ctx, queryStr, args...)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run insert id: %w", err)
	}

	if res.Context != nil {
		if err := recordValues(ctx, tx, runID, res.Context); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}

	s.logger.Debug().
		Int64("run_id", runID).
		Str("chain", chainName).
		Str("status", status).
		Msg("Recorded chain run")
	return runID, nil
}

func recordValues(ctx context.Context, tx *sql.Tx, runID int64, cctx *chain.Context) error {
	for _, key := range cctx.Keys() {
		encoded := encodeValue(cctx.Get(key))

		query := sq.Insert("run_values").
			Columns("run_id", "key", "value").
			Values(runID, key, encoded)

		queryStr, args, err := query.ToSql()
		if err != nil {
			return fmt.Errorf("build query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, queryStr, args...); err != nil {
			return fmt.Errorf("insert run value %s: %w", key, err)
		}
	}
	return nil
}

// GetRun returns a single run by ID.
func (s *Store) GetRun(ctx context.Context, id int64) (Run, error) {
	query := sq.Select("id", "chain_name", "status", "error", "final_key", "started_at", "finished_at").
		From("runs").
		Where(sq.Eq{"id": id})

	queryStr, args, err := query.ToSql()
	if err != nil {
		return Run{}, fmt.Errorf("build query: %w", err)
	}

	row := s.db.QueryRowContext(ctx, queryStr, args...)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return Run{}, fmt.Errorf("run %d not found", id)
	}
	return run, err
}

// ListRuns returns recent runs, newest first. An empty chainName returns runs
// for every chain.
func (s *Store) ListRuns(ctx context.Context, chainName string, limit uint64) ([]Run, error) {
	query := sq.Select("id", "chain_name", "status", "error", "final_key", "started_at", "finished_at").
		From("runs")

	if chainName != "" {
		query = query.Where(sq.Eq{"chain_name": chainName})
	}
	query = query.OrderBy("started_at DESC", "id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, queryStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // No remedy for rows close errors

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunValues returns the published context values of a run, keyed by context
// key, decoded from JSON.
func (s *Store) RunValues(ctx context.Context, runID int64) (map[string]any, error) {
	query := sq.Select("key", "value").
		From("run_values").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("key")

	queryStr, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, queryStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // No remedy for rows close errors

	values := make(map[string]any)
	for rows.Next() {
		var key, encoded string
		if err := rows.Scan(&key, &encoded); err != nil {
			return nil, err
		}
		var decoded any
		if err := json.Unmarshal([]byte(encoded), &decoded); err != nil {
			decoded = encoded
		}
		values[key] = decoded
	}
	return values, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var run Run
	var errText, finalKey sql.NullString
	var startedAt, finishedAt int64

	if err := row.Scan(&run.ID, &run.ChainName, &run.Status, &errText, &finalKey, &startedAt, &finishedAt); err != nil {
		return Run{}, err
	}
	run.Error = errText.String
	run.FinalKey = finalKey.String
	run.StartedAt = time.Unix(startedAt, 0)
	run.FinishedAt = time.Unix(finishedAt, 0)
	return run, nil
}

func encodeValue(value any) string {
	if encoded, err := json.Marshal(value); err == nil {
		return string(encoded)
	}
	return fmt.Sprintf("%q", fmt.Sprintf("%v", value))
}
