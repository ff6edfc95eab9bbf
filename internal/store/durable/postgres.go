// Package durable implements the Store driver backed by a relational
// repository (spec.md §4.1 "Durable driver" and §6's normative schema),
// using github.com/jmoiron/sqlx over github.com/lib/pq.
//
// Construction shape — a *sqlx.DB plus a *zap.Logger passed into a
// repository constructor — is grounded on
// jordigilh-kubernaut/test/unit/datastorage/workflow_repository_test.go,
// the one place in the retrieved pack this pairing actually appears (its
// production repository source was not present in the pack; the schema and
// query logic below are original to spec.md §6, not copied from that test).
//
// Every mutation runs inside a transaction: find-or-create on the unique
// (name, context_type, context_id, boundary_type, boundary_id) index,
// followed by an UPDATE of state/metrics and an INSERT into
// circuit_breaker_events, matching spec.md §4.1's requirement that the
// durable driver's state change and its event record commit atomically.
package durable

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/vnykmshr/circuitscope/internal/model"
)

// PrimaryKeyType selects how circuit_breakers.id is generated on insert.
type PrimaryKeyType string

const (
	PrimaryKeyInteger PrimaryKeyType = "integer" // database-assigned serial/identity
	PrimaryKeyUUID    PrimaryKeyType = "uuid"     // google/uuid, generated in-process
	PrimaryKeyULID    PrimaryKeyType = "ulid"     // hand-rolled, generated in-process
)

// TableNames overrides the two normative table names (spec.md §6
// "table_names"), defaulting to the schema's own names.
type TableNames struct {
	Breakers string
	Events   string
}

func (t TableNames) breakers() string {
	if t.Breakers == "" {
		return "circuit_breakers"
	}
	return t.Breakers
}

func (t TableNames) events() string {
	if t.Events == "" {
		return "circuit_breaker_events"
	}
	return t.Events
}

// Store is the Postgres-backed durable driver.
type Store struct {
	db      *sqlx.DB
	logger  *zap.Logger
	pk      PrimaryKeyType
	tables  TableNames
}

// Option configures a Store at construction.
type Option func(*Store)

// WithPrimaryKeyType overrides the default (PrimaryKeyInteger).
func WithPrimaryKeyType(pk PrimaryKeyType) Option {
	return func(s *Store) { s.pk = pk }
}

// WithTableNames overrides the default table names.
func WithTableNames(t TableNames) Option {
	return func(s *Store) { s.tables = t }
}

// New returns a durable Store over db, logging repository-level failures
// through logger the way the teacher's panic_recovery.go logs saturation
// conditions (here via zap instead of fmt.Printf).
func New(db *sqlx.DB, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{db: db, logger: logger, pk: PrimaryKeyInteger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type breakerRow struct {
	ID                   string    `db:"id"`
	Name                 string    `db:"name"`
	ContextType          sql.NullString `db:"context_type"`
	ContextID            sql.NullString `db:"context_id"`
	BoundaryType         sql.NullString `db:"boundary_type"`
	BoundaryID           sql.NullString `db:"boundary_id"`
	State                string    `db:"state"`
	ConsecutiveSuccesses int64     `db:"consecutive_successes"`
	ConsecutiveFailures  int64     `db:"consecutive_failures"`
	TotalSuccesses       int64     `db:"total_successes"`
	TotalFailures        int64     `db:"total_failures"`
	LastSuccessAt        sql.NullTime `db:"last_success_at"`
	LastFailureAt        sql.NullTime `db:"last_failure_at"`
	OpenedAt             sql.NullTime `db:"opened_at"`
	ClosedAt             sql.NullTime `db:"closed_at"`
}

func nullableRef(r *model.Ref) (sql.NullString, sql.NullString) {
	if r == nil {
		return sql.NullString{}, sql.NullString{}
	}
	return sql.NullString{String: r.Type, Valid: true}, sql.NullString{String: r.ID, Valid: true}
}

func (s *Store) newID() (string, error) {
	switch s.pk {
	case PrimaryKeyUUID:
		return newUUID()
	case PrimaryKeyULID:
		return newULID(time.Now())
	default:
		return "", nil // integer keys are database-assigned; caller ignores the zero value
	}
}

// findOrCreate returns the row for key, inserting a fresh Closed/zero row
// under the unique five-column index if none exists yet.
func (s *Store) findOrCreate(ctx context.Context, tx *sqlx.Tx, key model.Key) (breakerRow, error) {
	ctxType, ctxID := nullableRef(key.Scope.Context)
	boundType, boundID := nullableRef(key.Scope.Boundary)

	var row breakerRow
	selectQuery := fmt.Sprintf(`
		SELECT id, name, context_type, context_id, boundary_type, boundary_id,
		       state, consecutive_successes, consecutive_failures,
		       total_successes, total_failures, last_success_at, last_failure_at,
		       opened_at, closed_at
		FROM %s
		WHERE name = $1
		  AND context_type IS NOT DISTINCT FROM $2 AND context_id IS NOT DISTINCT FROM $3
		  AND boundary_type IS NOT DISTINCT FROM $4 AND boundary_id IS NOT DISTINCT FROM $5
		FOR UPDATE`, s.tables.breakers())

	err := tx.GetContext(ctx, &row, selectQuery, key.Name, ctxType, ctxID, boundType, boundID)
	if err == nil {
		return row, nil
	}
	if err != sql.ErrNoRows {
		return breakerRow{}, fmt.Errorf("durable: selecting breaker row: %w", err)
	}

	id, err := s.newID()
	if err != nil {
		return breakerRow{}, err
	}

	// An integer key is left out of the INSERT so the column default assigns it.
	idColumn, idValue := "id, ", "$7, "
	args := []interface{}{key.Name, ctxType, ctxID, boundType, boundID, model.StateClosed.String()}
	if id == "" {
		idColumn, idValue = "", ""
	} else {
		args = append(args, id)
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s
			(%sname, context_type, context_id, boundary_type, boundary_id, state,
			 consecutive_successes, consecutive_failures, total_successes, total_failures)
		VALUES
			(%s$1, $2, $3, $4, $5, $6, 0, 0, 0, 0)
		ON CONFLICT (name, context_type, context_id, boundary_type, boundary_id) DO UPDATE
			SET name = EXCLUDED.name
		RETURNING id, name, context_type, context_id, boundary_type, boundary_id,
		          state, consecutive_successes, consecutive_failures,
		          total_successes, total_failures, last_success_at, last_failure_at,
		          opened_at, closed_at`, s.tables.breakers(), idColumn, idValue)

	if err := tx.GetContext(ctx, &row, insertQuery, args...); err != nil {
		return breakerRow{}, fmt.Errorf("durable: inserting breaker row: %w", err)
	}
	return row, nil
}

// appendEvent inserts one circuit_breaker_events row. metadata is the
// column's JSON payload; nil is inserted as SQL NULL rather than the JSON
// literal "null", since the column is nullable.
func (s *Store) appendEvent(ctx context.Context, tx *sqlx.Tx, breakerID string, eventType string, at time.Time, metadata []byte) error {
	query := fmt.Sprintf(`INSERT INTO %s (circuit_breaker_id, event_type, metadata, created_at) VALUES ($1, $2, $3, $4)`, s.tables.events())
	var meta interface{}
	if metadata != nil {
		meta = metadata
	}
	if _, err := tx.ExecContext(ctx, query, breakerID, eventType, meta, at); err != nil {
		return fmt.Errorf("durable: appending event: %w", err)
	}
	return nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("durable: beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("durable: rollback failed", zap.Error(rbErr), zap.Error(err))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("durable: committing transaction: %w", err)
	}
	return nil
}

func (s *Store) toMetrics(row breakerRow) model.Metrics {
	m := model.Metrics{
		ConsecutiveSuccesses: uint64(row.ConsecutiveSuccesses),
		ConsecutiveFailures:  uint64(row.ConsecutiveFailures),
		TotalSuccesses:       uint64(row.TotalSuccesses),
		TotalFailures:        uint64(row.TotalFailures),
	}
	if row.LastSuccessAt.Valid {
		m.LastSuccessTime = row.LastSuccessAt.Time
	}
	if row.LastFailureAt.Valid {
		m.LastFailureTime = row.LastFailureAt.Time
	}
	return m
}

func (s *Store) GetState(ctx context.Context, key model.Key) (model.CircuitState, error) {
	var state model.CircuitState
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		row, err := s.findOrCreate(ctx, tx, key)
		if err != nil {
			return err
		}
		state, err = model.ParseCircuitState(row.State)
		return err
	})
	return state, err
}

func (s *Store) GetMetrics(ctx context.Context, key model.Key) (model.Metrics, error) {
	var metrics model.Metrics
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		row, err := s.findOrCreate(ctx, tx, key)
		if err != nil {
			return err
		}
		metrics = s.toMetrics(row)
		return nil
	})
	return metrics, err
}

// updateMetrics applies apply to the current metrics and persists the
// result. When eventType is non-empty, an event row is appended in the same
// transaction, so the metrics update and its event commit atomically.
func (s *Store) updateMetrics(ctx context.Context, key model.Key, eventType string, at time.Time, apply func(model.Metrics) model.Metrics) (model.Metrics, error) {
	var result model.Metrics
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		row, err := s.findOrCreate(ctx, tx, key)
		if err != nil {
			return err
		}
		updated := apply(s.toMetrics(row))
		query := fmt.Sprintf(`
			UPDATE %s SET
				consecutive_successes = $1, consecutive_failures = $2,
				total_successes = $3, total_failures = $4,
				last_success_at = $5, last_failure_at = $6
			WHERE id = $7`, s.tables.breakers())
		if _, err := tx.ExecContext(ctx, query,
			updated.ConsecutiveSuccesses, updated.ConsecutiveFailures,
			updated.TotalSuccesses, updated.TotalFailures,
			nullTime(updated.LastSuccessTime), nullTime(updated.LastFailureTime),
			row.ID); err != nil {
			return fmt.Errorf("durable: updating metrics: %w", err)
		}
		result = updated
		if eventType == "" {
			return nil
		}
		return s.appendEvent(ctx, tx, row.ID, eventType, at, nil)
	})
	return result, err
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func (s *Store) RecordSuccess(ctx context.Context, key model.Key, at time.Time) (model.Metrics, error) {
	return s.updateMetrics(ctx, key, "success", at, func(m model.Metrics) model.Metrics { return m.WithSuccess(at) })
}

func (s *Store) RecordFailure(ctx context.Context, key model.Key, at time.Time) (model.Metrics, error) {
	return s.updateMetrics(ctx, key, "failure", at, func(m model.Metrics) model.Metrics { return m.WithFailure(at) })
}

func (s *Store) transitionState(ctx context.Context, key model.Key, eventType string, apply func(*breakerRow, time.Time)) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		row, err := s.findOrCreate(ctx, tx, key)
		if err != nil {
			return err
		}
		now := time.Now()
		apply(&row, now)

		query := fmt.Sprintf(`UPDATE %s SET state = $1, opened_at = $2, closed_at = $3 WHERE id = $4`, s.tables.breakers())
		if _, err := tx.ExecContext(ctx, query, row.State, nullTime(row.OpenedAt.Time), nullTime(row.ClosedAt.Time), row.ID); err != nil {
			return fmt.Errorf("durable: updating state: %w", err)
		}
		return s.appendEvent(ctx, tx, row.ID, eventType, now, nil)
	})
}

func (s *Store) TransitionToOpen(ctx context.Context, key model.Key, at time.Time) error {
	return s.transitionState(ctx, key, "opened", func(row *breakerRow, _ time.Time) {
		row.State = model.StateOpen.String()
		row.OpenedAt = sql.NullTime{Time: at, Valid: true}
	})
}

func (s *Store) TransitionToHalfOpen(ctx context.Context, key model.Key) error {
	return s.transitionState(ctx, key, "half_opened", func(row *breakerRow, _ time.Time) {
		row.State = model.StateHalfOpen.String()
	})
}

func (s *Store) TransitionToClosed(ctx context.Context, key model.Key, at time.Time) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		row, err := s.findOrCreate(ctx, tx, key)
		if err != nil {
			return err
		}
		query := fmt.Sprintf(`UPDATE %s SET state = $1, closed_at = $2, consecutive_successes = 0, consecutive_failures = 0 WHERE id = $3`, s.tables.breakers())
		if _, err := tx.ExecContext(ctx, query, model.StateClosed.String(), at, row.ID); err != nil {
			return fmt.Errorf("durable: updating state: %w", err)
		}
		return s.appendEvent(ctx, tx, row.ID, "closed", time.Now(), nil)
	})
}

func (s *Store) Reset(ctx context.Context, key model.Key) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		row, err := s.findOrCreate(ctx, tx, key)
		if err != nil {
			return err
		}
		query := fmt.Sprintf(`
			UPDATE %s SET
				state = $1, consecutive_successes = 0, consecutive_failures = 0,
				total_successes = 0, total_failures = 0,
				last_success_at = NULL, last_failure_at = NULL,
				opened_at = NULL, closed_at = NULL
			WHERE id = $2`, s.tables.breakers())
		if _, err := tx.ExecContext(ctx, query, model.StateClosed.String(), row.ID); err != nil {
			return fmt.Errorf("durable: resetting row: %w", err)
		}
		return s.appendEvent(ctx, tx, row.ID, "reset", time.Now(), nil)
	})
}
