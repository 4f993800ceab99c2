package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hordesim/simcore/internal/sim"
	"github.com/jackc/pgx/v5"
)

// RunRepo stores end-of-run summaries.
type RunRepo struct {
	db *DB
}

func NewRunRepo(db *DB) *RunRepo {
	return &RunRepo{db: db}
}

// Save inserts a summary. Saving the same run id twice is an error.
func (r *RunRepo) Save(ctx context.Context, s sim.RunSummary) error {
	if s.ID == uuid.Nil {
		return errors.New("run summary has no id")
	}
	if r.db.Pool != nil {
		_, err := r.db.Pool.Exec(ctx,
			`INSERT INTO runs (id, started_at, ended_at, ticks, enemies_killed, shots_spent,
			                   orbs_collected, player_deaths, peak_live, max_level, culled, handler_faults)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			s.ID.String(), s.StartedAt, s.EndedAt, int64(s.Ticks), s.EnemiesKilled, s.ShotsSpent,
			s.OrbsCollected, s.PlayerDeaths, s.PeakLive, s.MaxLevel, int64(s.Culled), int64(s.HandlerFaults),
		)
		if err != nil {
			return fmt.Errorf("save run %s: %w", s.ID, err)
		}
		return nil
	}

	_, err := r.db.SQL.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, ended_at, ticks, enemies_killed, shots_spent,
		                   orbs_collected, player_deaths, peak_live, max_level, culled, handler_faults)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID.String(), s.StartedAt.UnixMilli(), s.EndedAt.UnixMilli(), int64(s.Ticks), s.EnemiesKilled, s.ShotsSpent,
		s.OrbsCollected, s.PlayerDeaths, s.PeakLive, s.MaxLevel, int64(s.Culled), int64(s.HandlerFaults),
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", s.ID, err)
	}
	return nil
}

// Load returns the summary with the given id, or nil if there is none.
func (r *RunRepo) Load(ctx context.Context, id uuid.UUID) (*sim.RunSummary, error) {
	if r.db.Pool != nil {
		row := r.db.Pool.QueryRow(ctx, selectRuns+` WHERE id = $1`, id.String())
		s, err := scanRun(row.Scan, false)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return s, err
	}
	row := r.db.SQL.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id.String())
	s, err := scanRun(row.Scan, true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// Recent returns up to limit summaries, most recently ended first.
func (r *RunRepo) Recent(ctx context.Context, limit int) ([]sim.RunSummary, error) {
	if limit <= 0 {
		return nil, nil
	}
	var out []sim.RunSummary
	if r.db.Pool != nil {
		rows, err := r.db.Pool.Query(ctx, selectRuns+` ORDER BY ended_at DESC LIMIT $1`, limit)
		if err != nil {
			return nil, err
		}
		defer rows.Close()
		for rows.Next() {
			s, err := scanRun(rows.Scan, false)
			if err != nil {
				return nil, err
			}
			out = append(out, *s)
		}
		return out, rows.Err()
	}

	rows, err := r.db.SQL.QueryContext(ctx, selectRuns+` ORDER BY ended_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		s, err := scanRun(rows.Scan, true)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

const selectRuns = `SELECT id, started_at, ended_at, ticks, enemies_killed, shots_spent,
       orbs_collected, player_deaths, peak_live, max_level, culled, handler_faults
  FROM runs`

// scanRun reads one runs row. SQLite stores timestamps as unix milliseconds.
func scanRun(scan func(dest ...any) error, unixMillis bool) (*sim.RunSummary, error) {
	var (
		id                   string
		startedAt, endedAt   time.Time
		startMs, endMs       int64
		ticks, culled, fault int64
		s                    sim.RunSummary
	)
	dest := []any{&id, &startedAt, &endedAt}
	if unixMillis {
		dest = []any{&id, &startMs, &endMs}
	}
	dest = append(dest, &ticks, &s.EnemiesKilled, &s.ShotsSpent,
		&s.OrbsCollected, &s.PlayerDeaths, &s.PeakLive, &s.MaxLevel, &culled, &fault)
	if err := scan(dest...); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("run id %q: %w", id, err)
	}
	s.ID = parsed
	if unixMillis {
		startedAt, endedAt = time.UnixMilli(startMs), time.UnixMilli(endMs)
	}
	s.StartedAt, s.EndedAt = startedAt, endedAt
	s.Ticks, s.Culled, s.HandlerFaults = uint64(ticks), uint64(culled), uint64(fault)
	return &s, nil
}
