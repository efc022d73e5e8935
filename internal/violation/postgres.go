package violation

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store manages moderation log entries in PostgreSQL.
type Store struct {
	db *sql.DB
}

// NewStore creates a log store backed by the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("violation: load migrations: %w", err)
	}
	driver, err := postgres.WithInstance(s.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("violation: migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("violation: migrate init: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("violation: migrate up: %w", err)
	}
	return nil
}

// Append inserts a log entry. The entry's ID is generated when empty and
// CreatedAt is filled in from the database clock.
func (s *Store) Append(ctx context.Context, e *LogEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	// An evasion-only block carries no concrete matches. violation_types is
	// NOT NULL, and pq.Array(nil) encodes SQL NULL, so coalesce to an empty
	// array here rather than trusting every caller.
	types := e.Types
	if types == nil {
		types = []string{}
	}

	var metadataJSON []byte
	if len(e.Metadata) > 0 {
		var err error
		metadataJSON, err = json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("violation: marshal metadata: %w", err)
		}
	}

	const query = `
		INSERT INTO moderation_logs
			(id, user_id, project_id, chat_id, content, sanitized_content,
			 violation_types, violation_count, severity, action, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at`

	err := s.db.QueryRowContext(ctx, query,
		e.ID,
		e.UserID,
		nullable(e.ProjectID),
		nullable(e.ChatID),
		e.Content,
		e.SanitizedContent,
		pq.Array(types),
		e.Count,
		e.Severity,
		e.Action,
		metadataJSON,
	).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("violation: insert: %w", err)
	}
	return nil
}

// Counts returns the per-user aggregates in a single round trip: total
// entries, entries in the trailing hour and day, and the most recent
// entry's timestamp.
func (s *Store) Counts(ctx context.Context, userID string) (Counts, error) {
	const query = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE created_at >= NOW() - INTERVAL '1 hour'),
			COUNT(*) FILTER (WHERE created_at >= NOW() - INTERVAL '24 hours'),
			MAX(created_at)
		FROM moderation_logs
		WHERE user_id = $1`

	var c Counts
	var lastAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&c.Total, &c.LastHour, &c.LastDay, &lastAt)
	if err != nil {
		return Counts{}, fmt.Errorf("violation: counts: %w", err)
	}
	if lastAt.Valid {
		t := lastAt.Time
		c.LastViolationAt = &t
	}
	return c, nil
}

// History returns the user's most recent log entries, newest first.
func (s *Store) History(ctx context.Context, userID string, limit int) ([]LogEntry, error) {
	const query = `
		SELECT id, user_id, COALESCE(project_id, ''), COALESCE(chat_id, ''),
		       content, sanitized_content, violation_types, violation_count,
		       severity, action, metadata, created_at
		FROM moderation_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("violation: history: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ProjectStats aggregates violations for a project: totals, distinct users,
// a per-category histogram and the ten most recent entries.
func (s *Store) ProjectStats(ctx context.Context, projectID string) (ProjectStats, error) {
	stats := ProjectStats{ViolationsByType: make(map[string]int)}

	const totalsQuery = `
		SELECT COUNT(*), COUNT(DISTINCT user_id)
		FROM moderation_logs
		WHERE project_id = $1`
	err := s.db.QueryRowContext(ctx, totalsQuery, projectID).Scan(&stats.TotalViolations, &stats.UniqueUsers)
	if err != nil {
		return ProjectStats{}, fmt.Errorf("violation: project totals: %w", err)
	}

	const byTypeQuery = `
		SELECT t, COUNT(*)
		FROM moderation_logs, unnest(violation_types) AS t
		WHERE project_id = $1
		GROUP BY t`
	rows, err := s.db.QueryContext(ctx, byTypeQuery, projectID)
	if err != nil {
		return ProjectStats{}, fmt.Errorf("violation: project by type: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return ProjectStats{}, fmt.Errorf("violation: project by type scan: %w", err)
		}
		stats.ViolationsByType[t] = n
	}
	if err := rows.Err(); err != nil {
		return ProjectStats{}, fmt.Errorf("violation: project by type rows: %w", err)
	}

	const recentQuery = `
		SELECT id, user_id, COALESCE(project_id, ''), COALESCE(chat_id, ''),
		       content, sanitized_content, violation_types, violation_count,
		       severity, action, metadata, created_at
		FROM moderation_logs
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT 10`
	recentRows, err := s.db.QueryContext(ctx, recentQuery, projectID)
	if err != nil {
		return ProjectStats{}, fmt.Errorf("violation: project recent: %w", err)
	}
	defer recentRows.Close()
	stats.RecentViolations, err = scanEntries(recentRows)
	if err != nil {
		return ProjectStats{}, err
	}

	return stats, nil
}

func scanEntries(rows *sql.Rows) ([]LogEntry, error) {
	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		var metadataJSON []byte
		err := rows.Scan(&e.ID, &e.UserID, &e.ProjectID, &e.ChatID,
			&e.Content, &e.SanitizedContent, pq.Array(&e.Types), &e.Count,
			&e.Severity, &e.Action, &metadataJSON, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("violation: scan entry: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &e.Metadata); err != nil {
				return nil, fmt.Errorf("violation: unmarshal metadata: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("violation: rows: %w", err)
	}
	return entries, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Ping verifies database connectivity with a short deadline.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}
