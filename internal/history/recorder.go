package history

import (
	"context"
	"database/sql"
	"time"

	apperrors "jira-askbot/internal/common/errors"
	"jira-askbot/internal/models"
)

const (
	createTableSQL = `CREATE TABLE IF NOT EXISTS query_history (
	id           BIGSERIAL PRIMARY KEY,
	user_id      TEXT NOT NULL,
	question     TEXT NOT NULL,
	jql_query    TEXT NOT NULL,
	query_type   TEXT NOT NULL,
	result_count INTEGER NOT NULL DEFAULT 0,
	execution_ms BIGINT NOT NULL DEFAULT 0,
	cached       BOOLEAN NOT NULL DEFAULT FALSE,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

	insertSQL = `INSERT INTO query_history
	(user_id, question, jql_query, query_type, result_count, execution_ms, cached, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`

	recentSQL = `SELECT id, user_id, question, jql_query, query_type, result_count, execution_ms, cached, created_at FROM query_history WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
)

// Recorder appends executed queries to query_history.
type Recorder struct {
	db *sql.DB
}

func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

func (r *Recorder) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createTableSQL); err != nil {
		return apperrors.NewStorageFailedError("create query_history", err)
	}
	return nil
}

// Record stores h and sets its ID.
func (r *Recorder) Record(ctx context.Context, h *models.QueryHistory) error {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	err := r.db.QueryRowContext(ctx, insertSQL,
		h.UserID, h.Question, h.Query, string(h.QueryType),
		h.ResultCount, h.Duration.Milliseconds(), h.Cached, h.CreatedAt,
	).Scan(&h.ID)
	if err != nil {
		return apperrors.NewStorageFailedError("record query history", err)
	}
	return nil
}

// Recent returns the user's latest entries, newest first.
func (r *Recorder) Recent(ctx context.Context, userID string, limit int) ([]models.QueryHistory, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, recentSQL, userID, limit)
	if err != nil {
		return nil, apperrors.NewStorageFailedError("list query history", err)
	}
	defer rows.Close()

	var out []models.QueryHistory
	for rows.Next() {
		var (
			h         models.QueryHistory
			queryType string
			execMs    int64
		)
		if err := rows.Scan(&h.ID, &h.UserID, &h.Question, &h.Query, &queryType,
			&h.ResultCount, &execMs, &h.Cached, &h.CreatedAt); err != nil {
			return nil, apperrors.NewStorageFailedError("scan query history", err)
		}
		h.QueryType = models.QueryType(queryType)
		h.Duration = time.Duration(execMs) * time.Millisecond
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageFailedError("iterate query history", err)
	}
	return out, nil
}
