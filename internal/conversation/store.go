package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jira-askbot/internal/common/cache"
	apperrors "jira-askbot/internal/common/errors"
	"jira-askbot/internal/models"
)

// Store keeps one ConversationTurn per (user, channel). Load returns nil
// when there is no prior turn.
type Store interface {
	Load(ctx context.Context, userID, channelID string) (*models.ConversationTurn, error)
	Save(ctx context.Context, turn *models.ConversationTurn) error
}

// RedisStore keeps turns under conversation:<user>:<channel> with a TTL.
type RedisStore struct {
	cache cache.Store
	ttl   time.Duration
}

func NewRedisStore(c cache.Store, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: c, ttl: ttl}
}

func redisKey(userID, channelID string) string {
	return fmt.Sprintf("conversation:%s:%s", userID, channelID)
}

func (s *RedisStore) Load(ctx context.Context, userID, channelID string) (*models.ConversationTurn, error) {
	var turn models.ConversationTurn
	err := cache.GetJSON(ctx, s.cache, redisKey(userID, channelID), &turn)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewCacheUnavailableError(err)
	}
	return &turn, nil
}

func (s *RedisStore) Save(ctx context.Context, turn *models.ConversationTurn) error {
	if turn.UpdatedAt.IsZero() {
		turn.UpdatedAt = time.Now().UTC()
	}
	if err := cache.SetJSON(ctx, s.cache, redisKey(turn.UserID, turn.ChannelID), turn, s.ttl); err != nil {
		return apperrors.NewCacheUnavailableError(err)
	}
	return nil
}

const (
	createTableSQL = `CREATE TABLE IF NOT EXISTS conversation_context (
	user_id       TEXT NOT NULL,
	channel_id    TEXT NOT NULL,
	last_query    TEXT NOT NULL,
	last_intent   TEXT NOT NULL,
	entities      JSONB NOT NULL,
	last_response TEXT NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (user_id, channel_id)
)`

	selectTurnSQL = `SELECT last_query, last_intent, entities, last_response, updated_at
FROM conversation_context WHERE user_id = $1 AND channel_id = $2`

	upsertTurnSQL = `INSERT INTO conversation_context
	(user_id, channel_id, last_query, last_intent, entities, last_response, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (user_id, channel_id) DO UPDATE SET
	last_query = EXCLUDED.last_query,
	last_intent = EXCLUDED.last_intent,
	entities = EXCLUDED.entities,
	last_response = EXCLUDED.last_response,
	updated_at = EXCLUDED.updated_at`
)

// PostgresStore keeps turns in the conversation_context table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return apperrors.NewStorageFailedError("create conversation_context", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, userID, channelID string) (*models.ConversationTurn, error) {
	turn := &models.ConversationTurn{UserID: userID, ChannelID: channelID}
	var (
		intent   string
		entities []byte
	)
	err := s.db.QueryRowContext(ctx, selectTurnSQL, userID, channelID).
		Scan(&turn.LastQuery, &intent, &entities, &turn.LastResponse, &turn.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewStorageFailedError("load conversation turn", err)
	}
	turn.LastIntent = models.IntentType(intent)
	if err := json.Unmarshal(entities, &turn.LastEntities); err != nil {
		return nil, apperrors.NewStorageFailedError("decode conversation entities", err)
	}
	return turn, nil
}

func (s *PostgresStore) Save(ctx context.Context, turn *models.ConversationTurn) error {
	if turn.UpdatedAt.IsZero() {
		turn.UpdatedAt = time.Now().UTC()
	}
	entities, err := json.Marshal(turn.LastEntities)
	if err != nil {
		return apperrors.NewStorageFailedError("encode conversation entities", err)
	}
	_, err = s.db.ExecContext(ctx, upsertTurnSQL,
		turn.UserID, turn.ChannelID, turn.LastQuery, string(turn.LastIntent),
		entities, turn.LastResponse, turn.UpdatedAt)
	if err != nil {
		return apperrors.NewStorageFailedError("save conversation turn", err)
	}
	return nil
}
