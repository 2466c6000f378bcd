package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"unified-assistant/internal/models"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	historyKeyPrefix = "assistant:history:" // assistant:history:{domain}:{session_id}
	historyMaxTurns  = 50                   // stored turns per session
	historyTTL       = 7 * 24 * time.Hour
)

// HistoryRepository keeps recent conversation turns per session in Redis.
// History is best-effort context for prompts, never a source of truth.
type HistoryRepository struct {
	client *redis.Client
	logger *zap.Logger
}

func NewHistoryRepository(client *redis.Client, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{
		client: client,
		logger: logger,
	}
}

func (r *HistoryRepository) key(domain models.Domain, sessionID string) string {
	return fmt.Sprintf("%s%s:%s", historyKeyPrefix, domain, sessionID)
}

// Append stores one turn, trims the list to the cap and refreshes the TTL.
func (r *HistoryRepository) Append(ctx context.Context, domain models.Domain, sessionID string, turn models.Turn) error {
	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("failed to marshal turn: %w", err)
	}

	key := r.key(domain, sessionID)
	pipe := r.client.Pipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -historyMaxTurns, -1)
	pipe.Expire(ctx, key, historyTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// Recent returns up to n most recent turns, oldest first.
func (r *HistoryRepository) Recent(ctx context.Context, domain models.Domain, sessionID string, n int) ([]models.Turn, error) {
	if n <= 0 {
		return nil, nil
	}

	items, err := r.client.LRange(ctx, r.key(domain, sessionID), int64(-n), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	turns := make([]models.Turn, 0, len(items))
	for _, item := range items {
		var turn models.Turn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			r.logger.Warn("Skipping malformed history entry", zap.Error(err))
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}
