package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/suokelife/suoke-dispatch-go/internal/model"
	"go.uber.org/zap"
)

// RedisStore Redis 会话存储，生产部署使用
// ttl 大于 0 时会话自动过期，避免陈旧会话无限累积
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisStore 创建 Redis 会话存储
func NewRedisStore(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// redisKey 会话键
func redisKey(modality model.Modality, userID int64) string {
	return fmt.Sprintf("diag_session:%s:%d", modality, userID)
}

// Get 查询会话 ID
func (s *RedisStore) Get(ctx context.Context, modality model.Modality, userID int64) (string, error) {
	sessionID, err := s.client.Get(ctx, redisKey(modality, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("查询诊断会话失败: %w", err)
	}
	return sessionID, nil
}

// Set 记录会话 ID
func (s *RedisStore) Set(ctx context.Context, modality model.Modality, userID int64, sessionID string) error {
	if err := s.client.Set(ctx, redisKey(modality, userID), sessionID, s.ttl).Err(); err != nil {
		return fmt.Errorf("记录诊断会话失败: %w", err)
	}

	s.logger.Info("诊断会话已记录",
		zap.String("modality", string(modality)),
		zap.Int64("userId", userID),
		zap.String("sessionId", sessionID))
	return nil
}

// Clear 清除会话
func (s *RedisStore) Clear(ctx context.Context, userID int64, modalities ...model.Modality) error {
	if len(modalities) == 0 {
		modalities = model.AllModalities[:]
	}

	keys := make([]string, 0, len(modalities))
	for _, m := range modalities {
		keys = append(keys, redisKey(m, userID))
	}

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("清除诊断会话失败: %w", err)
	}

	s.logger.Info("诊断会话已清除",
		zap.Int64("userId", userID),
		zap.Int("modalities", len(modalities)))
	return nil
}

// Active 返回该用户当前全部活跃会话
func (s *RedisStore) Active(ctx context.Context, userID int64) (map[model.Modality]string, error) {
	active := make(map[model.Modality]string)
	for _, m := range model.AllModalities {
		sessionID, err := s.client.Get(ctx, redisKey(m, userID)).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("查询诊断会话失败: %w", err)
		}
		active[m] = sessionID
	}
	return active, nil
}
