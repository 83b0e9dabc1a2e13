package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/suokelife/suoke-dispatch-go/internal/model"
	"go.uber.org/zap"
)

// MemoryStore 内存会话存储
type MemoryStore struct {
	sessions map[string]string // "modality_userId" -> sessionId
	mu       sync.RWMutex      // 读写锁保护
	logger   *zap.Logger
}

// NewMemoryStore 创建内存会话存储
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]string),
		logger:   logger,
	}
}

// memoryKey 会话键
func memoryKey(modality model.Modality, userID int64) string {
	return fmt.Sprintf("%s_%d", modality, userID)
}

// Get 查询会话 ID
func (s *MemoryStore) Get(_ context.Context, modality model.Modality, userID int64) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessionID, ok := s.sessions[memoryKey(modality, userID)]
	if !ok {
		return "", ErrSessionNotFound
	}
	return sessionID, nil
}

// Set 记录会话 ID
func (s *MemoryStore) Set(_ context.Context, modality model.Modality, userID int64, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[memoryKey(modality, userID)] = sessionID
	s.logger.Info("诊断会话已记录",
		zap.String("modality", string(modality)),
		zap.Int64("userId", userID),
		zap.String("sessionId", sessionID))
	return nil
}

// Clear 清除会话
func (s *MemoryStore) Clear(_ context.Context, userID int64, modalities ...model.Modality) error {
	if len(modalities) == 0 {
		modalities = model.AllModalities[:]
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range modalities {
		delete(s.sessions, memoryKey(m, userID))
	}

	s.logger.Info("诊断会话已清除",
		zap.Int64("userId", userID),
		zap.Int("modalities", len(modalities)))
	return nil
}

// Active 返回该用户当前全部活跃会话
func (s *MemoryStore) Active(_ context.Context, userID int64) (map[model.Modality]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	active := make(map[model.Modality]string)
	for _, m := range model.AllModalities {
		if sessionID, ok := s.sessions[memoryKey(m, userID)]; ok {
			active[m] = sessionID
		}
	}
	return active, nil
}
