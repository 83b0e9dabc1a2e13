package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/suokelife/suoke-dispatch-go/internal/model"
	"go.uber.org/zap"
)

var (
	// ErrUserOffline 用户不在线
	ErrUserOffline = fmt.Errorf("用户不在线")
)

// ConnRegistry WebSocket 连接注册中心
// 维护 userId 到连接会话的映射，用于向移动端推送诊断回复
type ConnRegistry struct {
	userConns  map[int64]*model.ConnSession // userId -> conn session
	connToUser map[string]int64             // sessionId -> userId
	mu         sync.RWMutex                 // 读写锁保护
	logger     *zap.Logger
}

// NewConnRegistry 创建连接注册中心
func NewConnRegistry(logger *zap.Logger) *ConnRegistry {
	r := &ConnRegistry{
		userConns:  make(map[int64]*model.ConnSession),
		connToUser: make(map[string]int64),
		logger:     logger,
	}

	// 启动心跳检测
	go r.heartbeatChecker()

	return r
}

// RegisterUser 注册用户连接
func (r *ConnRegistry) RegisterUser(userID int64, conn *websocket.Conn, sessionID string, clientIP string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// 清理旧连接
	if existing, ok := r.userConns[userID]; ok {
		r.logger.Info("用户重新连接，关闭旧连接",
			zap.Int64("userId", userID),
			zap.String("oldSessionId", existing.SessionID))
		existing.Conn.Close()
		delete(r.connToUser, existing.SessionID)
	}

	cs := &model.ConnSession{
		UserID:        userID,
		Conn:          conn,
		SessionID:     sessionID,
		ClientIP:      clientIP,
		LastHeartbeat: time.Now(),
		MissedBeats:   0,
	}

	r.userConns[userID] = cs
	r.connToUser[sessionID] = userID

	r.logger.Info("用户连接注册成功",
		zap.Int64("userId", userID),
		zap.String("sessionId", sessionID))
}

// PushToUser 向指定用户推送消息
func (r *ConnRegistry) PushToUser(userID int64, message interface{}) error {
	r.mu.RLock()
	cs, ok := r.userConns[userID]
	r.mu.RUnlock()

	if !ok {
		r.logger.Warn("用户不在线，推送失败", zap.Int64("userId", userID))
		return ErrUserOffline
	}

	// WebSocket 写入需要加锁（通过会话自己的方法）
	err := cs.WriteMessage(message)
	if err != nil {
		r.logger.Error("消息推送失败",
			zap.Int64("userId", userID),
			zap.Error(err))
		// 异步清理无效连接
		go r.RemoveUserByID(userID)
		return err
	}

	r.logger.Debug("消息推送成功", zap.Int64("userId", userID))
	return nil
}

// UpdateHeartbeat 更新心跳时间
func (r *ConnRegistry) UpdateHeartbeat(userID int64) bool {
	r.mu.RLock()
	cs, ok := r.userConns[userID]
	r.mu.RUnlock()

	if !ok {
		return false
	}

	cs.UpdateHeartbeat()
	r.logger.Debug("心跳已更新", zap.Int64("userId", userID))
	return true
}

// RemoveUserBySessionID 根据 sessionId 移除连接
func (r *ConnRegistry) RemoveUserBySessionID(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if userID, ok := r.connToUser[sessionID]; ok {
		delete(r.userConns, userID)
		delete(r.connToUser, sessionID)
		r.logger.Info("用户连接已移除",
			zap.Int64("userId", userID),
			zap.String("sessionId", sessionID))
	}
}

// RemoveUserByID 根据 userId 移除连接
func (r *ConnRegistry) RemoveUserByID(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cs, ok := r.userConns[userID]; ok {
		delete(r.connToUser, cs.SessionID)
		delete(r.userConns, userID)
		r.logger.Info("用户连接已移除", zap.Int64("userId", userID))
	}
}

// GetOnlineCount 获取在线用户数
func (r *ConnRegistry) GetOnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.userConns)
}

// heartbeatChecker 心跳检测器
func (r *ConnRegistry) heartbeatChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		r.mu.Lock()

		now := time.Now()
		for userID, cs := range r.userConns {
			timeSinceHeartbeat := now.Sub(cs.LastHeartbeat)

			if timeSinceHeartbeat > 60*time.Second {
				cs.IncrementMissedBeats()

				if cs.ShouldBeCleaned() {
					r.logger.Info("清理无效连接",
						zap.Int64("userId", userID),
						zap.Int("missedBeats", cs.MissedBeats))

					cs.Conn.Close()
					delete(r.userConns, userID)
					delete(r.connToUser, cs.SessionID)
				} else {
					r.logger.Warn("用户心跳丢失",
						zap.Int64("userId", userID),
						zap.Int("missedBeats", cs.MissedBeats))
				}
			}
		}

		r.mu.Unlock()
	}
}
