// Package session 管理四诊远程会话标识
// 每个 (诊法, 用户) 至多持有一个远程会话 ID，状态只有 absent 与 active 两种：
// 首次成功创建远程会话后进入 active，仅通过 Clear（或 Redis 过期）回到 absent。
package session

import (
	"context"
	"errors"

	"github.com/suokelife/suoke-dispatch-go/internal/model"
)

// ErrSessionNotFound 会话不存在
var ErrSessionNotFound = errors.New("会话不存在")

// Store 诊断会话存储接口
// 测试与默认部署使用内存实现，生产部署可切换为 Redis 实现
type Store interface {
	// Get 查询会话 ID，不存在时返回 ErrSessionNotFound
	Get(ctx context.Context, modality model.Modality, userID int64) (string, error)

	// Set 记录会话 ID
	Set(ctx context.Context, modality model.Modality, userID int64, sessionID string) error

	// Clear 清除指定诊法的会话；不指定诊法时清除该用户全部诊法的会话
	Clear(ctx context.Context, userID int64, modalities ...model.Modality) error

	// Active 返回该用户当前全部活跃会话
	Active(ctx context.Context, userID int64) (map[model.Modality]string, error)
}
