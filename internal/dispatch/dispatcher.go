// Package dispatch 实现聊天消息到四诊服务的调度
// 流程：意图识别 → 并发调用被标记的诊法 → 两项以上结果时聚合 → 组装回复
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/suokelife/suoke-dispatch-go/internal/intent"
	"github.com/suokelife/suoke-dispatch-go/internal/model"
	"github.com/suokelife/suoke-dispatch-go/internal/session"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Dispatcher 四诊调度器
type Dispatcher struct {
	classifier     *intent.Classifier
	invokers       map[model.Modality]Invoker
	store          session.Store
	aggregator     *Aggregator
	composer       *Composer
	requestTimeout time.Duration
	logger         *zap.Logger

	// 同一用户的调度串行执行，避免并发创建问诊会话
	// 锁表按引用计数回收，空闲用户不占内存
	lockMu    sync.Mutex
	userLocks map[int64]*userLockEntry
}

// userLockEntry 用户级互斥锁，refs 记录持有与等待者数量
type userLockEntry struct {
	mu   sync.Mutex
	refs int
}

// NewDispatcher 创建调度器
func NewDispatcher(
	classifier *intent.Classifier,
	invokers []Invoker,
	store session.Store,
	requestTimeout time.Duration,
	logger *zap.Logger,
) *Dispatcher {
	m := make(map[model.Modality]Invoker, len(invokers))
	for _, inv := range invokers {
		m[inv.Modality()] = inv
	}

	return &Dispatcher{
		classifier:     classifier,
		invokers:       m,
		store:          store,
		aggregator:     NewAggregator(),
		composer:       NewComposer(),
		requestTimeout: requestTimeout,
		logger:         logger,
		userLocks:      make(map[int64]*userLockEntry),
	}
}

// ProcessMessage 处理一条用户消息，唯一入口
// 任何诊法失败都不会向上抛出，用户总能得到回复
func (d *Dispatcher) ProcessMessage(ctx context.Context, message string, media model.MediaContext) *model.ChatReply {
	rec := d.classifier.Classify(message, media)

	d.logger.Info("意图识别完成",
		zap.Int64("userId", media.UserID),
		zap.String("urgency", string(rec.Urgency)),
		zap.Float64("confidence", rec.Confidence),
		zap.Int("needCount", rec.NeedCount()),
		zap.Strings("symptoms", rec.ExtractedSymptoms))

	// 没有任何诊法被标记时直接返回引导语，不发起远程调用
	if !rec.Any() {
		return d.composer.Compose(rec, nil, nil)
	}

	entry := d.lockUser(media.UserID)
	defer d.unlockUser(media.UserID, entry)

	ctx, cancel := context.WithTimeout(ctx, d.requestTimeout)
	defer cancel()

	results, invoked := d.invokeAll(ctx, rec, message, media)

	// 被调用的诊法全部失败时降级，仍保证有回复
	if invoked > 0 && len(results) == 0 {
		d.logger.Warn("全部诊法调用失败，返回降级响应",
			zap.Int64("userId", media.UserID),
			zap.Int("invoked", invoked))
		return d.composer.ComposeDegraded()
	}

	var integrated *model.IntegratedDiagnosis
	if len(results) >= 2 {
		integrated = d.aggregator.Aggregate(results)
	}

	reply := d.composer.Compose(rec, results, integrated)

	d.logger.Info("消息处理完成",
		zap.Int64("userId", media.UserID),
		zap.Int("results", len(results)),
		zap.Bool("integrated", integrated != nil))

	return reply
}

// invokeAll 并发调用所有可执行的诊法
// 结果写入固定槽位，最终顺序恒为 问诊、望诊、闻诊、切诊，与完成先后无关；
// 单个诊法失败只记录日志，不影响其他诊法
func (d *Dispatcher) invokeAll(ctx context.Context, rec model.IntentRecord, message string, media model.MediaContext) ([]model.ModalityResult, int) {
	var slots [len(model.AllModalities)]*model.ModalityResult

	g, gctx := errgroup.WithContext(ctx)
	invoked := 0

	for i, m := range model.AllModalities {
		if !d.eligible(m, rec, media) {
			continue
		}
		inv, ok := d.invokers[m]
		if !ok {
			d.logger.Error("诊法调用器未注册", zap.String("modality", string(m)))
			continue
		}

		invoked++
		i, m, inv := i, m, inv
		g.Go(func() error {
			res, err := inv.Invoke(gctx, message, media)
			if err != nil {
				d.logger.Error("诊法调用失败",
					zap.String("modality", string(m)),
					zap.Int64("userId", media.UserID),
					zap.Error(err))
				return nil
			}
			slots[i] = res
			return nil
		})
	}

	// 所有 goroutine 都返回 nil，Wait 仅用于汇合
	_ = g.Wait()

	results := make([]model.ModalityResult, 0, invoked)
	for _, res := range slots {
		if res != nil {
			results = append(results, *res)
		}
	}
	return results, invoked
}

// eligible 判断诊法本次是否可执行
// 望/闻/切除意图标记外还需携带相应数据，否则由组装器提示用户补充
func (d *Dispatcher) eligible(m model.Modality, rec model.IntentRecord, media model.MediaContext) bool {
	if !rec.Needs(m) {
		return false
	}
	switch m {
	case model.ModalityInquiry:
		return true
	case model.ModalityLook:
		return media.HasImages()
	case model.ModalityListen:
		return media.HasAudio()
	case model.ModalityPalpation:
		return media.HasPalpationData()
	}
	return false
}

// ClearSessions 清除用户的诊断会话
func (d *Dispatcher) ClearSessions(ctx context.Context, userID int64, modalities ...model.Modality) error {
	return d.store.Clear(ctx, userID, modalities...)
}

// ActiveSessions 查询用户当前活跃的诊断会话
func (d *Dispatcher) ActiveSessions(ctx context.Context, userID int64) (map[model.Modality]string, error) {
	return d.store.Active(ctx, userID)
}

// lockUser 获取并锁定用户级互斥锁
func (d *Dispatcher) lockUser(userID int64) *userLockEntry {
	d.lockMu.Lock()
	entry, ok := d.userLocks[userID]
	if !ok {
		entry = &userLockEntry{}
		d.userLocks[userID] = entry
	}
	entry.refs++
	d.lockMu.Unlock()

	entry.mu.Lock()
	return entry
}

// unlockUser 释放用户级互斥锁，最后一个持有者释放时回收锁表条目
func (d *Dispatcher) unlockUser(userID int64, entry *userLockEntry) {
	entry.mu.Unlock()

	d.lockMu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(d.userLocks, userID)
	}
	d.lockMu.Unlock()
}
