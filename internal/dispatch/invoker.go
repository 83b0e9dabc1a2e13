package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/suokelife/suoke-dispatch-go/internal/model"
	"github.com/suokelife/suoke-dispatch-go/internal/session"
	"go.uber.org/zap"
)

// InquiryAPI 问诊服务能力
type InquiryAPI interface {
	StartSession(ctx context.Context, userID int64) (string, error)
	Interact(ctx context.Context, sessionID, message string) (*model.ModalityResult, error)
}

// LookAPI 望诊服务能力
type LookAPI interface {
	AnalyzeImage(ctx context.Context, img model.ImagePayload) (*model.ModalityResult, error)
}

// ListenAPI 闻诊服务能力
type ListenAPI interface {
	AnalyzeAudio(ctx context.Context, audio model.AudioPayload) (*model.ModalityResult, error)
}

// PalpationAPI 切诊服务能力
type PalpationAPI interface {
	Analyze(ctx context.Context, reading model.PalpationReading) (*model.ModalityResult, error)
}

// Invoker 单诊法调用器
type Invoker interface {
	Modality() model.Modality
	Invoke(ctx context.Context, message string, media model.MediaContext) (*model.ModalityResult, error)
}

// InquiryInvoker 问诊调用器（有状态）
// 复用会话存储中已有的远程会话，没有时先创建再交互
type InquiryInvoker struct {
	api    InquiryAPI
	store  session.Store
	logger *zap.Logger
}

// NewInquiryInvoker 创建问诊调用器
func NewInquiryInvoker(api InquiryAPI, store session.Store, logger *zap.Logger) *InquiryInvoker {
	return &InquiryInvoker{api: api, store: store, logger: logger}
}

// Modality 诊法类型
func (v *InquiryInvoker) Modality() model.Modality { return model.ModalityInquiry }

// Invoke 执行一轮问诊交互
func (v *InquiryInvoker) Invoke(ctx context.Context, message string, media model.MediaContext) (*model.ModalityResult, error) {
	sessionID, err := v.store.Get(ctx, model.ModalityInquiry, media.UserID)
	if errors.Is(err, session.ErrSessionNotFound) {
		sessionID, err = v.api.StartSession(ctx, media.UserID)
		if err != nil {
			return nil, fmt.Errorf("开启问诊会话失败: %w", err)
		}
		if err := v.store.Set(ctx, model.ModalityInquiry, media.UserID, sessionID); err != nil {
			return nil, fmt.Errorf("记录问诊会话失败: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("查询问诊会话失败: %w", err)
	}

	return v.api.Interact(ctx, sessionID, message)
}

// LookInvoker 望诊调用器（无状态）
type LookInvoker struct {
	api    LookAPI
	logger *zap.Logger
}

// NewLookInvoker 创建望诊调用器
func NewLookInvoker(api LookAPI, logger *zap.Logger) *LookInvoker {
	return &LookInvoker{api: api, logger: logger}
}

// Modality 诊法类型
func (v *LookInvoker) Modality() model.Modality { return model.ModalityLook }

// Invoke 选取主图片并分析
func (v *LookInvoker) Invoke(ctx context.Context, _ string, media model.MediaContext) (*model.ModalityResult, error) {
	img, ok := primaryImage(media.Images)
	if !ok {
		return nil, fmt.Errorf("没有可分析的图片")
	}
	return v.api.AnalyzeImage(ctx, img)
}

// ListenInvoker 闻诊调用器（无状态）
type ListenInvoker struct {
	api    ListenAPI
	logger *zap.Logger
}

// NewListenInvoker 创建闻诊调用器
func NewListenInvoker(api ListenAPI, logger *zap.Logger) *ListenInvoker {
	return &ListenInvoker{api: api, logger: logger}
}

// Modality 诊法类型
func (v *ListenInvoker) Modality() model.Modality { return model.ModalityListen }

// Invoke 选取主音频并分析
func (v *ListenInvoker) Invoke(ctx context.Context, _ string, media model.MediaContext) (*model.ModalityResult, error) {
	audio, ok := primaryAudio(media.Audios)
	if !ok {
		return nil, fmt.Errorf("没有可分析的音频")
	}
	return v.api.AnalyzeAudio(ctx, audio)
}

// PalpationInvoker 切诊调用器（无状态）
type PalpationInvoker struct {
	api    PalpationAPI
	logger *zap.Logger
}

// NewPalpationInvoker 创建切诊调用器
func NewPalpationInvoker(api PalpationAPI, logger *zap.Logger) *PalpationInvoker {
	return &PalpationInvoker{api: api, logger: logger}
}

// Modality 诊法类型
func (v *PalpationInvoker) Modality() model.Modality { return model.ModalityPalpation }

// Invoke 选取主切诊数据并分析
func (v *PalpationInvoker) Invoke(ctx context.Context, _ string, media model.MediaContext) (*model.ModalityResult, error) {
	reading, ok := primaryReading(media.Palpation)
	if !ok {
		return nil, fmt.Errorf("没有可分析的切诊数据")
	}
	return v.api.Analyze(ctx, reading)
}

// primaryImage 选取主图片，优先级: tongue > face > 第一张
func primaryImage(images []model.ImagePayload) (model.ImagePayload, bool) {
	for _, tag := range []string{"tongue", "face"} {
		for _, img := range images {
			if img.Tag == tag {
				return img, true
			}
		}
	}
	if len(images) > 0 {
		return images[0], true
	}
	return model.ImagePayload{}, false
}

// primaryAudio 选取主音频，优先级: cough > voice > 第一段
func primaryAudio(audios []model.AudioPayload) (model.AudioPayload, bool) {
	for _, tag := range []string{"cough", "voice"} {
		for _, audio := range audios {
			if audio.Tag == tag {
				return audio, true
			}
		}
	}
	if len(audios) > 0 {
		return audios[0], true
	}
	return model.AudioPayload{}, false
}

// primaryReading 选取主切诊数据，优先级: pulse > 第一条
func primaryReading(readings []model.PalpationReading) (model.PalpationReading, bool) {
	for _, r := range readings {
		if r.Tag == "pulse" {
			return r, true
		}
	}
	if len(readings) > 0 {
		return readings[0], true
	}
	return model.PalpationReading{}, false
}
