package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/suokelife/suoke-dispatch-go/internal/model"
	"go.uber.org/zap"
)

// ListenClient 闻诊服务客户端
type ListenClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewListenClient 创建闻诊服务客户端
func NewListenClient(baseURL string, timeout time.Duration, logger *zap.Logger) *ListenClient {
	return &ListenClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// analyzeAudioRequest 音频分析请求
type analyzeAudioRequest struct {
	Tag  string `json:"tag"`
	Data string `json:"data"`
}

// AnalyzeAudio 分析咳嗽或语音音频
func (c *ListenClient) AnalyzeAudio(ctx context.Context, audio model.AudioPayload) (*model.ModalityResult, error) {
	url := c.baseURL + "/api/v1/listen/analyze"

	var resp analyzeResponse
	req := analyzeAudioRequest{Tag: audio.Tag, Data: audio.Data}
	if err := postJSON(ctx, c.httpClient, url, req, &resp); err != nil {
		return nil, fmt.Errorf("闻诊分析失败: %w", err)
	}

	c.logger.Debug("闻诊分析完成",
		zap.String("tag", audio.Tag),
		zap.Float64("confidence", resp.Confidence))

	return &model.ModalityResult{
		Modality:          model.ModalityListen,
		DetectedSymptoms:  resp.DetectedFeatures,
		OverallAssessment: resp.OverallAssessment,
		Confidence:        resp.Confidence,
	}, nil
}
