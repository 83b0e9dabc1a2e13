package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/suokelife/suoke-dispatch-go/internal/model"
	"go.uber.org/zap"
)

// PalpationClient 切诊服务客户端
type PalpationClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewPalpationClient 创建切诊服务客户端
func NewPalpationClient(baseURL string, timeout time.Duration, logger *zap.Logger) *PalpationClient {
	return &PalpationClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// analyzePalpationRequest 切诊数据分析请求
type analyzePalpationRequest struct {
	Tag  string `json:"tag"`
	Data string `json:"data"`
}

// Analyze 分析脉象等切诊传感器数据
func (c *PalpationClient) Analyze(ctx context.Context, reading model.PalpationReading) (*model.ModalityResult, error) {
	url := c.baseURL + "/api/v1/palpation/analyze"

	var resp analyzeResponse
	req := analyzePalpationRequest{Tag: reading.Tag, Data: reading.Data}
	if err := postJSON(ctx, c.httpClient, url, req, &resp); err != nil {
		return nil, fmt.Errorf("切诊分析失败: %w", err)
	}

	c.logger.Debug("切诊分析完成",
		zap.String("tag", reading.Tag),
		zap.Float64("confidence", resp.Confidence))

	return &model.ModalityResult{
		Modality:          model.ModalityPalpation,
		DetectedSymptoms:  resp.DetectedFeatures,
		OverallAssessment: resp.OverallAssessment,
		Confidence:        resp.Confidence,
	}, nil
}
