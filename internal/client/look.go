package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/suokelife/suoke-dispatch-go/internal/model"
	"go.uber.org/zap"
)

// LookClient 望诊服务客户端
type LookClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewLookClient 创建望诊服务客户端
func NewLookClient(baseURL string, timeout time.Duration, logger *zap.Logger) *LookClient {
	return &LookClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// analyzeImageRequest 图像分析请求
type analyzeImageRequest struct {
	Tag  string `json:"tag"`
	Data string `json:"data"`
}

// analyzeResponse 诊法分析响应（望/闻/切共用结构）
type analyzeResponse struct {
	DetectedFeatures  []string `json:"detected_features"`
	OverallAssessment string   `json:"overall_assessment"`
	Confidence        float64  `json:"confidence"`
}

// AnalyzeImage 分析舌象或面部图片
func (c *LookClient) AnalyzeImage(ctx context.Context, img model.ImagePayload) (*model.ModalityResult, error) {
	url := c.baseURL + "/api/v1/look/analyze"

	var resp analyzeResponse
	req := analyzeImageRequest{Tag: img.Tag, Data: img.Data}
	if err := postJSON(ctx, c.httpClient, url, req, &resp); err != nil {
		return nil, fmt.Errorf("望诊分析失败: %w", err)
	}

	c.logger.Debug("望诊分析完成",
		zap.String("tag", img.Tag),
		zap.Float64("confidence", resp.Confidence))

	return &model.ModalityResult{
		Modality:          model.ModalityLook,
		DetectedSymptoms:  resp.DetectedFeatures,
		OverallAssessment: resp.OverallAssessment,
		Confidence:        resp.Confidence,
	}, nil
}
