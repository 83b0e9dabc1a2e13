package client

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/suokelife/suoke-dispatch-go/internal/model"
	"go.uber.org/zap"
)

// InquiryClient 问诊服务客户端
type InquiryClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewInquiryClient 创建问诊服务客户端
func NewInquiryClient(baseURL string, timeout time.Duration, logger *zap.Logger) *InquiryClient {
	return &InquiryClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// startSessionRequest 创建会话请求
type startSessionRequest struct {
	UserID int64 `json:"user_id"`
}

// startSessionResponse 创建会话响应
type startSessionResponse struct {
	SessionID string `json:"session_id"`
}

// interactRequest 问诊交互请求
type interactRequest struct {
	Message string `json:"message"`
}

// interactResponse 问诊交互响应
type interactResponse struct {
	DetectedSymptoms  []string `json:"detected_symptoms"`
	OverallAssessment string   `json:"overall_assessment"`
	Confidence        float64  `json:"confidence"`
	SessionStatus     string   `json:"session_status"` // active, closed
}

// StartSession 开启远程问诊会话
func (c *InquiryClient) StartSession(ctx context.Context, userID int64) (string, error) {
	url := c.baseURL + "/api/v1/inquiry/sessions"

	var resp startSessionResponse
	if err := postJSON(ctx, c.httpClient, url, startSessionRequest{UserID: userID}, &resp); err != nil {
		return "", fmt.Errorf("创建问诊会话失败: %w", err)
	}
	if resp.SessionID == "" {
		return "", fmt.Errorf("问诊服务未返回会话 ID")
	}

	c.logger.Info("问诊会话已创建",
		zap.Int64("userId", userID),
		zap.String("sessionId", resp.SessionID))

	return resp.SessionID, nil
}

// Interact 在已有会话中发送一轮问诊消息，返回本轮分析结果
func (c *InquiryClient) Interact(ctx context.Context, sessionID, message string) (*model.ModalityResult, error) {
	url := fmt.Sprintf("%s/api/v1/inquiry/sessions/%s/interact", c.baseURL, sessionID)

	var resp interactResponse
	if err := postJSON(ctx, c.httpClient, url, interactRequest{Message: message}, &resp); err != nil {
		return nil, fmt.Errorf("问诊交互失败: %w", err)
	}

	c.logger.Debug("问诊交互完成",
		zap.String("sessionId", sessionID),
		zap.String("sessionStatus", resp.SessionStatus),
		zap.Int("symptoms", len(resp.DetectedSymptoms)))

	return &model.ModalityResult{
		Modality:          model.ModalityInquiry,
		DetectedSymptoms:  resp.DetectedSymptoms,
		OverallAssessment: resp.OverallAssessment,
		Confidence:        resp.Confidence,
	}, nil
}
