package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/suokelife/suoke-dispatch-go/internal/dispatch"
	"github.com/suokelife/suoke-dispatch-go/internal/model"
	"github.com/suokelife/suoke-dispatch-go/internal/service"
	"go.uber.org/zap"
)

// ChatHandler 聊天调度 API 处理器
type ChatHandler struct {
	dispatcher   *dispatch.Dispatcher
	connRegistry *service.ConnRegistry
	serviceName  string
	logger       *zap.Logger
}

// NewChatHandler 创建聊天调度处理器
func NewChatHandler(dispatcher *dispatch.Dispatcher, connRegistry *service.ConnRegistry, serviceName string, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		dispatcher:   dispatcher,
		connRegistry: connRegistry,
		serviceName:  serviceName,
		logger:       logger,
	}
}

// chatRequest 聊天消息请求
type chatRequest struct {
	UserID    int64                    `json:"userId" binding:"required"`
	Message   string                   `json:"message"`
	Images    []model.ImagePayload     `json:"images"`
	Audios    []model.AudioPayload     `json:"audios"`
	Palpation []model.PalpationReading `json:"palpation"`
}

// ProcessMessage 处理聊天消息
func (h *ChatHandler) ProcessMessage(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "invalid request"})
		return
	}

	h.logger.Info("收到聊天消息",
		zap.Int64("userId", req.UserID),
		zap.String("message", req.Message))

	media := model.MediaContext{
		UserID:    req.UserID,
		Images:    req.Images,
		Audios:    req.Audios,
		Palpation: req.Palpation,
	}

	reply := h.dispatcher.ProcessMessage(c.Request.Context(), req.Message, media)
	c.JSON(200, reply)
}

// ActiveSessions 查询用户当前活跃的诊断会话
func (h *ChatHandler) ActiveSessions(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("uid"), 10, 64)
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid uid"})
		return
	}

	sessions, err := h.dispatcher.ActiveSessions(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("查询诊断会话失败",
			zap.Int64("userId", userID),
			zap.Error(err))
		c.JSON(500, gin.H{"error": "查询会话失败"})
		return
	}

	c.JSON(200, gin.H{"userId": userID, "sessions": sessions})
}

// ClearSessions 清除用户的诊断会话
// modality 参数可选，不传时清除全部诊法的会话
func (h *ChatHandler) ClearSessions(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("uid"), 10, 64)
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid uid"})
		return
	}

	var modalities []model.Modality
	if m := c.Query("modality"); m != "" {
		modality := model.Modality(m)
		if !modality.Valid() {
			c.JSON(400, gin.H{"error": "invalid modality"})
			return
		}
		modalities = append(modalities, modality)
	}

	if err := h.dispatcher.ClearSessions(c.Request.Context(), userID, modalities...); err != nil {
		h.logger.Error("清除诊断会话失败",
			zap.Int64("userId", userID),
			zap.Error(err))
		c.JSON(500, gin.H{"error": "清除会话失败"})
		return
	}

	c.JSON(200, gin.H{"success": true})
}

// Health 健康检查
func (h *ChatHandler) Health(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":       "UP",
		"service":      h.serviceName,
		"online_users": h.connRegistry.GetOnlineCount(),
	})
}
