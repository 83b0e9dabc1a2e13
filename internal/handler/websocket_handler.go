package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/suokelife/suoke-dispatch-go/internal/dispatch"
	"github.com/suokelife/suoke-dispatch-go/internal/model"
	"github.com/suokelife/suoke-dispatch-go/internal/service"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: 生产环境应该检查 Origin 白名单
		return true
	},
}

// WebSocketHandler 聊天长连接处理器
type WebSocketHandler struct {
	connRegistry *service.ConnRegistry
	dispatcher   *dispatch.Dispatcher
	logger       *zap.Logger
}

// NewWebSocketHandler 创建长连接处理器
func NewWebSocketHandler(connRegistry *service.ConnRegistry, dispatcher *dispatch.Dispatcher, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		connRegistry: connRegistry,
		dispatcher:   dispatcher,
		logger:       logger,
	}
}

// HandleWebSocket WebSocket 连接入口
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	userIDStr := c.Query("uid")
	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		c.JSON(400, gin.H{"error": "invalid uid"})
		return
	}

	// 升级为 WebSocket 连接
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket 升级失败", zap.Error(err))
		return
	}
	defer conn.Close()

	// 注册连接
	sessionID := uuid.New().String()
	clientIP := c.ClientIP()
	h.connRegistry.RegisterUser(userID, conn, sessionID, clientIP)
	defer h.connRegistry.RemoveUserBySessionID(sessionID)

	h.logger.Info("WebSocket 连接建立",
		zap.Int64("userId", userID),
		zap.String("sessionId", sessionID))

	// 消息循环
	for {
		var msg model.ChatMessage
		err := conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket 读取错误", zap.Error(err))
			}
			break
		}

		h.handleMessage(userID, &msg)
	}

	h.logger.Info("WebSocket 连接断开", zap.Int64("userId", userID))
}

// handleMessage 处理用户消息
func (h *WebSocketHandler) handleMessage(userID int64, msg *model.ChatMessage) {
	switch msg.Type {
	case "CHAT":
		// 异步调度，完成后将诊断回复推送给用户
		go h.dispatchAndPush(userID, msg)

		// 立即返回确认消息
		ack := model.ChatAck{
			Success:   true,
			MessageID: msg.MessageID,
			Message:   "消息已收到，正在分析中...",
		}
		h.connRegistry.PushToUser(userID, ack)

	case "HEARTBEAT":
		h.connRegistry.UpdateHeartbeat(userID)
		h.logger.Debug("收到心跳", zap.Int64("userId", userID))

	default:
		h.logger.Warn("未知消息类型",
			zap.Int64("userId", userID),
			zap.String("type", msg.Type))
	}
}

// dispatchAndPush 调度消息并推送诊断回复
func (h *WebSocketHandler) dispatchAndPush(userID int64, msg *model.ChatMessage) {
	media := model.MediaContext{
		UserID:    userID,
		Images:    msg.Images,
		Audios:    msg.Audios,
		Palpation: msg.Palpation,
	}

	reply := h.dispatcher.ProcessMessage(context.Background(), msg.Content, media)

	push := model.DiagnosisReply{
		MessageID: uuid.New().String(),
		Type:      "DIAGNOSIS_REPLY",
		Reply:     reply,
		Timestamp: time.Now(),
	}

	if err := h.connRegistry.PushToUser(userID, push); err != nil {
		h.logger.Error("推送诊断回复失败",
			zap.Int64("userId", userID),
			zap.Error(err))
	}
}
