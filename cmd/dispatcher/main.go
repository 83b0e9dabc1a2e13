package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/suokelife/suoke-dispatch-go/internal/client"
	"github.com/suokelife/suoke-dispatch-go/internal/config"
	"github.com/suokelife/suoke-dispatch-go/internal/dispatch"
	"github.com/suokelife/suoke-dispatch-go/internal/handler"
	"github.com/suokelife/suoke-dispatch-go/internal/intent"
	"github.com/suokelife/suoke-dispatch-go/internal/middleware"
	"github.com/suokelife/suoke-dispatch-go/internal/service"
	"github.com/suokelife/suoke-dispatch-go/internal/session"
	"github.com/suokelife/suoke-dispatch-go/pkg/logger"
	pkgredis "github.com/suokelife/suoke-dispatch-go/pkg/redis"
	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg, err := config.LoadConfig("configs/dispatcher.yaml")
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化日志
	zapLogger, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("diagnosis-dispatcher 服务启动中...")

	// 加载意图识别词表
	vocab, err := intent.LoadVocabulary(cfg.KeywordsFile)
	if err != nil {
		log.Fatalf("加载词表失败: %v", err)
	}
	classifier := intent.NewClassifier(vocab)

	// 初始化会话存储
	var store session.Store
	switch cfg.Dispatch.SessionStore {
	case "redis":
		redisClient, err := pkgredis.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatalf("初始化 Redis 失败: %v", err)
		}
		store = session.NewRedisStore(redisClient, cfg.Dispatch.SessionTTL(), zapLogger)
	default:
		store = session.NewMemoryStore(zapLogger)
	}

	// 初始化四诊服务客户端
	modalityTimeout := cfg.Dispatch.ModalityTimeout()
	inquiryClient := client.NewInquiryClient(cfg.Services.Inquiry, modalityTimeout, zapLogger)
	lookClient := client.NewLookClient(cfg.Services.Look, modalityTimeout, zapLogger)
	listenClient := client.NewListenClient(cfg.Services.Listen, modalityTimeout, zapLogger)
	palpationClient := client.NewPalpationClient(cfg.Services.Palpation, modalityTimeout, zapLogger)

	// 初始化调度器
	dispatcher := dispatch.NewDispatcher(
		classifier,
		[]dispatch.Invoker{
			dispatch.NewInquiryInvoker(inquiryClient, store, zapLogger),
			dispatch.NewLookInvoker(lookClient, zapLogger),
			dispatch.NewListenInvoker(listenClient, zapLogger),
			dispatch.NewPalpationInvoker(palpationClient, zapLogger),
		},
		store,
		cfg.Dispatch.RequestTimeout(),
		zapLogger,
	)

	// 初始化连接注册中心与处理器
	connRegistry := service.NewConnRegistry(zapLogger)
	chatHandler := handler.NewChatHandler(dispatcher, connRegistry, cfg.Server.Name, zapLogger)
	wsHandler := handler.NewWebSocketHandler(connRegistry, dispatcher, zapLogger)

	// 初始化路由
	r := gin.Default()
	r.Use(middleware.CORS())

	r.POST("/api/chat/message", chatHandler.ProcessMessage)
	r.GET("/api/sessions/:uid", chatHandler.ActiveSessions)
	r.DELETE("/api/sessions/:uid", chatHandler.ClearSessions)
	r.GET("/api/health", chatHandler.Health)
	r.GET("/ws", wsHandler.HandleWebSocket)

	// 启动服务
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	zapLogger.Info("diagnosis-dispatcher 服务启动成功",
		zap.Int("port", cfg.Server.Port),
		zap.String("sessionStore", cfg.Dispatch.SessionStore))

	if err := r.Run(addr); err != nil {
		zapLogger.Fatal("服务启动失败", zap.Error(err))
	}
}
