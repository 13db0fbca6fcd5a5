package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yedam-go/internal/config"
	"yedam-go/internal/handler"
	"yedam-go/internal/middleware"
	"yedam-go/internal/model"
	"yedam-go/internal/pipeline"
	"yedam-go/internal/repository"
	"yedam-go/internal/service"
	"yedam-go/pkg/database"
	"yedam-go/pkg/es"
	"yedam-go/pkg/kafka"
	"yedam-go/pkg/llm"
	"yedam-go/pkg/log"
	"yedam-go/pkg/storage"
	"yedam-go/pkg/token"

	"github.com/gin-gonic/gin"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	// 1. 初始化配置与日志
	config.Init(*configPath)
	log.Init(config.Conf.Log.Level, config.Conf.Log.Format, config.Conf.Log.OutputPath)
	defer log.Sync()

	// 2. 初始化基础设施
	database.InitMySQL(config.Conf.Database.MySQL.DSN)
	database.InitRedis(
		config.Conf.Database.Redis.Addr,
		config.Conf.Database.Redis.Password,
		config.Conf.Database.Redis.DB,
	)
	if err := es.Init(); err != nil {
		log.Fatalf("init elasticsearch failed: %v", err)
	}

	store, err := storage.NewClient()
	if err != nil {
		log.Fatalf("init minio failed: %v", err)
	}

	producer := kafka.NewProducer()
	defer producer.Close()

	if err := database.DB.AutoMigrate(&model.User{}, &model.Memory{}, &model.MemoryImage{}); err != nil {
		log.Fatalf("auto migrate failed: %v", err)
	}

	// 3. 组装 LLM 客户端，重试策略由配置显式给定
	var llmClient llm.Client = llm.NewClient(config.Conf.LLM)
	if config.Conf.LLM.Retry.MaxAttempts > 1 {
		llmClient = llm.NewRetryClient(
			llmClient,
			config.Conf.LLM.Retry.MaxAttempts,
			time.Duration(config.Conf.LLM.Retry.BackoffMillis)*time.Millisecond,
		)
	}

	// 4. 依赖注入：repository -> service -> handler
	userRepo := repository.NewUserRepository(database.DB)
	memoryRepo := repository.NewMemoryRepository(database.DB)
	sessionRepo := repository.NewSessionRepository(
		database.RDB,
		time.Duration(config.Conf.Interview.SessionTTLHours)*time.Hour,
	)

	jwtManager := token.NewJWTManager(
		config.Conf.JWT.Secret,
		config.Conf.JWT.AccessTokenExpireHours,
		config.Conf.JWT.RefreshTokenExpireDays,
	)

	analyzerService := service.NewAnalyzerService(llmClient)
	interviewService := service.NewInterviewService(llmClient, analyzerService, sessionRepo)
	memoryService := service.NewMemoryService(memoryRepo, analyzerService, store, producer)
	searchService := service.NewSearchService()
	userService := service.NewUserService(userRepo, jwtManager)

	aiHandler := handler.NewAIHandler(interviewService, analyzerService)
	memoryHandler := handler.NewMemoryHandler(memoryService, searchService)
	userHandler := handler.NewUserHandler(userService)
	chatHandler := handler.NewChatHandler(interviewService)

	// 5. 启动后台索引管道
	pipelineCtx, stopPipeline := context.WithCancel(context.Background())
	indexer := pipeline.NewIndexer(kafka.NewReader("memory-indexer"), memoryRepo, database.RDB)
	go indexer.Run(pipelineCtx)

	// 周期性输出生产者统计，便于观察索引任务堆积
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-pipelineCtx.Done():
				return
			case <-ticker.C:
				producer.LogStats()
			}
		}
	}()

	// 6. 注册路由
	gin.SetMode(config.Conf.Server.Mode)
	router := gin.New()
	router.Use(middleware.RequestLogger(), middleware.Recovery())

	api := router.Group("/api")
	{
		users := api.Group("/users")
		{
			users.POST("/register", userHandler.Register)
			users.POST("/login", userHandler.Login)
			users.POST("/refresh", userHandler.Refresh)
			users.GET("/profile", middleware.JWTAuth(jwtManager), userHandler.Profile)
		}

		authed := api.Group("", middleware.JWTAuth(jwtManager))
		{
			ai := authed.Group("/ai")
			{
				ai.POST("/analyze", aiHandler.AnalyzeContent)
				ai.POST("/interview/start", aiHandler.StartInterview)
				ai.GET("/interview/:sessionId", aiHandler.GetInterview)
				ai.POST("/interview/:sessionId/chat", aiHandler.Chat)
				ai.POST("/interview/:sessionId/finish", aiHandler.FinishInterview)
				ai.POST("/interview/:sessionId/reopen", aiHandler.ReopenInterview)
				ai.DELETE("/interview/:sessionId", aiHandler.ResetInterview)
				ai.GET("/interview/:sessionId/ws", chatHandler.Serve)
			}

			memories := authed.Group("/memories")
			{
				memories.POST("", memoryHandler.Create)
				memories.GET("", memoryHandler.List)
				memories.GET("/search", memoryHandler.Search)
				memories.GET("/:id", memoryHandler.Get)
				memories.DELETE("/:id", memoryHandler.Delete)
			}
		}
	}

	// 7. 启动服务并等待退出信号
	srv := &http.Server{
		Addr:    ":" + config.Conf.Server.Port,
		Handler: router,
	}

	go func() {
		log.Infof("server listening on :%s", config.Conf.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	stopPipeline()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("server shutdown failed: %v", err)
	}
	log.Info("server exited")
}
