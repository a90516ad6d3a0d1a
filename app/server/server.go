package server

import (
	"context"
	"fmt"
	"kling-studio/app/config"
	"kling-studio/app/handler"
	"kling-studio/app/kling"
	"kling-studio/app/logger"
	"kling-studio/app/middleware"
	"kling-studio/app/service"
	"kling-studio/app/web"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Server 表示 HTTP 服务器
type Server struct {
	Config         *config.Config
	Logger         *logger.Logger
	gin            *gin.Engine
	http           *http.Server
	db             *gorm.DB
	client         *kling.Client
	generation     *service.GenerationService
	cleanupService *service.HistoryCleanupService
}

// New 创建一个新的 Server 实例
func New(cfg *config.Config, log *logger.Logger, db *gorm.DB) (*Server, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("解析页面模板失败: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog(log))
	router.SetHTMLTemplate(tmpl)

	client := kling.New(kling.Options{
		APIKey:  cfg.Kling.APIKey,
		BaseURL: cfg.Kling.BaseURL,
		Timeout: cfg.Kling.RequestTimeout,
	})
	if !client.HasCredential() {
		log.Warn("未设置 KLING_API_KEY，生成请求将返回认证错误")
	}

	historyDB := db
	if !cfg.History.Enabled {
		historyDB = nil
	}

	s := &Server{
		gin: router,
		http: &http.Server{
			Addr:    ":" + cfg.Server.Port,
			Handler: router,
		},
		Config:     cfg,
		Logger:     log,
		db:         db,
		client:     client,
		generation: service.NewGenerationService(client, historyDB, cfg, log),
	}
	if historyDB != nil {
		s.cleanupService = service.NewHistoryCleanupService(historyDB, log, cfg.History.CleanupSpec, cfg.History.RetentionDays)
	}

	// 设置路由
	s.setupRoutes()

	return s, nil
}

// Handler 返回路由，便于测试
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Start 启动服务器
func (s *Server) Start() error {
	if s.cleanupService != nil {
		if err := s.cleanupService.Start(); err != nil {
			return err
		}
	}

	s.Logger.Infof("在端口 %s 启动服务器", s.http.Addr)
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.cleanupService != nil {
		s.cleanupService.Stop()
	}

	// 等待进行中的生成请求结束，超时后强制关闭
	err := s.http.Shutdown(ctx)

	if closeErr := s.client.Close(); closeErr != nil {
		s.Logger.Errorf("关闭 API 客户端失败: %v", closeErr)
	}
	if s.db != nil {
		if sqlDB, dbErr := s.db.DB(); dbErr == nil {
			if closeErr := sqlDB.Close(); closeErr != nil {
				s.Logger.Errorf("关闭数据库连接失败: %v", closeErr)
			}
		}
	}
	return err
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	authHandler := handler.NewAuthHandler(s.Config, s.db)
	videoHandler := handler.NewVideoHandler(s.generation, s.Logger, s.client.HasCredential())

	s.gin.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 登录页面（不需要JWT验证）
	s.gin.GET("/login", authHandler.LoginPage)
	s.gin.POST("/login", authHandler.Login)
	s.gin.POST("/logout", authHandler.Logout)

	// 需要登录的页面
	pages := s.gin.Group("/")
	pages.Use(middleware.PageAuth(s.Config))
	{
		pages.GET("/", videoHandler.Index)
		pages.POST("/generate", videoHandler.GeneratePage)
	}

	// API路由组
	api := s.gin.Group("/api")
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.RefreshToken)

	protected := api.Group("/")
	protected.Use(middleware.JWTAuth(s.Config))
	{
		protected.GET("/me", authHandler.Me)

		videos := protected.Group("/videos")
		{
			videos.POST("", videoHandler.CreateVideo)
			videos.GET("/:task_id", videoHandler.GetVideo)
		}

		protected.GET("/history", videoHandler.History)
	}
}
