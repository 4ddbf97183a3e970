package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
)

// ServerConfig 构造 HTTP 应用所需的参数
type ServerConfig struct {
	AppName     string
	Version     string
	FrontendURL string
	// AccessLog 为 false 时不挂载访问日志中间件，测试里用
	AccessLog bool
}

// NewApp 组装 fiber 应用: 全局中间件 + /api 路由
func NewApp(cfg ServerConfig, service AnalysisService) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: cfg.AppName,
		// 分析一次要等 GitHub 和模型，写超时留足余量
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	if cfg.AccessLog {
		app.Use(fiberlogger.New())
	}

	origins := []string{"*"}
	if cfg.FrontendURL != "" {
		origins = []string{cfg.FrontendURL}
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	api := app.Group("/api")
	NewHealthHandler(cfg.AppName, cfg.Version).Register(api)
	NewAnalyzeHandler(service).Register(api)

	return app
}
