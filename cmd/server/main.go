package main

import (
	"log"

	"sales-inbox/internal/api"
	"sales-inbox/internal/config"
	"sales-inbox/internal/crm"
	"sales-inbox/internal/database"
	"sales-inbox/internal/logger"
	"sales-inbox/internal/messaging"
	"sales-inbox/internal/middleware"
	"sales-inbox/internal/webhook"
	"sales-inbox/internal/whatsapp"
	"sales-inbox/internal/ws"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()

	lg, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}

	database.Init(cfg)

	if cfg.Env != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.CorrelationID())

	hub := ws.NewHub(*lg)
	go hub.Run()

	whatsappClient := whatsapp.NewClient(cfg, *lg)
	crmClient := crm.NewClient(cfg.HubSpotBaseURL, cfg.HubSpotToken, *lg)
	evaluator := messaging.NewEvaluator()

	webhookHandler := webhook.NewHandler(cfg, hub, *lg)
	conversationHandler := api.NewConversationHandler(evaluator, hub, *lg)
	messageHandler := api.NewMessageHandler(whatsappClient, evaluator, hub, *lg)
	templateHandler := api.NewTemplateHandler(whatsappClient, messageHandler, *lg)
	crmHandler := api.NewCRMHandler(crmClient, *lg)
	insightHandler := api.NewInsightHandler(*lg)
	userHandler := api.NewUserHandler(cfg.JWTSecret, *lg)

	// Webhook Routes
	r.GET("/webhook", webhookHandler.Verify)
	r.POST("/webhook", webhookHandler.Receive)

	r.POST("/api/login", userHandler.Login)
	r.GET("/ws", func(c *gin.Context) {
		hub.ServeWs(c.Writer, c.Request)
	})

	// Dashboard API Routes
	apiGroup := r.Group("/api")
	apiGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
	{
		// Inbox Routes
		apiGroup.GET("/conversations", conversationHandler.List)
		apiGroup.GET("/conversations/:waId", conversationHandler.Get)
		apiGroup.PUT("/conversations/:waId/agent", conversationHandler.ToggleAgent)
		apiGroup.POST("/messages", messageHandler.SendFreeform)
		apiGroup.GET("/media/:id", messageHandler.MediaProxy)

		// Template Routes
		apiGroup.GET("/templates", templateHandler.List)
		apiGroup.POST("/templates/sync", templateHandler.Sync)
		apiGroup.POST("/templates", templateHandler.Create)
		apiGroup.DELETE("/templates", templateHandler.Delete)
		apiGroup.POST("/templates/:name/preview", templateHandler.Preview)
		apiGroup.POST("/templates/:name/send", templateHandler.Send)

		// CRM Routes
		apiGroup.GET("/crm/:phone/contact", crmHandler.GetContact)
		apiGroup.GET("/crm/:phone/deals", crmHandler.GetDeals)
		apiGroup.GET("/crm/:phone/tasks", crmHandler.GetTasks)
		apiGroup.POST("/crm/:phone/tasks", crmHandler.CreateTask)
		apiGroup.GET("/crm/:phone/activity", crmHandler.GetActivity)

		// Insight Routes
		apiGroup.GET("/insights/:waId", insightHandler.List)
		apiGroup.PUT("/insights/:waId", insightHandler.Upsert)

		// User Routes (admin only except listing)
		apiGroup.GET("/users", userHandler.List)
		adminGroup := apiGroup.Group("/")
		adminGroup.Use(middleware.AdminOnly())
		{
			adminGroup.POST("/users", userHandler.Create)
			adminGroup.DELETE("/users/:id", userHandler.Delete)
		}
	}

	lg.Info().Str("port", cfg.Port).Msg("server starting")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
