package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sojrpg/server/account"
	apirest "github.com/sojrpg/server/api/rest"
	"github.com/sojrpg/server/api/sse"
	"github.com/sojrpg/server/audit"
	"github.com/sojrpg/server/cache"
	"github.com/sojrpg/server/config"
	dbadapter "github.com/sojrpg/server/db"
	"github.com/sojrpg/server/game/character"
	"github.com/sojrpg/server/game/message"
	"github.com/sojrpg/server/game/notification"
	"github.com/sojrpg/server/game/quest"
	"github.com/sojrpg/server/game/world"
	mw "github.com/sojrpg/server/middleware"
	"github.com/sojrpg/server/model"
	"github.com/sojrpg/server/scheduler"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	if cfg.Security.JWTSecret == "" {
		log.Fatal("security.jwt_secret must be set")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	if cfg.Game.SeedWorld {
		if err := world.Seed(context.Background(), db); err != nil {
			log.Fatalf("world seed: %v", err)
		}
	}

	// ---- Audit ----
	auditSvc := audit.New(db, logger)
	defer auditSvc.Stop(context.Background())

	// ---- Cache / PubSub ----
	c, err := cache.NewCache(cfg.Cache)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cfg.Cache)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Scheduler ----
	sched := scheduler.New(logger)
	defer sched.Stop()

	// ---- Services ----
	accountSvc := account.NewService(db, c, cfg.Security, cfg.Game, logger)
	worldSvc := world.NewService(db)
	characterSvc := character.NewService(db, logger)
	questSvc := quest.NewService(db, logger)
	notificationSvc := notification.NewService(db, c, pubsub, cfg.Game.UnseenCountTTL, logger)
	messageSvc := message.NewService(db, notificationSvc, logger)

	// ---- Periodic Scheduler Tasks ----
	sched.AddTicker("notification_prune", cfg.Game.NotificationPruneTick, func() {
		n, err := notificationSvc.Prune(context.Background(), cfg.Game.NotificationRetention)
		if err != nil {
			logger.Warn("notification prune failed", zap.Error(err))
			return
		}
		if n > 0 {
			logger.Info("pruned seen notifications", zap.Int64("count", n))
		}
	})

	// ---- Gin HTTP Server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(mw.TraceID(), mw.Logger(logger), mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	// Health check
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(200, gin.H{"status": "ok"})
	})

	// ---- REST API routes ----
	authH := apirest.NewAuthHandler(accountSvc)
	worldH := apirest.NewWorldHandler(worldSvc, questSvc)
	charH := apirest.NewCharacterHandler(characterSvc)
	questH := apirest.NewQuestHandler(questSvc, characterSvc, worldSvc, auditSvc)
	messageH := apirest.NewMessageHandler(messageSvc)
	notificationH := apirest.NewNotificationHandler(notificationSvc, logger)

	auth := mw.Auth(cfg.Security, c)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/register", authH.Register)
		authG.POST("/activate", authH.Activate)
		authG.POST("/login", authH.Login)
		authG.POST("/logout", auth, authH.Logout)
		authG.POST("/refresh", auth, authH.Refresh)

		worldG := api.Group("/world")
		worldG.GET("/continents", worldH.Continents)
		worldG.GET("/continents/:slug/locations", worldH.ContinentLocations)
		worldG.GET("/locations/:slug", worldH.Location)
		worldG.GET("/races", worldH.Races)

		charsG := api.Group("/characters")
		charsG.Use(auth)
		charsG.GET("", charH.List)
		charsG.GET("/available", charH.Available)
		charsG.POST("", charH.Create)
		charsG.GET("/:id", charH.Show)

		questsG := api.Group("/quests")
		questsG.Use(auth)
		questsG.POST("", questH.Create)
		questsG.GET("/following", questH.Following)
		questsG.GET("/:slug", questH.Show)
		questsG.GET("/:slug/timeline", questH.Timeline)
		questsG.POST("/:slug/move", questH.Move)
		questsG.POST("/:slug/characters", questH.AddCharacter)
		questsG.DELETE("/:slug/characters/:id", questH.RemoveCharacter)
		questsG.GET("/:slug/posts", questH.ListPosts)
		questsG.POST("/:slug/posts", questH.CreatePost)
		questsG.POST("/:slug/follow", questH.Follow)
		questsG.DELETE("/:slug/follow", questH.Unfollow)

		messagesG := api.Group("/messages")
		messagesG.Use(auth)
		messagesG.POST("", messageH.Send)
		messagesG.GET("/threads", messageH.Threads)
		messagesG.GET("/threads/:id", messageH.ThreadMessages)
		messagesG.GET("/received", messageH.Received)
		messagesG.GET("/sent", messageH.Sent)

		notificationsG := api.Group("/notifications")
		notificationsG.Use(auth)
		notificationsG.GET("", notificationH.Unseen)
		notificationsG.GET("/count", notificationH.UnseenCount)
		notificationsG.POST("/:id/seen", notificationH.MarkSeen)
	}

	// ---- SSE ----
	sseH := sse.NewHandler(pubsub, c, notificationSvc, cfg.Security, logger)
	r.GET("/sse", sseH.ServeSSE)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("Server listening", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
