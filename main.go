package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gallery-service/internal/config"
	"gallery-service/internal/feed"
	"gallery-service/internal/joblock"
	"gallery-service/internal/middleware"
	"gallery-service/internal/pubsub"
	"gallery-service/internal/service"
	"gallery-service/internal/store"
	"gallery-service/internal/syncer"
	"gallery-service/internal/transport/http"
	"gallery-service/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

var startTime time.Time

func main() {
	startTime = time.Now()
	cfg := config.Load()
	store.InitDB(cfg)

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("❌ [REDIS] Failed to connect: %v", err)
	}
	log.Printf("✅ [REDIS] Connected to %s", cfg.RedisAddr)

	var r2Client *utils.GalleryR2Client
	if cfg.R2AccountID != "" {
		client, err := utils.NewGalleryR2Client(utils.GalleryR2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			BucketName:      cfg.R2BucketName,
			PublicURL:       cfg.R2PublicURL,
		})
		if err != nil {
			log.Fatalf("❌ [R2] Failed to initialize client: %v", err)
		}
		r2Client = client
		log.Println("✅ [R2] Gallery R2 client initialized")
	} else {
		log.Println("⚠️ [R2] Asset storage disabled (no R2_ACCOUNT_ID)")
	}

	lock := joblock.New(rdb, cfg.SyncLockTTL)
	feedClient := feed.NewClient(cfg.PatreonAccessToken, cfg.SyncFetchTimeout)
	syncService := syncer.New(store.GetDB(), lock, feedClient, cfg.SyncFeedURL)
	publisher := pubsub.NewPublisher(rdb)
	log.Printf("🔄 [SYNC] Sync engine initialized (feed: %s, lock ttl: %s)", cfg.SyncFeedURL, cfg.SyncLockTTL)

	subscriber := pubsub.NewSubscriber(rdb, syncService.Run)
	if err := subscriber.Start(context.Background()); err != nil {
		log.Fatalf("❌ [PUBSUB] Failed to start subscriber: %v", err)
	}

	postService := service.NewPostService(store.GetDB())
	postHandler := http.NewPostHandler(postService, lock, publisher, syncService, r2Client)
	log.Println("✅ [SERVICE] PostService & Handler initialized")

	app := fiber.New(fiber.Config{
		AppName:      "gallery-service",
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(logger.New(logger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${ua}\n",
	}))

	api := app.Group("/api")
	adminOnly := middleware.JWTAuth(cfg.JWTSecret)

	// 1. Post routes. Fixed paths are registered before the ":id" ones so
	// "create"/"upload"/"sync" are never captured as ids.
	posts := api.Group("/posts")
	posts.Get("/", postHandler.GetAllPosts)
	posts.Get("/sync", postHandler.SyncPosts)
	posts.Get("/sync/results", adminOnly, postHandler.GetSyncResults)
	posts.Post("/create", adminOnly, postHandler.CreatePost)
	posts.Post("/upload", adminOnly, postHandler.UploadPostAssets)
	posts.Post("/:id", postHandler.GetPostByID)
	posts.Put("/:id", adminOnly, postHandler.UpdatePost)
	posts.Delete("/:id", adminOnly, postHandler.DeletePost)
	posts.Delete("/", adminOnly, postHandler.DeleteAllPosts)
	log.Println("✅ [ROUTES] Registered post routes: /api/posts/*")

	// 2. Operational routes
	api.Get("/pubsub_test", postHandler.PubsubTest)
	api.Get("/health_check", func(c *fiber.Ctx) error {
		uptime := time.Since(startTime).Round(time.Second)
		return c.JSON(fiber.Map{
			"status":     "ok",
			"service":    "gallery-service",
			"uptime":     uptime.String(),
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"r2_enabled": r2Client != nil,
		})
	})
	log.Println("✅ [ROUTES] Registered /api/health_check, /api/pubsub_test")

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("🛑 [SHUTDOWN] Graceful shutdown initiated...")
		subscriber.Stop()
		if err := app.Shutdown(); err != nil {
			log.Printf("❌ [SHUTDOWN] Error: %v", err)
		}
	}()

	log.Printf("🚀 gallery-service starting...")
	log.Printf("   🔗 Listening on port: %s", cfg.ServerPort)
	log.Printf("   🌐 CORS allowed origins: %s", cfg.AllowedOrigins)
	log.Printf("   🔄 Sync feed URL: %s", cfg.SyncFeedURL)
	log.Println("✅ Server ready.")

	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.Fatalf("❌ [STARTUP] Server failed to start: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var errMsg string
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		errMsg = e.Message
	} else {
		errMsg = err.Error()
	}
	log.Printf("🔥 [ERROR] [%d] %s %s → %v | IP=%s | UA=%s",
		code,
		c.Method(),
		c.Path(),
		errMsg,
		c.IP(),
		c.Get("User-Agent"),
	)
	return c.Status(code).JSON(fiber.Map{
		"error":      "something went wrong",
		"request_id": c.Get("X-Request-ID"),
	})
}
