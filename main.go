package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"docuchat/internal/ai"
	"docuchat/internal/api"
	"docuchat/internal/auth"
	"docuchat/internal/blobstore"
	"docuchat/internal/config"
	"docuchat/internal/loader"
	"docuchat/internal/queue"
	"docuchat/internal/redis"
	"docuchat/internal/service/chat"
	"docuchat/internal/service/file"
	"docuchat/internal/service/summary"
	"docuchat/internal/storage"
	"docuchat/internal/summarizer"
	"docuchat/internal/vectorindex"
	"docuchat/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("DOCUCHAT_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dbType := os.Getenv("DOCUCHAT_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	log.Printf("dbType: %s\n", dbType)
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := storage.Migrate(db, dbType); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	var rdb *redis.Client
	if cfg.Redis.Host != "" {
		rdb, err = redis.NewClient(cfg)
		if err != nil {
			log.Fatalf("create redis client: %v", err)
		}
		defer rdb.Close()
	}

	ctx := context.Background()
	embed, err := vectorindex.OpenAIEmbedding(ctx, cfg.Embedding)
	if err != nil {
		log.Fatalf("init embedding: %v", err)
	}
	index, err := vectorindex.NewStore(cfg.VectorIndex.Path, embed)
	if err != nil {
		log.Fatalf("open vector index: %v", err)
	}

	fetcher, err := blobstore.New(cfg.BlobStore)
	if err != nil {
		log.Fatalf("init blob store: %v", err)
	}

	aiService, err := ai.NewService(ctx, cfg.AI)
	if err != nil {
		log.Fatalf("init ai service: %v", err)
	}

	// ingestion runs on asynq when redis and workers are configured,
	// inline otherwise
	var ingestQueue file.Enqueuer
	if rdb != nil && cfg.BasicConfig.IngestWorkers > 0 {
		client := asynq.NewClient(rdb.AsynqOpt())
		defer client.Close()
		ingestQueue = queue.NewIngestQueue(client)
	}

	fileService := file.NewService(db, fetcher, loader.New(), index, ingestQueue)
	chatService := chat.NewService(db, index, aiService)

	var resolver summarizer.Resolver
	switch cfg.Summarizer.Mode {
	case "push":
		resolver = summarizer.NewPushClient(
			cfg.Summarizer.WSURL,
			time.Duration(cfg.Summarizer.NoticeDelaySeconds)*time.Second,
			func() { log.Println("summarization is taking longer than usual") },
		)
	default:
		resolver = summarizer.NewPollClient(
			cfg.Summarizer.BaseURL,
			time.Duration(cfg.Summarizer.PollIntervalSeconds)*time.Second,
		)
	}
	resolver = summarizer.WithTimeout(resolver, time.Duration(cfg.Summarizer.TimeoutSeconds)*time.Second)
	summaryService := summary.NewService(db, resolver, cfg.Summarizer.MaxSummaryLength)

	authService := auth.NewService(db, rdb, 24*time.Hour)

	if ingestQueue != nil {
		srv := asynq.NewServer(rdb.AsynqOpt(), asynq.Config{
			Concurrency: cfg.BasicConfig.IngestWorkers,
		})
		processor := worker.NewProcessor(fileService)
		go func() {
			if err := srv.Run(processor.Handler()); err != nil {
				log.Fatalf("run worker: %v", err)
			}
		}()
		defer srv.Shutdown()
	}

	handlers := api.NewHandler(fileService, chatService, summaryService, authService, cfg.BasicConfig.UploadSecret)

	router := gin.Default()
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	log.Printf("listening on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("run server: %v", err)
	}
}
