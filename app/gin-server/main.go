package main

import (
	"context"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/jaydeesquared/FlagIt/config"
	"github.com/jaydeesquared/FlagIt/internal/api/handlers"
	"github.com/jaydeesquared/FlagIt/internal/api/middleware"
	"github.com/jaydeesquared/FlagIt/internal/api/routes"
	"github.com/jaydeesquared/FlagIt/internal/audio"
	"github.com/jaydeesquared/FlagIt/internal/blobstore"
	"github.com/jaydeesquared/FlagIt/internal/cache"
	"github.com/jaydeesquared/FlagIt/internal/export"
	"github.com/jaydeesquared/FlagIt/internal/logger"
	"github.com/jaydeesquared/FlagIt/internal/models"
	"github.com/jaydeesquared/FlagIt/internal/providers/stt"
	"github.com/jaydeesquared/FlagIt/internal/repositories/file"
	mongorepo "github.com/jaydeesquared/FlagIt/internal/repositories/mongo"
	pg "github.com/jaydeesquared/FlagIt/internal/repositories/postgres"
	"github.com/jaydeesquared/FlagIt/internal/services"
	"github.com/jaydeesquared/FlagIt/internal/snippet"
	"github.com/jaydeesquared/FlagIt/internal/store"
	"github.com/jaydeesquared/FlagIt/internal/transcode"
	"github.com/jaydeesquared/FlagIt/internal/workers"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()
	ctx := context.Background()

	if err := config.InitRedis(); err != nil {
		log.WithError(err).Fatal("Redis init error")
	}
	log.Info("Redis connected")

	if err := config.InitMongo(); err != nil {
		log.WithError(err).Fatal("MongoDB init error")
	}
	log.Info("MongoDB connected")
	if err := config.EnsureMongoIndexes(); err != nil {
		log.WithError(err).Warn("failed to ensure mongo indexes")
	}

	// Metadata storage backend
	var stores store.Stores
	switch os.Getenv("STORAGE_BACKEND") {
	case "file":
		path := os.Getenv("DATA_FILE")
		if path == "" {
			path = "flagit.json"
		}
		fs, err := file.Open(path)
		if err != nil {
			log.WithError(err).Fatal("file store init error")
		}
		stores = fs.Stores()
		log.WithField("path", path).Info("file store opened")
	default:
		if err := config.InitPostgres(); err != nil {
			log.WithError(err).Fatal("PostgreSQL init error")
		}
		log.Info("PostgreSQL connected")
		if err := config.PostgresDB.AutoMigrate(&models.Recording{}, &models.Flag{}, &models.Category{}); err != nil {
			log.WithError(err).Fatal("migration error")
		}
		stores = store.Stores{
			Recordings: pg.NewRecordingRepo(config.PostgresDB),
			Flags:      pg.NewFlagRepo(config.PostgresDB),
			Categories: pg.NewCategoryRepo(config.PostgresDB),
		}
	}

	// Audio blob backend
	var blobs blobstore.Store
	switch os.Getenv("BLOB_BACKEND") {
	case "gcs":
		bucket := os.Getenv("GCS_BUCKET")
		gcs, err := blobstore.NewGCSStore(ctx, bucket)
		if err != nil {
			log.WithError(err).Fatal("GCS init error")
		}
		blobs = gcs
	default:
		dir := os.Getenv("BLOB_DIR")
		if dir == "" {
			dir = "blobs"
		}
		fsb, err := blobstore.NewFSStore(dir)
		if err != nil {
			log.WithError(err).Fatal("blob store init error")
		}
		blobs = fsb
	}

	decoder := audio.NewDecoderMux()
	transcoder := transcode.New(decoder, transcode.NewLameEncoder, log)
	exporter := export.New(blobs, transcoder, log)
	extractor := snippet.NewExtractor(decoder, log)

	recordingSvc := services.NewRecordingService(stores, blobs, cache.NewRedisCache(config.RedisClient), log)
	flagSvc := services.NewFlagService(stores)
	categorySvc := services.NewCategoryService(stores)
	snippetSvc := services.NewSnippetService(recordingSvc, stores.Categories, extractor, blobs, log)

	mongoDBName := os.Getenv("MONGO_DB")
	if mongoDBName == "" {
		mongoDBName = "flagit"
	}
	journalRepo := mongorepo.NewJournalRepo(config.MongoClient.Database(mongoDBName))
	journalSvc := services.NewJournalService(journalRepo, 0)

	// Voice trigger recognition is best effort: without STT credentials the
	// server still records, it just never fires voice markers.
	if os.Getenv("DISABLE_RECOGNITION") != "true" {
		provider, err := stt.NewGoogleSpeech(ctx)
		if err != nil {
			log.WithError(err).Warn("speech recognition unavailable")
		} else {
			pool := &workers.RecognitionWorkerPool{
				Redis:   config.RedisClient,
				Journal: journalSvc,
				STT:     provider,
				Logger:  log,
			}
			if err := pool.Start(ctx); err != nil {
				log.WithError(err).Warn("recognition workers failed to start")
			}
		}
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{
		Recording: handlers.NewRecordingHandler(recordingSvc, transcoder),
		Flag:      handlers.NewFlagHandler(flagSvc),
		Category:  handlers.NewCategoryHandler(categorySvc),
		Snippet:   handlers.NewSnippetHandler(snippetSvc),
		Export:    handlers.NewExportHandler(recordingSvc, exporter),
		Capture:   handlers.NewCaptureWSHandler(journalSvc, recordingSvc, flagSvc, config.RedisClient, log),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}
