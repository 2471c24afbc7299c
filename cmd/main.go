package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ats-pipeline/config"
	"ats-pipeline/infrastructure"
	"ats-pipeline/interfaces"
	"ats-pipeline/usecase"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync()

	// External services
	db := infrastructure.NewMySQLConnection(cfg.MySQLDSN)
	redisClient := infrastructure.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	rmq := infrastructure.NewRabbitMQ(cfg.RabbitURL, cfg.MaxRetries, logger)
	defer rmq.Close()

	ai := infrastructure.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.ChatModel, cfg.EmbeddingModel)
	index := infrastructure.NewVectorIndexClient(cfg.VectorIndexURL, cfg.VectorCollection)

	store, err := infrastructure.NewLocalObjectStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal("failed to init object store", zap.Error(err))
	}

	// Repositories and shared state
	resumeRepo := infrastructure.NewResumeRepo(db)
	candidateRepo := infrastructure.NewCandidateRepo(db)
	jobRepo := infrastructure.NewJobRepo(db)
	appRepo := infrastructure.NewApplicationRepo(db)

	hashCache := infrastructure.NewHashCache(redisClient)
	marker := infrastructure.NewIdempotencyMarker(redisClient)
	taskStatus := infrastructure.NewTaskStatusStore(redisClient, cfg.TaskStatusTTL)

	// Pipeline components
	extraction := usecase.NewExtraction(ai, cfg.MinTextLength, logger)
	extraction.Register("pdf", infrastructure.PDFExtractor{})
	extraction.Register("docx", infrastructure.DocxExtractor{})
	extraction.Register("doc", infrastructure.DocExtractor{})

	candidates := usecase.NewCandidateService(candidateRepo, index, logger)
	vectorizer := usecase.NewVectorizer(candidateRepo, ai, index, cfg.SummaryMaxLen, logger)

	consumer := usecase.NewConsumer(
		resumeRepo, store, extraction, candidates, vectorizer,
		marker, taskStatus, cfg.IdempotencyTTL, logger,
	)

	gate := usecase.NewDedupGate(
		resumeRepo, hashCache, store, rmq, taskStatus,
		cfg.DedupCacheTTL, logger,
	)

	scoringCfg := usecase.DefaultScoringConfig()
	scoringCfg.AbsentBaseline = cfg.SemanticAbsentBaseline
	scoringCfg.ErrorBaseline = cfg.SemanticErrorBaseline
	scoringCfg.TopK = cfg.ScoreTopK
	scorer := usecase.NewScorer(jobRepo, candidateRepo, appRepo, ai, index, scoringCfg, logger)

	search := usecase.NewSearchService(candidateRepo, ai, index, logger)

	dispatcher := usecase.NewDispatcher(2, 64, logger)
	defer dispatcher.Stop()

	// Queue workers
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := rmq.Consume(ctx, cfg.WorkerCount, consumer.Handle); err != nil {
		logger.Fatal("failed to start consumers", zap.Error(err))
	}

	// HTTP API
	router := gin.Default()
	interfaces.NewHTTPHandler(
		router, gate, taskStatus, candidates, vectorizer,
		jobRepo, appRepo, scorer, search, dispatcher, logger,
	)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server running", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}
