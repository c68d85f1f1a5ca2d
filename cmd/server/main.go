package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	goredis "github.com/redis/go-redis/v9"

	"github.com/advisorpages/trainingBuilder-sub002/config"
	"github.com/advisorpages/trainingBuilder-sub002/database"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/ai"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/apierr"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/logger"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/middleware"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/prompt"
	"github.com/advisorpages/trainingBuilder-sub002/pkg/telemetry"
	"github.com/advisorpages/trainingBuilder-sub002/router"

	// Topic
	topicCache "github.com/advisorpages/trainingBuilder-sub002/pkg/topic/cache"
	topicCtrlImp "github.com/advisorpages/trainingBuilder-sub002/pkg/topic/controllerImp"
	topicRepoImp "github.com/advisorpages/trainingBuilder-sub002/pkg/topic/repositoryImp"
	topicSvcImp "github.com/advisorpages/trainingBuilder-sub002/pkg/topic/serviceImp"

	// Generation
	genCtrlImp "github.com/advisorpages/trainingBuilder-sub002/pkg/generation/controllerImp"
	genSvcImp "github.com/advisorpages/trainingBuilder-sub002/pkg/generation/serviceImp"

	// Readiness, drafts, sessions
	draftCtrlImp "github.com/advisorpages/trainingBuilder-sub002/pkg/draft/controllerImp"
	draftRepo "github.com/advisorpages/trainingBuilder-sub002/pkg/draft/repository"
	draftRepoImp "github.com/advisorpages/trainingBuilder-sub002/pkg/draft/repositoryImp"
	draftSvcImp "github.com/advisorpages/trainingBuilder-sub002/pkg/draft/serviceImp"
	readinessCtrlImp "github.com/advisorpages/trainingBuilder-sub002/pkg/readiness/controllerImp"
	sessionCtrlImp "github.com/advisorpages/trainingBuilder-sub002/pkg/session/controllerImp"
	sessionRepoImp "github.com/advisorpages/trainingBuilder-sub002/pkg/session/repositoryImp"
	sessionSvcImp "github.com/advisorpages/trainingBuilder-sub002/pkg/session/serviceImp"

	// KB
	kbCtrlImp "github.com/advisorpages/trainingBuilder-sub002/pkg/kb/controllerImp"
	kbRepoImp "github.com/advisorpages/trainingBuilder-sub002/pkg/kb/repositoryImp"
	kbServiceImp "github.com/advisorpages/trainingBuilder-sub002/pkg/kb/serviceImp"

	// Health
	healthCtrlImp "github.com/advisorpages/trainingBuilder-sub002/pkg/health/controllerImp"
)

func main() {
	// 1) Config + logger
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2) Tracing
	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, lg)
	if err != nil {
		lg.Warn("tracing setup failed, continuing without export", "error", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	// 3) DB + automigrate
	db, err := database.Open(database.Options{Driver: cfg.DBDriver, Path: cfg.DBPath, DSN: cfg.DatabaseURL})
	if err != nil {
		lg.Fatal("database", "error", err)
	}

	// 4) Topics
	tRepo := topicRepoImp.New(db)
	tCache := topicCache.New(tRepo, cfg.TopicCacheTTL)
	tSvc := topicSvcImp.New(tRepo, tCache, lg, topicSvcImp.Options{
		MatchThreshold:  cfg.TopicMatchThreshold,
		DedupeThreshold: cfg.TopicDedupeThreshold,
	})

	// 5) KB
	kbSvc := kbServiceImp.New(kbRepoImp.New(db))

	// 6) Generation backend (nil completer means baseline only)
	var completer ai.Completer
	switch strings.ToLower(cfg.LLMProvider) {
	case "openai":
		completer = ai.NewOpenAI(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel)
	case "mock":
		completer = ai.NewMock()
	default:
		lg.Info("no generation backend configured, outlines use the baseline")
	}
	var retriever ai.Retriever
	switch strings.ToLower(cfg.RAGSource) {
	case "kb":
		retriever = kbSvc
	case "remote":
		retriever = ai.NewRemoteRetriever(cfg.RAGEndpoint, cfg.RAGAPIKey)
	}

	personas, err := prompt.LoadConfig(cfg.PersonaConfig)
	if err != nil {
		lg.Fatal("persona config", "path", cfg.PersonaConfig, "error", err)
	}
	composer := prompt.NewComposer(personas, cfg.DefaultSessionMinutes)
	gSvc := genSvcImp.New(tSvc, composer, completer, retriever, lg, genSvcImp.Options{
		Timeout:    cfg.GenTimeout,
		MaxRetries: cfg.GenMaxRetries,
		Backoff:    cfg.GenRetryBackoff,
		TopK:       cfg.RAGTopK,
	})

	// 7) Sessions + drafts
	sRepo := sessionRepoImp.New(db)
	var dRepo draftRepo.DraftRepository
	var rdb *goredis.Client
	if strings.EqualFold(cfg.DraftStore, "redis") {
		dRepo, rdb, err = draftRepoImp.NewRedis(ctx, cfg.RedisAddr, cfg.DraftTTL)
		if err != nil {
			lg.Fatal("redis draft store", "error", err)
		}
		defer rdb.Close()
	} else {
		dRepo = draftRepoImp.NewGorm(db)
	}
	dSvc := draftSvcImp.New(dRepo, sRepo, cfg.PublishThreshold, lg)
	sSvc := sessionSvcImp.New(sRepo, dSvc, tSvc, cfg.PublishThreshold, lg)

	// 8) Echo
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = apierr.Handler(e)
	e.Use(echoMiddleware.Recover())
	e.Use(middleware.RequestLogger(lg))

	r := router.New(
		e,
		genCtrlImp.New(gSvc),
		topicCtrlImp.New(tSvc),
		readinessCtrlImp.New(cfg.PublishThreshold),
		draftCtrlImp.New(dSvc),
		sessionCtrlImp.New(sSvc),
		kbCtrlImp.New(kbSvc, kbCtrlImp.Options{
			AllowedDomains: cfg.KBAllowedDomains,
			MaxBytes:       cfg.KBMaxBytes,
			TopK:           cfg.RAGTopK,
		}),
		healthCtrlImp.NewHealthCtrl(db, rdb),
	)

	// 9) Start
	go func() {
		lg.Info("listening", "port", cfg.Port, "llm_provider", cfg.LLMProvider, "rag_source", cfg.RAGSource, "draft_store", cfg.DraftStore)
		if err := r.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server", "error", err)
		}
	}()
	<-ctx.Done()

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := r.Shutdown(sctx); err != nil {
		lg.Error("shutdown", "error", err)
	}
}
