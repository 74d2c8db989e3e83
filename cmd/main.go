package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/raflytch/mockprep-server/internal/analytics"
	"github.com/raflytch/mockprep-server/internal/config"
	"github.com/raflytch/mockprep-server/internal/database"
	"github.com/raflytch/mockprep-server/internal/domain"
	"github.com/raflytch/mockprep-server/internal/handler"
	"github.com/raflytch/mockprep-server/internal/logger"
	"github.com/raflytch/mockprep-server/internal/metrics"
	"github.com/raflytch/mockprep-server/internal/middleware"
	"github.com/raflytch/mockprep-server/internal/questionbank"
	"github.com/raflytch/mockprep-server/internal/repository"
	"github.com/raflytch/mockprep-server/internal/routes"
	"github.com/raflytch/mockprep-server/internal/service"
	"github.com/raflytch/mockprep-server/pkg/genai"
	"github.com/raflytch/mockprep-server/pkg/imagekit"
	"github.com/raflytch/mockprep-server/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

func main() {
	envErr := godotenv.Load(".env")

	cfg := config.Load()

	log := logger.Setup(cfg.Log.Level, cfg.Log.Format)
	if envErr != nil {
		log.Info().Msg("no .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	redisClient, err := database.NewRedisConnection(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	bank, err := questionbank.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load bundled question bank")
	}

	aiClient := newAIClient(cfg.GenAI, log)

	var audioStorage domain.AudioStorage
	ikConfig := imagekit.Config{
		PublicKey:   cfg.ImageKit.PublicKey,
		PrivateKey:  cfg.ImageKit.PrivateKey,
		URLEndpoint: cfg.ImageKit.URLEndpoint,
	}
	if ikConfig.Enabled() {
		audioStorage = imagekit.NewClient(ikConfig)
	} else {
		log.Info().Msg("IMAGEKIT_PRIVATE_KEY not set, audio answers are not archived")
	}

	jwtManager := jwt.NewJWTManager(cfg.JWT.Secret, cfg.JWT.ExpiryHours)

	cacheRepo := repository.NewCacheRepository(redisClient)
	questionRepo := repository.NewQuestionSetRepository(cacheRepo, cfg.Session.QuestionSetTTL)
	sessionRepo := repository.NewSessionRepository(redisClient, cfg.Session.TTL)
	resultRepo := repository.NewResultRepository(db)

	analyticsClient := analytics.NewClient(analytics.Config{
		BaseURL: cfg.Analytics.BaseURL,
		Timeout: cfg.Analytics.Timeout,
	}, appMetrics, log)
	dispatcher := analytics.NewDispatcher(analyticsClient, cfg.Analytics.DispatchTimeout)

	quotaService := service.NewQuotaService(cacheRepo, cfg.Quota.GenerationDailyLimit)
	questionService := service.NewQuestionService(
		service.NewQuestionGenerator(aiClient, appMetrics),
		bank,
		questionRepo,
		quotaService,
		log,
	)
	resultService := service.NewResultService(resultRepo)
	sessionService := service.NewSessionService(service.SessionDeps{
		SessionRepo:   sessionRepo,
		QuestionRepo:  questionRepo,
		Bank:          bank,
		Evaluator:     service.NewEvaluationService(aiClient, appMetrics, log),
		Reporter:      dispatcher,
		ResultService: resultService,
		AudioStorage:  audioStorage,
		Metrics:       appMetrics,
	}, service.SessionConfig{
		QuestionsPerTier:  cfg.Session.QuestionsPerTier,
		AutoCompleteDelay: cfg.Session.AutoCompleteDelay,
		AudioFolder:       cfg.ImageKit.AudioFolder,
	}, log)

	authMiddleware := middleware.NewAuthMiddleware(jwtManager)

	app := fiber.New(fiber.Config{
		AppName:      "MockPrep API",
		ErrorHandler: customErrorHandler,
		BodyLimit:    12 * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, PATCH, OPTIONS",
		AllowCredentials: false,
	}))

	routes.Setup(app, routes.Handlers{
		Question: handler.NewQuestionHandler(questionService),
		Session:  handler.NewSessionHandler(sessionService),
		Result:   handler.NewResultHandler(resultService),
	}, routes.Middlewares{
		Auth: authMiddleware,
	}, registry)

	port := cfg.App.Port
	if port == "" {
		port = "3000"
	}

	go func() {
		log.Info().Str("port", port).Str("env", cfg.App.Env).Msg("server starting")
		if err := app.Listen(":" + port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}
	if err := sessionService.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("pending auto completions did not finish")
	}
	if err := dispatcher.Wait(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("pending analytics reports were dropped")
	}

	log.Info().Msg("shutdown complete")
}

// newAIClient returns nil when no API key is configured; services then use
// their fallbacks.
func newAIClient(cfg config.GenAIConfig, log zerolog.Logger) domain.AIClient {
	if cfg.APIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY not set, questions come from the bundled bank and text answers get fallback marks")
		return nil
	}

	client, err := genai.NewClient(genai.Config{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		MediaModel: cfg.MediaModel,
		Timeout:    cfg.Timeout,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize genai client, continuing without it")
		return nil
	}
	return client
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   err.Error(),
	})
}
