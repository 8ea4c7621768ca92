package main

import (
	"context"
	"flag"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emandor/kyc_service/internal/cache"
	"github.com/emandor/kyc_service/internal/config"
	"github.com/emandor/kyc_service/internal/db"
	"github.com/emandor/kyc_service/internal/face"
	"github.com/emandor/kyc_service/internal/inference"
	"github.com/emandor/kyc_service/internal/kyc"
	"github.com/emandor/kyc_service/internal/metrics"
	"github.com/emandor/kyc_service/internal/middleware"
	"github.com/emandor/kyc_service/internal/ocr"
	"github.com/emandor/kyc_service/internal/ocr/tesseract"
	"github.com/emandor/kyc_service/internal/region"
	"github.com/emandor/kyc_service/internal/risk"
	"github.com/emandor/kyc_service/internal/telemetry"
	"github.com/emandor/kyc_service/internal/ws"
)

func main() {
	doMigrate := flag.Bool("migrate", false, "run migrations and exit")
	flag.Parse()

	cfg := config.Load()
	tlog := telemetry.Init(telemetry.FromEnv(config.GetEnv))
	tlog.Info().Str("port", cfg.AppPort).Str("env", cfg.AppEnv).Msg("booting kyc_service")

	sqlxDB := db.MustConnect(cfg.DBDSN)
	if *doMigrate {
		db.MustMigrate(sqlxDB)
		tlog.Info().Msg("migrations done")
		return
	}
	rdb := cache.MustConnect(cfg.RedisAddr, cfg.RedisDB)

	m := metrics.New()
	pool := inference.NewPool(cfg.InferenceWorkers, m)
	tlog.Info().Int("workers", pool.Size()).Msg("inference_pool_ready")

	// models load once; the service cannot run without them
	model := face.NewRemoteModel(cfg.FaceModelURL, cfg.FaceModelTimeout)
	hctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := model.HealthCheck(hctx); err != nil {
		tlog.Fatal().Err(err).Str("url", cfg.FaceModelURL).Msg("face_model_unavailable")
	}
	cancel()
	matcher := face.NewMatcher(model, model, face.MatcherConfig{
		InputSize:      cfg.FaceInputSize,
		MinProbability: cfg.FaceMinProbability,
		Pool:           pool,
		Metrics:        m,
	})

	reader := buildReader(cfg, pool)
	text := cache.NewLineCache(reader, cache.NewRedisKV(rdb), cfg.OCRCacheTTL)

	resolver := region.NewResolver(region.NewSQLTable(sqlxDB), cfg.RegionHighRiskThreshold, m)
	scorer := risk.NewScorer(cfg.RiskHighThreshold, cfg.RiskMediumThreshold)
	pipeline := kyc.NewPipeline(matcher, text, resolver, scorer, m)
	kh := kyc.NewHandler(cfg, pipeline, kyc.NewRecordStore(sqlxDB))

	app := fiber.New(fiber.Config{BodyLimit: (3*cfg.AllowedMaxFileSize + 1) * 1024 * 1024})

	app.Use(middleware.RequestID())
	app.Use(middleware.Recover())
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecureHeaders())
	app.Use(middleware.RequestLog())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api/v1/kyc")
	api.Post("/verify",
		middleware.RateLimiter(cfg.VerifyRateMax, cfg.VerifyRateWindow),
		middleware.ImageUpload(cfg, kyc.FieldFront, kyc.FieldSelfie),
		kh.Verify,
	)
	api.Get("/history", kh.History)
	api.Get("/stats", kh.Stats)

	app.Get("/ws", middleware.WSUpgrade(), websocket.New(ws.HandleWS))

	tlog.Fatal().Err(app.Listen(":" + cfg.AppPort)).Msg("server_stopped")
}

func buildReader(cfg *config.Config, pool *inference.Pool) ocr.Reader {
	prep := ocr.Prep{MaxW: cfg.OCRImgMaxW, Quality: cfg.OCRImgQuality, Grayscale: cfg.OCRImgGrayscale}
	log := telemetry.Module("ocr")

	switch cfg.OCREngine {
	case "openai":
		if cfg.OCROpenAIKey == "" {
			log.Fatal().Msg("OCR_OPENAI_KEY required for OCR_ENGINE=openai")
		}
		log.Info().Str("model", cfg.OCROpenAIModel).Msg("ocr_engine_openai")
		return ocr.NewOpenAIVision(cfg.OCROpenAIKey, cfg.OCROpenAIModel,
			cfg.OpenAIRPS, cfg.OpenAIBurst, cfg.ProviderMaxRetries, prep)
	default:
		engine, err := tesseract.New(cfg.OCRLang, prep, pool)
		if err != nil {
			log.Fatal().Err(err).Msg("tesseract_init_failed")
		}
		return engine
	}
}
