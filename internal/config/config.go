package config

import (
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv, AppPort string
	DBDSN           string
	RedisAddr       string
	RedisDB         int
	CORSOrigins     []string

	FaceModelURL       string
	FaceModelTimeout   time.Duration
	FaceInputSize      int
	FaceMinProbability float64
	InferenceWorkers   int

	OCREngine       string
	OCRLang         string
	OCROpenAIModel  string
	OCROpenAIKey    string
	OCRImgMaxW      int
	OCRImgQuality   int
	OCRImgGrayscale bool
	OCRCacheTTL     time.Duration

	OpenAIRPS          int
	OpenAIBurst        int
	ProviderMaxRetries int

	RiskHighThreshold       float64
	RiskMediumThreshold     float64
	RegionHighRiskThreshold int
	HistoryLimit            int

	AllowedMaxFileSize int
	AllowedFileExt     []string

	VerifyRateMax    int
	VerifyRateWindow time.Duration
}

// LoadDotEnv merges ./.env into the process environment without overriding
// variables that are already set.
func LoadDotEnv() {
	_ = godotenv.Load()
}

func Load() *Config {
	LoadDotEnv()

	c := &Config{
		AppEnv:                  get("APP_ENV", "dev"),
		AppPort:                 get("APP_PORT", "8080"),
		DBDSN:                   must("DB_DSN"),
		RedisAddr:               get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisDB:                 atoi(get("REDIS_DB", "0")),
		CORSOrigins:             split(get("CORS_ORIGINS", "http://localhost:5173")),
		FaceModelURL:            must("FACE_MODEL_URL"),
		FaceModelTimeout:        mustDuration(get("FACE_MODEL_TIMEOUT", "30s")),
		FaceInputSize:           GetEnvInt("FACE_INPUT_SIZE", 160),
		FaceMinProbability:      parseFloat(get("FACE_MIN_PROBABILITY", "0.7")),
		InferenceWorkers:        GetEnvInt("INFERENCE_WORKERS", runtime.NumCPU()),
		OCREngine:               get("OCR_ENGINE", "tesseract"),
		OCRLang:                 get("OCR_LANG", "eng"),
		OCROpenAIModel:          get("OCR_OPENAI_MODEL", "gpt-4o-mini"),
		OCROpenAIKey:            get("OCR_OPENAI_KEY", ""),
		OCRImgMaxW:              atoi(get("OCR_IMG_MAX_W", "1600")),
		OCRImgQuality:           atoi(get("OCR_IMG_QUALITY", "85")),
		OCRImgGrayscale:         parseBool(get("OCR_IMG_GRAYSCALE", "true")),
		OCRCacheTTL:             mustDuration(get("OCR_CACHE_TTL", "168h")),
		OpenAIRPS:               atoi(get("OPENAI_RPS", "2")),
		OpenAIBurst:             atoi(get("OPENAI_BURST", "2")),
		ProviderMaxRetries:      atoi(get("PROVIDER_MAX_RETRIES", "3")),
		RiskHighThreshold:       parseFloat(get("RISK_HIGH_THRESHOLD", "80")),
		RiskMediumThreshold:     parseFloat(get("RISK_MEDIUM_THRESHOLD", "40")),
		RegionHighRiskThreshold: GetEnvInt("REGION_HIGH_RISK_THRESHOLD", 50),
		HistoryLimit:            GetEnvInt("HISTORY_LIMIT", 10),
		AllowedMaxFileSize:      GetEnvInt("ALLOWED_MAX_FILE_SIZE", 5),
		AllowedFileExt:          GetEnvList("ALLOWED_FILE_EXT", []string{".jpg", ".jpeg", ".png"}),
		VerifyRateMax:           GetEnvInt("VERIFY_RATE_MAX", 10),
		VerifyRateWindow:        mustDuration(get("VERIFY_RATE_WINDOW", "1m")),
	}
	return c
}

func GetEnvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return d
}

func GetEnvList(k string, d []string) []string {
	if v := os.Getenv(k); v != "" {
		return strings.Split(v, ",")
	}
	return d
}

func get(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing env %s", k)
	}
	return v
}
func atoi(s string) int                   { i, _ := strconv.Atoi(s); return i }
func parseBool(s string) bool             { b, _ := strconv.ParseBool(s); return b }
func parseFloat(s string) float64         { f, _ := strconv.ParseFloat(s, 64); return f }
func mustDuration(s string) time.Duration { d, _ := time.ParseDuration(s); return d }
func split(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

func GetEnv(k, d string) string {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	return v
}
