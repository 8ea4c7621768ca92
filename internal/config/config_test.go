package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DSN", "kyc:kyc@tcp(127.0.0.1:3306)/kyc?parseTime=true")
	t.Setenv("FACE_MODEL_URL", "http://127.0.0.1:9000")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	c := Load()
	require.NotNil(t, c)

	assert.Equal(t, "8080", c.AppPort)
	assert.Equal(t, "tesseract", c.OCREngine)
	assert.Equal(t, 160, c.FaceInputSize)
	assert.Equal(t, 30*time.Second, c.FaceModelTimeout)
	assert.Equal(t, 168*time.Hour, c.OCRCacheTTL)
	assert.Equal(t, 80.0, c.RiskHighThreshold)
	assert.Equal(t, 40.0, c.RiskMediumThreshold)
	assert.Equal(t, 50, c.RegionHighRiskThreshold)
	assert.Equal(t, 10, c.HistoryLimit)
	assert.Equal(t, 5, c.AllowedMaxFileSize)
	assert.Equal(t, []string{".jpg", ".jpeg", ".png"}, c.AllowedFileExt)
	assert.Positive(t, c.InferenceWorkers)
	assert.Equal(t, 10, c.VerifyRateMax)
	assert.Equal(t, time.Minute, c.VerifyRateWindow)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("RISK_HIGH_THRESHOLD", "75.5")
	t.Setenv("OCR_ENGINE", "openai")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("INFERENCE_WORKERS", "2")

	c := Load()

	assert.Equal(t, 75.5, c.RiskHighThreshold)
	assert.Equal(t, "openai", c.OCREngine)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, c.CORSOrigins)
	assert.Equal(t, 2, c.InferenceWorkers)
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	assert.Equal(t, 7, GetEnvInt("SOME_INT", 7))
}

func TestLoadDotEnvFillsUnsetKeys(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("DB_DSN=kyc:kyc@tcp(db:3306)/kyc?parseTime=true\nLOG_LEVEL=warn\n"), 0o600))
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("DB_DSN", "")
	require.NoError(t, os.Unsetenv("DB_DSN"))
	t.Setenv("LOG_LEVEL", "debug")

	LoadDotEnv()

	assert.Equal(t, "kyc:kyc@tcp(db:3306)/kyc?parseTime=true", GetEnv("DB_DSN", ""))
	assert.Equal(t, "debug", GetEnv("LOG_LEVEL", ""))
}
