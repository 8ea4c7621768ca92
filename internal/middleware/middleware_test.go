package middleware

import (
	"bytes"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emandor/kyc_service/internal/config"
)

func TestRequestIDPropagates(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(RequestIDFrom(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "abc", string(body))
	assert.Equal(t, "abc", resp.Header.Get("X-Request-ID"))
}

func TestRequestIDReplacesOversized(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(RequestIDFrom(c)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 100))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get("X-Request-ID"), 36)
}

func TestRecoverReturnsJSON(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID(), Recover())
	app.Get("/", func(c *fiber.Ctx) error { panic("boom") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "internal error")
}

func TestRateLimiter(t *testing.T) {
	app := fiber.New()
	app.Post("/verify", RateLimiter(2, time.Minute), func(c *fiber.Ctx) error { return c.SendStatus(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/verify", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{200, 200, http.StatusTooManyRequests}, codes)
}

func TestSecureHeaders(t *testing.T) {
	app := fiber.New()
	app.Use(SecureHeaders())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Contains(t, resp.Header.Get("Content-Security-Policy"), "default-src 'none'")
}

func TestWSUpgradeRejectsPlainHTTP(t *testing.T) {
	app := fiber.New()
	app.Get("/ws", WSUpgrade(), func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ws", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func upload(t *testing.T, app *fiber.App, files map[string]struct {
	name string
	data []byte
}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for field, f := range files {
		fw, err := w.CreateFormFile(field, f.name)
		require.NoError(t, err)
		_, _ = fw.Write(f.data)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestImageUpload(t *testing.T) {
	cfg := &config.Config{AllowedMaxFileSize: 1, AllowedFileExt: []string{".png", ".jpg"}}
	app := fiber.New()
	app.Post("/upload", ImageUpload(cfg, "id_card", "selfie"), func(c *fiber.Ctx) error { return c.SendString("ok") })

	type file = struct {
		name string
		data []byte
	}
	good := pngBytes(t)

	resp := upload(t, app, map[string]file{"id_card": {"a.png", good}, "selfie": {"b.png", good}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = upload(t, app, map[string]file{"id_card": {"a.png", good}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "selfie required")

	resp = upload(t, app, map[string]file{"id_card": {"a.gif", good}, "selfie": {"b.png", good}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "invalid file type")

	resp = upload(t, app, map[string]file{"id_card": {"a.jpg", good}, "selfie": {"b.png", good}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	body, _ = io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "invalid file content")

	big := append(append([]byte{}, good...), make([]byte, 2<<20)...)
	resp = upload(t, app, map[string]file{"id_card": {"a.png", big}, "selfie": {"b.png", good}})
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}
