package middleware

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/emandor/kyc_service/internal/config"
)

// ImageUpload checks that every required form field carries one image and
// that every uploaded file passes the extension, size and magic-byte checks.
func ImageUpload(cfg *config.Config, required ...string) fiber.Handler {
	extMap := make(map[string]struct{})
	for _, e := range cfg.AllowedFileExt {
		extMap[strings.ToLower(e)] = struct{}{}
	}
	maxSize := int64(cfg.AllowedMaxFileSize) * 1024 * 1024

	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid multipart form",
			})
		}

		for _, field := range required {
			if len(form.File[field]) == 0 {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": field + " required",
				})
			}
		}

		for field, files := range form.File {
			for _, file := range files {
				if ferr := validateFile(file, extMap, maxSize); ferr != nil {
					return c.Status(ferr.Code).JSON(fiber.Map{
						"error": field + ": " + ferr.Message,
					})
				}
			}
		}

		return c.Next()
	}
}

func validateFile(file *multipart.FileHeader, extMap map[string]struct{}, maxSize int64) *fiber.Error {
	if file.Size > maxSize {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "file too large")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := extMap[ext]; !ok {
		return fiber.NewError(fiber.StatusBadRequest, "invalid file type")
	}

	f, err := file.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "cannot open file")
	}
	defer f.Close()

	head := make([]byte, 512) // DetectContentType reads at most 512 bytes
	n, _ := f.Read(head)
	head = head[:n]

	if !isValidMagic(ext, http.DetectContentType(head), head) {
		return fiber.NewError(fiber.StatusBadRequest, "invalid file content")
	}
	return nil
}

func isValidMagic(ext, mimeType string, head []byte) bool {
	switch ext {
	case ".jpg", ".jpeg":
		return strings.HasPrefix(mimeType, "image/jpeg") &&
			len(head) > 2 && head[0] == 0xFF && head[1] == 0xD8
	case ".png":
		return strings.HasPrefix(mimeType, "image/png") &&
			bytes.HasPrefix(head, []byte{0x89, 0x50, 0x4E, 0x47})
	default:
		return false
	}
}
