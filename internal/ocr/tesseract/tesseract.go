// Package tesseract reads document text lines with a process-wide Tesseract
// engine. It needs libtesseract at build time (cgo).
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/emandor/kyc_service/internal/img"
	"github.com/emandor/kyc_service/internal/inference"
	"github.com/emandor/kyc_service/internal/ocr"
	"github.com/emandor/kyc_service/internal/telemetry"
)

// Engine wraps one gosseract client. The client keeps per-image state, so
// calls pass through gate one at a time before taking a pool slot.
type Engine struct {
	gate   *inference.Gate
	client *gosseract.Client
	pool   *inference.Pool
	prep   ocr.Prep
}

// New loads the language data and runs a warm-up pass so a missing or broken
// tessdata install fails at startup instead of on the first request.
func New(lang string, prep ocr.Prep, pool *inference.Pool) (*Engine, error) {
	client := gosseract.NewClient()
	if err := client.SetLanguage(lang); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("tesseract: set language %q: %w", lang, err)
	}
	if err := client.SetImageFromBytes(blankPNG()); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("tesseract: warm-up image: %w", err)
	}
	if _, err := client.Text(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("tesseract: init %q: %w", lang, err)
	}
	log := telemetry.Module("ocr")
	log.Info().Str("version", client.Version()).Str("lang", lang).Msg("tesseract_loaded")
	return &Engine{gate: inference.NewGate(), client: client, pool: pool, prep: prep}, nil
}

func (e *Engine) ReadLines(ctx context.Context, b []byte) (ocr.Result, error) {
	prep, err := img.PrepareForOCR(b, e.prep.MaxW, e.prep.Quality, e.prep.Grayscale)
	if err != nil {
		return ocr.Result{}, err
	}
	return inference.DoExclusive(ctx, e.gate, e.pool, func() (ocr.Result, error) {
		if err := e.client.SetImageFromBytes(prep.Bytes); err != nil {
			return ocr.Result{}, fmt.Errorf("tesseract: set image: %w", err)
		}
		boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
		if err != nil {
			return ocr.Result{}, fmt.Errorf("tesseract: text lines: %w", err)
		}

		lines := make([]string, 0, len(boxes))
		confs := make([]float64, 0, len(boxes))
		for _, bx := range boxes {
			txt := strings.TrimSpace(bx.Word)
			if txt == "" {
				continue
			}
			lines = append(lines, txt)
			confs = append(confs, bx.Confidence)
		}
		if len(lines) == 0 {
			return ocr.Result{}, ocr.ErrNoText
		}
		return ocr.Result{Lines: lines, Confidence: ocr.Mean(confs)}, nil
	})
}

func (e *Engine) Close() error {
	_, err := inference.DoExclusive(context.Background(), e.gate, nil, func() (struct{}, error) {
		return struct{}{}, e.client.Close()
	})
	return err
}

func blankPNG() []byte {
	im := image.NewGray(image.Rect(0, 0, 32, 32))
	for i := range im.Pix {
		im.Pix[i] = uint8(color.White.Y >> 8)
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, im)
	return buf.Bytes()
}
