package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/emandor/kyc_service/internal/img"
	"github.com/emandor/kyc_service/internal/telemetry"
)

const openAIEndpoint = "https://api.openai.com/v1/chat/completions"

const visionPrompt = "Transcribe every line of text printed on this identity document, top to bottom. " +
	"Return ONLY the lines, one per line, exactly as printed (no explanation)."

type OpenAIVision struct {
	Key, Model string
	Endpoint   string
	Client     *http.Client
	Limiter    *rate.Limiter
	MaxRetries int
	Prep       Prep
}

// Prep controls image preprocessing before OCR.
type Prep struct {
	MaxW      int
	Quality   int
	Grayscale bool
}

func NewOpenAIVision(key, model string, rps, burst, maxRetries int, prep Prep) *OpenAIVision {
	if rps <= 0 {
		rps = 2
	}
	if burst <= 0 {
		burst = 2
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &OpenAIVision{
		Key:        key,
		Model:      model,
		Endpoint:   openAIEndpoint,
		Client:     &http.Client{Timeout: 60 * time.Second},
		Limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		MaxRetries: maxRetries,
		Prep:       prep,
	}
}

// ReadLines sends the document to the vision model. The API reports no
// per-line confidence so Result.Confidence is always 0.
func (o *OpenAIVision) ReadLines(ctx context.Context, imgB []byte) (Result, error) {
	prep, err := img.PrepareForOCR(imgB, o.Prep.MaxW, o.Prep.Quality, o.Prep.Grayscale)
	if err != nil {
		return Result{}, err
	}
	if err := o.Limiter.Wait(ctx); err != nil {
		return Result{}, err
	}

	dataURL := "data:" + prep.MIME + ";base64," + base64.StdEncoding.EncodeToString(prep.Bytes)
	payload := map[string]any{
		"model": o.Model,
		"messages": []any{
			map[string]any{
				"role": "user",
				"content": []any{
					map[string]string{"type": "text", "text": visionPrompt},
					map[string]any{"type": "image_url", "image_url": map[string]any{"url": dataURL, "detail": "high"}},
				},
			},
		},
		"temperature": 0.0,
		"max_tokens":  512,
	}

	b, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.Endpoint, bytes.NewReader(b))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Authorization", "Bearer "+o.Key)
	req.Header.Set("Content-Type", "application/json")

	log := telemetry.Module("ocr").With().Str("provider", "openai-vision").Logger()

	var lastErr error
	start := time.Now()
	for attempt := 0; attempt <= o.MaxRetries; attempt++ {
		if attempt > 0 {
			d := time.Duration(200*(1<<uint(attempt-1))) * time.Millisecond
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return Result{}, ctx.Err()
			}
		}

		resp, err := o.Client.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			continue
		}

		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			var out struct {
				Choices []struct{ Message struct{ Content string } }
			}
			if err := json.Unmarshal(raw, &out); err != nil {
				return Result{}, err
			}
			if len(out.Choices) == 0 {
				return Result{}, errors.New("openai vision: empty choices")
			}
			lines := SplitLines(out.Choices[0].Message.Content)
			log.Debug().Int("latency_ms", int(time.Since(start)/time.Millisecond)).Int("lines", len(lines)).Msg("ocr_ok")
			if len(lines) == 0 {
				return Result{}, ErrNoText
			}
			return Result{Lines: lines}, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			log.Warn().Int("status", resp.StatusCode).Msg("ocr_429_retry")
			lastErr = errors.New("openai vision 429")
			continue
		}

		lastErr = errors.New("openai vision http " + resp.Status)
		break
	}
	return Result{}, lastErr
}
