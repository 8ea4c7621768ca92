package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/emandor/kyc_service/internal/img"
	"github.com/emandor/kyc_service/internal/ocr"
	"github.com/emandor/kyc_service/internal/telemetry"
)

// LineCache memoizes OCR results by image fingerprint. Cache failures are
// logged and fall through to the wrapped reader.
type LineCache struct {
	next ocr.Reader
	kv   KV
	ttl  time.Duration
}

func NewLineCache(next ocr.Reader, kv KV, ttl time.Duration) *LineCache {
	return &LineCache{next: next, kv: kv, ttl: ttl}
}

func (c *LineCache) ReadLines(ctx context.Context, b []byte) (ocr.Result, error) {
	log := telemetry.Module("cache")
	key := "ocr:lines:" + img.Fingerprint(b)

	if raw, err := c.kv.Get(ctx, key); err == nil && raw != "" {
		var res ocr.Result
		if err := json.Unmarshal([]byte(raw), &res); err == nil && len(res.Lines) > 0 {
			log.Debug().Int("lines", len(res.Lines)).Msg("ocr_cache_hit")
			return res, nil
		}
		log.Warn().Str("key", key).Msg("ocr_cache_corrupt")
	}

	res, err := c.next.ReadLines(ctx, b)
	if err != nil {
		return res, err
	}

	if c.ttl > 0 && len(res.Lines) > 0 {
		raw, _ := json.Marshal(res)
		if err := c.kv.Set(ctx, key, string(raw), c.ttl); err != nil {
			log.Warn().Err(err).Msg("ocr_cache_set_err")
		}
	}
	return res, nil
}
