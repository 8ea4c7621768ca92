package face

import (
	"context"
	"image"
	"math"

	"github.com/emandor/kyc_service/internal/img"
	"github.com/emandor/kyc_service/internal/inference"
	"github.com/emandor/kyc_service/internal/metrics"
	"github.com/emandor/kyc_service/internal/telemetry"
)

const (
	// MatchThreshold is the confidence a pair must exceed to count as a match.
	MatchThreshold = 50.0

	ProcessError = "Could not process image"

	DefaultInputSize      = 160
	DefaultMinProbability = 0.7
)

// Result is the outcome of comparing a document face with a selfie.
// Confidence is always set; Error is non-nil only when an image could not be
// turned into an embedding.
type Result struct {
	IsMatch    bool    `json:"match"`
	Confidence float64 `json:"score"`
	Error      *string `json:"error"`
}

func failed() Result {
	msg := ProcessError
	return Result{IsMatch: false, Confidence: 0, Error: &msg}
}

type MatcherConfig struct {
	InputSize      int
	MinProbability float64
	Pool           *inference.Pool
	Metrics        *metrics.Metrics
}

type Matcher struct {
	detector  Detector
	embedder  Embedder
	inputSize int
	minProb   float64
	pool      *inference.Pool
	metrics   *metrics.Metrics
}

func NewMatcher(d Detector, e Embedder, cfg MatcherConfig) *Matcher {
	if cfg.InputSize <= 0 {
		cfg.InputSize = DefaultInputSize
	}
	if cfg.MinProbability <= 0 {
		cfg.MinProbability = DefaultMinProbability
	}
	return &Matcher{
		detector:  d,
		embedder:  e,
		inputSize: cfg.InputSize,
		minProb:   cfg.MinProbability,
		pool:      cfg.Pool,
		metrics:   cfg.Metrics,
	}
}

// Verify compares the face on the document with the selfie. It never returns
// an error: unusable input is reported through Result.Error.
func (m *Matcher) Verify(ctx context.Context, document, selfie []byte) Result {
	log := telemetry.Module("face")

	v1, err := m.embedding(ctx, "document", document)
	if err != nil {
		log.Error().Err(err).Str("role", "document").Msg("face_embedding_failed")
		return failed()
	}
	v2, err := m.embedding(ctx, "selfie", selfie)
	if err != nil {
		log.Error().Err(err).Str("role", "selfie").Msg("face_embedding_failed")
		return failed()
	}

	sim, err := Cosine(v1, v2)
	if err != nil {
		log.Error().Err(err).Int("dim_document", len(v1)).Int("dim_selfie", len(v2)).Msg("face_similarity_failed")
		return failed()
	}

	score := math.Round(sim*100*100) / 100
	log.Info().Float64("score", score).Msg("face_match_scored")
	return Result{IsMatch: score > MatchThreshold, Confidence: score}
}

func (m *Matcher) embedding(ctx context.Context, role string, b []byte) ([]float32, error) {
	im, err := img.Decode(b)
	if err != nil {
		return nil, err
	}
	t := m.normalize(ctx, role, im)

	vec, err := inference.Do(ctx, m.pool, func() ([]float32, error) {
		return m.embedder.Embed(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return vec, nil
}

// normalize crops the largest detected face, or falls back to the whole
// image when detection finds nothing or fails.
func (m *Matcher) normalize(ctx context.Context, role string, im image.Image) img.Tensor {
	log := telemetry.Module("face").With().Str("role", role).Logger()

	regions, err := inference.Do(ctx, m.pool, func() ([]Region, error) {
		return m.detector.Detect(ctx, im)
	})
	if err != nil {
		log.Warn().Err(err).Msg("face_detect_failed")
	}
	if r, ok := largest(regions, m.minProb); ok {
		if crop, ok := img.Crop(im, r.Box); ok {
			log.Debug().Str("box", r.Box.String()).Float64("prob", r.Probability).Msg("face_detected")
			return img.FaceTensor(crop, m.inputSize)
		}
	}

	log.Warn().Msg("face_fallback_full_image")
	m.metrics.IncFaceFallback(role)
	return img.FaceTensor(im, m.inputSize)
}
