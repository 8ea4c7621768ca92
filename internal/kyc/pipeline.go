// Package kyc runs identity verifications and serves them over HTTP.
package kyc

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/emandor/kyc_service/internal/extract"
	"github.com/emandor/kyc_service/internal/face"
	"github.com/emandor/kyc_service/internal/metrics"
	"github.com/emandor/kyc_service/internal/ocr"
	"github.com/emandor/kyc_service/internal/region"
	"github.com/emandor/kyc_service/internal/risk"
	"github.com/emandor/kyc_service/internal/telemetry"
)

type FaceVerifier interface {
	Verify(ctx context.Context, document, selfie []byte) face.Result
}

type RegionResolver interface {
	Resolve(ctx context.Context, text string) region.Risk
	Unknown() region.Risk
}

type Pipeline struct {
	faces   FaceVerifier
	text    ocr.Reader
	regions RegionResolver
	scorer  *risk.Scorer
	metrics *metrics.Metrics
}

func NewPipeline(faces FaceVerifier, text ocr.Reader, regions RegionResolver, scorer *risk.Scorer, m *metrics.Metrics) *Pipeline {
	if scorer == nil {
		scorer = risk.NewScorer(risk.DefaultHighThreshold, risk.DefaultMediumThreshold)
	}
	return &Pipeline{faces: faces, text: text, regions: regions, scorer: scorer, metrics: m}
}

// Run verifies one image set. It always returns a complete Decision; model
// and reader failures degrade the reported values instead of aborting.
func (p *Pipeline) Run(ctx context.Context, in Input) Decision {
	start := time.Now()
	log := telemetry.Module("kyc")

	var (
		match       face.Result
		front, back extract.Fields
	)

	var g errgroup.Group
	g.Go(func() error {
		match = p.faces.Verify(ctx, in.DocumentFront, in.Selfie)
		return nil
	})
	g.Go(func() error {
		front = p.readSide(ctx, "front", in.DocumentFront)
		return nil
	})
	if in.hasBack() {
		g.Go(func() error {
			back = p.readSide(ctx, "back", in.DocumentBack)
			return nil
		})
	}
	_ = g.Wait()

	var doc extract.Document
	regional := p.regions.Unknown()
	if in.hasBack() {
		doc = extract.Merge(front, &back)
		regional = p.regions.Resolve(ctx, doc.RawTextBack)
	} else {
		doc = extract.Merge(front, nil)
	}

	d := Decision{
		FinalDecision:  decide(match),
		RiskScore:      riskScore(match.Confidence),
		OCRData:        doc,
		FaceMatch:      match,
		RegionalRisk:   regional,
		RiskAssessment: p.scorer.Score(match.Confidence, doc.Confidence, doc.HasIDNumber()),
	}

	p.metrics.IncDecision(d.FinalDecision)
	p.metrics.ObservePipeline(time.Since(start))
	log.Info().
		Str("decision", d.FinalDecision).
		Float64("face_score", match.Confidence).
		Str("district", regional.District).
		Str("risk_level", d.RiskAssessment.RiskLevel).
		Dur("took", time.Since(start)).
		Msg("kyc_decided")
	return d
}

// readSide turns one document side into fields. No text gives the
// not-detected markers; a reader failure gives the error markers.
func (p *Pipeline) readSide(ctx context.Context, side string, b []byte) extract.Fields {
	log := telemetry.Module("kyc").With().Str("side", side).Logger()

	res, err := p.text.ReadLines(ctx, b)
	switch {
	case errors.Is(err, ocr.ErrNoText):
		log.Warn().Msg("ocr_no_text")
		return extract.Extract(nil)
	case err != nil:
		log.Error().Err(err).Msg("ocr_failed")
		return extract.Failed()
	}

	f := extract.Extract(res.Lines)
	f.Confidence = res.Confidence
	log.Debug().Int("lines", len(res.Lines)).Float64("confidence", res.Confidence).Msg("ocr_done")
	return f
}
