// Package risk fuses the face and OCR signals into a fraud-risk label.
package risk

import "math"

const (
	LevelLow    = "LOW"
	LevelMedium = "MEDIUM"
	LevelHigh   = "HIGH"

	faceWeight = 0.5
	ocrWeight  = 0.3
	idBonus    = 20.0

	DefaultHighThreshold   = 80
	DefaultMediumThreshold = 40
)

// Breakdown exposes the raw inputs of an assessment.
type Breakdown struct {
	FaceScore  float64 `json:"face_score"`
	OCRScore   float64 `json:"ocr_score"`
	IDDetected bool    `json:"id_detected"`
}

// Assessment is a combined confidence in [0,100]. A high total means a LOW
// fraud risk.
type Assessment struct {
	TotalScore float64   `json:"total_score"`
	RiskLevel  string    `json:"risk_level"`
	Breakdown  Breakdown `json:"breakdown"`
}

type Scorer struct {
	high, medium float64
}

// NewScorer falls back to the default bands when the thresholds are unset or
// inverted.
func NewScorer(high, medium float64) *Scorer {
	if high <= 0 || medium <= 0 || medium > high {
		high, medium = DefaultHighThreshold, DefaultMediumThreshold
	}
	return &Scorer{high: high, medium: medium}
}

// Score combines face confidence (0..100), OCR confidence (0..1) and whether
// an identity number was extracted.
func (s *Scorer) Score(faceConfidence, ocrConfidence float64, idDetected bool) Assessment {
	ocrScore := round2(ocrConfidence * 100)
	total := faceWeight*faceConfidence + ocrWeight*ocrScore
	if idDetected {
		total += idBonus
	}
	total = math.Max(0, math.Min(100, round2(total)))

	return Assessment{
		TotalScore: total,
		RiskLevel:  s.Level(total),
		Breakdown: Breakdown{
			FaceScore:  faceConfidence,
			OCRScore:   ocrScore,
			IDDetected: idDetected,
		},
	}
}

func (s *Scorer) Level(total float64) string {
	switch {
	case total >= s.high:
		return LevelLow
	case total >= s.medium:
		return LevelMedium
	default:
		return LevelHigh
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
