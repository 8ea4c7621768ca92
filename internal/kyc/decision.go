package kyc

import (
	"math"

	"github.com/emandor/kyc_service/internal/extract"
	"github.com/emandor/kyc_service/internal/face"
	"github.com/emandor/kyc_service/internal/region"
	"github.com/emandor/kyc_service/internal/risk"
)

const (
	Approved = "APPROVED"
	Rejected = "REJECTED"
)

// Input is the image set of one verification. DocumentBack is optional.
type Input struct {
	DocumentFront []byte
	DocumentBack  []byte
	Selfie        []byte
}

func (in Input) hasBack() bool { return len(in.DocumentBack) > 0 }

// Decision is the artifact of one pipeline run. It carries no request id or
// clock reading, so identical inputs give identical decisions.
type Decision struct {
	FinalDecision  string           `json:"final_decision"`
	RiskScore      int              `json:"risk_score"`
	OCRData        extract.Document `json:"ocr_data"`
	FaceMatch      face.Result      `json:"face_match"`
	RegionalRisk   region.Risk      `json:"regional_risk"`
	RiskAssessment risk.Assessment  `json:"risk_assessment"`
}

func (d Decision) Approved() bool { return d.FinalDecision == Approved }

// decide keys approval off the face match alone; the risk assessment is
// reported next to it and does not gate the outcome.
func decide(match face.Result) string {
	if match.IsMatch {
		return Approved
	}
	return Rejected
}

// riskScore reports the face confidence as a whole number in [0,100].
func riskScore(confidence float64) int {
	return int(math.Max(0, math.Min(100, math.Trunc(confidence))))
}
