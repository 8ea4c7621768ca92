package face

import (
	"context"
	"image"

	"github.com/emandor/kyc_service/internal/img"
)

// Region is one candidate face box reported by a Detector.
type Region struct {
	Box         image.Rectangle
	Probability float64
}

// Detector localizes faces. An empty slice means no face was found, which is
// not an error.
type Detector interface {
	Detect(ctx context.Context, im image.Image) ([]Region, error)
}

// Embedder maps a standardized face tensor to a fixed-length vector.
// Implementations must not mutate shared model state per call.
type Embedder interface {
	Embed(ctx context.Context, t img.Tensor) ([]float32, error)
}

// largest returns the biggest region at or above minProb.
func largest(regions []Region, minProb float64) (Region, bool) {
	var best Region
	found := false
	for _, r := range regions {
		if r.Probability < minProb || r.Box.Empty() {
			continue
		}
		if !found || area(r.Box) > area(best.Box) {
			best, found = r, true
		}
	}
	return best, found
}

func area(r image.Rectangle) int { return r.Dx() * r.Dy() }
