package ocr

import (
	"context"
	"errors"
	"strings"
)

var ErrNoText = errors.New("ocr: no text found")

// Result is the ordered text lines of one image, top to bottom. Confidence is
// the mean line confidence in [0,1], or 0 when the engine does not report one.
type Result struct {
	Lines      []string `json:"lines"`
	Confidence float64  `json:"confidence"`
}

// Reader turns an uploaded image into text lines.
type Reader interface {
	ReadLines(ctx context.Context, img []byte) (Result, error)
}

// SplitLines breaks a text block into trimmed, non-empty lines.
func SplitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// Mean averages per-line confidences given on a 0..100 scale into 0..1.
func Mean(confidences []float64) float64 {
	if len(confidences) == 0 {
		return 0
	}
	var sum float64
	for _, c := range confidences {
		sum += c
	}
	return sum / float64(len(confidences)) / 100
}
