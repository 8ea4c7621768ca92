package face

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	"github.com/disintegration/imaging"

	"github.com/emandor/kyc_service/internal/img"
)

// RemoteModel talks to the face inference server that hosts the pretrained
// detector and embedding network. One instance is shared by all requests.
type RemoteModel struct {
	baseURL    string
	httpClient *http.Client
}

func NewRemoteModel(baseURL string, timeout time.Duration) *RemoteModel {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemoteModel{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type detectRequest struct {
	Image string `json:"image"` // base64 JPEG
}

type detectResponse struct {
	Faces []struct {
		Box         [4]int  `json:"box"` // x1, y1, x2, y2
		Probability float64 `json:"probability"`
	} `json:"faces"`
}

type embedRequest struct {
	Size   int       `json:"size"`
	Layout string    `json:"layout"`
	Data   []float32 `json:"data"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Detect sends the image to the detector and returns every candidate box.
func (c *RemoteModel) Detect(ctx context.Context, im image.Image) ([]Region, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, im, imaging.JPEG, imaging.JPEGQuality(95)); err != nil {
		return nil, fmt.Errorf("failed to encode detect image: %w", err)
	}

	var out detectResponse
	req := detectRequest{Image: base64.StdEncoding.EncodeToString(buf.Bytes())}
	if err := c.post(ctx, "/v1/detect", req, &out); err != nil {
		return nil, err
	}

	regions := make([]Region, 0, len(out.Faces))
	for _, f := range out.Faces {
		regions = append(regions, Region{
			Box:         image.Rect(f.Box[0], f.Box[1], f.Box[2], f.Box[3]),
			Probability: f.Probability,
		})
	}
	return regions, nil
}

// Embed runs the embedding network on a standardized tensor.
func (c *RemoteModel) Embed(ctx context.Context, t img.Tensor) ([]float32, error) {
	var out embedResponse
	req := embedRequest{Size: t.Size, Layout: "CHW", Data: t.Data}
	if err := c.post(ctx, "/v1/embed", req, &out); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return out.Embedding, nil
}

// HealthCheck verifies the inference server has its models loaded.
func (c *RemoteModel) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute health check request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("health check failed with status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func (c *RemoteModel) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute %s request: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s failed with status %d: %s", path, resp.StatusCode, string(raw))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
