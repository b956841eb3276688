package classify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/use-agent/producerecipe/config"
	"github.com/use-agent/producerecipe/models"
)

// Model scores one encoded image and returns a probability per class index.
type Model interface {
	Predict(ctx context.Context, image []byte) ([]float64, error)
}

// HTTPModel calls a TensorFlow-Serving compatible REST endpoint. The served
// signature takes the raw encoded image as a base64 string and does its own
// resizing and preprocessing.
type HTTPModel struct {
	client   *http.Client
	endpoint string
}

// NewHTTPModel builds a model client from cfg.
func NewHTTPModel(cfg config.ClassifierConfig) *HTTPModel {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPModel{
		client: &http.Client{Timeout: timeout},
		endpoint: fmt.Sprintf("%s/v1/models/%s:predict",
			strings.TrimRight(cfg.ModelURL, "/"), cfg.ModelName),
	}
}

type predictInstance struct {
	B64 string `json:"b64"`
}

type predictRequest struct {
	Instances []predictInstance `json:"instances"`
}

type predictResponse struct {
	Predictions [][]float64 `json:"predictions"`
	Error       string      `json:"error,omitempty"`
}

// Predict sends image to the model server.
func (m *HTTPModel) Predict(ctx context.Context, image []byte) ([]float64, error) {
	body, err := json.Marshal(predictRequest{
		Instances: []predictInstance{{B64: base64.StdEncoding.EncodeToString(image)}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeClassifyFailed, "invalid model URL", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeClassifyFailed, "model server request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeClassifyFailed, "reading model response failed", err)
	}

	var pr predictResponse
	if err := json.Unmarshal(raw, &pr); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeClassifyFailed,
			fmt.Sprintf("model server returned HTTP %d with unparsable body", resp.StatusCode), err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := pr.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, models.NewScrapeError(models.ErrCodeClassifyFailed,
			fmt.Sprintf("model server returned HTTP %d: %s", resp.StatusCode, msg), nil)
	}
	if len(pr.Predictions) == 0 || len(pr.Predictions[0]) == 0 {
		return nil, models.NewScrapeError(models.ErrCodeClassifyFailed, "model server returned no predictions", nil)
	}
	return pr.Predictions[0], nil
}
