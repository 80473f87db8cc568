package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ragmcp/ragmcp/internal/ragerr"
)

// HTTPEmbedder calls an OpenAI-compatible embeddings endpoint
// (POST {baseURL}/embeddings with {"model","input"}, responding
// {"data":[{"embedding":[...]}]}). Most self-hosted and third-party
// embedding providers implement this same shape, so one client covers
// them all; only baseURL/model/apiKey vary.
type HTTPEmbedder struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	dimensions int
	batchSize  int
	retry      RetryConfig
}

// HTTPEmbedderConfig configures an HTTPEmbedder.
type HTTPEmbedderConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
	BatchSize  int
	Timeout    time.Duration
	Retry      RetryConfig
}

// NewHTTPEmbedder builds an HTTPEmbedder from cfg, applying documented
// defaults for zero-valued fields.
func NewHTTPEmbedder(cfg HTTPEmbedderConfig) *HTTPEmbedder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if batchSize > MaxBatchSize {
		batchSize = MaxBatchSize
	}
	retry := cfg.Retry
	if retry.MaxRetries == 0 && retry.InitialDelay == 0 {
		retry = DefaultRetryConfig()
	}
	return &HTTPEmbedder{
		client:     &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		batchSize:  batchSize,
		retry:      retry,
	}
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// interBatchDelay spaces out sequential provider requests so a large
// ingestion pass does not trip the provider's rate limits.
const interBatchDelay = 100 * time.Millisecond

func (e *HTTPEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += e.batchSize {
		if start > 0 {
			select {
			case <-ctx.Done():
				return nil, ragerr.Wrap(ragerr.Embedding, ctx.Err())
			case <-time.After(interBatchDelay):
			}
		}

		end := start + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		var batchVecs [][]float32
		err := WithRetry(ctx, e.retry, func() error {
			vecs, reqErr := e.requestBatch(ctx, texts[start:end])
			if reqErr != nil {
				return reqErr
			}
			batchVecs = vecs
			return nil
		})
		if err != nil {
			return nil, err
		}
		copy(out[start:end], batchVecs)
	}
	return out, nil
}

func (e *HTTPEmbedder) requestBatch(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, ragerr.New(ragerr.Embedding, "failed to encode embedding request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, ragerr.New(ragerr.Embedding, "failed to build embedding request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, ragerr.New(ragerr.Embedding, "embedding request failed", err).WithRetryable(true)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ragerr.New(ragerr.Embedding, "failed to read embedding response", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, ragerr.New(ragerr.Embedding,
			fmt.Sprintf("embedding provider returned %d", resp.StatusCode), nil).WithRetryable(true)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, ragerr.New(ragerr.Embedding,
			fmt.Sprintf("embedding provider returned %d: %s", resp.StatusCode, string(payload)), nil)
	}

	var decoded embeddingResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, ragerr.New(ragerr.Embedding, "failed to decode embedding response", err)
	}
	if len(decoded.Data) != len(texts) {
		return nil, ragerr.New(ragerr.Embedding,
			fmt.Sprintf("embedding provider returned %d vectors for %d inputs", len(decoded.Data), len(texts)), nil)
	}

	vecs := make([][]float32, len(decoded.Data))
	for _, d := range decoded.Data {
		if d.Index < 0 || d.Index >= len(vecs) {
			continue
		}
		vecs[d.Index] = d.Embedding
	}
	return vecs, nil
}

func (e *HTTPEmbedder) Dimensions() int { return e.dimensions }
func (e *HTTPEmbedder) ModelName() string { return e.model }

func (e *HTTPEmbedder) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/models", nil)
	if err != nil {
		return false
	}
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (e *HTTPEmbedder) Close() error { return nil }
