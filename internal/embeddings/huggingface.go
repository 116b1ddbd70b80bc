package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// APIError is a non-2xx answer from an HTTP embedding backend.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error %d: %s", e.Provider, e.StatusCode, e.Message)
}

// DefaultHuggingFaceEndpoint is the serverless feature-extraction route on the
// inference router.
const DefaultHuggingFaceEndpoint = "https://router.huggingface.co/hf-inference/models/" + ModelPlaceholder + "/pipeline/feature-extraction"

// ModelPlaceholder marks where the model id goes in an endpoint template.
const ModelPlaceholder = "{model}"

// HuggingFaceEmbedder calls the Hugging Face Inference feature-extraction pipeline.
type HuggingFaceEmbedder struct {
	url        string
	model      string
	token      string
	httpClient *http.Client
}

type hfRequest struct {
	Inputs  string          `json:"inputs"`
	Options map[string]bool `json:"options,omitempty"`
}

// NewHuggingFaceEmbedder creates an embedder for a sentence-transformers model
// hosted on the Inference API. endpoint is a full URL in which {model} is
// substituted; an endpoint without the placeholder (a dedicated Inference
// Endpoint) is used as is. token may be empty for public models.
func NewHuggingFaceEmbedder(endpoint, model, token string, httpClient *http.Client) *HuggingFaceEmbedder {
	if endpoint == "" {
		endpoint = DefaultHuggingFaceEndpoint
	}
	if model == "" {
		model = DefaultHuggingFaceModel
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &HuggingFaceEmbedder{
		url:        strings.ReplaceAll(endpoint, ModelPlaceholder, model),
		model:      model,
		token:      token,
		httpClient: httpClient,
	}
}

func (e *HuggingFaceEmbedder) Embed(ctx context.Context, text string) (Vector, error) {
	body, err := json.Marshal(hfRequest{
		Inputs:  text,
		Options: map[string]bool{"wait_for_model": true},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("huggingface request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Provider: "huggingface", StatusCode: resp.StatusCode, Message: hfErrorMessage(raw)}
	}
	return decodeFeatures(raw)
}

// decodeFeatures accepts the shapes the pipeline returns for a single input:
// a sentence vector, a batch of one, or per-token vectors that are mean-pooled.
func decodeFeatures(raw []byte) (Vector, error) {
	var flat Vector
	if err := json.Unmarshal(raw, &flat); err == nil {
		if len(flat) == 0 {
			return nil, ErrEmptyEmbedding
		}
		return flat, nil
	}

	var rows []Vector
	if err := json.Unmarshal(raw, &rows); err != nil {
		var batch [][]Vector
		if err := json.Unmarshal(raw, &batch); err != nil || len(batch) == 0 {
			return nil, fmt.Errorf("decode response: unexpected shape")
		}
		rows = batch[0]
	}
	switch len(rows) {
	case 0:
		return nil, ErrEmptyEmbedding
	case 1:
		if len(rows[0]) == 0 {
			return nil, ErrEmptyEmbedding
		}
		return rows[0], nil
	default:
		return meanPool(rows)
	}
}

func meanPool(rows []Vector) (Vector, error) {
	dims := len(rows[0])
	if dims == 0 {
		return nil, ErrEmptyEmbedding
	}
	out := make(Vector, dims)
	for _, row := range rows {
		if len(row) != dims {
			return nil, fmt.Errorf("%w: token vectors of length %d and %d", ErrDimensionMismatch, dims, len(row))
		}
		for i, v := range row {
			out[i] += v
		}
	}
	n := float32(len(rows))
	for i := range out {
		out[i] /= n
	}
	return out, nil
}

func hfErrorMessage(raw []byte) string {
	var body struct {
		Error any `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != nil {
		return fmt.Sprint(body.Error)
	}
	return strings.TrimSpace(string(raw))
}
