package embeddings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVector derives a deterministic vector from the input so tests can check
// that each request gets its own answer.
func fakeVector(text string) []float32 {
	return []float32{float32(len(text)), float32(strings.Count(text, " ")), 1}
}

func TestHuggingFaceEmbedder(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path

		var req hfRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, req.Options["wait_for_model"])
		_ = json.NewEncoder(w).Encode(fakeVector(req.Inputs))
	}))
	defer srv.Close()

	e := NewHuggingFaceEmbedder(srv.URL+"/models/{model}/pipeline/feature-extraction", "", "hf_test", srv.Client())

	first, err := e.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	second, err := e.Embed(context.Background(), "hello world")
	require.NoError(t, err)

	assert.Equal(t, Vector{11, 1, 1}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, "Bearer hf_test", gotAuth)
	assert.Equal(t, "/models/"+DefaultHuggingFaceModel+"/pipeline/feature-extraction", gotPath)
}

func TestHuggingFaceEmbedderURL(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		model    string
		want     string
	}{
		{"default router endpoint", "", "", "https://router.huggingface.co/hf-inference/models/sentence-transformers/msmarco-distilbert-base-v4/pipeline/feature-extraction"},
		{"custom model in default endpoint", "", "BAAI/bge-small-en-v1.5", "https://router.huggingface.co/hf-inference/models/BAAI/bge-small-en-v1.5/pipeline/feature-extraction"},
		{"legacy api host", "https://api-inference.huggingface.co/pipeline/feature-extraction/{model}", "", "https://api-inference.huggingface.co/pipeline/feature-extraction/sentence-transformers/msmarco-distilbert-base-v4"},
		{"dedicated endpoint without placeholder", "https://xyz.endpoints.huggingface.cloud", "ignored/model", "https://xyz.endpoints.huggingface.cloud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewHuggingFaceEmbedder(tt.endpoint, tt.model, "", nil)
			assert.Equal(t, tt.want, e.url)
		})
	}
}

func TestHuggingFaceEmbedderAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"Model is currently loading","estimated_time":20}`))
	}))
	defer srv.Close()

	e := NewHuggingFaceEmbedder(srv.URL, "some/model", "", srv.Client())
	_, err := e.Embed(context.Background(), "hello")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "Model is currently loading", apiErr.Message)
}

func TestOllamaEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)

		var req ollamaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, DefaultOllamaModel, req.Model)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"model":      req.Model,
			"embeddings": [][]float32{fakeVector(req.Input)},
		})
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "", srv.Client())
	vec, err := e.Embed(context.Background(), "a b c")
	require.NoError(t, err)
	assert.Equal(t, Vector{5, 2, 1}, vec)
}

func TestOllamaEmbedderEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings":[]}`))
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "m", srv.Client())
	_, err := e.Embed(context.Background(), "text")
	assert.ErrorIs(t, err, ErrEmptyEmbedding)
}

func TestOllamaEmbedderAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewOllamaEmbedder(srv.URL, "missing", srv.Client())
	_, err := e.Embed(context.Background(), "text")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "model not found", apiErr.Message)
}

func TestOpenAIEmbedder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/embeddings"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"data": [{"object": "embedding", "index": 0, "embedding": [0.25, -0.5]}],
			"model": "text-embedding-3-small",
			"usage": {"prompt_tokens": 1, "total_tokens": 1}
		}`))
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder("sk-test", "", option.WithBaseURL(srv.URL+"/"), option.WithMaxRetries(0))
	require.NoError(t, err)

	vec, err := e.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, Vector{0.25, -0.5}, vec)
}

func TestNewOpenAIEmbedderRequiresKey(t *testing.T) {
	_, err := NewOpenAIEmbedder("", "")
	assert.Error(t, err)
}

func TestNewGeminiEmbedderRequiresKey(t *testing.T) {
	_, err := NewGeminiEmbedder(context.Background(), "", "")
	assert.Error(t, err)
}
