package embeddings

import (
	"errors"
	"math"
	"testing"
)

func TestDecodeFeatures(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected Vector
		wantErr  error
	}{
		{
			name:     "sentence vector",
			raw:      `[0.1, 0.2, 0.3]`,
			expected: Vector{0.1, 0.2, 0.3},
		},
		{
			name:     "batch of one",
			raw:      `[[0.1, 0.2, 0.3]]`,
			expected: Vector{0.1, 0.2, 0.3},
		},
		{
			name:     "token vectors are mean pooled",
			raw:      `[[1, 2], [3, 4]]`,
			expected: Vector{2, 3},
		},
		{
			name:     "batched token vectors are mean pooled",
			raw:      `[[[1, 0], [0, 1]]]`,
			expected: Vector{0.5, 0.5},
		},
		{
			name:    "empty vector",
			raw:     `[]`,
			wantErr: ErrEmptyEmbedding,
		},
		{
			name:    "ragged token vectors",
			raw:     `[[1, 2], [3]]`,
			wantErr: ErrDimensionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeFeatures([]byte(tt.raw))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got err %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("got %d dims, want %d", len(got), len(tt.expected))
			}
			for i := range got {
				if math.Abs(float64(got[i]-tt.expected[i])) > 1e-6 {
					t.Errorf("dim %d: got %f, want %f", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestDecodeFeaturesRejectsObjects(t *testing.T) {
	if _, err := decodeFeatures([]byte(`{"error":"boom"}`)); err == nil {
		t.Fatal("expected error for object body")
	}
}

func TestFromFloat64(t *testing.T) {
	got := fromFloat64([]float64{0.5, -1.25})
	if len(got) != 2 || got[0] != 0.5 || got[1] != -1.25 {
		t.Errorf("unexpected conversion: %v", got)
	}
}
