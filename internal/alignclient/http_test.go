package alignclient

import (
	"mime"
	"testing"

	"github.com/hubenschmidt/speakscore-engine/internal/engine"
)

func TestBuildAlignRequest_ProducesMultipart(t *testing.T) {
	samples := make([]float32, 16000)
	words := []engine.WordRecord{{Word: "hello", Start: 0, End: 0.4}}

	body, contentType, err := buildAlignRequest(samples, 16000, words, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.Len() == 0 {
		t.Fatal("expected non-empty body")
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		t.Fatalf("invalid content type: %v", err)
	}
	if mediaType != "multipart/form-data" {
		t.Fatalf("expected multipart/form-data, got %s", mediaType)
	}
}

func TestBuildAlignRequest_DefaultsLanguage(t *testing.T) {
	_, _, err := buildAlignRequest([]float32{0, 0}, 16000, nil, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
