package phonemeclient

import (
	"encoding/json"
	"testing"
)

func TestPhonemeResponse_Decode(t *testing.T) {
	raw := `{"frames":[{"phoneme":"t","start":0.02,"end":0.04,"confidence":0.9}],"is_monotone":true}`
	var parsed phonemeResponse
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parsed.Frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(parsed.Frames))
	}
	if !parsed.IsMonotone {
		t.Fatal("expected is_monotone true")
	}
	if parsed.Frames[0].Phoneme != "t" {
		t.Fatalf("expected phoneme 't', got %s", parsed.Frames[0].Phoneme)
	}
}
