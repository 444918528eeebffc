package audioload

import "testing"

func TestResample_SameRateReturnsInput(t *testing.T) {
	samples := []float32{0.1, 0.2, 0.3}
	out := Resample(samples, 16000, 16000)
	if len(out) != len(samples) {
		t.Fatalf("expected unchanged length %d, got %d", len(samples), len(out))
	}
}

func TestResample_Downsamples(t *testing.T) {
	samples := make([]float32, 32000)
	for i := range samples {
		samples[i] = 0.5
	}
	out := Resample(samples, 32000, 16000)
	if len(out) != 16000 {
		t.Fatalf("expected 16000 samples, got %d", len(out))
	}
}

func TestHasSpeech_SilentBufferIsFalse(t *testing.T) {
	samples := make([]float32, 16000)
	if HasSpeech(samples) {
		t.Fatal("expected silent buffer to report no speech")
	}
}

func TestHasSpeech_LoudBufferIsTrue(t *testing.T) {
	samples := make([]float32, 16000)
	for i := range samples {
		if i%2 == 0 {
			samples[i] = 0.8
		} else {
			samples[i] = -0.8
		}
	}
	if !HasSpeech(samples) {
		t.Fatal("expected loud buffer to report speech")
	}
}

func TestDuration(t *testing.T) {
	samples := make([]float32, 16000)
	if d := Duration(samples, 16000); d != 1.0 {
		t.Fatalf("expected 1.0s duration, got %f", d)
	}
}

func TestDuration_ZeroSampleRate(t *testing.T) {
	if d := Duration([]float32{1, 2, 3}, 0); d != 0 {
		t.Fatalf("expected 0 duration for zero sample rate, got %f", d)
	}
}

func TestLoad_RejectsUnsupportedFormat(t *testing.T) {
	_, _, err := Load(t.Context(), []byte{0x00}, ".aiff")
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
