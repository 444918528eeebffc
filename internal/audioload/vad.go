package audioload

import "math"

// SpeechThresholdDB is the RMS energy floor below which a recording is
// treated as silence rather than a spoken response; Load rejects such audio
// with apperr.KindNoSpeech (no_speech_detected).
const SpeechThresholdDB = -40

// HasSpeech reports whether samples contain audio above SpeechThresholdDB.
// Trimmed from the teacher's internal/audio/vad.go turn-taking state
// machine (speech-start/silence-timeout/pre-speech buffering) down to the
// single whole-buffer energy check a pre-recorded response needs: there is
// no streaming turn to detect the end of.
func HasSpeech(samples []float32) bool {
	return energyDB(samples) >= SpeechThresholdDB
}

func energyDB(samples []float32) float64 {
	if len(samples) == 0 {
		return -100
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	rms := math.Sqrt(sum / float64(len(samples)))
	if rms < 1e-10 {
		return -100
	}
	return 20 * math.Log10(rms)
}
