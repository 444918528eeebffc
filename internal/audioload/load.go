package audioload

import (
	"context"
	"strings"

	"github.com/hubenschmidt/speakscore-engine/internal/apperr"
)

// TargetSampleRate is the rate every decoded sample buffer is resampled to
// before it reaches the STT collaborator (§6.2).
const TargetSampleRate = 16000

// MinDurationSec is the shortest accepted response after decode (§6.2, §4.7).
const MinDurationSec = 5.0

var compressedExts = map[string]bool{
	".flac": true,
	".mp3":  true,
	".ogg":  true,
	".m4a":  true,
}

// Load decodes an uploaded file into mono float32 PCM at TargetSampleRate,
// dispatching on the declared extension: WAV decodes natively, every other
// accepted container (FLAC, MP3, OGG, M4A) is normalized to WAV by ffmpeg
// first so the rest of the pipeline only ever sees the native-decode shape.
func Load(ctx context.Context, data []byte, declaredExt string) ([]float32, int, error) {
	ext := strings.ToLower(declaredExt)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	wavData := data
	if ext != ".wav" {
		if !compressedExts[ext] {
			return nil, 0, apperr.New(apperr.KindUnsupportedFmt, "unsupported audio format: "+ext)
		}
		normalized, err := ffmpegToWAV(ctx, data, ext)
		if err != nil {
			return nil, 0, err
		}
		wavData = normalized
	}

	samples, sampleRate, err := DecodeWAV(wavData)
	if err != nil {
		return nil, 0, err
	}

	if sampleRate != TargetSampleRate {
		samples = Resample(samples, sampleRate, TargetSampleRate)
		sampleRate = TargetSampleRate
	}

	if Duration(samples, sampleRate) < MinDurationSec {
		return nil, 0, apperr.New(apperr.KindAudioTooShort, "audio too short: minimum 5 seconds required")
	}
	if !HasSpeech(samples) {
		return nil, 0, apperr.New(apperr.KindNoSpeech, "no speech detected")
	}

	return samples, sampleRate, nil
}
