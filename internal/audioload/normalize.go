package audioload

import (
	"context"
	"os"
	"os/exec"

	"github.com/hubenschmidt/speakscore-engine/internal/apperr"
)

// ffmpegToWAV shells out to ffmpeg to transcode an arbitrary container
// (FLAC, MP3, OGG, M4A, ...) to 16kHz mono 16-bit PCM WAV, so every format
// other than WAV reaches DecodeWAV through the same native-decode path.
// Grounded on the teacher's internal/orchestrator/compose.go, which shells
// to the docker CLI the same way: exec.CommandContext plus CombinedOutput
// for a single synchronous subprocess call.
func ffmpegToWAV(ctx context.Context, data []byte, ext string) ([]byte, error) {
	inFile, err := os.CreateTemp("", "speakscore-in-*"+ext)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "create temp input file", err)
	}
	defer os.Remove(inFile.Name())
	if _, err := inFile.Write(data); err != nil {
		inFile.Close()
		return nil, apperr.Wrap(apperr.KindInternal, "write temp input file", err)
	}
	inFile.Close()

	outFile, err := os.CreateTemp("", "speakscore-out-*.wav")
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "create temp output file", err)
	}
	outPath := outFile.Name()
	outFile.Close()
	defer os.Remove(outPath)

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y", "-i", inFile.Name(),
		"-ar", "16000", "-ac", "1", "-sample_fmt", "s16",
		outPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnsupportedFmt, "ffmpeg normalize: "+string(out), err)
	}

	wavData, err := os.ReadFile(outPath)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "read normalized wav", err)
	}
	return wavData, nil
}
