// Package audioload decodes uploaded audio into 16kHz mono float32 PCM
// samples (§6.2). WAV is decoded natively; every other container is
// normalized to WAV by an ffmpeg subprocess first, so the rest of the
// pipeline only ever sees the same native-decode shape.
package audioload

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/go-audio/wav"

	"github.com/hubenschmidt/speakscore-engine/internal/apperr"
)

// DecodeWAV reads a WAV byte slice into mono float32 samples in [-1, 1],
// downmixing multi-channel audio by averaging channels. Extends the
// teacher's encode-only internal/audio/wav.go with the decoder it lacked.
func DecodeWAV(data []byte) ([]float32, int, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, 0, apperr.New(apperr.KindUnsupportedFmt, "not a valid WAV file")
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, apperr.Wrap(apperr.KindUnsupportedFmt, "decode WAV PCM data", err)
	}
	if buf.Format == nil || buf.Format.NumChannels <= 0 {
		return nil, 0, apperr.New(apperr.KindUnsupportedFmt, "WAV missing channel format")
	}

	channels := buf.Format.NumChannels
	maxVal := float64(int(1) << (buf.SourceBitDepth - 1))
	if buf.SourceBitDepth == 0 {
		maxVal = math.MaxInt16
	}

	frames := len(buf.Data) / channels
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c])
		}
		samples[i] = float32((sum / float64(channels)) / maxVal)
	}

	return samples, buf.Format.SampleRate, nil
}

// EncodeWAV encodes mono float32 PCM samples as 16-bit WAV bytes.
// Generalizes the teacher's internal/audio/wav.go SamplesToWAV (unchanged
// format, reused verbatim) for building STT/aligner request bodies.
func EncodeWAV(samples []float32, sampleRate int) []byte {
	dataLen := len(samples) * 2
	totalLen := 44 + dataLen

	buf := make([]byte, totalLen)
	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(totalLen-8))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataLen))

	for i, s := range samples {
		clamped := s
		if clamped > 1.0 {
			clamped = 1.0
		}
		if clamped < -1.0 {
			clamped = -1.0
		}
		val := int16(clamped * math.MaxInt16)
		binary.LittleEndian.PutUint16(buf[44+i*2:], uint16(val))
	}

	return buf
}

// Duration returns the playback duration in seconds for samples at sampleRate.
func Duration(samples []float32, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(len(samples)) / float64(sampleRate)
}

