package sttclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/hubenschmidt/speakscore-engine/internal/apperr"
	"github.com/hubenschmidt/speakscore-engine/internal/audioload"
	"github.com/hubenschmidt/speakscore-engine/internal/engine"
	"github.com/hubenschmidt/speakscore-engine/internal/httpkit"
)

// HTTPClient talks to a whisper.cpp-style transcription server over
// multipart/form-data, generalized from the teacher's ASRClient
// (internal/pipeline/asr.go) to decode the full per-word timing/confidence
// shape instead of a bare .Text string.
type HTTPClient struct {
	url    string
	client *http.Client
}

// NewHTTPClient builds an HTTPClient pointing at a whisper-family server.
func NewHTTPClient(url string, pool httpkit.Pool) *HTTPClient {
	return &HTTPClient{url: url, client: httpkit.NewPooledClient(pool)}
}

func (c *HTTPClient) Transcribe(ctx context.Context, samples []float32, sampleRate int, opts Options) (*Result, error) {
	start := time.Now()

	body, contentType, err := buildMultipartAudio(samples, sampleRate, opts)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "build stt request body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/inference", body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "create stt request", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "stt request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperr.New(apperr.KindUpstream, fmt.Sprintf("stt status %d: %s", resp.StatusCode, errBody))
	}

	var whisperResp whisperResponse
	if err := json.NewDecoder(resp.Body).Decode(&whisperResp); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "decode stt response", err)
	}

	result := &Result{LatencyMs: float64(time.Since(start).Milliseconds())}
	for _, seg := range whisperResp.Segments {
		segRecord := engine.SegmentRecord{Text: seg.Text, Start: seg.Start, End: seg.End}
		var confSum float64
		for _, w := range seg.Words {
			word := engine.WordRecord{Word: w.Word, Start: w.Start, End: w.End, Confidence: w.Probability}
			result.Words = append(result.Words, word)
			confSum += w.Probability
		}
		if len(seg.Words) > 0 {
			segRecord.AvgWordConfidence = confSum / float64(len(seg.Words))
		}
		result.Segments = append(result.Segments, segRecord)
	}

	return result, nil
}

type whisperResponse struct {
	Segments []whisperSegment `json:"segments"`
}

type whisperSegment struct {
	Text  string        `json:"text"`
	Start float64       `json:"start"`
	End   float64       `json:"end"`
	Words []whisperWord `json:"words"`
}

type whisperWord struct {
	Word        string  `json:"word"`
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Probability float64 `json:"probability"`
}

func buildMultipartAudio(samples []float32, sampleRate int, opts Options) (*bytes.Buffer, string, error) {
	wavData := audioload.EncodeWAV(samples, sampleRate)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "audio.wav")
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return nil, "", fmt.Errorf("write wav data: %w", err)
	}

	_ = writer.WriteField("word_timestamps", "true")
	lang := opts.Language
	if lang == "" {
		lang = "en"
	}
	_ = writer.WriteField("language", lang)
	if opts.Prompt != "" {
		_ = writer.WriteField("initial_prompt", opts.Prompt)
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close writer: %w", err)
	}
	return &body, writer.FormDataContentType(), nil
}
