package alignclient

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

// HTTPClient talks to a WhisperX-style forced-alignment server over
// multipart/form-data: the audio as a WAV file part, the STT word list as
// a JSON part. Same transport shape as sttclient.HTTPClient.
type HTTPClient struct {
	url    string
	client *http.Client
}

// NewHTTPClient builds an HTTPClient pointing at an alignment server.
func NewHTTPClient(url string, pool httpkit.Pool) *HTTPClient {
	return &HTTPClient{url: url, client: httpkit.NewPooledClient(pool)}
}

func (c *HTTPClient) Align(ctx context.Context, samples []float32, sampleRate int, words []engine.WordRecord, opts Options) (*Result, error) {
	start := time.Now()

	body, contentType, err := buildAlignRequest(samples, sampleRate, words, opts)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "build alignment request body", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/align", body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "create alignment request", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "alignment request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperr.New(apperr.KindUpstream, fmt.Sprintf("alignment status %d: %s", resp.StatusCode, errBody))
	}

	var parsed alignResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "decode alignment response", err)
	}

	result := &Result{LatencyMs: float64(time.Since(start).Milliseconds())}
	for _, w := range parsed.Words {
		result.Words = append(result.Words, engine.WordRecord{
			Word:       w.Word,
			Start:      w.Start,
			End:        w.End,
			Confidence: w.Score,
		})
	}
	return result, nil
}

type alignResponse struct {
	Words []alignedWord `json:"words"`
}

type alignedWord struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Score float64 `json:"score"`
}

func buildAlignRequest(samples []float32, sampleRate int, words []engine.WordRecord, opts Options) (*bytes.Buffer, string, error) {
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

	wordsJSON, err := json.Marshal(words)
	if err != nil {
		return nil, "", fmt.Errorf("marshal words: %w", err)
	}
	if err := writer.WriteField("words", string(wordsJSON)); err != nil {
		return nil, "", fmt.Errorf("write words field: %w", err)
	}

	lang := opts.Language
	if lang == "" {
		lang = "en"
	}
	_ = writer.WriteField("language", lang)

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close writer: %w", err)
	}
	return &body, writer.FormDataContentType(), nil
}
