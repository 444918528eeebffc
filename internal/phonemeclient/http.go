package phonemeclient

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/hubenschmidt/speakscore-engine/internal/apperr"
	"github.com/hubenschmidt/speakscore-engine/internal/httpkit"
)

// HTTPClient posts raw little-endian float32 PCM to a Wav2Vec2-style
// phoneme detection sidecar, same wire shape as the teacher's
// ClassifyClient.ClassifyEmotion.
type HTTPClient struct {
	url    string
	client *http.Client
}

// NewHTTPClient builds an HTTPClient pointing at a phoneme detector sidecar.
func NewHTTPClient(url string, pool httpkit.Pool) *HTTPClient {
	return &HTTPClient{url: url, client: httpkit.NewPooledClient(pool)}
}

func (c *HTTPClient) Detect(ctx context.Context, samples []float32, sampleRate int) (*Result, error) {
	start := time.Now()

	buf := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/phonemes", bytes.NewReader(buf))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "create phoneme request", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("X-Sample-Rate", fmt.Sprintf("%d", sampleRate))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "phoneme request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperr.New(apperr.KindUpstream, fmt.Sprintf("phoneme status %d: %s", resp.StatusCode, body))
	}

	var parsed phonemeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "decode phoneme response", err)
	}

	return &Result{
		Frames:     parsed.Frames,
		IsMonotone: parsed.IsMonotone,
		LatencyMs:  float64(time.Since(start).Milliseconds()),
	}, nil
}

type phonemeResponse struct {
	Frames     []Frame `json:"frames"`
	IsMonotone bool    `json:"is_monotone"`
}
