package llmannotate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hubenschmidt/speakscore-engine/internal/apperr"
	"github.com/hubenschmidt/speakscore-engine/internal/engine"
	"github.com/hubenschmidt/speakscore-engine/internal/httpkit"
	"github.com/hubenschmidt/speakscore-engine/internal/prompts"
)

// AnthropicClient extracts an LLMAnnotation from the Messages API. Adapted
// from the teacher's streaming AnthropicLLMClient (internal/pipeline/
// llm_anthropic.go): this is a single non-streaming call (stream: false)
// since the whole JSON object must be parsed before it is usable, and the
// schema is embedded in the system prompt rather than passed as a
// response_format (the Messages API has no native structured-output mode).
type AnthropicClient struct {
	apiKey string
	url    string
	model  string
	client *http.Client
}

// NewAnthropicClient builds an AnthropicClient for the given API key, base
// URL, and model.
func NewAnthropicClient(apiKey, url, model string) *AnthropicClient {
	return &AnthropicClient{
		apiKey: apiKey,
		url:    url,
		model:  model,
		client: httpkit.NewPooledClient(httpkit.Pool{Size: 8, Timeout: 60 * time.Second}),
	}
}

func (c *AnthropicClient) Annotate(ctx context.Context, transcript string, speechCtx engine.SpeechContext) (*engine.LLMAnnotation, error) {
	if c == nil || c.apiKey == "" {
		return nil, apperr.New(apperr.KindConfiguration, "anthropic client not configured: missing API key")
	}
	if err := requireTranscript(transcript); err != nil {
		return nil, err
	}

	schemaJSON, err := SchemaJSON()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "build annotation schema", err)
	}

	body, err := json.Marshal(anthropicAnnotateRequest{
		Model:     c.model,
		MaxTokens: 1024,
		System:    prompts.AnnotationSystem(schemaJSON),
		Messages: []anthropicAnnotateMessage{
			{Role: "user", Content: prompts.ForTranscript(transcript, string(speechCtx))},
		},
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "marshal anthropic annotation request", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.url+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "create anthropic annotation request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "anthropic annotation request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, apperr.New(apperr.KindUpstream, fmt.Sprintf("anthropic status %d: %s", resp.StatusCode, errBody))
	}

	var parsed anthropicAnnotateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "decode anthropic response envelope", err)
	}
	if len(parsed.Content) == 0 {
		return nil, apperr.New(apperr.KindUpstream, "anthropic returned no content blocks")
	}

	content := stripCodeFence(parsed.Content[0].Text)
	var ann engine.LLMAnnotation
	if err := json.Unmarshal([]byte(content), &ann); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "decode anthropic annotation JSON", err)
	}
	if err := validate(&ann); err != nil {
		return nil, err
	}
	return &ann, nil
}

type anthropicAnnotateRequest struct {
	Model     string                     `json:"model"`
	MaxTokens int                        `json:"max_tokens"`
	System    string                     `json:"system,omitempty"`
	Messages  []anthropicAnnotateMessage `json:"messages"`
}

type anthropicAnnotateMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicAnnotateResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}
