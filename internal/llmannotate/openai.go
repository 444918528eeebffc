package llmannotate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"github.com/hubenschmidt/speakscore-engine/internal/apperr"
	"github.com/hubenschmidt/speakscore-engine/internal/engine"
	"github.com/hubenschmidt/speakscore-engine/internal/prompts"
)

// OpenAIClient extracts an LLMAnnotation via a single non-streaming Chat
// Completions call constrained by response_format: json_schema. Unlike the
// teacher's AgentLLM (internal/pipeline/llm_agent.go), this is a one-shot
// structured extraction, not a multi-turn conversational agent, so it talks
// to openai-go directly rather than through openai-agents-go.
type OpenAIClient struct {
	client  openai.Client
	model   string
	hasAuth bool
}

// NewOpenAIClient builds an OpenAIClient for the given API key and model.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   model,
		hasAuth: apiKey != "",
	}
}

func (c *OpenAIClient) Annotate(ctx context.Context, transcript string, speechCtx engine.SpeechContext) (*engine.LLMAnnotation, error) {
	if c == nil || !c.hasAuth {
		return nil, apperr.New(apperr.KindConfiguration, "openai client not configured: missing API key")
	}
	if err := requireTranscript(transcript); err != nil {
		return nil, err
	}

	schema, err := Schema()
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "build annotation schema", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(reqCtx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompts.AnnotationSystem("")),
			openai.UserMessage(prompts.ForTranscript(transcript, string(speechCtx))),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   "llm_annotation",
					Schema: schema,
					Strict: openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, "openai annotation request", err)
	}
	if len(resp.Choices) == 0 {
		return nil, apperr.New(apperr.KindUpstream, "openai returned no choices")
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)
	var ann engine.LLMAnnotation
	if err := json.Unmarshal([]byte(content), &ann); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "decode openai annotation JSON", err)
	}
	if err := validate(&ann); err != nil {
		return nil, err
	}
	return &ann, nil
}
