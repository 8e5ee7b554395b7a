package generator

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIBackend implements Backend on the official openai-go SDK (chat
// completions). Text mode only; DeepSeek and other OpenAI-compatible
// gateways plug in through BaseURL.
type OpenAIBackend struct {
	Model string
	Opts  []option.RequestOption
}

func NewOpenAIBackendFromConfig(cfg *BackendSettings) (*OpenAIBackend, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; provide llm.api_key")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIBackend{Model: cfg.Model, Opts: opts}, nil
}

func (o *OpenAIBackend) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if req.Mode == ModeImage {
		return nil, &BackendError{Message: "image generation is not supported by the openai provider"}
	}
	if len(req.Images) > 0 {
		return nil, &BackendError{Message: "image attachments are not supported by the openai provider"}
	}

	client := openai.NewClient(o.Opts...)

	msgs := []openai.ChatCompletionMessageParamUnion{}
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	msgs = append(msgs, openai.UserMessage(req.Prompt))

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.Model),
		Messages: msgs,
	})
	if err != nil {
		return nil, wrapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &BackendError{Message: "openai returned empty choices"}
	}
	return &GenerateResponse{Text: resp.Choices[0].Message.Content}, nil
}

func wrapOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return &BackendError{Status: apiErr.StatusCode, Message: apiErr.Error()}
	}
	return &BackendError{Message: err.Error()}
}
