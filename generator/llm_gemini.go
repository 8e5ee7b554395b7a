package generator

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"
)

const (
	defaultGeminiModel      = "gemini-2.5-flash"
	defaultGeminiImageModel = "gemini-2.5-flash-image"
)

// GeminiBackend implements Backend on the google.golang.org/genai SDK.
// It is the only provider with both search grounding and image output.
type GeminiBackend struct {
	client     *genai.Client
	model      string
	imageModel string
}

func NewGeminiBackendFromConfig(ctx context.Context, cfg *BackendSettings) (*GeminiBackend, error) {
	if cfg == nil {
		return nil, errors.New("llm config is nil")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("gemini api key missing; provide llm.api_key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	imageModel := cfg.ImageModel
	if imageModel == "" {
		imageModel = defaultGeminiImageModel
	}
	return &GeminiBackend{client: client, model: model, imageModel: imageModel}, nil
}

func (g *GeminiBackend) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	for _, img := range req.Images {
		parts = append(parts, genai.NewPartFromBytes(img, "image/png"))
	}
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: parts}}

	config := &genai.GenerateContentConfig{}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(req.System)}}
	}
	if req.UseSearch {
		config.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}

	model := g.model
	if req.Mode == ModeImage {
		model = g.imageModel
		config.ResponseModalities = []string{"TEXT", "IMAGE"}
		// Search grounding is not supported on image models.
		config.Tools = nil
	}

	resp, err := g.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, wrapGeminiError(err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, &BackendError{Message: "gemini returned no candidates"}
	}

	out := &GenerateResponse{}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			text.WriteString(part.Text)
		}
		if part.InlineData != nil && len(part.InlineData.Data) > 0 && out.ImageData == nil {
			out.ImageData = part.InlineData.Data
			out.ImageMIME = part.InlineData.MIMEType
		}
	}
	out.Text = strings.TrimSpace(text.String())

	if req.Mode == ModeImage && out.ImageData == nil {
		return nil, &BackendError{Message: "gemini returned no image data"}
	}
	return out, nil
}

// wrapGeminiError lifts the SDK error into a BackendError so the retry
// executor can classify it by status code.
func wrapGeminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &BackendError{Status: apiErr.Code, Message: apiErr.Message}
	}
	return &BackendError{Message: err.Error()}
}
