package generator

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
)

// mockPixel is a 1x1 transparent PNG, enough for local runs and tests.
var mockPixel, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

// MockBackend is a deterministic stand-in for local debugging: no network,
// no model. Text calls return a canned plan or article matched to the
// prompt shape; image calls return a one-pixel PNG.
type MockBackend struct{}

func (m MockBackend) Generate(_ context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if req.Mode == ModeImage {
		return &GenerateResponse{ImageData: mockPixel, ImageMIME: "image/png"}, nil
	}
	if strings.Contains(req.Prompt, `"slides"`) {
		return &GenerateResponse{Text: mockPlanJSON(req.Prompt)}, nil
	}
	return &GenerateResponse{Text: mockArticle()}, nil
}

func mockPlanJSON(prompt string) string {
	var sb strings.Builder
	sb.WriteString(`{"slides":[`)
	for i := 0; i < 4; i++ {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(fmt.Sprintf(`{"brief":"Mock scene %d","title":"Mock title %d","body":"Mock body %d"}`, i+1, i+1, i+1))
	}
	sb.WriteString(`],"captions":{`)
	first := true
	for _, p := range []Platform{PlatformTwitter, PlatformLinkedIn, PlatformInstagram, PlatformFacebook, PlatformTikTok} {
		if !strings.Contains(prompt, string(p)) {
			continue
		}
		if !first {
			sb.WriteByte(',')
		}
		first = false
		sb.WriteString(fmt.Sprintf(`"%s":"Mock caption for %s. #mock #demo"`, p, p))
	}
	sb.WriteString(`}}`)
	return sb.String()
}

func mockArticle() string {
	var sb strings.Builder
	sb.WriteString(Marker(SectionTitle) + " A Mock Article\n")
	sb.WriteString(Marker(SectionSubtitle) + " Generated without calling any model\n")
	sb.WriteString(Marker(SectionContent) + "\n## Overview\n\nThis is placeholder long-form content for local runs.\n")
	sb.WriteString(Marker(SectionImagePrompts) + "\nA mock hero illustration\nA mock diagram\n")
	return sb.String()
}
