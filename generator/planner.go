package generator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// PlanningError means no usable plan exists: the one case where the whole
// request fails instead of degrading.
type PlanningError struct {
	Reason string
	Err    error
}

func (e *PlanningError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("planning failed: %s: %v", e.Reason, e.Err)
	}
	return "planning failed: " + e.Reason
}

func (e *PlanningError) Unwrap() error { return e.Err }

// plan issues the single planning call and decodes it into a ContentPlan.
// Caption problems degrade to placeholders; only a fatal call or an empty
// unit list fails the request.
func (p *Pipeline) plan(ctx context.Context, req CarouselRequest) (*ContentPlan, error) {
	emit(req.OnProgress, "Analyzing source and planning content")

	system, user := BuildPlanPrompt(req)
	greq := GenerateRequest{
		System:    system,
		Prompt:    user,
		Mode:      ModeText,
		UseSearch: req.Source.Kind != SourceText,
	}
	if len(req.Image) > 0 {
		greq.Images = [][]byte{req.Image}
	}

	resp, err := Execute(ctx, p.logger, p.retry, func(ctx context.Context) (*GenerateResponse, error) {
		return p.backend.Generate(ctx, greq)
	})
	if err != nil {
		return nil, &PlanningError{Reason: "planning call failed", Err: err}
	}

	doc, err := DecodeModelJSON(resp.Text)
	if err != nil {
		return nil, &PlanningError{Reason: "no render units in response", Err: err}
	}

	slides := doc.Get("slides").Array()
	if len(slides) == 0 {
		return nil, &PlanningError{Reason: "plan contains zero render units"}
	}

	units := make([]RenderUnit, 0, len(slides))
	for i, s := range slides {
		brief := strings.TrimSpace(s.Get("brief").String())
		if brief == "" {
			brief = strings.TrimSpace(s.Get("title").String())
		}
		if brief == "" {
			brief = fmt.Sprintf("Slide %d about %s", i+1, req.Source.Value)
		}
		units = append(units, RenderUnit{
			Index:       i,
			Brief:       brief,
			Title:       strings.TrimSpace(s.Get("title").String()),
			Body:        strings.TrimSpace(s.Get("body").String()),
			AspectRatio: strings.TrimSpace(s.Get("aspect_ratio").String()),
		})
	}

	captions := make(map[Platform]string, len(req.Platforms))
	for _, platform := range req.Platforms {
		c := strings.TrimSpace(doc.Get("captions." + string(platform)).String())
		if c == "" {
			c = placeholderCaption(req.Source, platform)
			p.logger.Warn("caption missing from plan, substituting placeholder",
				zap.String("platform", string(platform)))
		}
		captions[platform] = c
	}

	return &ContentPlan{Units: units, Captions: captions}, nil
}

// placeholderCaption keeps a request alive when the model dropped a
// caption: quality degradation beats total failure.
func placeholderCaption(src Source, platform Platform) string {
	subject := strings.TrimSpace(src.Value)
	if src.Kind == SourceText || subject == "" {
		return "Sharing something new today. Full story in the slides."
	}
	return fmt.Sprintf("Sharing something new about %s. Full story in the slides.", subject)
}
