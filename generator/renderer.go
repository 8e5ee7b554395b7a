package generator

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// renderSlides renders carousel units one at a time. Slides share the one
// rate-limited image endpoint, so sequential iteration keeps backpressure
// predictable and the i/N progress line honest. A failed unit becomes an
// error artifact; the loop never aborts.
func (p *Pipeline) renderSlides(ctx context.Context, units []RenderUnit, req CarouselRequest) []Artifact {
	artifacts := make([]Artifact, len(units))
	for i, unit := range units {
		prompt := BuildSlidePrompt(unit, req.Style, req.Language)
		artifacts[i] = p.renderOne(ctx, unit, prompt)
		emit(req.OnProgress, fmt.Sprintf("Rendering slide %d/%d", i+1, len(units)))
	}
	return artifacts
}

// renderVisuals renders independent article visuals concurrently. Each
// artifact slot is written by exactly one task, so index association holds
// even though completion order does not.
func (p *Pipeline) renderVisuals(ctx context.Context, units []RenderUnit, style Style) []Artifact {
	artifacts := make([]Artifact, len(units))
	g, ctx := errgroup.WithContext(ctx)
	for i, unit := range units {
		g.Go(func() error {
			artifacts[i] = p.renderOne(ctx, unit, BuildVisualPrompt(unit.Brief, style))
			return nil
		})
	}
	_ = g.Wait()
	return artifacts
}

// renderOne issues a single resilient image call for a unit. Any terminal
// failure degrades to an error artifact with nil data.
func (p *Pipeline) renderOne(ctx context.Context, unit RenderUnit, prompt string) Artifact {
	resp, err := Execute(ctx, p.logger, p.retry, func(ctx context.Context) (*GenerateResponse, error) {
		return p.backend.Generate(ctx, GenerateRequest{Prompt: prompt, Mode: ModeImage})
	})
	if err == nil && len(resp.ImageData) == 0 {
		err = &BackendError{Message: "backend returned no image data"}
	}
	if err != nil {
		p.logger.Warn("render unit failed, continuing with remaining units",
			zap.Int("unit", unit.Index),
			zap.Error(err))
		return Artifact{Index: unit.Index, Brief: unit.Brief, Status: ArtifactError}
	}

	mime := resp.ImageMIME
	if mime == "" {
		mime = "image/png"
	}
	return Artifact{
		Index:  unit.Index,
		Brief:  unit.Brief,
		Data:   resp.ImageData,
		MIME:   mime,
		Status: ArtifactComplete,
	}
}
