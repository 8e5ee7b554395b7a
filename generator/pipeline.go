package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Pipeline drives a generation request through plan, render, and fit.
// It owns no state between requests; every request builds fresh values.
type Pipeline struct {
	backend Backend
	logger  *zap.Logger
	retry   RetryPolicy
}

// Option adjusts pipeline construction.
type Option func(*Pipeline)

// WithRetryPolicy overrides the default backend retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(p *Pipeline) { p.retry = policy }
}

// NewPipeline wires a pipeline around a generative backend.
func NewPipeline(backend Backend, logger *zap.Logger, opts ...Option) (*Pipeline, error) {
	if backend == nil {
		return nil, errors.New("generative backend is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{backend: backend, logger: logger, retry: DefaultRetryPolicy}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// GenerateCarousel plans and renders a slide carousel plus one fitted
// caption per requested platform. Individual slide failures degrade to
// error artifacts; only a failed plan rejects the whole request.
func (p *Pipeline) GenerateCarousel(ctx context.Context, req CarouselRequest) (*CarouselResult, error) {
	if strings.TrimSpace(req.Source.Value) == "" {
		return nil, errors.New("generation source is required")
	}
	if len(req.Platforms) == 0 {
		return nil, errors.New("at least one target platform is required")
	}
	if req.SlideCount <= 0 {
		req.SlideCount = 4
	}

	plan, err := p.plan(ctx, req)
	if err != nil {
		return nil, err
	}

	slides := p.renderSlides(ctx, plan.Units, req)
	captions := FitCaptions(plan.Captions)
	emit(req.OnProgress, "Finishing up")

	return &CarouselResult{
		Slides:   slides,
		Captions: captions,
		Caption:  fallbackCaption(req.Platforms, captions),
	}, nil
}

// fallbackCaption picks the single caption legacy callers get: the first
// requested platform's fitted text.
func fallbackCaption(requested []Platform, captions []PlatformPost) string {
	for _, want := range requested {
		for _, post := range captions {
			if post.Platform == want {
				return post.Content
			}
		}
	}
	if len(captions) > 0 {
		return captions[0].Content
	}
	return ""
}

// GenerateArticle produces a long-form post with optional visuals. A
// response missing the expected markers degrades to raw content with a
// synthesized title rather than failing.
func (p *Pipeline) GenerateArticle(ctx context.Context, req ArticleRequest) (*ArticleResult, error) {
	if strings.TrimSpace(req.Source.Value) == "" {
		return nil, errors.New("generation source is required")
	}
	emit(req.OnProgress, "Writing article")

	system, user := BuildArticlePrompt(req)
	resp, err := Execute(ctx, p.logger, p.retry, func(ctx context.Context) (*GenerateResponse, error) {
		return p.backend.Generate(ctx, GenerateRequest{
			System:    system,
			Prompt:    user,
			Mode:      ModeText,
			UseSearch: req.Source.Kind != SourceText,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("article generation failed: %w", err)
	}

	schema := SectionSchema{
		Order:   []string{SectionTitle, SectionSubtitle, SectionContent, SectionImagePrompts},
		Primary: SectionContent,
	}
	sections, degraded := schema.Parse(resp.Text)
	if degraded {
		p.logger.Warn("article response missing content marker, using raw text")
	}

	content := sections[SectionContent]
	title := sections[SectionTitle]
	if title == "" {
		title = DefaultTitle(content, 80)
	}

	var visuals []Artifact
	if req.ImageCount > 0 {
		units := visualUnits(sections[SectionImagePrompts], req.ImageCount, title)
		emit(req.OnProgress, fmt.Sprintf("Rendering %d visuals", len(units)))
		visuals = p.renderVisuals(ctx, units, req.Style)
	}

	return &ArticleResult{
		Title:    title,
		Subtitle: sections[SectionSubtitle],
		Content:  content,
		Visuals:  visuals,
	}, nil
}

// visualUnits turns the model's image-brief lines into render units,
// topping up with generic briefs when the model offered too few.
func visualUnits(briefSection string, count int, title string) []RenderUnit {
	var briefs []string
	for _, line := range strings.Split(briefSection, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(line, "-*0123456789. "))
		if line != "" {
			briefs = append(briefs, line)
		}
	}
	if len(briefs) > count {
		briefs = briefs[:count]
	}
	for len(briefs) < count {
		briefs = append(briefs, fmt.Sprintf("Illustration %d for the post %q", len(briefs)+1, title))
	}

	units := make([]RenderUnit, len(briefs))
	for i, brief := range briefs {
		units[i] = RenderUnit{Index: i, Brief: brief, AspectRatio: "16:9"}
	}
	return units
}
