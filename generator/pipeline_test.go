package generator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedBackend routes each call through a handler and records every
// request so tests can assert call counts and ordering.
type scriptedBackend struct {
	mu      sync.Mutex
	calls   []GenerateRequest
	handler func(call int, req GenerateRequest) (*GenerateResponse, error)
}

func (s *scriptedBackend) Generate(_ context.Context, req GenerateRequest) (*GenerateResponse, error) {
	s.mu.Lock()
	call := len(s.calls)
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	return s.handler(call, req)
}

func (s *scriptedBackend) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func testPipeline(t *testing.T, backend Backend) *Pipeline {
	t.Helper()
	p, err := NewPipeline(backend, zap.NewNop(), WithRetryPolicy(fastPolicy(3)))
	require.NoError(t, err)
	return p
}

const planJSON = `{
  "slides": [
    {"brief": "A rocket on a launchpad", "title": "Launch day", "body": "It begins"},
    {"brief": "A dashboard of metrics", "title": "The numbers", "body": "Up and to the right"}
  ],
  "captions": {
    "twitter": "We launched today! Read the whole story in the carousel. #launch #startup",
    "linkedin": "Today we shipped the thing we have been building for a year."
  }
}`

func planThenImages(planText string) func(int, GenerateRequest) (*GenerateResponse, error) {
	return func(call int, req GenerateRequest) (*GenerateResponse, error) {
		if call == 0 {
			return &GenerateResponse{Text: planText}, nil
		}
		return &GenerateResponse{ImageData: []byte(req.Prompt), ImageMIME: "image/png"}, nil
	}
}

func carouselRequest(progress ProgressFunc) CarouselRequest {
	return CarouselRequest{
		Source:     Source{Kind: SourceTopic, Value: "our product launch"},
		Platforms:  []Platform{PlatformTwitter, PlatformLinkedIn},
		OnProgress: progress,
	}
}

func TestGenerateCarousel(t *testing.T) {
	backend := &scriptedBackend{handler: planThenImages(planJSON)}
	var progress []string
	var progressMu sync.Mutex
	record := func(stage string) {
		progressMu.Lock()
		progress = append(progress, stage)
		progressMu.Unlock()
	}

	result, err := testPipeline(t, backend).GenerateCarousel(context.Background(), carouselRequest(record))
	require.NoError(t, err)

	require.Len(t, result.Slides, 2)
	for i, slide := range result.Slides {
		assert.Equal(t, i, slide.Index)
		assert.Equal(t, ArtifactComplete, slide.Status)
		assert.NotEmpty(t, slide.Data)
	}
	// Slide prompts carry the plan's briefs in order.
	assert.Contains(t, string(result.Slides[0].Data), "A rocket on a launchpad")
	assert.Contains(t, string(result.Slides[1].Data), "A dashboard of metrics")

	require.Len(t, result.Captions, 2)
	for _, post := range result.Captions {
		assert.LessOrEqual(t, len(post.Content), post.Limit.Characters)
	}
	// The legacy fallback caption follows the requested platform order.
	assert.Contains(t, result.Caption, "We launched today!")

	assert.Equal(t, 3, backend.callCount(), "one plan call plus one call per unit")
	assert.Equal(t, []string{
		"Analyzing source and planning content",
		"Rendering slide 1/2",
		"Rendering slide 2/2",
		"Finishing up",
	}, progress)
}

func TestGenerateCarouselRejectsOnFatalPlanningError(t *testing.T) {
	fatal := &BackendError{Status: 400, Message: "prompt was rejected"}
	backend := &scriptedBackend{handler: func(int, GenerateRequest) (*GenerateResponse, error) {
		return nil, fatal
	}}

	_, err := testPipeline(t, backend).GenerateCarousel(context.Background(), carouselRequest(nil))

	require.Error(t, err)
	var perr *PlanningError
	require.True(t, errors.As(err, &perr))
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, backend.callCount(), "no render calls after a failed plan")
}

func TestGenerateCarouselRejectsZeroUnits(t *testing.T) {
	backend := &scriptedBackend{handler: planThenImages(`{"slides": [], "captions": {}}`)}

	_, err := testPipeline(t, backend).GenerateCarousel(context.Background(), carouselRequest(nil))

	var perr *PlanningError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 1, backend.callCount())
}

func TestGenerateCarouselRejectsUnparseablePlan(t *testing.T) {
	backend := &scriptedBackend{handler: planThenImages("I am sorry, I cannot produce JSON today.")}

	_, err := testPipeline(t, backend).GenerateCarousel(context.Background(), carouselRequest(nil))

	var perr *PlanningError
	require.True(t, errors.As(err, &perr))
	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestGenerateCarouselSubstitutesPlaceholderCaptions(t *testing.T) {
	backend := &scriptedBackend{handler: planThenImages(`{"slides": [{"brief": "one slide"}]}`)}

	result, err := testPipeline(t, backend).GenerateCarousel(context.Background(), carouselRequest(nil))
	require.NoError(t, err)

	require.Len(t, result.Captions, 2)
	for _, post := range result.Captions {
		assert.NotEmpty(t, post.Content, "caption degradation must not leave a platform empty")
		assert.LessOrEqual(t, len(post.Content), post.Limit.Characters)
	}
}

func TestGenerateCarouselIsolatesUnitFailures(t *testing.T) {
	fourSlides := `{"slides": [{"brief":"s1"},{"brief":"s2"},{"brief":"s3"},{"brief":"s4"}],
		"captions": {"twitter": "caption", "linkedin": "caption"}}`
	backend := &scriptedBackend{handler: func(call int, req GenerateRequest) (*GenerateResponse, error) {
		if call == 0 {
			return &GenerateResponse{Text: fourSlides}, nil
		}
		if strings.Contains(req.Prompt, "s3") {
			return nil, &BackendError{Status: 400, Message: "content policy refusal"}
		}
		return &GenerateResponse{ImageData: []byte{1}, ImageMIME: "image/png"}, nil
	}}

	result, err := testPipeline(t, backend).GenerateCarousel(context.Background(), carouselRequest(nil))
	require.NoError(t, err, "a single failed unit never fails the request")

	require.Len(t, result.Slides, 4)
	for i, slide := range result.Slides {
		assert.Equal(t, i, slide.Index)
		if i == 2 {
			assert.Equal(t, ArtifactError, slide.Status)
			assert.Nil(t, slide.Data)
		} else {
			assert.Equal(t, ArtifactComplete, slide.Status)
			assert.NotEmpty(t, slide.Data)
		}
	}
}

func TestGenerateCarouselRetriesTransientRenderErrors(t *testing.T) {
	fourSlides := `{"slides": [{"brief":"s1"},{"brief":"s2"},{"brief":"s3"},{"brief":"s4"}],
		"captions": {"twitter": "caption", "linkedin": "caption"}}`
	var failures int
	var failMu sync.Mutex
	backend := &scriptedBackend{handler: func(call int, req GenerateRequest) (*GenerateResponse, error) {
		if call == 0 {
			return &GenerateResponse{Text: fourSlides}, nil
		}
		if strings.Contains(req.Prompt, "s3") {
			failMu.Lock()
			defer failMu.Unlock()
			if failures < 2 {
				failures++
				return nil, &BackendError{Status: 503, Message: "model overloaded"}
			}
		}
		return &GenerateResponse{ImageData: []byte{1}, ImageMIME: "image/png"}, nil
	}}

	logger, logs := observedLogger()
	p, err := NewPipeline(backend, logger, WithRetryPolicy(fastPolicy(3)))
	require.NoError(t, err)

	result, err := p.GenerateCarousel(context.Background(), carouselRequest(nil))
	require.NoError(t, err)

	require.Len(t, result.Slides, 4)
	for _, slide := range result.Slides {
		assert.Equal(t, ArtifactComplete, slide.Status, "unit %d", slide.Index)
	}
	assert.Equal(t, 2, logs.Len(), "two retries leave two warnings")
	assert.Equal(t, 1+4+2, backend.callCount())
}

func TestGenerateCarouselValidation(t *testing.T) {
	p := testPipeline(t, &scriptedBackend{handler: planThenImages(planJSON)})

	_, err := p.GenerateCarousel(context.Background(), CarouselRequest{
		Platforms: []Platform{PlatformTwitter},
	})
	assert.Error(t, err, "empty source")

	_, err = p.GenerateCarousel(context.Background(), CarouselRequest{
		Source: Source{Kind: SourceTopic, Value: "something"},
	})
	assert.Error(t, err, "no platforms")
}

func TestGenerateArticle(t *testing.T) {
	articleText := Marker(SectionTitle) + " Why We Ship Weekly\n" +
		Marker(SectionSubtitle) + " Small batches beat big bangs\n" +
		Marker(SectionContent) + "\n## Context\n\nShipping weekly keeps feedback loops short.\n" +
		Marker(SectionImagePrompts) + "\nA calendar with weekly marks\nA short feedback loop diagram\n"

	backend := &scriptedBackend{handler: func(call int, req GenerateRequest) (*GenerateResponse, error) {
		if req.Mode == ModeImage {
			return &GenerateResponse{ImageData: []byte(req.Prompt), ImageMIME: "image/png"}, nil
		}
		return &GenerateResponse{Text: articleText}, nil
	}}

	result, err := testPipeline(t, backend).GenerateArticle(context.Background(), ArticleRequest{
		Source:     Source{Kind: SourceTopic, Value: "shipping cadence"},
		ImageCount: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, "Why We Ship Weekly", result.Title)
	assert.Equal(t, "Small batches beat big bangs", result.Subtitle)
	assert.Contains(t, result.Content, "feedback loops short")

	require.Len(t, result.Visuals, 2)
	// Parallel rendering must keep index association intact.
	assert.Equal(t, 0, result.Visuals[0].Index)
	assert.Contains(t, string(result.Visuals[0].Data), "A calendar with weekly marks")
	assert.Equal(t, 1, result.Visuals[1].Index)
	assert.Contains(t, string(result.Visuals[1].Data), "A short feedback loop diagram")
}

func TestGenerateArticleDegradesOnMissingMarkers(t *testing.T) {
	backend := &scriptedBackend{handler: func(int, GenerateRequest) (*GenerateResponse, error) {
		return &GenerateResponse{Text: "Plain prose without any markers.\nSecond line."}, nil
	}}

	result, err := testPipeline(t, backend).GenerateArticle(context.Background(), ArticleRequest{
		Source: Source{Kind: SourceText, Value: "some pasted text"},
	})
	require.NoError(t, err, "a formatting miss never fails the request")

	assert.Equal(t, "Plain prose without any markers.\nSecond line.", result.Content)
	assert.Equal(t, "Plain prose without any markers.", result.Title)
	assert.Empty(t, result.Visuals)
}

func TestGenerateArticleFatalError(t *testing.T) {
	backend := &scriptedBackend{handler: func(int, GenerateRequest) (*GenerateResponse, error) {
		return nil, &BackendError{Status: 400, Message: "blocked"}
	}}

	_, err := testPipeline(t, backend).GenerateArticle(context.Background(), ArticleRequest{
		Source: Source{Kind: SourceTopic, Value: "anything"},
	})
	require.Error(t, err)
	assert.Equal(t, 1, backend.callCount())
}

func TestSessionReviseCaption(t *testing.T) {
	revised := "A tighter caption after feedback. " + strings.Repeat("More words here. ", 20) + "#launch"
	backend := &scriptedBackend{handler: func(call int, req GenerateRequest) (*GenerateResponse, error) {
		if call == 0 {
			return &GenerateResponse{Text: planJSON}, nil
		}
		if req.Mode == ModeImage {
			return &GenerateResponse{ImageData: []byte{1}, ImageMIME: "image/png"}, nil
		}
		return &GenerateResponse{Text: revised}, nil
	}}

	sess := NewSession("s1", carouselRequest(nil), testPipeline(t, backend))
	_, err := sess.Propose(context.Background())
	require.NoError(t, err)

	got, err := sess.ReviseCaption(context.Background(), PlatformTwitter, "make it punchier")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(got), LimitFor(PlatformTwitter).Characters, "revisions are refit")
	require.Len(t, sess.History, 1)
	assert.Equal(t, PlatformTwitter, sess.History[0].Platform)

	_, err = sess.ReviseCaption(context.Background(), Platform("myspace"), "nope")
	assert.Error(t, err)
}

func TestPlaceholderCaptionMentionsSubject(t *testing.T) {
	got := placeholderCaption(Source{Kind: SourceTopic, Value: "urban beekeeping"}, PlatformTwitter)
	assert.Contains(t, got, "urban beekeeping")

	blob := placeholderCaption(Source{Kind: SourceText, Value: "a long pasted document"}, PlatformTwitter)
	assert.NotContains(t, blob, "a long pasted document", "raw text blobs never leak into placeholders")
}

func TestVisualUnitsTopUp(t *testing.T) {
	units := visualUnits("- first brief\n", 3, "The Post")
	require.Len(t, units, 3)
	assert.Equal(t, "first brief", units[0].Brief)
	for i, u := range units {
		assert.Equal(t, i, u.Index)
		assert.NotEmpty(t, u.Brief)
	}

	capped := visualUnits("a\nb\nc\nd", 2, "The Post")
	require.Len(t, capped, 2)
	assert.Equal(t, "a", capped[0].Brief)
}
