package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Turn records one caption revision driven by user feedback.
type Turn struct {
	Platform  Platform
	Feedback  string
	Caption   string
	CreatedAt time.Time
}

// Session holds one generation request and its result across revision
// rounds, so a user can refine captions without re-planning the carousel.
type Session struct {
	ID      string
	Request CarouselRequest
	Result  *CarouselResult
	History []Turn

	pipeline *Pipeline
}

// NewSession creates a session; nothing is generated yet.
func NewSession(id string, req CarouselRequest, pipeline *Pipeline) *Session {
	return &Session{ID: id, Request: req, pipeline: pipeline}
}

// Propose runs the full pipeline and stores the first result.
func (s *Session) Propose(ctx context.Context) (*CarouselResult, error) {
	result, err := s.pipeline.GenerateCarousel(ctx, s.Request)
	if err != nil {
		return nil, err
	}
	s.Result = result
	return result, nil
}

// ReviseCaption rewrites one platform's caption from feedback with a
// single text call and refits it. Slides are untouched.
func (s *Session) ReviseCaption(ctx context.Context, platform Platform, feedback string) (string, error) {
	if s.Result == nil {
		return "", errors.New("nothing generated yet")
	}
	idx := -1
	for i, post := range s.Result.Captions {
		if post.Platform == platform {
			idx = i
			break
		}
	}
	if idx < 0 {
		return "", fmt.Errorf("no caption for platform %s in this session", platform)
	}

	system, user := BuildRevisionPrompt(platform, s.Result.Captions[idx].Content, feedback, s.Request.Tone)
	resp, err := Execute(ctx, s.pipeline.logger, s.pipeline.retry, func(ctx context.Context) (*GenerateResponse, error) {
		return s.pipeline.backend.Generate(ctx, GenerateRequest{System: system, Prompt: user, Mode: ModeText})
	})
	if err != nil {
		return "", err
	}

	caption := Fit(strings.TrimSpace(resp.Text), s.Result.Captions[idx].Limit)
	s.Result.Captions[idx].Content = caption
	if idx == 0 || s.Result.Caption == "" {
		s.Result.Caption = caption
	}
	s.History = append(s.History, Turn{
		Platform:  platform,
		Feedback:  feedback,
		Caption:   caption,
		CreatedAt: time.Now(),
	})
	return caption, nil
}
