package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aiamplify/Link2Social-Studio-App-sub001/generator"
	"github.com/aiamplify/Link2Social-Studio-App-sub001/schedule"
)

// generationTimeout bounds one full plan+render run; the pipeline has no
// internal cancellation, so this is the only ceiling.
const generationTimeout = 5 * time.Minute

type Server struct {
	pipeline *generator.Pipeline
	sched    *schedule.Store
	store    *sessionStore
	logger   *zap.Logger
}

// sessionStore keeps generation sessions and their progress lines.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*sessionRecord
}

type sessionRecord struct {
	session  *generator.Session
	progress []string
}

func newStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*sessionRecord)}
}

func (s *sessionStore) set(id string, rec *sessionRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = rec
}

func (s *sessionStore) get(id string) (*sessionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[id]
	return rec, ok
}

func (s *sessionStore) appendProgress(id, stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.sessions[id]; ok {
		rec.progress = append(rec.progress, stage)
	}
}

func (s *sessionStore) progressOf(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.sessions[id]
	if !ok {
		return nil
	}
	out := make([]string, len(rec.progress))
	copy(out, rec.progress)
	return out
}

func New(pipeline *generator.Pipeline, sched *schedule.Store, logger *zap.Logger) (*Server, error) {
	if pipeline == nil {
		return nil, errors.New("generation pipeline required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		pipeline: pipeline,
		sched:    sched,
		store:    newStore(),
		logger:   logger,
	}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generations", s.handleGenerationCreate)
	mux.HandleFunc("/api/generations/", s.handleGenerationByID)
	mux.HandleFunc("/api/articles", s.handleArticleCreate)
	mux.HandleFunc("/api/schedule", s.handleSchedule)
	return s.logMiddleware(mux)
}

// --- Handlers ---

type generationCreateReq struct {
	SourceType string   `json:"source_type"`
	Source     string   `json:"source"`
	Platforms  []string `json:"platforms"`
	SlideCount int      `json:"slide_count"`
	Style      string   `json:"style"`
	Tone       string   `json:"tone"`
	Language   string   `json:"language"`
}

type artifactResp struct {
	Index  int    `json:"index"`
	Brief  string `json:"brief"`
	Status string `json:"status"`
	MIME   string `json:"mime,omitempty"`
	Data   []byte `json:"data,omitempty"`
}

type captionResp struct {
	Platform string `json:"platform"`
	Content  string `json:"content"`
	Limit    int    `json:"limit"`
}

type generationResp struct {
	SessionID string         `json:"session_id"`
	Slides    []artifactResp `json:"slides"`
	Captions  []captionResp  `json:"captions"`
	Caption   string         `json:"caption"`
	Progress  []string       `json:"progress"`
}

func (s *Server) handleGenerationCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req generationCreateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	platforms := make([]generator.Platform, 0, len(req.Platforms))
	for _, p := range req.Platforms {
		platforms = append(platforms, generator.Platform(p))
	}

	id := uuid.NewString()
	genReq := generator.CarouselRequest{
		Source: generator.Source{
			Kind:  sourceKind(req.SourceType),
			Value: req.Source,
		},
		Platforms:  platforms,
		SlideCount: req.SlideCount,
		Style:      generator.Style(req.Style),
		Tone:       generator.Tone(req.Tone),
		Language:   generator.Language(req.Language),
		OnProgress: func(stage string) { s.store.appendProgress(id, stage) },
	}

	sess := generator.NewSession(id, genReq, s.pipeline)
	s.store.set(id, &sessionRecord{session: sess})

	ctx, cancel := context.WithTimeout(r.Context(), generationTimeout)
	defer cancel()
	result, err := sess.Propose(ctx)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, s.generationResp(id, result))
}

func (s *Server) handleGenerationByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/generations/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	rec, ok := s.store.get(id)
	if !ok {
		http.Error(w, "generation not found", http.StatusNotFound)
		return
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		writeJSON(w, s.generationResp(id, rec.session.Result))
	case action == "revise" && r.Method == http.MethodPost:
		s.handleRevise(w, r, id, rec)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type reviseReq struct {
	Platform string `json:"platform"`
	Feedback string `json:"feedback"`
}

func (s *Server) handleRevise(w http.ResponseWriter, r *http.Request, id string, rec *sessionRecord) {
	var req reviseReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()
	if _, err := rec.session.ReviseCaption(ctx, generator.Platform(req.Platform), req.Feedback); err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, s.generationResp(id, rec.session.Result))
}

type articleCreateReq struct {
	SourceType   string `json:"source_type"`
	Source       string `json:"source"`
	Instructions string `json:"instructions"`
	Length       string `json:"length"`
	ImageCount   int    `json:"image_count"`
	Style        string `json:"style"`
	Language     string `json:"language"`
}

type articleResp struct {
	Title    string         `json:"title"`
	Subtitle string         `json:"subtitle"`
	Content  string         `json:"content"`
	Visuals  []artifactResp `json:"visuals"`
}

func (s *Server) handleArticleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req articleCreateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), generationTimeout)
	defer cancel()
	result, err := s.pipeline.GenerateArticle(ctx, generator.ArticleRequest{
		Source:       generator.Source{Kind: sourceKind(req.SourceType), Value: req.Source},
		Instructions: req.Instructions,
		Length:       generator.Length(req.Length),
		ImageCount:   req.ImageCount,
		Style:        generator.Style(req.Style),
		Language:     generator.Language(req.Language),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, articleResp{
		Title:    result.Title,
		Subtitle: result.Subtitle,
		Content:  result.Content,
		Visuals:  artifactResps(result.Visuals),
	})
}

type scheduleReq struct {
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Platform  string    `json:"platform"`
	PublishAt time.Time `json:"publish_at"`
	Images    [][]byte  `json:"images,omitempty"`
	Hashtags  []string  `json:"hashtags,omitempty"`
	SourceRef string    `json:"source_ref,omitempty"`
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	if s.sched == nil {
		http.Error(w, "scheduling is not configured", http.StatusNotImplemented)
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, s.sched.List())
	case http.MethodPost:
		var req scheduleReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		post, err := s.sched.Schedule(schedule.Params{
			Title:     req.Title,
			Content:   req.Content,
			Platform:  generator.Platform(req.Platform),
			PublishAt: req.PublishAt,
			Images:    req.Images,
			Hashtags:  req.Hashtags,
			SourceRef: req.SourceRef,
		})
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, post)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// --- Helpers ---

func sourceKind(s string) generator.SourceKind {
	switch s {
	case "url":
		return generator.SourceURL
	case "text":
		return generator.SourceText
	default:
		return generator.SourceTopic
	}
}

func (s *Server) generationResp(id string, result *generator.CarouselResult) generationResp {
	resp := generationResp{SessionID: id, Progress: s.store.progressOf(id)}
	if result == nil {
		return resp
	}
	resp.Slides = artifactResps(result.Slides)
	resp.Caption = result.Caption
	for _, post := range result.Captions {
		resp.Captions = append(resp.Captions, captionResp{
			Platform: string(post.Platform),
			Content:  post.Content,
			Limit:    post.Limit.Characters,
		})
	}
	return resp
}

func artifactResps(artifacts []generator.Artifact) []artifactResp {
	out := make([]artifactResp, 0, len(artifacts))
	for _, a := range artifacts {
		out = append(out, artifactResp{
			Index:  a.Index,
			Brief:  a.Brief,
			Status: string(a.Status),
			MIME:   a.MIME,
			Data:   a.Data,
		})
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)))
	})
}
