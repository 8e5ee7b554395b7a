// Package schedule persists generated posts with a future publish time and
// walks them through the scheduled → posting → posted/failed lifecycle.
package schedule

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aiamplify/Link2Social-Studio-App-sub001/generator"
)

// Status is a scheduled post's lifecycle state.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusPosting   Status = "posting"
	StatusPosted    Status = "posted"
	StatusFailed    Status = "failed"
)

// Post is one scheduled platform post.
type Post struct {
	ID        string             `json:"id"`
	Title     string             `json:"title"`
	Content   string             `json:"content"`
	Platform  generator.Platform `json:"platform"`
	PublishAt time.Time          `json:"publish_at"`
	Images    [][]byte           `json:"images,omitempty"`
	Hashtags  []string           `json:"hashtags,omitempty"`
	SourceRef string             `json:"source_ref,omitempty"`

	Status    Status    `json:"status"`
	Retries   int       `json:"retries"`
	LastError string    `json:"last_error,omitempty"`
	PostID    string    `json:"post_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Params is the payload the generation layer hands over for scheduling.
type Params struct {
	Title     string
	Content   string
	Platform  generator.Platform
	PublishAt time.Time
	Images    [][]byte
	Hashtags  []string
	SourceRef string
}

// Store keeps scheduled posts in memory, mirrored to a JSON file when a
// path is configured. All methods are safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	posts map[string]*Post
	path  string
}

// Open loads the store, reading any existing file at path. An empty path
// means memory-only.
func Open(path string) (*Store, error) {
	s := &Store{posts: make(map[string]*Post), path: path}
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, err
	}
	var posts []*Post
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("schedule file %s is corrupt: %w", path, err)
	}
	for _, p := range posts {
		s.posts[p.ID] = p
	}
	return s, nil
}

// Schedule stores a new post in StatusScheduled.
func (s *Store) Schedule(params Params) (*Post, error) {
	if params.Content == "" {
		return nil, errors.New("scheduled post needs content")
	}
	if params.Platform == "" {
		return nil, errors.New("scheduled post needs a platform")
	}
	now := time.Now().UTC()
	post := &Post{
		ID:        uuid.NewString(),
		Title:     params.Title,
		Content:   params.Content,
		Platform:  params.Platform,
		PublishAt: params.PublishAt.UTC(),
		Images:    params.Images,
		Hashtags:  params.Hashtags,
		SourceRef: params.SourceRef,
		Status:    StatusScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[post.ID] = post
	if err := s.persistLocked(); err != nil {
		delete(s.posts, post.ID)
		return nil, err
	}
	return post.clone(), nil
}

// Get returns a copy of one post.
func (s *Store) Get(id string) (*Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, false
	}
	return p.clone(), true
}

// List returns all posts ordered by publish time.
func (s *Store) List() []*Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PublishAt.Before(out[j].PublishAt) })
	return out
}

// Due atomically claims every scheduled post whose publish time has
// passed, moving it to StatusPosting so no other runner picks it up.
func (s *Store) Due(now time.Time) []*Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	var due []*Post
	for _, p := range s.posts {
		if p.Status == StatusScheduled && !p.PublishAt.After(now) {
			p.Status = StatusPosting
			p.UpdatedAt = now.UTC()
			due = append(due, p.clone())
		}
	}
	if len(due) > 0 {
		_ = s.persistLocked()
	}
	sort.Slice(due, func(i, j int) bool { return due[i].PublishAt.Before(due[j].PublishAt) })
	return due
}

// MarkPosted finishes a post's lifecycle successfully.
func (s *Store) MarkPosted(id, platformPostID string) error {
	return s.update(id, func(p *Post) {
		p.Status = StatusPosted
		p.PostID = platformPostID
		p.LastError = ""
	})
}

// MarkFailed records a failed attempt, incrementing the retry counter.
// While attempts remain the post goes back to StatusScheduled.
func (s *Store) MarkFailed(id, message string, maxAttempts int) error {
	return s.update(id, func(p *Post) {
		p.Retries++
		p.LastError = message
		if p.Retries < maxAttempts {
			p.Status = StatusScheduled
		} else {
			p.Status = StatusFailed
		}
	})
}

func (s *Store) update(id string, fn func(*Post)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return fmt.Errorf("scheduled post %s not found", id)
	}
	fn(p)
	p.UpdatedAt = time.Now().UTC()
	return s.persistLocked()
}

func (s *Store) persistLocked() error {
	if s.path == "" {
		return nil
	}
	posts := make([]*Post, 0, len(s.posts))
	for _, p := range s.posts {
		posts = append(posts, p)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.Before(posts[j].CreatedAt) })
	data, err := json.MarshalIndent(posts, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}

func (p *Post) clone() *Post {
	c := *p
	return &c
}
