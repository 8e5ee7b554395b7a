package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/aiamplify/Link2Social-Studio-App-sub001/generator"
)

// PlatformBlog is the webhook-backed long-form target.
const PlatformBlog generator.Platform = "blog"

// BlogAdapter posts long-form articles to a configured webhook (a CMS
// ingest endpoint). Markdown is converted to HTML before sending.
type BlogAdapter struct {
	endpoint string
	token    string
	client   *http.Client
}

func NewBlogAdapter(cfg *BlogConfig, client *http.Client) (*BlogAdapter, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, errors.New("blog config must include endpoint")
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &BlogAdapter{endpoint: cfg.Endpoint, token: cfg.Token, client: client}, nil
}

func (b *BlogAdapter) Platform() generator.Platform { return PlatformBlog }

type blogPayload struct {
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	HTML    string `json:"html"`
	Status  string `json:"status"`
}

type blogResp struct {
	ID      string `json:"id,omitempty"`
	URL     string `json:"url,omitempty"`
	Message string `json:"message,omitempty"`
}

// Post sends the markdown text as a draft article. The first markdown
// heading becomes the title; images are ignored here because the webhook
// side owns media handling.
func (b *BlogAdapter) Post(ctx context.Context, text string, _ [][]byte) (*PostResult, error) {
	html, err := MarkdownToHTML(text)
	if err != nil {
		return nil, err
	}

	payload := blogPayload{
		Title:   firstHeading(text),
		Excerpt: Excerpt(text, 160),
		HTML:    html,
		Status:  "draft",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", b.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("blog webhook failed: %d %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var data blogResp
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}
	return &PostResult{Success: true, PostID: data.ID, PostURL: data.URL, Message: data.Message}, nil
}

// MarkdownToHTML converts generated markdown to HTML.
func MarkdownToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// firstHeading returns the first markdown heading line, or "".
func firstHeading(md string) string {
	for _, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			return strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
		}
	}
	return ""
}

// Excerpt takes the first body paragraph, compacted, clipped to limit.
func Excerpt(md string, limit int) string {
	var first string
	for _, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		first = trimmed
		break
	}
	if first == "" {
		first = strings.Join(strings.Fields(md), " ")
	}
	if len(first) <= limit {
		return first
	}
	cut := first[:limit]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut
}
