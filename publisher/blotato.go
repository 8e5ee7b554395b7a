package publisher

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/aiamplify/Link2Social-Studio-App-sub001/generator"
)

const defaultBlotatoBaseURL = "https://backend.blotato.com"

// Blotato is a posting aggregator: one API key, one account id per
// connected platform. BlotatoAdapter implements Adapter for a single
// platform through it.
type BlotatoAdapter struct {
	platform  generator.Platform
	accountID string
	apiKey    string
	baseURL   string
	client    *http.Client
	logger    *zap.Logger
}

// NewBlotatoAdapter builds the adapter for one platform's account.
func NewBlotatoAdapter(cfg *BlotatoConfig, platform generator.Platform, client *http.Client, logger *zap.Logger) (*BlotatoAdapter, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("blotato config must include api_key")
	}
	accountID := cfg.AccountIDs[string(platform)]
	if accountID == "" {
		return nil, fmt.Errorf("blotato config has no account id for platform %s", platform)
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBlotatoBaseURL
	}
	return &BlotatoAdapter{
		platform:  platform,
		accountID: accountID,
		apiKey:    cfg.APIKey,
		baseURL:   baseURL,
		client:    client,
		logger:    logger,
	}, nil
}

func (b *BlotatoAdapter) Platform() generator.Platform { return b.platform }

type blotatoMediaPayload struct {
	URL string `json:"url"`
}

type blotatoMediaResp struct {
	URL     string `json:"url"`
	Message string `json:"message,omitempty"`
}

type blotatoPostPayload struct {
	Post blotatoPost `json:"post"`
}

type blotatoPost struct {
	AccountID string         `json:"accountId"`
	Target    blotatoTarget  `json:"target"`
	Content   blotatoContent `json:"content"`
}

type blotatoTarget struct {
	TargetType string `json:"targetType"`
}

type blotatoContent struct {
	Text      string   `json:"text"`
	Platform  string   `json:"platform"`
	MediaURLs []string `json:"mediaUrls"`
}

type blotatoPostResp struct {
	PostID  string `json:"postId,omitempty"`
	PostURL string `json:"postUrl,omitempty"`
	Message string `json:"message,omitempty"`
}

// Post uploads the images to Blotato's media store and then creates the
// platform post referencing them.
func (b *BlotatoAdapter) Post(ctx context.Context, text string, images [][]byte) (*PostResult, error) {
	mediaURLs := make([]string, 0, len(images))
	for i, img := range images {
		url, err := b.uploadMedia(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("upload image %d: %w", i+1, err)
		}
		mediaURLs = append(mediaURLs, url)
	}

	payload := blotatoPostPayload{
		Post: blotatoPost{
			AccountID: b.accountID,
			Target:    blotatoTarget{TargetType: string(b.platform)},
			Content: blotatoContent{
				Text:      text,
				Platform:  string(b.platform),
				MediaURLs: mediaURLs,
			},
		},
	}

	var data blotatoPostResp
	if err := b.doJSON(ctx, "/v2/posts", payload, &data); err != nil {
		return nil, err
	}
	b.logger.Info("published post via blotato",
		zap.String("platform", string(b.platform)),
		zap.String("post_id", data.PostID))

	return &PostResult{
		Success: true,
		PostID:  data.PostID,
		PostURL: data.PostURL,
		Message: data.Message,
	}, nil
}

// uploadMedia stores one image and returns its hosted URL. Bytes go up as
// a data URL; Blotato fetches and rehosts them.
func (b *BlotatoAdapter) uploadMedia(ctx context.Context, img []byte) (string, error) {
	payload := blotatoMediaPayload{
		URL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(img),
	}
	var data blotatoMediaResp
	if err := b.doJSON(ctx, "/v2/media", payload, &data); err != nil {
		return "", err
	}
	if data.URL == "" {
		return "", fmt.Errorf("blotato media upload returned no url: %s", data.Message)
	}
	return data.URL, nil
}

func (b *BlotatoAdapter) doJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", b.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("blotato-api-key", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("blotato %s failed: %d %s", path, resp.StatusCode, bytes.TrimSpace(msg))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
