package publisher

import (
	"context"

	"github.com/aiamplify/Link2Social-Studio-App-sub001/generator"
)

// PostResult reports the outcome of one platform post.
type PostResult struct {
	Success bool
	PostID  string
	PostURL string
	Message string
}

// Adapter posts finished text plus images to one platform. Adapters are
// never called by the generation pipeline; the server and the schedule
// runner compose them on top of it.
type Adapter interface {
	Platform() generator.Platform
	Post(ctx context.Context, text string, images [][]byte) (*PostResult, error)
}
