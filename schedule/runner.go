package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aiamplify/Link2Social-Studio-App-sub001/generator"
	"github.com/aiamplify/Link2Social-Studio-App-sub001/publisher"
)

// defaultMaxAttempts bounds how often one post is retried before it is
// parked as failed.
const defaultMaxAttempts = 3

// Runner ticks over the store and pushes due posts through their platform
// adapters. It lives entirely above the generation pipeline.
type Runner struct {
	store    *Store
	adapters map[generator.Platform]publisher.Adapter
	logger   *zap.Logger
	interval time.Duration
	attempts int
}

func NewRunner(store *Store, adapters []publisher.Adapter, logger *zap.Logger, interval time.Duration) *Runner {
	byPlatform := make(map[generator.Platform]publisher.Adapter, len(adapters))
	for _, a := range adapters {
		byPlatform[a.Platform()] = a
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Runner{
		store:    store,
		adapters: byPlatform,
		logger:   logger,
		interval: interval,
		attempts: defaultMaxAttempts,
	}
}

// Run blocks, processing due posts every tick until the context is done.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			r.ProcessDue(ctx, now)
		}
	}
}

// ProcessDue claims and posts everything whose publish time has passed.
func (r *Runner) ProcessDue(ctx context.Context, now time.Time) {
	for _, post := range r.store.Due(now) {
		adapter, ok := r.adapters[post.Platform]
		if !ok {
			r.logger.Error("no adapter for scheduled post",
				zap.String("post", post.ID),
				zap.String("platform", string(post.Platform)))
			_ = r.store.MarkFailed(post.ID, "no adapter configured for platform", 1)
			continue
		}

		result, err := adapter.Post(ctx, post.Content, post.Images)
		if err != nil {
			r.logger.Warn("scheduled post failed",
				zap.String("post", post.ID),
				zap.String("platform", string(post.Platform)),
				zap.Int("retries", post.Retries+1),
				zap.Error(err))
			_ = r.store.MarkFailed(post.ID, err.Error(), r.attempts)
			continue
		}

		r.logger.Info("scheduled post published",
			zap.String("post", post.ID),
			zap.String("platform", string(post.Platform)),
			zap.String("platform_post_id", result.PostID))
		_ = r.store.MarkPosted(post.ID, result.PostID)
	}
}
