package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiamplify/Link2Social-Studio-App-sub001/generator"
	"github.com/aiamplify/Link2Social-Studio-App-sub001/publisher"
)

// fakeAdapter scripts one platform's posting outcome.
type fakeAdapter struct {
	platform generator.Platform
	err      error
	posted   []string
}

func (f *fakeAdapter) Platform() generator.Platform { return f.platform }

func (f *fakeAdapter) Post(_ context.Context, text string, _ [][]byte) (*publisher.PostResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.posted = append(f.posted, text)
	return &publisher.PostResult{Success: true, PostID: "pp-1"}, nil
}

func TestRunnerPublishesDuePosts(t *testing.T) {
	store, err := Open("")
	require.NoError(t, err)
	post, err := store.Schedule(testParams(time.Now().Add(-time.Minute)))
	require.NoError(t, err)

	adapter := &fakeAdapter{platform: generator.PlatformTwitter}
	runner := NewRunner(store, []publisher.Adapter{adapter}, nil, time.Minute)
	runner.ProcessDue(context.Background(), time.Now())

	require.Equal(t, []string{"We launched! #go"}, adapter.posted)
	got, _ := store.Get(post.ID)
	assert.Equal(t, StatusPosted, got.Status)
	assert.Equal(t, "pp-1", got.PostID)
}

func TestRunnerRequeuesFailedPosts(t *testing.T) {
	store, err := Open("")
	require.NoError(t, err)
	post, err := store.Schedule(testParams(time.Now().Add(-time.Minute)))
	require.NoError(t, err)

	adapter := &fakeAdapter{platform: generator.PlatformTwitter, err: errors.New("network down")}
	runner := NewRunner(store, []publisher.Adapter{adapter}, nil, time.Minute)
	runner.ProcessDue(context.Background(), time.Now())

	got, _ := store.Get(post.ID)
	assert.Equal(t, StatusScheduled, got.Status, "attempts remain, so the post requeues")
	assert.Equal(t, 1, got.Retries)
	assert.Equal(t, "network down", got.LastError)
}

func TestRunnerFailsPostsWithoutAdapter(t *testing.T) {
	store, err := Open("")
	require.NoError(t, err)
	params := testParams(time.Now().Add(-time.Minute))
	params.Platform = generator.PlatformInstagram
	post, err := store.Schedule(params)
	require.NoError(t, err)

	runner := NewRunner(store, nil, nil, time.Minute)
	runner.ProcessDue(context.Background(), time.Now())

	got, _ := store.Get(post.ID)
	assert.Equal(t, StatusFailed, got.Status)
}
