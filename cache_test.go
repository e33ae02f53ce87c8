package folio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/folio/content"
)

type countingSource struct {
	calls    int
	projects []content.Project
	posts    []content.BlogPost
	err      error
}

func (s *countingSource) ListPublishedProjects(context.Context) ([]content.Project, error) {
	s.calls++
	return s.projects, s.err
}

func (s *countingSource) ListPublishedPosts(context.Context) ([]content.BlogPost, error) {
	return s.posts, s.err
}

func TestPublishedCacheServesFromMemory(t *testing.T) {
	src := &countingSource{
		projects: []content.Project{{ID: "p1"}},
		posts:    []content.BlogPost{{ID: "b1", Slug: "hello"}},
	}
	cache := NewPublishedCache(src, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		projects, err := cache.Projects(ctx)
		require.NoError(t, err)
		assert.Len(t, projects, 1)
	}
	assert.Equal(t, 1, src.calls)

	post, err := cache.Post(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "b1", post.ID)

	_, err = cache.Post(ctx, "missing")
	assert.ErrorIs(t, err, content.ErrNotFound)
}

func TestPublishedCacheInvalidate(t *testing.T) {
	src := &countingSource{projects: []content.Project{}, posts: []content.BlogPost{}}
	cache := NewPublishedCache(src, time.Minute)
	ctx := context.Background()

	_, _ = cache.Posts(ctx)
	cache.Invalidate()
	_, _ = cache.Posts(ctx)
	assert.Equal(t, 2, src.calls)
}

func TestPublishedCacheExpires(t *testing.T) {
	src := &countingSource{projects: []content.Project{}, posts: []content.BlogPost{}}
	cache := NewPublishedCache(src, 10*time.Millisecond)
	ctx := context.Background()

	_, _ = cache.Projects(ctx)
	time.Sleep(20 * time.Millisecond)
	_, _ = cache.Projects(ctx)
	assert.Equal(t, 2, src.calls)
}

func TestPublishedCacheError(t *testing.T) {
	boom := errors.New("offline")
	cache := NewPublishedCache(&countingSource{err: boom}, time.Minute)
	_, err := cache.Posts(context.Background())
	assert.ErrorIs(t, err, boom)
}
