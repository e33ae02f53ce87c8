package folio

import (
	"context"
	"sync"
	"time"

	"github.com/eringen/folio/content"
)

// PublishedSource reads the publicly visible content.
type PublishedSource interface {
	ListPublishedProjects(ctx context.Context) ([]content.Project, error)
	ListPublishedPosts(ctx context.Context) ([]content.BlogPost, error)
}

// PublishedCache is an in-memory cache of published projects and posts with TTL.
type PublishedCache struct {
	mu       sync.RWMutex
	projects []content.Project
	posts    []content.BlogPost
	loaded   bool
	fetched  time.Time
	ttl      time.Duration
	src      PublishedSource
}

// NewPublishedCache creates a PublishedCache backed by src.
func NewPublishedCache(src PublishedSource, ttl time.Duration) *PublishedCache {
	return &PublishedCache{src: src, ttl: ttl}
}

func (c *PublishedCache) valid() bool {
	return c.loaded && time.Since(c.fetched) < c.ttl
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (c *PublishedCache) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.projects = nil
	c.posts = nil
	c.mu.Unlock()
}

func (c *PublishedCache) load(ctx context.Context) error {
	if c.valid() {
		return nil
	}
	projects, err := c.src.ListPublishedProjects(ctx)
	if err != nil {
		return err
	}
	posts, err := c.src.ListPublishedPosts(ctx)
	if err != nil {
		return err
	}
	c.projects = projects
	c.posts = posts
	c.loaded = true
	c.fetched = time.Now()
	return nil
}

// ensureLoaded returns cached content after ensuring the cache is fresh.
// It tries a read lock first and only takes the write lock to reload.
func (c *PublishedCache) ensureLoaded(ctx context.Context) ([]content.Project, []content.BlogPost, error) {
	c.mu.RLock()
	if c.valid() {
		projects, posts := c.projects, c.posts
		c.mu.RUnlock()
		return projects, posts, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.load(ctx); err != nil {
		return nil, nil, err
	}
	return c.projects, c.posts, nil
}

// Projects returns published projects, newest first.
func (c *PublishedCache) Projects(ctx context.Context) ([]content.Project, error) {
	projects, _, err := c.ensureLoaded(ctx)
	return projects, err
}

// Posts returns published posts, newest first.
func (c *PublishedCache) Posts(ctx context.Context) ([]content.BlogPost, error) {
	_, posts, err := c.ensureLoaded(ctx)
	return posts, err
}

// Post returns the published post with slug, or content.ErrNotFound.
func (c *PublishedCache) Post(ctx context.Context, slug string) (content.BlogPost, error) {
	_, posts, err := c.ensureLoaded(ctx)
	if err != nil {
		return content.BlogPost{}, err
	}
	for _, p := range posts {
		if p.Slug == slug {
			return p, nil
		}
	}
	return content.BlogPost{}, content.ErrNotFound
}
