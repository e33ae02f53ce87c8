// Package gateway is the persistence boundary of the site: SQLite rows for
// projects, blog posts and contact messages, and a filesystem bucket for
// uploaded images.
package gateway

import (
	"github.com/eringen/folio/content"
	"go.uber.org/zap"
)

// Config locates the database and upload bucket.
type Config struct {
	DatabasePath string
	UploadsDir   string
	// BaseURL prefixes blob URLs. Empty yields root-relative URLs.
	BaseURL string
}

// Gateway combines the row store and the blob bucket.
type Gateway struct {
	*Store
	*Bucket
}

var _ content.Gateway = (*Gateway)(nil)

// Open opens the database and prepares the bucket described by cfg.
func Open(cfg Config, logger *zap.Logger) (*Gateway, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("gateway")
	store, err := NewStore(cfg.DatabasePath, logger)
	if err != nil {
		return nil, err
	}
	return &Gateway{
		Store:  store,
		Bucket: NewBucket(cfg.UploadsDir, cfg.BaseURL, logger),
	}, nil
}
