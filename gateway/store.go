package gateway

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/eringen/folio/content"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so created_at sorts lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store is the SQLite row store behind the three content collections.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates missing tables.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA foreign_keys=ON;
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS projects (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    published INTEGER NOT NULL DEFAULT 0,
    image_url TEXT,
    technologies TEXT NOT NULL DEFAULT '[]',
    github_url TEXT,
    demo_url TEXT,
    created_at TEXT NOT NULL,
    user_id TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_projects_created_at ON projects(created_at);

CREATE TABLE IF NOT EXISTS blog_posts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    excerpt TEXT NOT NULL,
    published INTEGER NOT NULL DEFAULT 0,
    image_url TEXT,
    slug TEXT NOT NULL UNIQUE,
    created_at TEXT NOT NULL,
    user_id TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_blog_posts_created_at ON blog_posts(created_at);

CREATE TABLE IF NOT EXISTS contact_messages (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    subject TEXT NOT NULL,
    message TEXT NOT NULL,
    read INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL
);
`)
	return err
}

// fail logs err and wraps it for the caller.
func (s *Store) fail(op, collection string, err error) error {
	s.logger.Warn("storage call failed",
		zap.String("op", op),
		zap.String("collection", collection),
		zap.Error(err))
	return &content.StorageError{Op: op, Collection: collection, Err: err}
}

type scanner interface {
	Scan(dest ...any) error
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// --- projects ---

const projectColumns = `id, title, description, published, image_url, technologies, github_url, demo_url, created_at, user_id`

func scanProject(row scanner) (content.Project, error) {
	var (
		p                            content.Project
		published                    int
		imageURL, githubURL, demoURL sql.NullString
		technologies, createdAt      string
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &published, &imageURL, &technologies, &githubURL, &demoURL, &createdAt, &p.UserID); err != nil {
		return content.Project{}, err
	}
	if err := json.Unmarshal([]byte(technologies), &p.Technologies); err != nil {
		return content.Project{}, fmt.Errorf("decode technologies: %w", err)
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return content.Project{}, fmt.Errorf("parse created_at: %w", err)
	}
	p.Published = published == 1
	p.ImageURL = imageURL.String
	p.GithubURL = githubURL.String
	p.DemoURL = demoURL.String
	p.CreatedAt = t
	return p, nil
}

func (s *Store) queryProjects(ctx context.Context, query string, args ...any) ([]content.Project, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []content.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ListProjects returns every project, newest first.
func (s *Store) ListProjects(ctx context.Context) ([]content.Project, error) {
	s.logger.Debug("list projects")
	projects, err := s.queryProjects(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, s.fail("list", content.CollectionProjects, err)
	}
	return projects, nil
}

// ListPublishedProjects returns published projects, newest first.
func (s *Store) ListPublishedProjects(ctx context.Context) ([]content.Project, error) {
	projects, err := s.queryProjects(ctx, `SELECT `+projectColumns+` FROM projects WHERE published = 1 ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, s.fail("list published", content.CollectionProjects, err)
	}
	return projects, nil
}

// InsertProject stores p under a new id and creation time.
func (s *Store) InsertProject(ctx context.Context, p content.Project) (content.Project, error) {
	p.ID = s.newID()
	p.CreatedAt = s.now()
	if p.Technologies == nil {
		p.Technologies = []string{}
	}
	s.logger.Debug("insert project", zap.String("id", p.ID))

	technologies, err := json.Marshal(p.Technologies)
	if err != nil {
		return content.Project{}, s.fail("insert", content.CollectionProjects, err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Description, boolInt(p.Published), nullable(p.ImageURL), string(technologies),
		nullable(p.GithubURL), nullable(p.DemoURL), formatTime(p.CreatedAt), p.UserID)
	if err != nil {
		return content.Project{}, s.fail("insert", content.CollectionProjects, err)
	}
	return p, nil
}

// UpdateProject writes every editable field of patch over project id.
func (s *Store) UpdateProject(ctx context.Context, id string, patch content.ProjectPatch) (content.Project, error) {
	s.logger.Debug("update project", zap.String("id", id))
	if patch.Technologies == nil {
		patch.Technologies = []string{}
	}
	technologies, err := json.Marshal(patch.Technologies)
	if err != nil {
		return content.Project{}, s.fail("update", content.CollectionProjects, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return content.Project{}, s.fail("update", content.CollectionProjects, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE projects SET title = ?, description = ?, published = ?, image_url = ?, technologies = ?, github_url = ?, demo_url = ? WHERE id = ?`,
		patch.Title, patch.Description, boolInt(patch.Published), nullable(patch.ImageURL), string(technologies),
		nullable(patch.GithubURL), nullable(patch.DemoURL), id)
	if err != nil {
		return content.Project{}, s.fail("update", content.CollectionProjects, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return content.Project{}, s.fail("update", content.CollectionProjects, err)
	} else if n == 0 {
		return content.Project{}, s.fail("update", content.CollectionProjects, content.ErrNotFound)
	}

	p, err := scanProject(tx.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err != nil {
		return content.Project{}, s.fail("update", content.CollectionProjects, err)
	}
	if err := tx.Commit(); err != nil {
		return content.Project{}, s.fail("update", content.CollectionProjects, err)
	}
	return p, nil
}

// RemoveProject deletes project id. A missing id is reported as ErrNotFound.
func (s *Store) RemoveProject(ctx context.Context, id string) error {
	s.logger.Debug("remove project", zap.String("id", id))
	return s.remove(ctx, content.CollectionProjects, id)
}

func (s *Store) remove(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+collection+` WHERE id = ?`, id)
	if err != nil {
		return s.fail("delete", collection, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return s.fail("delete", collection, err)
	}
	if n == 0 {
		return s.fail("delete", collection, content.ErrNotFound)
	}
	return nil
}

// --- blog posts ---

const postColumns = `id, title, content, excerpt, published, image_url, slug, created_at, user_id`

func scanPost(row scanner) (content.BlogPost, error) {
	var (
		p         content.BlogPost
		published int
		imageURL  sql.NullString
		createdAt string
	)
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Excerpt, &published, &imageURL, &p.Slug, &createdAt, &p.UserID); err != nil {
		return content.BlogPost{}, err
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return content.BlogPost{}, fmt.Errorf("parse created_at: %w", err)
	}
	p.Published = published == 1
	p.ImageURL = imageURL.String
	p.CreatedAt = t
	return p, nil
}

func (s *Store) queryPosts(ctx context.Context, query string, args ...any) ([]content.BlogPost, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []content.BlogPost{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ListPosts returns every post, newest first.
func (s *Store) ListPosts(ctx context.Context) ([]content.BlogPost, error) {
	s.logger.Debug("list posts")
	posts, err := s.queryPosts(ctx, `SELECT `+postColumns+` FROM blog_posts ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, s.fail("list", content.CollectionPosts, err)
	}
	return posts, nil
}

// ListPublishedPosts returns published posts, newest first.
func (s *Store) ListPublishedPosts(ctx context.Context) ([]content.BlogPost, error) {
	posts, err := s.queryPosts(ctx, `SELECT `+postColumns+` FROM blog_posts WHERE published = 1 ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, s.fail("list published", content.CollectionPosts, err)
	}
	return posts, nil
}

// uniqueSlug returns slug, or slug with the first free numeric suffix when
// another post already holds it.
func uniqueSlug(ctx context.Context, tx *sql.Tx, slug, excludeID string) (string, error) {
	if slug == "" {
		slug = "post"
	}
	candidate := slug
	for counter := 1; ; {
		var taken int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM blog_posts WHERE slug = ? AND id != ?`, candidate, excludeID).Scan(&taken)
		if err != nil {
			return "", err
		}
		if taken == 0 {
			return candidate, nil
		}
		counter++
		candidate = fmt.Sprintf("%s-%d", slug, counter)
	}
}

// InsertPost stores p under a new id and creation time. The stored slug may
// carry a numeric suffix if p.Slug is already in use.
func (s *Store) InsertPost(ctx context.Context, p content.BlogPost) (content.BlogPost, error) {
	p.ID = s.newID()
	p.CreatedAt = s.now()
	s.logger.Debug("insert post", zap.String("id", p.ID), zap.String("slug", p.Slug))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return content.BlogPost{}, s.fail("insert", content.CollectionPosts, err)
	}
	defer tx.Rollback()

	if p.Slug, err = uniqueSlug(ctx, tx, p.Slug, p.ID); err != nil {
		return content.BlogPost{}, s.fail("insert", content.CollectionPosts, err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO blog_posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Content, p.Excerpt, boolInt(p.Published), nullable(p.ImageURL), p.Slug,
		formatTime(p.CreatedAt), p.UserID)
	if err != nil {
		return content.BlogPost{}, s.fail("insert", content.CollectionPosts, err)
	}
	if err := tx.Commit(); err != nil {
		return content.BlogPost{}, s.fail("insert", content.CollectionPosts, err)
	}
	return p, nil
}

// UpdatePost writes every editable field of patch over post id.
func (s *Store) UpdatePost(ctx context.Context, id string, patch content.PostPatch) (content.BlogPost, error) {
	s.logger.Debug("update post", zap.String("id", id), zap.String("slug", patch.Slug))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return content.BlogPost{}, s.fail("update", content.CollectionPosts, err)
	}
	defer tx.Rollback()

	slug, err := uniqueSlug(ctx, tx, patch.Slug, id)
	if err != nil {
		return content.BlogPost{}, s.fail("update", content.CollectionPosts, err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE blog_posts SET title = ?, content = ?, excerpt = ?, published = ?, image_url = ?, slug = ? WHERE id = ?`,
		patch.Title, patch.Content, patch.Excerpt, boolInt(patch.Published), nullable(patch.ImageURL), slug, id)
	if err != nil {
		return content.BlogPost{}, s.fail("update", content.CollectionPosts, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return content.BlogPost{}, s.fail("update", content.CollectionPosts, err)
	} else if n == 0 {
		return content.BlogPost{}, s.fail("update", content.CollectionPosts, content.ErrNotFound)
	}

	p, err := scanPost(tx.QueryRowContext(ctx, `SELECT `+postColumns+` FROM blog_posts WHERE id = ?`, id))
	if err != nil {
		return content.BlogPost{}, s.fail("update", content.CollectionPosts, err)
	}
	if err := tx.Commit(); err != nil {
		return content.BlogPost{}, s.fail("update", content.CollectionPosts, err)
	}
	return p, nil
}

// RemovePost deletes post id. A missing id is reported as ErrNotFound.
func (s *Store) RemovePost(ctx context.Context, id string) error {
	s.logger.Debug("remove post", zap.String("id", id))
	return s.remove(ctx, content.CollectionPosts, id)
}

// --- contact messages ---

// InsertContactMessage stores m as unread under a new id and creation time.
func (s *Store) InsertContactMessage(ctx context.Context, m content.ContactMessage) (content.ContactMessage, error) {
	m.ID = s.newID()
	m.CreatedAt = s.now()
	m.Read = false
	s.logger.Debug("insert contact message", zap.String("id", m.ID))

	_, err := s.db.ExecContext(ctx, `INSERT INTO contact_messages (id, name, email, subject, message, read, created_at) VALUES (?, ?, ?, ?, ?, 0, ?)`,
		m.ID, m.Name, m.Email, m.Subject, m.Message, formatTime(m.CreatedAt))
	if err != nil {
		return content.ContactMessage{}, s.fail("insert", content.CollectionContactMessages, err)
	}
	return m, nil
}

// ListContactMessages returns every contact message, newest first.
func (s *Store) ListContactMessages(ctx context.Context) ([]content.ContactMessage, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, email, subject, message, read, created_at FROM contact_messages ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, s.fail("list", content.CollectionContactMessages, err)
	}
	defer rows.Close()

	messages := []content.ContactMessage{}
	for rows.Next() {
		var (
			m         content.ContactMessage
			read      int
			createdAt string
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &read, &createdAt); err != nil {
			return nil, s.fail("list", content.CollectionContactMessages, err)
		}
		if m.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, s.fail("list", content.CollectionContactMessages, err)
		}
		m.Read = read == 1
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("list", content.CollectionContactMessages, err)
	}
	return messages, nil
}
