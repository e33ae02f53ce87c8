// Package content holds the portfolio domain: projects, blog posts, contact
// messages, and the admin workspace that edits them through a Gateway.
package content

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Collection names in the backing data service.
const (
	CollectionProjects        = "projects"
	CollectionPosts           = "blog_posts"
	CollectionContactMessages = "contact_messages"
)

// ImageBucket is the blob bucket that holds uploaded project and post images.
const ImageBucket = "portfolio-images"

// Project is a portfolio entry shown on the projects page.
type Project struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Published    bool      `json:"published"`
	ImageURL     string    `json:"image_url,omitempty"`
	Technologies []string  `json:"technologies"`
	GithubURL    string    `json:"github_url,omitempty"`
	DemoURL      string    `json:"demo_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UserID       string    `json:"user_id"`
}

// ProjectPatch carries every editable project field. Updates replace all of them.
type ProjectPatch struct {
	Title        string
	Description  string
	Published    bool
	ImageURL     string
	Technologies []string
	GithubURL    string
	DemoURL      string
}

// Apply returns p with the patch fields written over it.
func (pp ProjectPatch) Apply(p Project) Project {
	p.Title = pp.Title
	p.Description = pp.Description
	p.Published = pp.Published
	p.ImageURL = pp.ImageURL
	p.Technologies = pp.Technologies
	p.GithubURL = pp.GithubURL
	p.DemoURL = pp.DemoURL
	return p
}

// BlogPost is an article on the blog. Slug is always derived from Title.
type BlogPost struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Excerpt   string    `json:"excerpt"`
	Published bool      `json:"published"`
	ImageURL  string    `json:"image_url,omitempty"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UserID    string    `json:"user_id"`
}

// PostPatch carries every editable post field.
type PostPatch struct {
	Title     string
	Content   string
	Excerpt   string
	Published bool
	ImageURL  string
	Slug      string
}

// Apply returns p with the patch fields written over it.
func (pp PostPatch) Apply(p BlogPost) BlogPost {
	p.Title = pp.Title
	p.Content = pp.Content
	p.Excerpt = pp.Excerpt
	p.Published = pp.Published
	p.ImageURL = pp.ImageURL
	p.Slug = pp.Slug
	return p
}

// ContactMessage is a submission from the public contact form.
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// User is the signed-in administrator. It is never mutated by this package.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// NewUser returns the user for email with a stable id derived from the address.
func NewUser(email string) User {
	email = strings.ToLower(strings.TrimSpace(email))
	return User{
		ID:    uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String(),
		Email: email,
	}
}

// Valid reports whether u identifies a signed-in user.
func (u User) Valid() bool {
	return u.ID != ""
}
