package content

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Status is the value of the draft/published selector on the edit forms.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Published reports whether s selects the published state.
func (s Status) Published() bool {
	return s == StatusPublished
}

// Attachment is a file sent with a form.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Empty reports whether no file content was attached.
func (a *Attachment) Empty() bool {
	return a == nil || len(a.Data) == 0
}

// DataURL returns the attachment inlined as a data: URL.
func (a *Attachment) DataURL() string {
	ct := a.ContentType
	if ct == "" {
		ct = http.DetectContentType(a.Data)
	}
	return "data:" + ct + ";base64," + base64.StdEncoding.EncodeToString(a.Data)
}

// ProjectForm is the project edit form as submitted.
type ProjectForm struct {
	Title        string      `validate:"required"`
	Description  string      `validate:"required"`
	Technologies string      `validate:"required"`
	Status       Status      `validate:"omitempty,oneof=draft published"`
	ImageURL     string
	ImageFile    *Attachment `validate:"-"`
	GithubURL    string
	DemoURL      string
}

// CreateProjectRequest creates a new project owned by the workspace user.
type CreateProjectRequest struct {
	ProjectForm
}

// UpdateProjectRequest replaces the editable fields of an existing project.
type UpdateProjectRequest struct {
	ID string `validate:"required"`
	ProjectForm
}

// PostForm is the blog post edit form as submitted.
type PostForm struct {
	Title     string      `validate:"required"`
	Excerpt   string      `validate:"required"`
	Content   string      `validate:"required"`
	Status    Status      `validate:"omitempty,oneof=draft published"`
	ImageURL  string
	ImageFile *Attachment `validate:"-"`
}

// CreatePostRequest creates a new blog post owned by the workspace user.
type CreatePostRequest struct {
	PostForm
}

// UpdatePostRequest replaces the editable fields of an existing post.
type UpdatePostRequest struct {
	ID string `validate:"required"`
	PostForm
}

// SplitTechnologies splits a comma separated list and trims each piece.
// Empty pieces are kept.
func SplitTechnologies(raw string) []string {
	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateRequest checks req against its struct tags and returns a
// ValidationError naming every failing field.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate request: %w", err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return &ValidationError{Message: strings.Join(msgs, "; ")}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fe.Field() + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return fmt.Sprintf("%s is invalid (%s)", fe.Field(), fe.Tag())
	}
}
