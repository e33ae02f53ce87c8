package content

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Controller runs the admin create, update and delete operations against a
// Gateway and applies each completed result to a Workspace. Nothing is retried.
type Controller struct {
	gateway Gateway
	logger  *zap.Logger
	newID   func() string
}

// NewController returns a Controller writing through gw.
func NewController(gw Gateway, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		gateway: gw,
		logger:  logger,
		newID:   uuid.NewString,
	}
}

// Load populates ws from the gateway.
func (c *Controller) Load(ctx context.Context, ws *Workspace) error {
	if err := ws.Load(ctx, c.gateway); err != nil {
		c.logger.Warn("load workspace", zap.String("user", ws.User().ID), zap.Error(err))
		return err
	}
	return nil
}

// CreateProject validates req, resolves its image, inserts the project and
// prepends it to the workspace list.
func (c *Controller) CreateProject(ctx context.Context, ws *Workspace, req CreateProjectRequest) (Project, error) {
	user := ws.User()
	if !user.Valid() {
		return Project{}, ErrAuthRequired
	}
	ws.beginProject("")
	if err := validateRequest(req); err != nil {
		ws.failProject(ErrorNotice(err.Error()))
		return Project{}, err
	}

	p := Project{
		Title:        req.Title,
		Description:  req.Description,
		Published:    req.Status.Published(),
		ImageURL:     c.resolveImage(ctx, ws, req.ImageFile, req.ImageURL, ""),
		Technologies: SplitTechnologies(req.Technologies),
		GithubURL:    req.GithubURL,
		DemoURL:      req.DemoURL,
		UserID:       user.ID,
	}
	stored, err := c.gateway.InsertProject(ctx, p)
	if err != nil {
		c.logger.Warn("create project", zap.String("title", p.Title), zap.Error(err))
		ws.failProject(ErrorNotice("Failed to create project"))
		return Project{}, err
	}
	c.logger.Info("project created", zap.String("id", stored.ID))
	ws.projectCreated(stored)
	return stored, nil
}

// UpdateProject replaces the editable fields of req.ID. Without a new image
// the existing one is kept.
func (c *Controller) UpdateProject(ctx context.Context, ws *Workspace, req UpdateProjectRequest) (Project, error) {
	if !ws.User().Valid() {
		return Project{}, ErrAuthRequired
	}
	ws.beginProject(req.ID)
	if err := validateRequest(req); err != nil {
		ws.failProject(ErrorNotice(err.Error()))
		return Project{}, err
	}

	existing, _ := ws.Project(req.ID)
	patch := ProjectPatch{
		Title:        req.Title,
		Description:  req.Description,
		Published:    req.Status.Published(),
		ImageURL:     c.resolveImage(ctx, ws, req.ImageFile, req.ImageURL, existing.ImageURL),
		Technologies: SplitTechnologies(req.Technologies),
		GithubURL:    req.GithubURL,
		DemoURL:      req.DemoURL,
	}
	stored, err := c.gateway.UpdateProject(ctx, req.ID, patch)
	if err != nil {
		c.logger.Warn("update project", zap.String("id", req.ID), zap.Error(err))
		ws.failProject(ErrorNotice("Failed to update project"))
		return Project{}, err
	}
	ws.projectUpdated(stored)
	return stored, nil
}

// SubmitProject sends the project form as an update when the dialog is
// seeded with an existing project and as a create otherwise.
func (c *Controller) SubmitProject(ctx context.Context, ws *Workspace, form ProjectForm) (Project, error) {
	if _, editing := ws.ProjectDialog(); editing != nil {
		return c.UpdateProject(ctx, ws, UpdateProjectRequest{ID: editing.ID, ProjectForm: form})
	}
	return c.CreateProject(ctx, ws, CreateProjectRequest{ProjectForm: form})
}

// DeleteProject removes project id and filters it out of the workspace list.
func (c *Controller) DeleteProject(ctx context.Context, ws *Workspace, id string) error {
	if !ws.User().Valid() {
		return ErrAuthRequired
	}
	if err := c.gateway.RemoveProject(ctx, id); err != nil {
		c.logger.Warn("delete project", zap.String("id", id), zap.Error(err))
		ws.Notify(ErrorNotice("Failed to delete project"))
		return err
	}
	ws.projectDeleted(id)
	return nil
}

// CreatePost validates req, derives the slug from the title, inserts the
// post and prepends it to the workspace list.
func (c *Controller) CreatePost(ctx context.Context, ws *Workspace, req CreatePostRequest) (BlogPost, error) {
	user := ws.User()
	if !user.Valid() {
		return BlogPost{}, ErrAuthRequired
	}
	ws.beginPost("")
	if err := validateRequest(req); err != nil {
		ws.failPost(ErrorNotice(err.Error()))
		return BlogPost{}, err
	}

	p := BlogPost{
		Title:     req.Title,
		Content:   req.Content,
		Excerpt:   req.Excerpt,
		Published: req.Status.Published(),
		ImageURL:  c.resolveImage(ctx, ws, req.ImageFile, req.ImageURL, ""),
		Slug:      Slugify(req.Title),
		UserID:    user.ID,
	}
	stored, err := c.gateway.InsertPost(ctx, p)
	if err != nil {
		c.logger.Warn("create post", zap.String("slug", p.Slug), zap.Error(err))
		ws.failPost(ErrorNotice("Failed to create blog post"))
		return BlogPost{}, err
	}
	c.logger.Info("post created", zap.String("id", stored.ID), zap.String("slug", stored.Slug))
	ws.postCreated(stored)
	return stored, nil
}

// UpdatePost replaces the editable fields of req.ID. The slug is derived
// again from the new title.
func (c *Controller) UpdatePost(ctx context.Context, ws *Workspace, req UpdatePostRequest) (BlogPost, error) {
	if !ws.User().Valid() {
		return BlogPost{}, ErrAuthRequired
	}
	ws.beginPost(req.ID)
	if err := validateRequest(req); err != nil {
		ws.failPost(ErrorNotice(err.Error()))
		return BlogPost{}, err
	}

	existing, _ := ws.Post(req.ID)
	patch := PostPatch{
		Title:     req.Title,
		Content:   req.Content,
		Excerpt:   req.Excerpt,
		Published: req.Status.Published(),
		ImageURL:  c.resolveImage(ctx, ws, req.ImageFile, req.ImageURL, existing.ImageURL),
		Slug:      Slugify(req.Title),
	}
	stored, err := c.gateway.UpdatePost(ctx, req.ID, patch)
	if err != nil {
		c.logger.Warn("update post", zap.String("id", req.ID), zap.Error(err))
		ws.failPost(ErrorNotice("Failed to update blog post"))
		return BlogPost{}, err
	}
	ws.postUpdated(stored)
	return stored, nil
}

// SubmitPost sends the post form as an update or a create depending on the
// dialog seed.
func (c *Controller) SubmitPost(ctx context.Context, ws *Workspace, form PostForm) (BlogPost, error) {
	if _, editing := ws.PostDialog(); editing != nil {
		return c.UpdatePost(ctx, ws, UpdatePostRequest{ID: editing.ID, PostForm: form})
	}
	return c.CreatePost(ctx, ws, CreatePostRequest{PostForm: form})
}

// DeletePost removes post id and filters it out of the workspace list.
func (c *Controller) DeletePost(ctx context.Context, ws *Workspace, id string) error {
	if !ws.User().Valid() {
		return ErrAuthRequired
	}
	if err := c.gateway.RemovePost(ctx, id); err != nil {
		c.logger.Warn("delete post", zap.String("id", id), zap.Error(err))
		ws.Notify(ErrorNotice("Failed to delete blog post"))
		return err
	}
	ws.postDeleted(id)
	return nil
}

// resolveImage picks the image URL for a save: an uploaded file, then the
// typed URL, then the existing image. When the upload is rejected the file is
// inlined as a data URL and the user is told the image is only a local preview.
// A blob uploaded here stays orphaned if the record write that follows fails.
func (c *Controller) resolveImage(ctx context.Context, ws *Workspace, file *Attachment, url, existing string) string {
	if !file.Empty() {
		path := "images/" + c.newID() + strings.ToLower(filepath.Ext(file.Filename))
		u, err := c.gateway.UploadBlob(ctx, ImageBucket, path, file.Data)
		if err == nil {
			return u
		}
		c.logger.Warn("image upload failed, using local preview",
			zap.String("bucket", ImageBucket),
			zap.String("path", path),
			zap.Error(err))
		ws.Notify(Notice{
			Kind:        NoticeWarning,
			Title:       "Upload Error",
			Description: "Failed to upload image. Using local preview.",
		})
		return file.DataURL()
	}
	if url != "" {
		return url
	}
	return existing
}
