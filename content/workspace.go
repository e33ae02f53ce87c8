package content

import (
	"context"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Lister reads both content collections newest first.
type Lister interface {
	ListProjects(ctx context.Context) ([]Project, error)
	ListPosts(ctx context.Context) ([]BlogPost, error)
}

// Workspace is the admin view-model for one signed-in user: the in-memory
// project and post lists, the two edit dialogs, and notices waiting to be shown.
// It is populated by Load when a session starts and emptied by Clear on logout.
type Workspace struct {
	mu            sync.Mutex
	user          User
	loaded        bool
	projects      []Project
	posts         []BlogPost
	projectDialog Dialog[Project]
	postDialog    Dialog[BlogPost]
	notices       []Notice
}

// NewWorkspace returns an empty workspace for user.
func NewWorkspace(user User) *Workspace {
	return &Workspace{user: user}
}

// User returns the workspace owner.
func (w *Workspace) User() User {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.user
}

// Load fetches projects and posts concurrently and waits for both. If either
// fetch fails the lists are left untouched, a single load error notice is
// queued, and the error is returned.
func (w *Workspace) Load(ctx context.Context, src Lister) error {
	var (
		projects []Project
		posts    []BlogPost
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		projects, err = src.ListProjects(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		posts, err = src.ListPosts(gctx)
		return err
	})
	err := g.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	if err != nil {
		w.notices = append(w.notices, ErrorNotice("Failed to load data"))
		return err
	}
	w.projects = projects
	w.posts = posts
	w.loaded = true
	return nil
}

// Loaded reports whether the lists hold a completed load.
func (w *Workspace) Loaded() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loaded
}

// Clear drops all cached content, dialog state and pending notices.
func (w *Workspace) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.loaded = false
	w.projects = nil
	w.posts = nil
	w.projectDialog.close()
	w.postDialog.close()
	w.notices = nil
}

// Projects returns a copy of the project list, newest first.
func (w *Workspace) Projects() []Project {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.projects)
}

// Posts returns a copy of the post list, newest first.
func (w *Workspace) Posts() []BlogPost {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.posts)
}

// Project returns the cached project with id.
func (w *Workspace) Project(id string) (Project, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := slices.IndexFunc(w.projects, func(p Project) bool { return p.ID == id })
	if i < 0 {
		return Project{}, false
	}
	return w.projects[i], true
}

// Post returns the cached post with id.
func (w *Workspace) Post(id string) (BlogPost, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := slices.IndexFunc(w.posts, func(p BlogPost) bool { return p.ID == id })
	if i < 0 {
		return BlogPost{}, false
	}
	return w.posts[i], true
}

// Stats derives the dashboard counters from the current lists.
func (w *Workspace) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return ComputeStats(w.projects, w.posts)
}

// Notify queues n for the next Notices call.
func (w *Workspace) Notify(n Notice) {
	w.mu.Lock()
	w.notices = append(w.notices, n)
	w.mu.Unlock()
}

// Notices returns and removes all queued notices.
func (w *Workspace) Notices() []Notice {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.notices
	w.notices = nil
	return out
}

// OpenProjectDialog opens the project form, seeded with the cached project
// id when id is non-empty. It returns ErrNotFound for an unknown id.
func (w *Workspace) OpenProjectDialog(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if id == "" {
		w.projectDialog.open(nil)
		return nil
	}
	i := slices.IndexFunc(w.projects, func(p Project) bool { return p.ID == id })
	if i < 0 {
		return ErrNotFound
	}
	seed := w.projects[i]
	w.projectDialog.open(&seed)
	return nil
}

// ProjectDialog returns the project form state and its seeded record.
func (w *Workspace) ProjectDialog() (DialogState, *Project) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.projectDialog.State()
}

// CloseProjectDialog dismisses the project form.
func (w *Workspace) CloseProjectDialog() {
	w.mu.Lock()
	w.projectDialog.close()
	w.mu.Unlock()
}

// OpenPostDialog opens the post form, seeded with the cached post id when
// id is non-empty. It returns ErrNotFound for an unknown id.
func (w *Workspace) OpenPostDialog(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if id == "" {
		w.postDialog.open(nil)
		return nil
	}
	i := slices.IndexFunc(w.posts, func(p BlogPost) bool { return p.ID == id })
	if i < 0 {
		return ErrNotFound
	}
	seed := w.posts[i]
	w.postDialog.open(&seed)
	return nil
}

// PostDialog returns the post form state and its seeded record.
func (w *Workspace) PostDialog() (DialogState, *BlogPost) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.postDialog.State()
}

// ClosePostDialog dismisses the post form.
func (w *Workspace) ClosePostDialog() {
	w.mu.Lock()
	w.postDialog.close()
	w.mu.Unlock()
}

// beginProject moves the project dialog to Submitting, first opening it for
// a create (empty id) or seeding it with project id for an update.
func (w *Workspace) beginProject(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	state, editing := w.projectDialog.State()
	switch {
	case id == "" && (state == DialogIdle || editing != nil):
		w.projectDialog.open(nil)
	case id != "" && (editing == nil || editing.ID != id):
		var seed *Project
		if i := slices.IndexFunc(w.projects, func(p Project) bool { return p.ID == id }); i >= 0 {
			p := w.projects[i]
			seed = &p
		}
		w.projectDialog.open(seed)
	}
	w.projectDialog.submit()
}

func (w *Workspace) failProject(n Notice) {
	w.mu.Lock()
	w.projectDialog.fail()
	w.notices = append(w.notices, n)
	w.mu.Unlock()
}

func (w *Workspace) projectCreated(p Project) {
	w.mu.Lock()
	w.projects = slices.Insert(w.projects, 0, p)
	w.projectDialog.close()
	w.notices = append(w.notices, SuccessNotice("Project Created", "Your project has been successfully created."))
	w.mu.Unlock()
}

func (w *Workspace) projectUpdated(p Project) {
	w.mu.Lock()
	if i := slices.IndexFunc(w.projects, func(old Project) bool { return old.ID == p.ID }); i >= 0 {
		w.projects[i] = p
	}
	w.projectDialog.close()
	w.notices = append(w.notices, SuccessNotice("Project Updated", "Your project has been successfully updated."))
	w.mu.Unlock()
}

func (w *Workspace) projectDeleted(id string) {
	w.mu.Lock()
	w.projects = slices.DeleteFunc(w.projects, func(p Project) bool { return p.ID == id })
	w.projectDialog.close()
	w.notices = append(w.notices, SuccessNotice("Project Deleted", "The project has been successfully deleted."))
	w.mu.Unlock()
}

// beginPost moves the post dialog to Submitting, opening or seeding it
// the same way as beginProject.
func (w *Workspace) beginPost(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	state, editing := w.postDialog.State()
	switch {
	case id == "" && (state == DialogIdle || editing != nil):
		w.postDialog.open(nil)
	case id != "" && (editing == nil || editing.ID != id):
		var seed *BlogPost
		if i := slices.IndexFunc(w.posts, func(p BlogPost) bool { return p.ID == id }); i >= 0 {
			p := w.posts[i]
			seed = &p
		}
		w.postDialog.open(seed)
	}
	w.postDialog.submit()
}

func (w *Workspace) failPost(n Notice) {
	w.mu.Lock()
	w.postDialog.fail()
	w.notices = append(w.notices, n)
	w.mu.Unlock()
}

func (w *Workspace) postCreated(p BlogPost) {
	w.mu.Lock()
	w.posts = slices.Insert(w.posts, 0, p)
	w.postDialog.close()
	w.notices = append(w.notices, SuccessNotice("Blog Post Created", "Your blog post has been successfully created."))
	w.mu.Unlock()
}

func (w *Workspace) postUpdated(p BlogPost) {
	w.mu.Lock()
	if i := slices.IndexFunc(w.posts, func(old BlogPost) bool { return old.ID == p.ID }); i >= 0 {
		w.posts[i] = p
	}
	w.postDialog.close()
	w.notices = append(w.notices, SuccessNotice("Blog Post Updated", "Your blog post has been successfully updated."))
	w.mu.Unlock()
}

func (w *Workspace) postDeleted(id string) {
	w.mu.Lock()
	w.posts = slices.DeleteFunc(w.posts, func(p BlogPost) bool { return p.ID == id })
	w.postDialog.close()
	w.notices = append(w.notices, SuccessNotice("Blog Post Deleted", "The blog post has been successfully deleted."))
	w.mu.Unlock()
}

// Workspaces holds one Workspace per signed-in user.
type Workspaces struct {
	mu     sync.Mutex
	byUser map[string]*Workspace
}

// NewWorkspaces returns an empty registry.
func NewWorkspaces() *Workspaces {
	return &Workspaces{byUser: make(map[string]*Workspace)}
}

// Get returns the workspace for user, creating an empty one if needed.
func (r *Workspaces) Get(user User) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()
	ws, ok := r.byUser[user.ID]
	if !ok {
		ws = NewWorkspace(user)
		r.byUser[user.ID] = ws
	}
	return ws
}

// Drop clears and forgets the workspace for userID.
func (r *Workspaces) Drop(userID string) {
	r.mu.Lock()
	ws, ok := r.byUser[userID]
	delete(r.byUser, userID)
	r.mu.Unlock()
	if ok {
		ws.Clear()
	}
}
