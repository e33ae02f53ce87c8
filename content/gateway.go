package content

import "context"

// ProjectStore is row access to the projects collection.
type ProjectStore interface {
	// ListProjects returns every project, newest first.
	ListProjects(ctx context.Context) ([]Project, error)
	// InsertProject stores p and returns it with its generated id and timestamp.
	InsertProject(ctx context.Context, p Project) (Project, error)
	// UpdateProject replaces the editable fields of project id.
	UpdateProject(ctx context.Context, id string, patch ProjectPatch) (Project, error)
	// RemoveProject deletes project id.
	RemoveProject(ctx context.Context, id string) error
}

// PostStore is row access to the blog_posts collection.
type PostStore interface {
	ListPosts(ctx context.Context) ([]BlogPost, error)
	InsertPost(ctx context.Context, p BlogPost) (BlogPost, error)
	UpdatePost(ctx context.Context, id string, patch PostPatch) (BlogPost, error)
	RemovePost(ctx context.Context, id string) error
}

// BlobStore accepts uploaded files.
type BlobStore interface {
	// UploadBlob stores data at path inside bucket and returns its public URL.
	UploadBlob(ctx context.Context, bucket, path string, data []byte) (string, error)
}

// Gateway is everything the admin controller needs from the data service.
// Implementations report row failures as *StorageError and blob failures as
// *UploadError.
type Gateway interface {
	ProjectStore
	PostStore
	BlobStore
}
