package content

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockGateway is a mock implementation of Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) ListProjects(ctx context.Context) ([]Project, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Project), args.Error(1)
}

func (m *MockGateway) InsertProject(ctx context.Context, p Project) (Project, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(Project), args.Error(1)
}

func (m *MockGateway) UpdateProject(ctx context.Context, id string, patch ProjectPatch) (Project, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(Project), args.Error(1)
}

func (m *MockGateway) RemoveProject(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGateway) ListPosts(ctx context.Context) ([]BlogPost, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]BlogPost), args.Error(1)
}

func (m *MockGateway) InsertPost(ctx context.Context, p BlogPost) (BlogPost, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(BlogPost), args.Error(1)
}

func (m *MockGateway) UpdatePost(ctx context.Context, id string, patch PostPatch) (BlogPost, error) {
	args := m.Called(ctx, id, patch)
	return args.Get(0).(BlogPost), args.Error(1)
}

func (m *MockGateway) RemovePost(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGateway) UploadBlob(ctx context.Context, bucket, path string, data []byte) (string, error) {
	args := m.Called(ctx, bucket, path, data)
	return args.String(0), args.Error(1)
}
