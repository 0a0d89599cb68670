package mocks

import (
	"context"
	"fmt"
	"sync"
)

// PublishedPost records one CreatePost or CreatePostWithMedia call.
type PublishedPost struct {
	Text     string
	MediaIDs []string
}

// MockPublisher records posts and uploads and can be told to fail.
//
//nolint:govet // fieldalignment: mock struct layout optimized for readability
type MockPublisher struct {
	// PostErr is returned by CreatePost and CreatePostWithMedia when set.
	PostErr error
	// UploadErr is returned by UploadMedia when set.
	UploadErr error

	Posts   []PublishedPost
	Uploads []string

	mu sync.Mutex
}

// NewMockPublisher creates a publisher that accepts everything.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// UploadMedia implements the engine's publisher.
func (m *MockPublisher) UploadMedia(_ context.Context, path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UploadErr != nil {
		return "", m.UploadErr
	}
	m.Uploads = append(m.Uploads, path)
	return fmt.Sprintf("media-%d", len(m.Uploads)), nil
}

// CreatePost implements the engine's publisher.
func (m *MockPublisher) CreatePost(ctx context.Context, text string) (string, error) {
	return m.CreatePostWithMedia(ctx, text, nil)
}

// CreatePostWithMedia implements the engine's publisher.
func (m *MockPublisher) CreatePostWithMedia(_ context.Context, text string, mediaIDs []string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PostErr != nil {
		return "", m.PostErr
	}
	m.Posts = append(m.Posts, PublishedPost{Text: text, MediaIDs: mediaIDs})
	return fmt.Sprintf("post-%d", len(m.Posts)), nil
}

// PostCount returns the number of successful posts.
func (m *MockPublisher) PostCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Posts)
}
