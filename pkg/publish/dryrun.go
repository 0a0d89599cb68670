package publish

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"poster/pkg/logx"
)

// DryRun logs what would be published and returns fake ids prefixed "dry-".
type DryRun struct {
	mu     sync.Mutex
	posts  []DryRunPost
	logger *logx.Logger
}

// DryRunPost is one recorded publish call.
type DryRunPost struct {
	ID       string
	Text     string
	MediaIDs []string
}

// NewDryRun creates a dry-run publisher.
func NewDryRun() *DryRun {
	return &DryRun{logger: logx.NewLogger("publish")}
}

// UploadMedia checks the file exists and returns a fake media id.
func (d *DryRun) UploadMedia(_ context.Context, path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("failed to read media %s: %w", path, err)
	}
	id := "dry-media-" + uuid.NewString()
	d.logger.Info("[dry-run] would upload %s as %s", path, id)
	return id, nil
}

// CreatePost records text and returns a fake id.
func (d *DryRun) CreatePost(ctx context.Context, text string) (string, error) {
	return d.CreatePostWithMedia(ctx, text, nil)
}

// CreatePostWithMedia records text with media and returns a fake id.
func (d *DryRun) CreatePostWithMedia(_ context.Context, text string, mediaIDs []string) (string, error) {
	id := "dry-" + uuid.NewString()
	d.mu.Lock()
	d.posts = append(d.posts, DryRunPost{ID: id, Text: text, MediaIDs: mediaIDs})
	d.mu.Unlock()
	d.logger.Info("[dry-run] would post %s (%d media): %s", id, len(mediaIDs), text)
	return id, nil
}

// Posts returns the recorded posts.
func (d *DryRun) Posts() []DryRunPost {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]DryRunPost(nil), d.posts...)
}
