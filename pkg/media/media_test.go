package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poster/pkg/config"
	"poster/pkg/proto"
	"poster/pkg/randx"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("img"), 0o644))
}

func TestPickPrefersSlotDirectory(t *testing.T) {
	base := t.TempDir()
	touch(t, filepath.Join(base, "media", "delivery", "truck.JPG"))
	touch(t, filepath.Join(base, "media", "delivery", "notes.txt"))
	touch(t, filepath.Join(base, "media", "sky.png"))

	f := NewFinder(config.Media{Dir: "media", Extensions: []string{".jpg", ".png"}}, base, randx.New(1))

	path, ok := f.Pick(proto.SlotDelivery)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(base, "media", "delivery", "truck.JPG"), path)

	path, ok = f.Pick(proto.SlotDaily)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(base, "media", "sky.png"), path)
}

func TestPickNothing(t *testing.T) {
	base := t.TempDir()
	f := NewFinder(config.Media{Dir: "media", Extensions: []string{".jpg"}}, base, randx.New(1))
	_, ok := f.Pick(proto.SlotDelivery)
	assert.False(t, ok)

	_, ok = NewFinder(config.Media{}, base, randx.New(1)).Pick(proto.SlotDelivery)
	assert.False(t, ok)
}
