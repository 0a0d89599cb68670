// Package media finds an image to attach to a post.
//
// Images live under the configured directory, either in a per-slot
// subdirectory (media/delivery/*.jpg) or directly in the root as shared
// images. Slot images are preferred.
package media

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"poster/pkg/config"
	"poster/pkg/logx"
	"poster/pkg/proto"
	"poster/pkg/randx"
)

// Finder looks up images on disk.
type Finder struct {
	dir    string
	exts   []string
	rng    randx.Source
	logger *logx.Logger
}

// NewFinder creates a finder. A relative cfg.Dir is resolved against baseDir.
func NewFinder(cfg config.Media, baseDir string, rng randx.Source) *Finder {
	dir := cfg.Dir
	if dir != "" && !filepath.IsAbs(dir) {
		dir = filepath.Join(baseDir, dir)
	}
	exts := make([]string, len(cfg.Extensions))
	for i, e := range cfg.Extensions {
		exts[i] = strings.ToLower(e)
	}
	return &Finder{dir: dir, exts: exts, rng: rng, logger: logx.NewLogger("media")}
}

// Pick returns a random image for slot. ok is false when none exists.
func (f *Finder) Pick(slot proto.SlotID) (string, bool) {
	if f.dir == "" {
		return "", false
	}
	candidates := f.list(filepath.Join(f.dir, string(slot)))
	if len(candidates) == 0 {
		candidates = f.list(f.dir)
	}
	if len(candidates) == 0 {
		f.logger.Warn("No image found for %s under %s", slot, f.dir)
		return "", false
	}
	return randx.Pick(f.rng, candidates), true
}

// list returns image files directly under dir in lexical order.
func (f *Finder) list(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if slices.Contains(f.exts, strings.ToLower(filepath.Ext(e.Name()))) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out
}
