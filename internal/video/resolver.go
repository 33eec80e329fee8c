// Package video resolves which media file the wallpaper plays.
package video

import (
	"os"
	"path/filepath"

	"github.com/genricoloni/movingwallpaper/internal/domain"
	"go.uber.org/zap"
)

const (
	// BundledName is the bundled wallpaper file name
	BundledName = "wallpaper.mp4"
	// AssetsDir is the secondary lookup directory under the resource root
	AssetsDir = "Assets"
)

// Resolver applies the precedence custom > bundled > none
type Resolver struct {
	logger      *zap.Logger
	selector    domain.VideoSelector
	resourceDir string
}

// NewResolver creates a resolver over the settings store and the resource root
func NewResolver(logger *zap.Logger, cfg domain.Config, selector domain.VideoSelector) *Resolver {
	return &Resolver{
		logger:      logger,
		selector:    selector,
		resourceDir: cfg.GetResourceDir(),
	}
}

// Resolve returns the video to play.
// The selector discards custom references whose file has gone away.
func (r *Resolver) Resolve() domain.VideoReference {
	if custom := r.selector.Get(); custom.Present() {
		r.logger.Debug("Using custom video", zap.String("path", custom.Path))
		return domain.VideoReference{Path: custom.Path, Source: domain.SourceCustom}
	}

	if path, ok := r.bundled(); ok {
		r.logger.Debug("Using bundled video", zap.String("path", path))
		return domain.VideoReference{Path: path, Source: domain.SourceBundled}
	}

	r.logger.Warn("No wallpaper video found, surfaces will show the fallback background",
		zap.String("resourceDir", r.resourceDir))
	return domain.NoVideo
}

func (r *Resolver) bundled() (string, bool) {
	candidates := []string{
		filepath.Join(r.resourceDir, BundledName),
		filepath.Join(r.resourceDir, AssetsDir, BundledName),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, true
		}
	}
	return "", false
}
