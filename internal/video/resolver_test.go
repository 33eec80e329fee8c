package video

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/genricoloni/movingwallpaper/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type resourceConfig struct {
	domain.Config
	dir string
}

func (c resourceConfig) GetResourceDir() string { return c.dir }

// fixedSelector returns a fixed custom reference
type fixedSelector struct {
	ref domain.VideoReference
}

func (s *fixedSelector) Get() domain.VideoReference { return s.ref }

func (s *fixedSelector) Set(ref domain.VideoReference) error {
	s.ref = ref
	return nil
}

func (s *fixedSelector) Clear() error {
	s.ref = domain.NoVideo
	return nil
}

func write(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("mp4"), 0o644))
	return path
}

func TestResolver_Precedence(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(t *testing.T, resources string) domain.VideoReference
		wantSource domain.VideoSource
		wantPath   func(resources string, custom domain.VideoReference) string
	}{
		{
			name: "Custom wins over bundled",
			setup: func(t *testing.T, resources string) domain.VideoReference {
				write(t, filepath.Join(resources, BundledName))
				return domain.VideoReference{Path: write(t, filepath.Join(t.TempDir(), "mine.mp4")), Source: domain.SourceCustom}
			},
			wantSource: domain.SourceCustom,
			wantPath:   func(_ string, custom domain.VideoReference) string { return custom.Path },
		},
		{
			name: "Bundled at resource root",
			setup: func(t *testing.T, resources string) domain.VideoReference {
				write(t, filepath.Join(resources, BundledName))
				write(t, filepath.Join(resources, AssetsDir, BundledName))
				return domain.NoVideo
			},
			wantSource: domain.SourceBundled,
			wantPath:   func(r string, _ domain.VideoReference) string { return filepath.Join(r, BundledName) },
		},
		{
			name: "Bundled under Assets",
			setup: func(t *testing.T, resources string) domain.VideoReference {
				write(t, filepath.Join(resources, AssetsDir, BundledName))
				return domain.NoVideo
			},
			wantSource: domain.SourceBundled,
			wantPath:   func(r string, _ domain.VideoReference) string { return filepath.Join(r, AssetsDir, BundledName) },
		},
		{
			name: "Directory named like the video is ignored",
			setup: func(t *testing.T, resources string) domain.VideoReference {
				require.NoError(t, os.MkdirAll(filepath.Join(resources, BundledName), 0o755))
				return domain.NoVideo
			},
			wantSource: domain.SourceNone,
			wantPath:   func(string, domain.VideoReference) string { return "" },
		},
		{
			name: "Nothing available",
			setup: func(t *testing.T, resources string) domain.VideoReference {
				return domain.NoVideo
			},
			wantSource: domain.SourceNone,
			wantPath:   func(string, domain.VideoReference) string { return "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resources := t.TempDir()
			custom := tt.setup(t, resources)

			r := NewResolver(zap.NewNop(), resourceConfig{dir: resources}, &fixedSelector{ref: custom})
			got := r.Resolve()

			assert.Equal(t, tt.wantSource, got.Source)
			assert.Equal(t, tt.wantPath(resources, custom), got.Path)
		})
	}
}

func TestResolver_IsDeterministic(t *testing.T) {
	resources := t.TempDir()
	write(t, filepath.Join(resources, BundledName))
	r := NewResolver(zap.NewNop(), resourceConfig{dir: resources}, &fixedSelector{})

	first := r.Resolve()
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, r.Resolve())
	}
}
