package settings

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/genricoloni/movingwallpaper/internal/domain"
	"github.com/genricoloni/movingwallpaper/internal/settings/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

// recordingPublisher captures rebuild requests
type recordingPublisher struct {
	mu   sync.Mutex
	reqs []domain.RebuildRequest
}

func (p *recordingPublisher) Publish(req domain.RebuildRequest) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reqs = append(p.reqs, req)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.reqs)
}

// staticConfig overrides the getters the settings package reads
type staticConfig struct {
	domain.Config
	settingsPath string
	watch        bool
}

func (c staticConfig) GetSettingsPath() string { return c.settingsPath }
func (c staticConfig) GetWatchVideo() bool     { return c.watch }

// fileStore returns a YAML store in a temp dir
func fileStore(t *testing.T) *YAMLStore {
	t.Helper()
	return NewYAMLStore(zap.NewNop(), staticConfig{settingsPath: filepath.Join(t.TempDir(), "MovingWallpaper", "settings.yaml")})
}

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("mp4"), 0o644))
	return path
}

func TestStore_RoundTripAcrossRestart(t *testing.T) {
	prefs := fileStore(t)
	video := touch(t, filepath.Join(t.TempDir(), "ocean waves.mp4"))

	pub := &recordingPublisher{}
	first := NewStore(zap.NewNop(), prefs, pub)
	assert.False(t, first.Get().Present())

	require.NoError(t, first.Set(domain.VideoReference{Path: video}))
	assert.Equal(t, 1, pub.count())

	// Simulate a process restart with a fresh file store on the same path
	reloaded := NewStore(zap.NewNop(), NewYAMLStore(zap.NewNop(), staticConfig{settingsPath: prefs.Path()}), &recordingPublisher{})
	got := reloaded.Get()
	assert.Equal(t, video, got.Path)
	assert.Equal(t, domain.SourceCustom, got.Source)
}

func TestStore_StaleReferenceClearedOnLoad(t *testing.T) {
	prefs := fileStore(t)
	missing := filepath.Join(t.TempDir(), "gone.mp4")
	require.NoError(t, prefs.SetString(CustomVideoKey, EncodeReference(missing)))

	s := NewStore(zap.NewNop(), prefs, &recordingPublisher{})

	assert.False(t, s.Get().Present())
	_, ok, err := NewYAMLStore(zap.NewNop(), staticConfig{settingsPath: prefs.Path()}).String(CustomVideoKey)
	require.NoError(t, err)
	assert.False(t, ok, "stale entry should be removed from durable storage")
}

func TestStore_LoadsPlainPathWithPercent(t *testing.T) {
	prefs := fileStore(t)
	video := touch(t, filepath.Join(t.TempDir(), "100% waves.mp4"))
	require.NoError(t, prefs.SetString(CustomVideoKey, video))

	s := NewStore(zap.NewNop(), prefs, &recordingPublisher{})

	assert.Equal(t, video, s.Get().Path)
	raw, ok, err := NewYAMLStore(zap.NewNop(), staticConfig{settingsPath: prefs.Path()}).String(CustomVideoKey)
	require.NoError(t, err)
	assert.True(t, ok, "a valid entry must survive load")
	assert.Equal(t, video, raw)
}

func TestStore_GetDiscardsFileDeletedAtRuntime(t *testing.T) {
	prefs := fileStore(t)
	video := touch(t, filepath.Join(t.TempDir(), "clip.mp4"))

	s := NewStore(zap.NewNop(), prefs, &recordingPublisher{})
	require.NoError(t, s.Set(domain.VideoReference{Path: video}))
	require.NoError(t, os.Remove(video))

	assert.False(t, s.Get().Present())
	_, ok, err := prefs.String(CustomVideoKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_ClearRemovesKeyAndNotifies(t *testing.T) {
	prefs := fileStore(t)
	video := touch(t, filepath.Join(t.TempDir(), "clip.mp4"))
	pub := &recordingPublisher{}

	s := NewStore(zap.NewNop(), prefs, pub)
	var seen []domain.VideoReference
	s.Subscribe(func(ref domain.VideoReference) { seen = append(seen, ref) })

	require.NoError(t, s.Set(domain.VideoReference{Path: video}))
	require.NoError(t, s.Clear())

	assert.False(t, s.Get().Present())
	assert.Equal(t, 2, pub.count())
	require.Len(t, seen, 2)
	assert.Equal(t, video, seen[0].Path)
	assert.False(t, seen[1].Present())

	_, ok, err := prefs.String(CustomVideoKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStore_PersistenceFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	prefs := mocks.NewMockPreferenceStore(ctrl)
	video := touch(t, filepath.Join(t.TempDir(), "clip.mp4"))

	prefs.EXPECT().String(CustomVideoKey).Return("", false, nil)
	prefs.EXPECT().SetString(CustomVideoKey, EncodeReference(video)).Return(errors.New("disk full"))

	pub := &recordingPublisher{}
	s := NewStore(zap.NewNop(), prefs, pub)

	err := s.Set(domain.VideoReference{Path: video})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	// The running session still reflects the choice
	assert.Equal(t, video, s.Get().Path)
	assert.Equal(t, 1, pub.count())
}

func TestStore_LoadErrors(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(*mocks.MockPreferenceStore)
	}{
		{
			name: "Read error",
			setupMock: func(m *mocks.MockPreferenceStore) {
				m.EXPECT().String(CustomVideoKey).Return("", false, errors.New("corrupt"))
			},
		},
		{
			name: "Malformed reference is removed",
			setupMock: func(m *mocks.MockPreferenceStore) {
				m.EXPECT().String(CustomVideoKey).Return("https://example.com/a.mp4", true, nil)
				m.EXPECT().Remove(CustomVideoKey).Return(nil)
			},
		},
		{
			name: "Missing file with failing removal",
			setupMock: func(m *mocks.MockPreferenceStore) {
				m.EXPECT().String(CustomVideoKey).Return("file:///nonexistent/video.mp4", true, nil)
				m.EXPECT().Remove(CustomVideoKey).Return(errors.New("read-only"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			prefs := mocks.NewMockPreferenceStore(ctrl)
			tt.setupMock(prefs)

			s := NewStore(zap.NewNop(), prefs, &recordingPublisher{})
			assert.False(t, s.Get().Present())
		})
	}
}

func TestReferenceEncoding(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "file:///Users/me/Movies/waves.mp4", want: "/Users/me/Movies/waves.mp4"},
		{raw: "file:///Users/me/My%20Movies/a.mp4", want: "/Users/me/My Movies/a.mp4"},
		{raw: "/var/videos/b.mp4", want: "/var/videos/b.mp4"},
		{raw: "/Users/me/Movies/100% waves.mp4", want: "/Users/me/Movies/100% waves.mp4"},
		{raw: "/Users/me/Movies/a?b#c.mp4", want: "/Users/me/Movies/a?b#c.mp4"},
		{raw: "relative/b.mp4", wantErr: true},
		{raw: "https://example.com/a.mp4", wantErr: true},
		{raw: "file://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := DecodeReference(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, path := range []string{"/Users/me/My Movies/a.mp4", "/Users/me/Movies/100% waves.mp4"} {
		decoded, err := DecodeReference(EncodeReference(path))
		require.NoError(t, err)
		assert.Equal(t, path, decoded)
	}
}
