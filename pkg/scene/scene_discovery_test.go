package scene

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitleCase(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"glass-trio", "Glass Trio"},
		{"metal_row", "Metal Row"},
		{"my-custom-scene", "My Custom Scene"},
		{"simple", "Simple"},
		{"UPPER-case", "Upper Case"},
		{"", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, titleCase(tc.input))
		})
	}
}

func TestParseSceneFileMetadata(t *testing.T) {
	testCases := []struct {
		name     string
		content  string
		expected SceneInfo
	}{
		{
			name: "complete_metadata.yaml",
			content: `# Scene: Glass Trio
# Description: Three glass spheres on a matte floor
# Group: Glass

spheres: []`,
			expected: SceneInfo{
				ID:          "file:complete_metadata",
				Name:        "Glass Trio",
				DisplayName: "Glass Trio",
				Description: "Three glass spheres on a matte floor",
				Group:       "Glass",
				Type:        "file",
			},
		},
		{
			name:    "no-metadata.toml",
			content: `name = "plain"`,
			expected: SceneInfo{
				ID:          "file:no-metadata",
				Name:        "No Metadata",
				DisplayName: "No Metadata",
				Group:       "Scene Files",
				Type:        "file",
			},
		},
	}

	dir := t.TempDir()
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name)
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			info, err := ParseSceneFileMetadata(path)
			require.NoError(t, err)

			tc.expected.FilePath = path
			assert.Equal(t, tc.expected, info)
		})
	}
}

func TestListSceneFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("# Scene: Bravo\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.toml"), []byte("# Scene: Alpha\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.yaml"), 0o755))

	scenes, err := ListSceneFiles(dir)
	require.NoError(t, err)
	require.Len(t, scenes, 2)
	assert.Equal(t, "Alpha", scenes[0].DisplayName)
	assert.Equal(t, "Bravo", scenes[1].DisplayName)

	empty, err := ListSceneFiles("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

type captureLogger struct {
	messages []string
}

func (c *captureLogger) Printf(format string, args ...interface{}) {
	c.messages = append(c.messages, fmt.Sprintf(format, args...))
}

func TestListSceneFiles_SkipsUnreadable(t *testing.T) {
	logger := &captureLogger{}
	previous := DiscoveryLogger
	DiscoveryLogger = logger
	t.Cleanup(func() { DiscoveryLogger = previous })

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.yaml"), []byte("# Scene: Good\n"), 0o644))
	// A dangling symlink lists like a file but cannot be opened
	require.NoError(t, os.Symlink(filepath.Join(dir, "missing.yaml"), filepath.Join(dir, "broken.yaml")))

	scenes, err := ListSceneFiles(dir)
	require.NoError(t, err)
	require.Len(t, scenes, 1)
	assert.Equal(t, "file:good", scenes[0].ID)

	require.Len(t, logger.messages, 1)
	assert.Contains(t, logger.messages[0], "broken.yaml")

	response, err := ListAllScenes(dir)
	require.NoError(t, err)
	require.Len(t, response.Groups, 2)
	assert.Len(t, response.Groups[1].Scenes, 1)
}

func TestListAllScenes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "glass.yaml"), []byte("# Group: Glass\n"), 0o644))

	response, err := ListAllScenes(dir)
	require.NoError(t, err)
	require.Len(t, response.Groups, 2)

	builtins := response.Groups[0]
	assert.Equal(t, "Built-in Scenes", builtins.Name)
	assert.Len(t, builtins.Scenes, len(builtinScenes))
	assert.Equal(t, "default", builtins.Scenes[0].ID)

	assert.Equal(t, "Glass", response.Groups[1].Name)
	assert.Equal(t, "file:glass", response.Groups[1].Scenes[0].ID)
}

func TestLoad(t *testing.T) {
	t.Run("builtin", func(t *testing.T) {
		for _, info := range ListBuiltinScenes() {
			s, err := Load(info.ID)
			require.NoError(t, err, info.ID)
			assert.Positive(t, s.GetPrimitiveCount(), info.ID)
		}
	})

	t.Run("builtin with override", func(t *testing.T) {
		s, err := Load("default", CameraConfig{Width: 64})
		require.NoError(t, err)
		assert.Equal(t, 64, s.CameraConfig.Width)
		assert.Equal(t, 20.0, s.CameraConfig.VFov)
	})

	t.Run("file path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "one.yaml")
		content := "materials:\n  grey: {type: lambertian}\nspheres:\n  - {center: [0, 0, -1], radius: 0.5, material: grey}\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		s, err := Load(path, CameraConfig{Width: 32})
		require.NoError(t, err)
		assert.Equal(t, "one", s.Name)
		assert.Equal(t, 1, s.GetPrimitiveCount())
		assert.Equal(t, 32, s.CameraConfig.Width)
	})

	t.Run("file id from scenes dir", func(t *testing.T) {
		dir := t.TempDir()
		content := "# Scene: Lonely\nmaterials:\n  grey: {type: lambertian}\nspheres:\n  - {center: [0, 0, -1], radius: 0.5, material: grey}\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, "lonely.yaml"), []byte(content), 0o644))

		s, err := LoadFrom(dir, "file:lonely", CameraConfig{Width: 24})
		require.NoError(t, err)
		assert.Equal(t, 1, s.GetPrimitiveCount())
		assert.Equal(t, 24, s.CameraConfig.Width)

		path, err := ResolveFileID(dir, "file:lonely")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "lonely.yaml"), path)

		_, err = LoadFrom(dir, "file:missing")
		assert.ErrorIs(t, err, ErrUnknownScene)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Load("no-such-scene")
		assert.ErrorIs(t, err, ErrUnknownScene)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := Load("scene.json")
		assert.ErrorIs(t, err, ErrUnknownScene)
	})
}
