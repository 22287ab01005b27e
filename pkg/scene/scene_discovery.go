package scene

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/df07/go-sphere-tracer/pkg/core"
)

const (
	builtinGroup = "Built-in Scenes"
	fileGroup    = "Scene Files"
	filePrefix   = "file:"
)

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Scene name
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "file"
	FilePath    string `json:"filePath"`    // Path to the scene file (file type only)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

// DiscoveryLogger receives warnings about scene files that cannot be read
var DiscoveryLogger core.Logger = stderrLogger{}

type stderrLogger struct{}

func (stderrLogger) Printf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format, args...)
}

type builtinScene struct {
	info  SceneInfo
	build func(cameraOverrides ...CameraConfig) *Scene
}

var builtinScenes = []builtinScene{
	{
		info: SceneInfo{
			ID:          "default",
			Name:        "Default Scene",
			Description: "Ground, diffuse centre sphere, hollow glass sphere and fuzzy metal sphere",
		},
		build: NewDefaultScene,
	},
	{
		info: SceneInfo{
			ID:          "single-sphere",
			Name:        "Single Sphere",
			Description: "One diffuse sphere against the sky",
		},
		build: NewSingleSphereScene,
	},
	{
		info: SceneInfo{
			ID:          "spheres",
			Name:        "Random Spheres",
			Description: "Field of small random spheres around three large ones",
		},
		build: NewRandomSpheresScene,
	},
	{
		info: SceneInfo{
			ID:          "sphere-grid",
			Name:        "Sphere Grid",
			Description: "10x10 grid of rainbow-colored metallic spheres",
		},
		build: NewSphereGridScene,
	},
}

// ListBuiltinScenes returns the scenes that are constructed in code
func ListBuiltinScenes() []SceneInfo {
	scenes := make([]SceneInfo, len(builtinScenes))
	for i, b := range builtinScenes {
		info := b.info
		info.DisplayName = info.Name
		info.Group = builtinGroup
		info.Type = "builtin"
		scenes[i] = info
	}
	return scenes
}

// FindScenesDir returns the first scenes directory that exists, or "" if none does
func FindScenesDir() string {
	for _, path := range []string{"scenes", "../scenes"} {
		if stat, err := os.Stat(path); err == nil && stat.IsDir() {
			return path
		}
	}
	return ""
}

// ListSceneFiles scans dir for YAML and TOML scene files
func ListSceneFiles(dir string) ([]SceneInfo, error) {
	if dir == "" {
		return []SceneInfo{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	scenes := []SceneInfo{}
	for _, entry := range entries {
		if entry.IsDir() || !IsSceneFile(entry.Name()) {
			continue
		}
		info, err := ParseSceneFileMetadata(filepath.Join(dir, entry.Name()))
		if err != nil {
			// One bad file must not hide the rest of the catalog
			DiscoveryLogger.Printf("Warning: skipping scene file %s: %v\n", info.FilePath, err)
			continue
		}
		scenes = append(scenes, info)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})

	return scenes, nil
}

// ParseSceneFileMetadata extracts metadata from the leading comment block of a scene file.
// Both YAML and TOML use '#' comments, e.g. "# Scene: Glass Trio".
func ParseSceneFileMetadata(filePath string) (SceneInfo, error) {
	filename := filepath.Base(filePath)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	info := SceneInfo{
		ID:          filePrefix + nameWithoutExt,
		Name:        titleCase(nameWithoutExt),
		DisplayName: titleCase(nameWithoutExt),
		Group:       fileGroup,
		Type:        "file",
		FilePath:    filePath,
	}

	file, err := os.Open(filePath)
	if err != nil {
		return info, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "#") {
			break
		}

		content := strings.TrimSpace(strings.TrimPrefix(line, "#"))
		switch {
		case strings.HasPrefix(content, "Scene:"):
			info.Name = strings.TrimSpace(strings.TrimPrefix(content, "Scene:"))
		case strings.HasPrefix(content, "Description:"):
			info.Description = strings.TrimSpace(strings.TrimPrefix(content, "Description:"))
		case strings.HasPrefix(content, "Group:"):
			info.Group = strings.TrimSpace(strings.TrimPrefix(content, "Group:"))
		}
	}
	info.DisplayName = info.Name

	return info, scanner.Err()
}

// ListAllScenes returns both built-in and file scenes, grouped by category
func ListAllScenes(scenesDir string) (ScenesResponse, error) {
	var response ScenesResponse

	fileScenes, err := ListSceneFiles(scenesDir)
	if err != nil {
		return response, fmt.Errorf("failed to list scene files: %w", err)
	}

	allScenes := append(ListBuiltinScenes(), fileScenes...)

	groupMap := make(map[string][]SceneInfo)
	for _, s := range allScenes {
		groupMap[s.Group] = append(groupMap[s.Group], s)
	}

	// Built-in first, then alphabetical
	var groupNames []string
	for groupName := range groupMap {
		if groupName != builtinGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)

	response.Groups = append(response.Groups, SceneGroup{Name: builtinGroup, Scenes: groupMap[builtinGroup]})
	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{Name: groupName, Scenes: groupMap[groupName]})
	}

	return response, nil
}

// Load resolves a scene by built-in ID, by "file:<name>" ID from the default scenes
// directory (see FindScenesDir), or by a path to a YAML/TOML scene file.
func Load(nameOrPath string, cameraOverrides ...CameraConfig) (*Scene, error) {
	return LoadFrom(FindScenesDir(), nameOrPath, cameraOverrides...)
}

// LoadFrom is Load with "file:<name>" IDs resolved against scenesDir
func LoadFrom(scenesDir, nameOrPath string, cameraOverrides ...CameraConfig) (*Scene, error) {
	for _, b := range builtinScenes {
		if b.info.ID == nameOrPath {
			return b.build(cameraOverrides...), nil
		}
	}

	path := nameOrPath
	if strings.HasPrefix(nameOrPath, filePrefix) {
		resolved, err := ResolveFileID(scenesDir, nameOrPath)
		if err != nil {
			return nil, err
		}
		path = resolved
	} else if !IsSceneFile(nameOrPath) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScene, nameOrPath)
	}

	s, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	for _, override := range cameraOverrides {
		s.CameraConfig = MergeCameraConfig(s.CameraConfig, override)
	}
	return s, nil
}

// ResolveFileID returns the path of the scene file listed in scenesDir under id ("file:<name>")
func ResolveFileID(scenesDir, id string) (string, error) {
	scenes, err := ListSceneFiles(scenesDir)
	if err != nil {
		return "", err
	}
	for _, info := range scenes {
		if info.ID == id {
			return info.FilePath, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownScene, id)
}

// titleCase converts a filename-style string to title case
// e.g., "glass-trio" -> "Glass Trio"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
	}

	return strings.Join(words, " ")
}
