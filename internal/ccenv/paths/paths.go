package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// Directory and file name constants for the provider store
const (
	RootDirName      = ".ccenv"
	ProvidersDirName = "providers"
	ActiveFileName   = "active"
	ProfileExt       = ".sh"

	// HomeEnvVar overrides the store root when set.
	HomeEnvVar = "CCENV_HOME"
)

// PathBuilder constructs provider store paths relative to a root directory.
type PathBuilder struct {
	root string
}

// New creates a PathBuilder rooted at the given directory.
func New(root string) *PathBuilder {
	return &PathBuilder{root: root}
}

// Resolve determines the store root: the CCENV_HOME environment variable when
// set, otherwise ~/.ccenv.
func Resolve() (string, error) {
	if custom := strings.TrimSpace(os.Getenv(HomeEnvVar)); custom != "" {
		return custom, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, RootDirName), nil
}

// Root returns the store root directory.
func (p *PathBuilder) Root() string {
	return p.root
}

// ProvidersDir returns the directory holding one file per profile.
func (p *PathBuilder) ProvidersDir() string {
	return filepath.Join(p.root, ProvidersDirName)
}

// ActiveMarkerPath returns the path of the active marker file.
func (p *PathBuilder) ActiveMarkerPath() string {
	return filepath.Join(p.root, ActiveFileName)
}

// ProfilePath returns the backing file path for a named profile.
func (p *PathBuilder) ProfilePath(name string) string {
	return filepath.Join(p.ProvidersDir(), name+ProfileExt)
}
