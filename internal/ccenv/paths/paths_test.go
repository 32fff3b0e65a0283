package paths

import (
	"path/filepath"
	"testing"
)

func TestPathBuilder(t *testing.T) {
	pb := New("/home/test/.ccenv")

	if got := pb.ProvidersDir(); got != filepath.Join("/home/test/.ccenv", "providers") {
		t.Errorf("ProvidersDir: %q", got)
	}
	if got := pb.ActiveMarkerPath(); got != filepath.Join("/home/test/.ccenv", "active") {
		t.Errorf("ActiveMarkerPath: %q", got)
	}
	if got := pb.ProfilePath("glm"); got != filepath.Join("/home/test/.ccenv", "providers", "glm.sh") {
		t.Errorf("ProfilePath: %q", got)
	}
}

func TestResolve_EnvOverride(t *testing.T) {
	t.Setenv(HomeEnvVar, "/custom/root")

	root, err := Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if root != "/custom/root" {
		t.Errorf("expected /custom/root, got %q", root)
	}
}

func TestResolve_DefaultsToHome(t *testing.T) {
	t.Setenv(HomeEnvVar, "")

	root, err := Resolve()
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if filepath.Base(root) != RootDirName {
		t.Errorf("expected root under %s, got %q", RootDirName, root)
	}
}
