package storage

// Tests for atomic file operations and security requirements.
//
// Focus: WriteFile (temp file + atomic rename, 0600), MkdirAll (0700),
// ValidatePathSafety (symlink protection).

import (
	"testing"

	"github.com/spf13/afero"
)

func TestWriteFile_Success(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	path := "/root/providers/glm.sh"
	if err := storage.WriteFile(path, []byte("content")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	content, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(content) != "content" {
		t.Errorf("expected 'content', got %q", string(content))
	}
}

func TestWriteFile_SecurePermissions(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	path := "/root/providers/glm.sh"
	if err := storage.WriteFile(path, []byte("secret")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	info, err := fs.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected file mode 0600, got %o", info.Mode().Perm())
	}
}

func TestWriteFile_CreatesIntermediateDirectories(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	path := "/deeply/nested/providers/glm.sh"
	if err := storage.WriteFile(path, []byte("data")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	info, err := fs.Stat("/deeply/nested/providers")
	if err != nil {
		t.Fatalf("stat directory: %v", err)
	}
	if info.Mode().Perm() != 0o700 {
		t.Errorf("expected directory mode 0700, got %o", info.Mode().Perm())
	}
}

func TestWriteFile_OverwritesExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	path := "/root/providers/glm.sh"
	if err := afero.WriteFile(fs, path, []byte("old"), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := storage.WriteFile(path, []byte("new")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	content, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(content) != "new" {
		t.Errorf("expected 'new', got %q", string(content))
	}
}

func TestWriteFile_NoTempFileLeftBehind(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	path := "/root/providers/glm.sh"
	if err := storage.WriteFile(path, []byte("data")); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	exists, err := afero.Exists(fs, path+".tmp")
	if err != nil {
		t.Fatalf("exists check: %v", err)
	}
	if exists {
		t.Error("temp file should not exist after successful write")
	}
}

func TestRename(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	if err := storage.WriteFile("/root/providers/glm.sh", []byte("data")); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := storage.Rename("/root/providers/glm.sh", "/root/providers/openrouter.sh"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	if exists, _ := afero.Exists(fs, "/root/providers/glm.sh"); exists {
		t.Error("source should be gone after rename")
	}
	content, err := afero.ReadFile(fs, "/root/providers/openrouter.sh")
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	if string(content) != "data" {
		t.Errorf("expected 'data', got %q", string(content))
	}
}

func TestValidatePathSafety_NonExistentPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	// Non-existent paths are safe (allows writing new files)
	if err := storage.ValidatePathSafety("/nonexistent/file.sh"); err != nil {
		t.Errorf("non-existent path should be safe: %v", err)
	}
}

func TestValidatePathSafety_RegularFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	storage := New(fs)

	path := "/root/file.sh"
	if err := afero.WriteFile(fs, path, []byte("data"), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := storage.ValidatePathSafety(path); err != nil {
		t.Errorf("regular file should be safe: %v", err)
	}
}
