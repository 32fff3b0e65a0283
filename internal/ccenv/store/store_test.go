package store

// Tests for profile CRUD, the active marker lifecycle, and custom variable
// operations, including the rename/remove interactions with the marker.

import (
	"errors"
	"testing"

	"github.com/spf13/afero"

	"github.com/ccenv/ccenv/internal/ccenv/domain"
	"github.com/ccenv/ccenv/internal/ccenv/paths"
	"github.com/ccenv/ccenv/internal/ccenv/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	fs := afero.NewMemMapFs()
	st := New(storage.New(fs), paths.New("/home/test/.ccenv"), nil)
	if err := st.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return st
}

func glmProfile() *domain.ProviderProfile {
	return domain.NewProfile("glm", "https://x", "sk_123", domain.TierModels{Main: "m1"})
}

func TestCreateAndRead(t *testing.T) {
	st := newTestStore(t)

	if err := st.Create("glm", glmProfile()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	entries, err := st.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "glm" || entries[0].Active {
		t.Errorf("unexpected entries: %+v", entries)
	}

	profile, err := st.Read("glm")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if profile.Name != "glm" {
		t.Errorf("expected name glm, got %q", profile.Name)
	}
	if profile.Models.Haiku != "m1" {
		t.Errorf("expected haiku tier to default to main model, got %q", profile.Models.Haiku)
	}
}

func TestCreate_AlreadyExists(t *testing.T) {
	st := newTestStore(t)

	if err := st.Create("glm", glmProfile()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := st.Create("glm", glmProfile()); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got: %v", err)
	}
}

func TestRead_NotFound(t *testing.T) {
	st := newTestStore(t)

	if _, err := st.Read("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestWrite_RejectsInvalidProfile(t *testing.T) {
	st := newTestStore(t)

	p := glmProfile()
	p.APIKey = ""
	if err := st.Write("glm", p); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got: %v", err)
	}
	if exists, _ := st.Exists("glm"); exists {
		t.Error("failed write must not leave a file behind")
	}
}

func TestActiveMarkerLifecycle(t *testing.T) {
	st := newTestStore(t)

	active, err := st.GetActive()
	if err != nil {
		t.Fatalf("GetActive failed: %v", err)
	}
	if active != "" {
		t.Errorf("expected no active profile, got %q", active)
	}

	if err := st.SetActive("glm"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("SetActive without profile: expected ErrNotFound, got: %v", err)
	}

	if err := st.Create("glm", glmProfile()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := st.SetActive("glm"); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}

	active, err = st.GetActive()
	if err != nil {
		t.Fatalf("GetActive failed: %v", err)
	}
	if active != "glm" {
		t.Errorf("expected glm active, got %q", active)
	}

	entries, err := st.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if !entries[0].Active {
		t.Error("list should annotate the active profile")
	}

	if err := st.ClearActive(); err != nil {
		t.Fatalf("ClearActive failed: %v", err)
	}
	active, _ = st.GetActive()
	if active != "" {
		t.Errorf("expected cleared marker, got %q", active)
	}

	// Clearing twice is fine.
	if err := st.ClearActive(); err != nil {
		t.Fatalf("second ClearActive failed: %v", err)
	}
}

func TestRemove_ClearsActiveMarker(t *testing.T) {
	st := newTestStore(t)

	if err := st.Create("glm", glmProfile()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := st.SetActive("glm"); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}
	if err := st.Remove("glm"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	active, err := st.GetActive()
	if err != nil {
		t.Fatalf("GetActive failed: %v", err)
	}
	if active != "" {
		t.Errorf("removing the active profile should clear the marker, got %q", active)
	}
}

func TestRemove_NotFound(t *testing.T) {
	st := newTestStore(t)

	if err := st.Remove("missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestRename_UpdatesActiveMarker(t *testing.T) {
	st := newTestStore(t)

	if err := st.Create("glm", glmProfile()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := st.SetActive("glm"); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}

	if err := st.Rename("glm", "openrouter", false); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}

	active, err := st.GetActive()
	if err != nil {
		t.Fatalf("GetActive failed: %v", err)
	}
	if active != "openrouter" {
		t.Errorf("expected marker to follow rename, got %q", active)
	}

	if _, err := st.Read("glm"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for old name, got: %v", err)
	}
	if _, err := st.Read("openrouter"); err != nil {
		t.Fatalf("Read renamed profile failed: %v", err)
	}
}

func TestRename_Conflict(t *testing.T) {
	st := newTestStore(t)

	if err := st.Create("glm", glmProfile()); err != nil {
		t.Fatalf("Create glm failed: %v", err)
	}
	other := domain.NewProfile("openrouter", "https://or", "sk_456", domain.TierModels{Main: "m2"})
	if err := st.Create("openrouter", other); err != nil {
		t.Fatalf("Create openrouter failed: %v", err)
	}

	if err := st.Rename("glm", "openrouter", false); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got: %v", err)
	}
	// Confirmed overwrite replaces the target.
	if err := st.Rename("glm", "openrouter", true); err != nil {
		t.Fatalf("overwriting Rename failed: %v", err)
	}
	p, err := st.Read("openrouter")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if p.Models.Main != "m1" {
		t.Errorf("expected renamed content, got main model %q", p.Models.Main)
	}
}

func TestRename_SourceNotFound(t *testing.T) {
	st := newTestStore(t)

	if err := st.Rename("missing", "new", false); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}

func TestReadActive_StaleMarker(t *testing.T) {
	st := newTestStore(t)

	if err := st.Create("glm", glmProfile()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := st.SetActive("glm"); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}
	// Delete the backing file behind the store's back.
	if err := st.storage.Remove(st.paths.ProfilePath("glm")); err != nil {
		t.Fatalf("remove backing file: %v", err)
	}

	if _, err := st.ReadActive(); !errors.Is(err, domain.ErrMarkerInconsistent) {
		t.Fatalf("expected ErrMarkerInconsistent, got: %v", err)
	}
}

func TestReadActive_None(t *testing.T) {
	st := newTestStore(t)

	profile, err := st.ReadActive()
	if err != nil {
		t.Fatalf("ReadActive failed: %v", err)
	}
	if profile != nil {
		t.Errorf("expected nil profile, got %+v", profile)
	}
}

func TestList_SortedLexicographically(t *testing.T) {
	st := newTestStore(t)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		p := domain.NewProfile(name, "https://x", "sk_123", domain.TierModels{Main: "m1"})
		if err := st.Create(name, p); err != nil {
			t.Fatalf("Create %s failed: %v", name, err)
		}
	}

	entries, err := st.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	want := []string{"alpha", "mid", "zeta"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, entry := range entries {
		if entry.Name != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], entry.Name)
		}
	}
}

func TestCustomVarOperations(t *testing.T) {
	st := newTestStore(t)

	if err := st.Create("glm", glmProfile()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := st.SetCustomVar("glm", "DISABLE_PROMPT_CACHING", "1"); err != nil {
		t.Fatalf("SetCustomVar failed: %v", err)
	}
	if err := st.SetCustomVar("glm", "HTTP_PROXY", "http://proxy:8080"); err != nil {
		t.Fatalf("SetCustomVar failed: %v", err)
	}

	vars, err := st.CustomVars("glm")
	if err != nil {
		t.Fatalf("CustomVars failed: %v", err)
	}
	if len(vars) != 2 || vars[0].Name != "DISABLE_PROMPT_CACHING" || vars[1].Name != "HTTP_PROXY" {
		t.Errorf("unexpected vars: %+v", vars)
	}

	// The decoded profile sees the same variables.
	profile, err := st.Read("glm")
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if value, ok := profile.CustomVar("DISABLE_PROMPT_CACHING"); !ok || value != "1" {
		t.Errorf("expected DISABLE_PROMPT_CACHING=1, got %q (present=%v)", value, ok)
	}

	if err := st.RemoveCustomVar("glm", "DISABLE_PROMPT_CACHING"); err != nil {
		t.Fatalf("RemoveCustomVar failed: %v", err)
	}
	vars, err = st.CustomVars("glm")
	if err != nil {
		t.Fatalf("CustomVars failed: %v", err)
	}
	if len(vars) != 1 || vars[0].Name != "HTTP_PROXY" {
		t.Errorf("unexpected vars after removal: %+v", vars)
	}
}

func TestSetCustomVar_RejectsReservedNames(t *testing.T) {
	st := newTestStore(t)

	if err := st.Create("glm", glmProfile()); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for _, name := range []string{"ANTHROPIC_FOO", "CLAUDE_CODE_BAR", "1BAD", "WITH-DASH"} {
		if err := st.SetCustomVar("glm", name, "x"); !errors.Is(err, domain.ErrInvalidName) {
			t.Errorf("%q: expected ErrInvalidName, got: %v", name, err)
		}
	}
}

func TestCustomVarOps_ProfileNotFound(t *testing.T) {
	st := newTestStore(t)

	if err := st.SetCustomVar("missing", "FOO", "1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
	if err := st.RemoveCustomVar("missing", "FOO"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got: %v", err)
	}
}
