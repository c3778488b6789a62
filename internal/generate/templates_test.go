package generate

import (
	"testing"

	"github.com/samansalari/seenovate-appforge/internal/workspace"
)

func newStore(t *testing.T) *workspace.Store {
	t.Helper()
	store, err := workspace.New(t.TempDir())
	if err != nil {
		t.Fatalf("workspace.New: %v", err)
	}
	return store
}

func TestNeedsInit_EmptyWorkspace(t *testing.T) {
	store := newStore(t)
	if !needsInit(store) {
		t.Fatalf("expected an empty workspace to need initialization")
	}
}

func TestMaterializeTemplate_ReactVite(t *testing.T) {
	store := newStore(t)
	if err := materializeTemplate(store, "react-vite"); err != nil {
		t.Fatalf("materializeTemplate: %v", err)
	}
	if needsInit(store) {
		t.Fatalf("expected the marker file to exist after materialization")
	}
	if ok, _ := store.Exists("src/App.jsx"); !ok {
		t.Fatalf("expected src/App.jsx to have been written")
	}
}

func TestMaterializeTemplate_UnknownFallsBackToBlank(t *testing.T) {
	store := newStore(t)
	if err := materializeTemplate(store, "does-not-exist"); err != nil {
		t.Fatalf("materializeTemplate: %v", err)
	}
	if ok, _ := store.Exists("server.js"); !ok {
		t.Fatalf("expected the blank template's server.js to have been written")
	}
}
