package secrets

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	root := t.TempDir()
	return NewStore(filepath.Join(root, "secrets.enc"), filepath.Join(root, "master.key")), root
}

func TestSecretsRoundTrip(t *testing.T) {
	store, root := newTestStore(t)
	if err := store.SetOpenAIKey("  sk-test  "); err != nil {
		t.Fatalf("set key: %v", err)
	}
	key, err := store.GetOpenAIKey()
	if err != nil {
		t.Fatalf("get key: %v", err)
	}
	if key != "sk-test" {
		t.Fatalf("expected key roundtrip, got %q", key)
	}
	raw, err := os.ReadFile(filepath.Join(root, "secrets.enc"))
	if err != nil {
		t.Fatalf("read secrets: %v", err)
	}
	if strings.Contains(string(raw), "sk-test") {
		t.Fatalf("expected key to be encrypted at rest")
	}
}

func TestSecretsEmptyStore(t *testing.T) {
	store, _ := newTestStore(t)
	key, err := store.GetOpenAIKey()
	if err != nil || key != "" {
		t.Fatalf("expected empty key, got %q %v", key, err)
	}
	if err := store.SetOpenAIKey(" "); err == nil {
		t.Fatalf("expected blank key to be rejected")
	}
}

func TestClearOpenAIKey(t *testing.T) {
	store, _ := newTestStore(t)
	if err := store.SetOpenAIKey("sk-test"); err != nil {
		t.Fatalf("set key: %v", err)
	}
	if err := store.ClearOpenAIKey(); err != nil {
		t.Fatalf("clear key: %v", err)
	}
	key, err := store.GetOpenAIKey()
	if err != nil || key != "" {
		t.Fatalf("expected cleared key, got %q %v", key, err)
	}
}

func TestSecretsRejectForeignMasterKey(t *testing.T) {
	store, root := newTestStore(t)
	if err := store.SetOpenAIKey("sk-test"); err != nil {
		t.Fatalf("set key: %v", err)
	}
	other := NewStore(filepath.Join(root, "secrets.enc"), filepath.Join(root, "other.key"))
	if _, err := other.GetOpenAIKey(); err == nil {
		t.Fatalf("expected decrypt failure with a different master key")
	}
}
