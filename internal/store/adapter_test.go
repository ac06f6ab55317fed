package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func newTestAdapter(t *testing.T) (*Adapter, string) {
	t.Helper()
	dir := t.TempDir()
	kv, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile() error = %v", err)
	}
	return NewAdapter(kv), dir
}

func TestReadJSONMissingKeyKeepsDefault(t *testing.T) {
	a, _ := newTestAdapter(t)

	out := []string{"default"}
	if ok := a.ReadJSON(context.Background(), KeyStudents, &out); ok {
		t.Error("ReadJSON() = true for missing key")
	}
	if len(out) != 1 || out[0] != "default" {
		t.Errorf("destination modified on miss: %v", out)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	in := map[string]int{"a": 1, "b": 2}
	a.WriteJSON(ctx, KeySettings, in)

	out := map[string]int{}
	if ok := a.ReadJSON(ctx, KeySettings, &out); !ok {
		t.Fatal("ReadJSON() = false after write")
	}
	if out["a"] != 1 || out["b"] != 2 {
		t.Errorf("round trip = %v, want %v", out, in)
	}
}

func TestCorruptValueDegradesToDefault(t *testing.T) {
	a, dir := newTestAdapter(t)
	ctx := context.Background()

	path := filepath.Join(dir, KeyStudents+".json")
	if err := os.WriteFile(path, []byte(`{not json!`), 0o644); err != nil {
		t.Fatal(err)
	}

	out := []int{}
	if ok := a.ReadJSON(ctx, KeyStudents, &out); ok {
		t.Error("ReadJSON() = true for corrupt value")
	}
	if len(out) != 0 {
		t.Errorf("destination modified on corrupt value: %v", out)
	}
}

func TestScalarStrings(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	if got := a.ReadString(ctx, KeyLastArchiveDate); got != "" {
		t.Errorf("ReadString() on empty store = %q", got)
	}
	a.WriteString(ctx, KeyLastArchiveDate, "2025-03-01")
	if got := a.ReadString(ctx, KeyLastArchiveDate); got != "2025-03-01" {
		t.Errorf("ReadString() = %q, want 2025-03-01", got)
	}
}

func TestDelete(t *testing.T) {
	a, _ := newTestAdapter(t)
	ctx := context.Background()

	a.WriteString(ctx, KeySettings, "value")
	a.Delete(ctx, KeySettings)
	if got := a.ReadString(ctx, KeySettings); got != "" {
		t.Errorf("ReadString() after delete = %q", got)
	}
	// Deleting again is a no-op, not a failure.
	a.Delete(ctx, KeySettings)
}

func TestFileHealthy(t *testing.T) {
	a, dir := newTestAdapter(t)
	if !a.Healthy(context.Background()) {
		t.Error("fresh file store reports unhealthy")
	}
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if a.Healthy(context.Background()) {
		t.Error("store with deleted data dir reports healthy")
	}
}
