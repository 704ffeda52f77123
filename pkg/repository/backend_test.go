package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/a61119129-svg/startupkafe-digital-menu/pkg/config"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

func exerciseBackend(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := b.Load(ctx, "startup-kafe-cart"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := b.Save(ctx, "startup-kafe-cart", []byte(`{"items":[]}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := b.Save(ctx, "startup-kafe-cart", []byte(`{"items":[1]}`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, ok, err := b.Load(ctx, "startup-kafe-cart")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(data) != `{"items":[1]}` {
		t.Fatalf("unexpected data %q", data)
	}
	if err := b.Delete(ctx, "startup-kafe-cart"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := b.Load(ctx, "startup-kafe-cart"); ok {
		t.Fatalf("expected miss after delete")
	}
	if err := b.Save(ctx, "../escape", []byte("x")); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, NewMemoryBackend())
}

func TestMemoryBackendCopiesData(t *testing.T) {
	b := NewMemoryBackend()
	buf := []byte("abc")
	if err := b.Save(context.Background(), "k", buf); err != nil {
		t.Fatalf("save: %v", err)
	}
	buf[0] = 'z'
	data, _, _ := b.Load(context.Background(), "k")
	if string(data) != "abc" {
		t.Fatalf("backend shares caller buffer: %q", data)
	}
}

func TestFileBackend(t *testing.T) {
	fs := afero.NewMemMapFs()
	b, err := NewFileBackend(fs, "/data")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	exerciseBackend(t, b)
}

func TestFileBackendLeavesNoTempFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	b, err := NewFileBackend(fs, "/data")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := b.Save(context.Background(), "startup-kafe-user", []byte("{}")); err != nil {
		t.Fatalf("save: %v", err)
	}
	exists, _ := afero.Exists(fs, "/data/startup-kafe-user.json.tmp")
	if exists {
		t.Fatalf("temp file left behind")
	}
	exists, _ = afero.Exists(fs, "/data/startup-kafe-user.json")
	if !exists {
		t.Fatalf("expected blob file")
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "memory"}}
	b, err := Open(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, ok := b.(*MemoryBackend); !ok {
		t.Fatalf("expected memory backend, got %T", b)
	}

	cfg.Storage.Driver = "floppy"
	if _, err := Open(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
