package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"quickhost/internal/app/images"
)

func TestStoreRoundTrip(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	ref := "property_images/l1/a.jpg"
	if err := store.Save(ctx, ref, []byte("jpeg")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "property_images", "l1", "a.jpg"))
	if err != nil || string(data) != "jpeg" {
		t.Fatalf("file not written: %v %q", err, data)
	}
	if ok, _ := store.Exists(ctx, "property_images/l1"); !ok {
		t.Fatal("folder should exist")
	}
	if err := store.Delete(ctx, ref); err != nil {
		t.Fatalf("Delete file: %v", err)
	}
	if err := store.Delete(ctx, "property_images/l1"); err != nil {
		t.Fatalf("Delete folder: %v", err)
	}
	if ok, _ := store.Exists(ctx, "property_images/l1"); ok {
		t.Fatal("folder should be gone")
	}
	if err := store.Delete(ctx, ref); err != nil {
		t.Fatalf("deleting a missing file should succeed: %v", err)
	}
}

func TestStoreStaysInsideRoot(t *testing.T) {
	root := t.TempDir()
	store, err := New(filepath.Join(root, "media"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := store.Save(context.Background(), "../../escape.jpg", []byte("x")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "media", "escape.jpg")); err != nil {
		t.Fatalf("expected path clamped under root: %v", err)
	}
	if err := store.Save(context.Background(), "/", []byte("x")); err == nil {
		t.Fatal("expected root path rejection")
	}
}

func TestDeleteKeepsFolderThatStillHoldsFiles(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()
	manager := &images.Manager{Store: store}
	refs, err := manager.StoreUploads(ctx, "L1", []images.Upload{{Filename: "a.jpg", Content: []byte("jpeg")}})
	if err != nil || len(refs) != 1 {
		t.Fatalf("StoreUploads: %v %v", refs, err)
	}
	stray := filepath.Join(root, "property_images", "L1", "orphan.jpg")
	if err := os.WriteFile(stray, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := manager.ApplyUpdate(ctx, "L1", refs, nil)
	if err != nil {
		t.Fatalf("clearing images with a stray file: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no references, got %v", out)
	}
	if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(refs[0]))); !os.IsNotExist(err) {
		t.Fatalf("stored image should be removed, stat err=%v", err)
	}
	if _, err := os.Stat(stray); err != nil {
		t.Fatalf("stray file should stay: %v", err)
	}

	if err := os.Remove(stray); err != nil {
		t.Fatal(err)
	}
	if err := manager.Purge(ctx, "L1", nil); err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if ok, _ := store.Exists(ctx, "property_images/L1"); ok {
		t.Fatal("empty folder should be removed")
	}
}
