package handlers

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveUploadPathRejectsEscapes(t *testing.T) {
	root := t.TempDir()

	tests := []string{
		"../etc/passwd",
		"uploads/../../etc/passwd",
		"images/products/x.png",
		"/etc/passwd",
		"passwd",
	}
	for _, rel := range tests {
		if _, err := resolveUploadPath(root, rel); err == nil {
			t.Errorf("expected rejection for %q", rel)
		}
	}
}

func TestResolveUploadPathAcceptsUploads(t *testing.T) {
	root := t.TempDir()

	target, err := resolveUploadPath(root, "/uploads/payment-proofs/abc.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(root, "uploads", "payment-proofs", "abc.png")
	if target != want {
		t.Errorf("expected %q, got %q", want, target)
	}
}

func TestSafeDeleteUpload(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "uploads", "products")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(dir, "img.png")
	if err := os.WriteFile(file, []byte("png"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := safeDeleteUpload(root, "uploads/products/img.png"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Error("file should have been deleted")
	}

	// Missing file and empty path are tolerated.
	if err := safeDeleteUpload(root, "uploads/products/img.png"); err != nil {
		t.Errorf("re-delete should be a no-op, got %v", err)
	}
	if err := safeDeleteUpload(root, "  "); err != nil {
		t.Errorf("blank path should be a no-op, got %v", err)
	}

	// Traversal attempts surface as errors for the caller to log.
	if err := safeDeleteUpload(root, "uploads/../secrets.txt"); err == nil {
		t.Error("expected error for traversal path")
	}
}
