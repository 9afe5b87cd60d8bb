package handlers

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// resolveUploadPath maps a stored relative path (product image or payment
// proof) onto the filesystem, rejecting anything that escapes the uploads
// tree under publicRoot. Leading slashes and ../ segments in relPath come
// from untrusted documents and are neutralized, never trusted.
func resolveUploadPath(publicRoot, relPath string) (string, error) {
	cleanRel := path.Clean("/" + strings.TrimPrefix(strings.TrimSpace(relPath), "/"))
	cleanRel = strings.TrimPrefix(cleanRel, "/")

	if cleanRel != "uploads" && !strings.HasPrefix(cleanRel, "uploads/") {
		return "", fmt.Errorf("path is not an upload: %s", relPath)
	}

	base := filepath.Clean(publicRoot)
	target := filepath.Clean(filepath.Join(base, filepath.FromSlash(cleanRel)))
	if target != base && !strings.HasPrefix(target, base+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes public root: %s", relPath)
	}

	return target, nil
}

// safeDeleteUpload removes a previously stored upload. An empty path and an
// already-missing file are both fine; a path outside the uploads tree is an
// error so callers log it instead of silently skipping.
func safeDeleteUpload(publicRoot, relPath string) error {
	if strings.TrimSpace(relPath) == "" {
		return nil
	}

	target, err := resolveUploadPath(publicRoot, relPath)
	if err != nil {
		return err
	}

	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
