package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"personal-kb/internal/contextutil"
)

// normalizeExtensions lower-cases extensions and adds a leading dot where missing.
func normalizeExtensions(exts []string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return set
}

// scanDir walks root recursively and returns the sorted paths of regular files whose extension
// is in exts. Unreadable subdirectories are skipped.
func scanDir(ctx context.Context, root string, exts map[string]struct{}) ([]string, error) {
	logger := contextutil.LoggerFromContext(ctx)
	var paths []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("failed to access watch path %s: %w", root, err)
			}
			logger.WarnContext(ctx, "skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if !d.Type().IsRegular() {
			return nil
		}
		if _, ok := exts[strings.ToLower(filepath.Ext(path))]; !ok {
			return nil
		}

		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}
