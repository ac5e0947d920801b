// Package ingest discovers invoice documents on disk, either by a one-shot
// recursive scan or by watching directories for new arrivals.
package ingest

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/rmtsu9/OCRdocTH/constants"
)

// ScanStats summarizes one directory walk.
type ScanStats struct {
	Scanned int
	Matched int
	Failed  int
}

// ScanDirectory walks root and returns every parseable document path, hidden
// files and directories excluded. Walk errors on individual entries are
// counted, not fatal; a batch keeps going past one unreadable subtree.
func ScanDirectory(root string) ([]string, ScanStats, error) {
	var paths []string
	var stats ScanStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			stats.Failed++
			return nil
		}
		if isHidden(path) && path != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if allowed(path) {
			stats.Matched++
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return paths, stats, err
	}
	return paths, stats, nil
}

func allowed(path string) bool {
	ext := constants.NormalizeExt(filepath.Ext(path))
	_, ok := constants.AllowedExtensions[ext]
	return ok
}

func isHidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
