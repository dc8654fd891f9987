package pipeline

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/backmassage/dlogconv/internal/naming"
)

// Supported video file extensions (lowercase, with leading dot).
var videoExtensions = map[string]bool{
	".mp4":  true,
	".avi":  true,
	".mov":  true,
	".mkv":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
	".m4v":  true,
	".mpg":  true,
	".mpeg": true,
}

// IsVideoFile reports whether path has a supported video extension.
func IsVideoFile(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// Discover walks dir, collects video files, skips files this tool already
// produced (see [naming.IsConverted]) and hidden directories, and returns
// the paths sorted lexicographically for a deterministic job order.
func Discover(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsVideoFile(path) && !naming.IsConverted(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ExpandInputs replaces each directory in paths with the video files found
// under it. Other entries, including paths that do not exist, pass through
// unchanged so they fail as individual jobs rather than sinking the batch.
// Duplicates are dropped, keeping the first occurrence.
func ExpandInputs(paths []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		fi, err := os.Stat(p)
		if err != nil || !fi.IsDir() {
			add(p)
			continue
		}
		found, err := Discover(p)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", p, err)
		}
		for _, f := range found {
			add(f)
		}
	}
	return out, nil
}
