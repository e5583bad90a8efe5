// Package scan discovers candidate media files under a directory.
package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
)

// DefaultExtensions are the media types scanned when none are configured.
var DefaultExtensions = []string{
	".mp4", ".avi", ".rmvb", ".wmv", ".mov", ".mkv", ".flv",
	".ts", ".webm", ".iso", ".mpg", ".m4v",
}

// ErrNotFound is returned when the scan root does not exist.
var ErrNotFound = errors.New("scan root not found")

var trailerPattern = regexp.MustCompile(`(?i)-trailer\.`)

// Options controls which files are returned.
type Options struct {
	Extensions  []string // case-insensitive, with leading dot
	ExcludeDirs []string // directory base names never descended into
	MinSize     int64    // bytes; smaller files are skipped
	Filter      *regexp.Regexp
}

// Scan returns media files under root in lexical order. A root that is itself
// a matching file is returned on its own. Hidden directories, symlinks,
// sample clips and trailers are skipped.
func Scan(root string, opts Options) ([]string, error) {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, root)
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}

	exts := opts.Extensions
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(e)
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		allowed[e] = true
	}

	if !info.IsDir() {
		if wanted(root, info, allowed, opts) {
			return []string{root}, nil
		}
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && excluded(d.Name(), opts.ExcludeDirs) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		if wanted(path, fi, allowed, opts) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}

	// WalkDir already visits in lexical order per directory; sorting the
	// full paths makes the order independent of walk details.
	slices.Sort(files)
	return files, nil
}

func excluded(name string, exclude []string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, e := range exclude {
		if strings.EqualFold(name, e) {
			return true
		}
	}
	return false
}

func wanted(path string, info fs.FileInfo, allowed map[string]bool, opts Options) bool {
	if !info.Mode().IsRegular() {
		return false
	}
	name := info.Name()
	if !allowed[strings.ToLower(filepath.Ext(name))] {
		return false
	}
	lower := strings.ToLower(name)
	if strings.Contains(lower, "sample") || trailerPattern.MatchString(name) {
		return false
	}
	if info.Size() < opts.MinSize {
		return false
	}
	if opts.Filter != nil && !opts.Filter.MatchString(path) {
		return false
	}
	return true
}
