// Package applier places resolved files into the output library and writes
// their metadata sidecars.
package applier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmunix/codarr/internal/source"
	"github.com/vmunix/codarr/pkg/ident"
)

// subtitleExts are carried along with a video that shares their base name.
var subtitleExts = map[string]bool{
	".srt": true, ".ass": true, ".ssa": true, ".sub": true, ".idx": true,
	".smi": true, ".sup": true, ".vtt": true, ".ttml": true, ".lrc": true,
}

// Options configures an Applier.
type Options struct {
	Root         string
	Template     string // directory layout under Root
	FileTemplate string // file base name, without extension
	LinkMode     LinkMode
	WriteSidecar bool
	Subtitles    bool // carry matching subtitle files along
}

// Result describes where a file ended up.
type Result struct {
	Dest      string
	Sidecar   string
	Subtitles []string
	// Reused is true when the destination already held this file.
	Reused bool
}

// ApplyOption adjusts a single Apply call.
type ApplyOption func(*applyConfig)

type applyConfig struct {
	prevDest string
}

// PreviousDest tells Apply where an earlier run recorded this file. A move
// whose source is gone is only treated as done when the destination matches.
func PreviousDest(path string) ApplyOption {
	return func(c *applyConfig) { c.prevDest = path }
}

// Applier places files according to Options. It is safe for concurrent use
// as long as no two calls share a destination.
type Applier struct {
	opts Options
	log  *slog.Logger
}

// New creates an Applier. Empty templates and link mode take their defaults.
func New(opts Options, logger *slog.Logger) (*Applier, error) {
	if opts.Root == "" {
		return nil, errors.New("output root is required")
	}
	if opts.Template == "" {
		opts.Template = DefaultTemplate
	}
	if opts.FileTemplate == "" {
		opts.FileTemplate = DefaultFileTemplate
	}
	mode, err := ParseLinkMode(string(opts.LinkMode))
	if err != nil {
		return nil, err
	}
	opts.LinkMode = mode
	for _, t := range []string{opts.Template, opts.FileTemplate} {
		if err := ValidateTemplate(t); err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Applier{opts: opts, log: logger.With("component", "applier")}, nil
}

// Destination returns the path src would be placed at, without touching the filesystem.
func (a *Applier) Destination(src string, id *ident.ParsedIdentifier, rec *source.Record) (string, error) {
	vars := templateVars(id, rec)

	segments := renderDir(a.opts.Template, vars)
	base := Sanitize(applyTemplate(a.opts.FileTemplate, vars))
	if base == "" {
		return "", ioError(src, fmt.Errorf("file template %q rendered empty", a.opts.FileTemplate))
	}

	ext := strings.ToLower(filepath.Ext(src))
	parts := append([]string{a.opts.Root}, segments...)
	dest := filepath.Join(append(parts, base+ext)...)

	if err := ValidatePath(dest, a.opts.Root); err != nil {
		return "", ioError(dest, err)
	}
	return dest, nil
}

// Apply places src at its rendered destination. Applying the same file twice
// is not an error; any other existing destination is a conflict.
func (a *Applier) Apply(ctx context.Context, src string, id *ident.ParsedIdentifier, rec *source.Record, opts ...ApplyOption) (*Result, error) {
	var cfg applyConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ioError(src, errors.New("no metadata record"))
	}

	dest, err := a.Destination(src, id, rec)
	if err != nil {
		return nil, err
	}
	log := a.log.With("path", src, "dest", dest)

	res := &Result{Dest: dest}
	switch placed, err := alreadyPlaced(src, dest, cfg.prevDest, a.opts.LinkMode); {
	case err == nil && placed:
		log.Debug("destination already holds file")
		res.Reused = true
	case err == nil:
		return nil, conflictError(dest)
	case !errors.Is(err, os.ErrNotExist):
		return nil, ioError(dest, err)
	default:
		// Subtitles are looked up before a move takes the video away.
		subs := a.findSubtitles(src)
		if err := place(src, dest, a.opts.LinkMode); err != nil {
			return nil, ioError(dest, err)
		}
		log.Info("placed file", "mode", a.opts.LinkMode)
		res.Subtitles = a.placeSubtitles(subs, src, dest)
	}

	if a.opts.WriteSidecar {
		sidecar, err := writeSidecar(dest, rec)
		if err != nil {
			return nil, ioError(sidecar, err)
		}
		res.Sidecar = sidecar
	}
	return res, nil
}

// findSubtitles returns subtitle files next to src whose name starts with src's base name.
func (a *Applier) findSubtitles(src string) []string {
	if !a.opts.Subtitles {
		return nil
	}
	entries, err := os.ReadDir(filepath.Dir(src))
	if err != nil {
		return nil
	}
	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	var subs []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !subtitleExts[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		if strings.HasPrefix(name, stem) {
			subs = append(subs, filepath.Join(filepath.Dir(src), name))
		}
	}
	return subs
}

// placeSubtitles mirrors the video's placement for each subtitle, keeping any
// language tag between the video's base name and the extension. Failures are
// logged and skipped.
func (a *Applier) placeSubtitles(subs []string, src, dest string) []string {
	srcStem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	destStem := strings.TrimSuffix(dest, filepath.Ext(dest))

	var placed []string
	for _, sub := range subs {
		suffix := strings.TrimPrefix(filepath.Base(sub), srcStem)
		target := destStem + strings.ToLower(suffix)
		if _, err := os.Lstat(target); err == nil {
			continue
		}
		if err := place(sub, target, a.opts.LinkMode); err != nil {
			a.log.Warn("failed to place subtitle", "path", sub, "error", err)
			continue
		}
		placed = append(placed, target)
	}
	return placed
}

// writeSidecar writes rec as JSON next to dest and returns the sidecar path.
// The file is written to a temporary name first so readers never see a partial document.
func writeSidecar(dest string, rec *source.Record) (string, error) {
	path := strings.TrimSuffix(dest, filepath.Ext(dest)) + ".json"

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return path, fmt.Errorf("encode sidecar: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return path, fmt.Errorf("write sidecar: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return path, fmt.Errorf("rename sidecar: %w", err)
	}
	return path, nil
}
