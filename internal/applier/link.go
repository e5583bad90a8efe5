package applier

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

// LinkMode selects how a source file is placed at its destination.
type LinkMode string

const (
	LinkMove     LinkMode = "move"
	LinkCopy     LinkMode = "copy"
	LinkSymlink  LinkMode = "symlink"
	LinkHardlink LinkMode = "hardlink"
)

// ParseLinkMode validates a configured link mode. Empty means move.
func ParseLinkMode(s string) (LinkMode, error) {
	switch m := LinkMode(s); m {
	case "":
		return LinkMove, nil
	case LinkMove, LinkCopy, LinkSymlink, LinkHardlink:
		return m, nil
	}
	return "", fmt.Errorf("unknown link mode %q", s)
}

// place puts src at dst according to mode. dst must not exist.
func place(src, dst string, mode LinkMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	switch mode {
	case LinkCopy:
		return copyFile(src, dst)
	case LinkSymlink:
		abs, err := filepath.Abs(src)
		if err != nil {
			return fmt.Errorf("resolve source: %w", err)
		}
		return os.Symlink(abs, dst)
	case LinkHardlink:
		return os.Link(src, dst)
	default:
		return moveFile(src, dst)
	}
}

// moveFile renames src to dst, copying and removing when they are on
// different filesystems.
func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return err
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}

// copyFile copies src to dst, preserving the modification time.
// A partial destination is removed on failure.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}
	defer func() {
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close destination: %w", cerr)
		}
		if err != nil {
			_ = os.Remove(dst)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return fmt.Errorf("copy content: %w", err)
	}
	if err = out.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	_ = os.Chtimes(dst, info.ModTime(), info.ModTime())
	return nil
}

// alreadyPlaced reports whether dst is the result of an earlier placement of
// src with the same mode, which makes re-applying a no-op. prevDest is where
// the job last recorded src; a move with no source left is only trusted there.
func alreadyPlaced(src, dst, prevDest string, mode LinkMode) (bool, error) {
	dstInfo, err := os.Lstat(dst)
	if err != nil {
		return false, err
	}
	srcInfo, srcErr := os.Stat(src)

	switch mode {
	case LinkSymlink:
		if dstInfo.Mode()&os.ModeSymlink == 0 {
			return false, nil
		}
		target, err := os.Readlink(dst)
		if err != nil {
			return false, err
		}
		abs, err := filepath.Abs(src)
		if err != nil {
			return false, err
		}
		return target == abs, nil
	case LinkHardlink:
		return srcErr == nil && os.SameFile(srcInfo, dstInfo), nil
	case LinkCopy:
		if srcErr != nil || !dstInfo.Mode().IsRegular() || srcInfo.Size() != dstInfo.Size() {
			return false, nil
		}
		return sameContent(src, dst)
	default:
		// A completed move leaves no source behind.
		if errors.Is(srcErr, os.ErrNotExist) {
			if prevDest == "" || filepath.Clean(prevDest) != filepath.Clean(dst) || !dstInfo.Mode().IsRegular() {
				return false, fmt.Errorf("%w: source %s is missing and %s was not placed from it", ErrSourceMissing, src, dst)
			}
			return true, nil
		}
		return srcErr == nil && os.SameFile(srcInfo, dstInfo), nil
	}
}

func sameContent(a, b string) (bool, error) {
	fa, err := os.Open(a)
	if err != nil {
		return false, err
	}
	defer func() { _ = fa.Close() }()
	fb, err := os.Open(b)
	if err != nil {
		return false, err
	}
	defer func() { _ = fb.Close() }()

	bufA := make([]byte, 64*1024)
	bufB := make([]byte, 64*1024)
	for {
		na, errA := io.ReadFull(fa, bufA)
		nb, errB := io.ReadFull(fb, bufB)
		if na != nb || !bytes.Equal(bufA[:na], bufB[:nb]) {
			return false, nil
		}
		if errA == io.EOF || errA == io.ErrUnexpectedEOF {
			return errB == io.EOF || errB == io.ErrUnexpectedEOF, nil
		}
		if errA != nil {
			return false, errA
		}
		if errB != nil {
			return false, errB
		}
	}
}
