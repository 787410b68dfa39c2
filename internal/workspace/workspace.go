// Package workspace writes output artifacts inside one directory.
//
// All operations go through an os.Root, so a path containing .. or a
// symlink pointing elsewhere cannot reach outside the directory.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrPathEscapes  = errors.New("path escapes working directory")
	ErrAbsolutePath = errors.New("absolute paths are not allowed")
	ErrEmptyPath    = errors.New("empty path not allowed")
	ErrExists       = errors.New("file already exists")
)

// Workspace confines file output to a directory.
type Workspace struct {
	root *os.Root
	dir  string
}

// Open opens the workspace rooted at dir.
func Open(dir string) (*Workspace, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	root, err := os.OpenRoot(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace root: %w", err)
	}

	return &Workspace{root: root, dir: absPath}, nil
}

// Close releases the root handle.
func (w *Workspace) Close() error {
	if w.root != nil {
		return w.root.Close()
	}
	return nil
}

// Dir returns the absolute workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Resolve validates a user-provided path and returns it relative to the
// workspace, with forward slashes. An absolute path is accepted only if
// it lies inside the workspace.
func (w *Workspace) Resolve(userPath string) (string, error) {
	if userPath == "" {
		return "", ErrEmptyPath
	}

	if filepath.IsAbs(userPath) {
		rel, err := filepath.Rel(w.dir, filepath.Clean(userPath))
		if err != nil || !filepath.IsLocal(rel) {
			return "", fmt.Errorf("%w: %s", ErrAbsolutePath, userPath)
		}
		userPath = rel
	}

	if !filepath.IsLocal(userPath) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, userPath)
	}

	cleanPath := filepath.Clean(userPath)
	rel, err := filepath.Rel(w.dir, filepath.Join(w.dir, cleanPath))
	if err != nil {
		return "", fmt.Errorf("failed to compute relative path: %w", err)
	}
	if strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapes, userPath)
	}

	return filepath.ToSlash(rel), nil
}

// Exists reports whether path names an existing file in the workspace.
func (w *Workspace) Exists(path string) (bool, error) {
	rel, err := w.Resolve(path)
	if err != nil {
		return false, err
	}
	_, err = w.root.Stat(filepath.FromSlash(rel))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// WriteFile writes data to path, creating parent directories. The data
// goes to a temporary sibling first and is renamed into place, so a failed
// write leaves no partial artifact. Unless overwrite is set an existing
// file is an ErrExists.
func (w *Workspace) WriteFile(path string, data []byte, overwrite bool) (string, error) {
	rel, err := w.Resolve(path)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	target := filepath.FromSlash(rel)

	if !overwrite {
		if _, err := w.root.Stat(target); err == nil {
			return "", fmt.Errorf("%w: %s", ErrExists, rel)
		}
	}

	if dir := filepath.Dir(target); dir != "." {
		if err := w.root.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	tmp := filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+".tmp-"+uuid.NewString()[:8])
	if err := w.writeTemp(tmp, data); err != nil {
		w.root.Remove(tmp)
		return "", err
	}
	if err := w.root.Rename(tmp, target); err != nil {
		w.root.Remove(tmp)
		return "", fmt.Errorf("failed to move output into place: %w", err)
	}

	return filepath.Join(w.dir, target), nil
}

func (w *Workspace) writeTemp(name string, data []byte) error {
	f, err := w.root.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return f.Close()
}
