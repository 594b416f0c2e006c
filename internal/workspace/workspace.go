// Package workspace provides exclusively-owned scratch directories.
// Each Workspace is created for a single compile attempt and removed when the
// attempt ends. Identity comes from a random UUID, never from caller content,
// so two attempts with identical input never share a directory.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Sentinel errors for workspace operations.
var (
	ErrAcquire     = errors.New("cannot allocate workspace")
	ErrInvalidName = errors.New("file name contains path separator or null byte")
	ErrEmptyName   = errors.New("file name cannot be empty")
	ErrEmptyPrefix = errors.New("workspace prefix cannot be empty")
)

// Permissions for workspace content. The directory is private to the owner
// because it holds untrusted input and the engine's intermediate files.
const (
	dirPermissions  = 0o700
	filePermissions = 0o600
)

// Workspace is a uniquely named directory owned by one compile attempt.
// Create with Acquire; call Release exactly once the attempt is over.
type Workspace struct {
	root string

	once       sync.Once
	releaseErr error
}

// Acquire creates a new workspace directory under baseDir.
// An empty baseDir means os.TempDir(). The directory name is prefix followed
// by a random UUID; creation is exclusive, so a name collision is an error
// rather than a shared directory.
func Acquire(baseDir, prefix string) (*Workspace, error) {
	if prefix == "" {
		return nil, ErrEmptyPrefix
	}
	if err := ValidateName(prefix); err != nil {
		return nil, err
	}
	if baseDir == "" {
		baseDir = os.TempDir()
	}

	root := filepath.Join(baseDir, prefix+uuid.NewString())
	if err := os.Mkdir(root, dirPermissions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAcquire, err)
	}

	return &Workspace{root: root}, nil
}

// Root returns the absolute directory path of the workspace.
func (w *Workspace) Root() string {
	return w.root
}

// Path joins name onto the workspace root.
// The name is not validated; use it only with fixed, trusted names.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.root, name)
}

// WriteFile writes content to a file directly inside the workspace.
func (w *Workspace) WriteFile(name string, content []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := os.WriteFile(w.Path(name), content, filePermissions); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}

// ReadOptional reads a file that may legitimately be missing.
// It opens the file directly instead of checking for existence first, so
// there is no window between the check and the read. A missing file returns
// (nil, false, nil).
func (w *Workspace) ReadOptional(name string) ([]byte, bool, error) {
	if err := ValidateName(name); err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(w.Path(name)) // #nosec G304 -- name validated, root owned by us
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading %s: %w", name, err)
	}
	return data, true, nil
}

// Release recursively removes the workspace directory.
// Safe to call more than once; only the first call touches the filesystem
// and later calls return the same result.
func (w *Workspace) Release() error {
	if w == nil {
		return nil
	}
	w.once.Do(func() {
		if err := os.RemoveAll(w.root); err != nil {
			w.releaseErr = fmt.Errorf("removing workspace %s: %w", w.root, err)
		}
	})
	return w.releaseErr
}

// ValidateName checks that name refers to an entry directly inside a
// workspace and cannot escape it.
func ValidateName(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if strings.ContainsAny(name, "/\\\x00") || name == "." || name == ".." {
		return ErrInvalidName
	}
	return nil
}
