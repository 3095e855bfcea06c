package manifest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/oshokin/tpi/internal/config"
	"github.com/oshokin/tpi/internal/domain/pkgref"
)

// Repository defines persistence operations for the installed-package manifest.
type Repository interface {
	// Read returns the manifest entries in file order. A missing manifest is empty.
	Read(ctx context.Context) ([]string, error)
	// Record appends id when it references a descriptor and is not listed yet.
	// It reports whether the manifest changed.
	Record(ctx context.Context, id string) (bool, error)
	// Remove drops every entry equal to id and reports whether one was present.
	Remove(ctx context.Context, id string) (bool, error)
}

// FileRepository stores the manifest as newline-delimited text on disk.
type FileRepository struct {
	// path is the filesystem location of the manifest.
	path string
	// mu serialises read-modify-write cycles within this process.
	mu sync.Mutex
}

// NewFileRepository creates a repository that reads/writes the manifest at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the manifest location.
func (r *FileRepository) Path() string {
	return r.path
}

// Read loads the manifest entries.
func (r *FileRepository) Read(_ context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load()
}

// Record appends id to the manifest. Bare registry names are not recorded.
func (r *FileRepository) Record(_ context.Context, id string) (bool, error) {
	if !pkgref.IsDescriptorFile(id) {
		return false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		return false, err
	}

	if slices.Contains(entries, id) {
		return false, nil
	}

	if err = r.store(append(entries, id)); err != nil {
		return false, err
	}

	return true, nil
}

// Remove drops every line equal to id. A missing entry is not an error.
func (r *FileRepository) Remove(_ context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.load()
	if err != nil {
		return false, err
	}

	kept := slices.DeleteFunc(slices.Clone(entries), func(entry string) bool {
		return entry == id
	})

	if len(kept) == len(entries) {
		return false, nil
	}

	if err = r.store(kept); err != nil {
		return false, err
	}

	return true, nil
}

// load reads non-empty lines; callers hold mu.
func (r *FileRepository) load() ([]string, error) {
	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("read manifest: %w", err)
	}

	lines := strings.Split(strings.ReplaceAll(string(contents), "\r\n", "\n"), "\n")

	entries := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			entries = append(entries, line)
		}
	}

	return entries, nil
}

// store rewrites the whole manifest, one entry per line with a trailing
// newline; callers hold mu.
func (r *FileRepository) store(entries []string) error {
	if err := os.MkdirAll(filepath.Dir(r.path), config.DefaultDirPermissions); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}

	var data string
	if len(entries) > 0 {
		data = strings.Join(entries, "\n") + "\n"
	}

	if err := os.WriteFile(r.path, []byte(data), config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("update manifest: %w", err)
	}

	return nil
}
