package maven

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/git-pkgs/classpath/fetch"
	"github.com/git-pkgs/classpath/internal/core"
)

// LocalRepository is a directory laid out like ~/.m2/repository.
type LocalRepository struct {
	root string
}

// NewLocalRepository returns a local repository rooted at dir. The directory
// is created on first write.
func NewLocalRepository(dir string) *LocalRepository {
	return &LocalRepository{root: dir}
}

// DefaultLocalRepository returns ~/.m2/repository.
func DefaultLocalRepository() (*LocalRepository, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("locating home directory: %w", err)
	}
	return NewLocalRepository(filepath.Join(home, ".m2", "repository")), nil
}

// Root returns the repository directory.
func (l *LocalRepository) Root() string {
	return l.root
}

// Path returns where a lives in the repository, whether or not it exists.
func (l *LocalRepository) Path(a core.Artifact) (string, error) {
	p, err := fetch.ArtifactPath(a)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(filepath.Join(l.root, filepath.FromSlash(p)))
	if err != nil {
		return "", err
	}
	return abs, nil
}

// Find returns the path of a if it is present.
func (l *LocalRepository) Find(a core.Artifact) (string, bool) {
	p, err := l.Path(a)
	if err != nil {
		return "", false
	}
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return p, true
}

// Store writes the contents of r as a and returns its path. Readers never see
// a partially written file.
func (l *LocalRepository) Store(a core.Artifact, r io.Reader) (string, error) {
	p, err := l.Path(a)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(p)+".*.part")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("writing %s: %w", a, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("writing %s: %w", a, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return "", fmt.Errorf("storing %s: %w", a, err)
	}
	return p, nil
}
