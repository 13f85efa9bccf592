package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ArtifactStore is a versioned store for model artifacts. Every artifact
// version is an immutable file under versions/, and a separate CURRENT
// pointer file names the incumbent version. Commit and rollback are atomic
// pointer swaps (write-temp-then-rename), so no reader can ever observe a
// half-written artifact: the incumbent is either untouched or points at a
// fully written version.
//
// This replaces the copy-the-model-file backup scheme: "backing up" is
// just remembering the incumbent version id, and "restoring" resets the
// pointer to it.
type ArtifactStore struct {
	dir string
}

const currentPointerFile = "CURRENT"

// NewArtifactStore opens (creating if needed) an artifact store rooted at dir.
func NewArtifactStore(dir string) (*ArtifactStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("artifact store directory is required")
	}
	if err := os.MkdirAll(filepath.Join(dir, "versions"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact store: %w", err)
	}
	return &ArtifactStore{dir: dir}, nil
}

// CurrentVersion returns the incumbent version id, or "" when no artifact
// has ever been committed.
func (s *ArtifactStore) CurrentVersion() (string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, currentPointerFile))
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read current pointer: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Exists reports whether an incumbent artifact is present and readable.
func (s *ArtifactStore) Exists() bool {
	version, err := s.CurrentVersion()
	if err != nil || version == "" {
		return false
	}
	_, err = os.Stat(s.versionPath(version))
	return err == nil
}

// ModTime returns the modification time of the incumbent artifact. The
// artifact's age drives the retraining-interval check.
func (s *ArtifactStore) ModTime() (time.Time, error) {
	version, err := s.CurrentVersion()
	if err != nil {
		return time.Time{}, err
	}
	if version == "" {
		return time.Time{}, fmt.Errorf("no current artifact")
	}
	info, err := os.Stat(s.versionPath(version))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stat artifact %s: %w", version, err)
	}
	return info.ModTime(), nil
}

// Read returns the incumbent artifact's contents.
func (s *ArtifactStore) Read() ([]byte, error) {
	version, err := s.CurrentVersion()
	if err != nil {
		return nil, err
	}
	if version == "" {
		return nil, fmt.Errorf("no current artifact")
	}
	data, err := os.ReadFile(s.versionPath(version))
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", version, err)
	}
	return data, nil
}

// Commit writes a new artifact version and atomically promotes it to
// incumbent. Previous versions are retained for rollback and audit.
func (s *ArtifactStore) Commit(version string, data []byte) error {
	if err := validateVersion(version); err != nil {
		return err
	}
	path := s.versionPath(version)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", version, err)
	}
	if err := s.setCurrent(version); err != nil {
		// The version file is orphaned but the pointer is untouched.
		return err
	}
	return nil
}

// Restore resets the incumbent pointer to a previously committed version.
func (s *ArtifactStore) Restore(version string) error {
	if err := validateVersion(version); err != nil {
		return err
	}
	if _, err := os.Stat(s.versionPath(version)); err != nil {
		return fmt.Errorf("cannot restore missing version %s: %w", version, err)
	}
	return s.setCurrent(version)
}

// setCurrent atomically swaps the CURRENT pointer via rename.
func (s *ArtifactStore) setCurrent(version string) error {
	tmp := filepath.Join(s.dir, currentPointerFile+".tmp")
	if err := os.WriteFile(tmp, []byte(version+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write pointer temp file: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, currentPointerFile)); err != nil {
		return fmt.Errorf("failed to swap current pointer: %w", err)
	}
	return nil
}

func (s *ArtifactStore) versionPath(version string) string {
	return filepath.Join(s.dir, "versions", version)
}

func validateVersion(version string) error {
	if version == "" {
		return fmt.Errorf("artifact version is required")
	}
	if strings.ContainsAny(version, "/\\") || version == "." || version == ".." {
		return fmt.Errorf("invalid artifact version %q", version)
	}
	return nil
}
