// Package modelfile stores a fitted model as a JSON document on disk.
package modelfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/matchodds/internal/domain/strength"
)

// ErrNotFound is returned by Load when no model file exists.
var ErrNotFound = errors.New("model file not found")

const filePermission = 0o644

// Save writes ts to path. The file is written next to the target and
// renamed into place, so readers never see a partial document.
func Save(path string, ts *strength.TeamStrength) error {
	data, err := json.MarshalIndent(ts, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("write model: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model: %w", err)
	}
	if err := os.Chmod(tmp.Name(), filePermission); err != nil {
		return fmt.Errorf("chmod model: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace model: %w", err)
	}
	return nil
}

// Load reads the model at path.
func Load(path string) (*strength.TeamStrength, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var ts strength.TeamStrength
	if err := json.Unmarshal(data, &ts); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &ts, nil
}
