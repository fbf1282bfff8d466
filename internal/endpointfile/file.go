package endpointfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vedsharma/reqkit/internal/model"
)

const (
	// Endpoint files may hold secrets, keep them owner-only
	secureFileMode = 0600 // -rw-------
	secureDirMode  = 0700 // drwx------
)

// Load reads and parses the endpoint file at path. The format follows the file extension.
func Load(path string) (model.Endpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Endpoint{}, fmt.Errorf("%w: read %q: %v", ErrIO, path, err)
	}

	e, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return model.Endpoint{}, fmt.Errorf("load %q: %w", path, err)
	}
	return e, nil
}

// Save stores e at path, replacing any existing file atomically
func Save(path string, e model.Endpoint) error {
	data, err := Store(e, FormatFromPath(path))
	if err != nil {
		return fmt.Errorf("encode %q: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), secureDirMode); err != nil {
		return fmt.Errorf("%w: ensure directory for %q: %v", ErrIO, path, err)
	}
	if err := writeFileAtomic(path, data, secureFileMode); err != nil {
		return fmt.Errorf("%w: write %q: %v", ErrIO, path, err)
	}
	return nil
}

// write to a temp file in the same directory then rename, so readers never see a partial file
func writeFileAtomic(path string, data []byte, perm fs.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".reqkit-endpoint-*.tmp")
	if err != nil {
		return err
	}

	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return errors.Join(err, tmp.Close())
	}
	if err := tmp.Chmod(perm); err != nil {
		return errors.Join(err, tmp.Close())
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
