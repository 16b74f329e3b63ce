// Package store provides durable ScaleStore implementations for the
// calibration value
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/swdee/go-objsize"
)

// DefaultFile is the well known calibration file name
const DefaultFile = "calibration.txt"

// File stores the calibration as plain text in a single file
type File struct {
	path string
}

// NewFile returns a File store at path
func NewFile(path string) *File {
	if path == "" {
		path = DefaultFile
	}

	return &File{path: path}
}

// Path returns the file location
func (f *File) Path() string {
	return f.path
}

// ReadScale reads the stored value.  A missing file returns
// objsize.ErrNoScale.
func (f *File) ReadScale() (float64, error) {

	data, err := os.ReadFile(f.path)

	if errors.Is(err, fs.ErrNotExist) {
		return 0, objsize.ErrNoScale
	}

	if err != nil {
		return 0, fmt.Errorf("error reading %s: %w", f.path, err)
	}

	text := strings.TrimSpace(string(data))

	if text == "" {
		return 0, objsize.ErrNoScale
	}

	v, err := strconv.ParseFloat(text, 64)

	if err != nil {
		return 0, fmt.Errorf("error parsing %s: %w", f.path, err)
	}

	return v, nil
}

// WriteScale writes the value to a temporary file beside the target and
// renames it into place so a crash never leaves a half written value
func (f *File) WriteScale(v float64) error {

	dir := filepath.Dir(f.path)

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*")

	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}

	// clean up temp file if anything below fails
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(strconv.FormatFloat(v, 'f', -1, 64)); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing calibration: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("error syncing calibration: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error closing calibration: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("error replacing %s: %w", f.path, err)
	}

	return nil
}

// Close is a no-op, the file is only held open while reading or writing
func (f *File) Close() error {
	return nil
}
