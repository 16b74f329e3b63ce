package store

import (
	"fmt"
	"io"
	"strings"

	"github.com/swdee/go-objsize"
)

// Store is a ScaleStore that holds resources until closed
type Store interface {
	objsize.ScaleStore
	io.Closer
}

// Open returns the store named by kind, either "file" or "sqlite".  For the
// file store key is ignored.
func Open(kind, path, key string) (Store, error) {
	switch strings.ToLower(kind) {
	case "", "file":
		return NewFile(path), nil
	case "sqlite":
		db, err := OpenSQLite(path, key)

		if err != nil {
			return nil, err
		}

		return db, nil
	}
	return nil, fmt.Errorf("unknown calibration store %q, use file or sqlite", kind)
}
