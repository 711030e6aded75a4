// Package storage provides the object-removal backends used by the file
// cleanup consumer.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalRemover deletes objects from a directory on local disk.  It is the
// default backend for single-node deployments; cloud providers plug in
// behind the same Remover interface.
type LocalRemover struct {
	root string
}

// NewLocalRemover returns a LocalRemover rooted at dir.
func NewLocalRemover(dir string) *LocalRemover {
	return &LocalRemover{root: filepath.Clean(dir)}
}

// Remove deletes the object stored under key.  Keys must resolve inside
// the root directory; anything escaping it is rejected.  A missing file
// counts as already removed.
func (r *LocalRemover) Remove(_ context.Context, key string) error {
	path := filepath.Join(r.root, filepath.Clean("/"+key))
	if path != r.root && !strings.HasPrefix(path, r.root+string(filepath.Separator)) {
		return fmt.Errorf("storage key %q escapes root", key)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
