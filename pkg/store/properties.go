package store

import (
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/devicelab-dev/locator-runner/pkg/core"
	"github.com/magiconair/properties"
)

// PropertyFiles reads <name>.properties files from a directory.
// Files are re-read on every lookup so edits made during a run are seen.
type PropertyFiles struct {
	Dir string
}

// NewPropertyFiles creates a reader rooted at dir ("." when empty).
func NewPropertyFiles(dir string) *PropertyFiles {
	if dir == "" {
		dir = "."
	}
	return &PropertyFiles{Dir: dir}
}

// Path returns the file a namespace maps to.
func (p *PropertyFiles) Path(name string) string {
	return filepath.Join(p.Dir, name+".properties")
}

// Value returns key from <name>.properties. A missing file or key is
// ErrPropertyNotFound.
func (p *PropertyFiles) Value(name, key string) (string, error) {
	path := p.Path(name)
	loader := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	props, err := loader.LoadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", core.ErrPropertyNotFound.WithMessagef("property file %s not found", path).WithCause(err)
		}
		return "", core.ErrPropertyNotFound.WithMessagef("property file %s could not be read", path).WithCause(err)
	}
	v, ok := props.Get(key)
	if !ok {
		return "", core.ErrPropertyNotFound.WithMessagef("key %q not found in %s", key, path)
	}
	return v, nil
}
