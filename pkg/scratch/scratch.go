// Package scratch manages the temporary files of a single run.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// Dir is a private temporary directory; everything handed out by Path is
// removed by Close.
type Dir struct {
	locker sync.Mutex
	root   string
	paths  []string
	closed bool
}

// New creates a private directory under parent (os.TempDir() if empty).
func New(parent string) (*Dir, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	root, err := os.MkdirTemp(parent, "avsync-"+uuid.NewString()[:8]+"-")
	if err != nil {
		return nil, fmt.Errorf("unable to create a temporary directory in '%s': %w", parent, err)
	}
	return &Dir{root: root}, nil
}

func (d *Dir) Root() string {
	return d.root
}

// Path returns a unique path inside the directory ending with name.
// The file itself is not created.
func (d *Dir) Path(name string) string {
	d.locker.Lock()
	defer d.locker.Unlock()
	p := filepath.Join(d.root, uuid.NewString()+"-"+filepath.Base(name))
	d.paths = append(d.paths, p)
	return p
}

// Close removes every handed out file and the directory itself. It is safe
// to call it more than once.
func (d *Dir) Close() error {
	d.locker.Lock()
	defer d.locker.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true

	var result *multierror.Error
	for _, p := range d.paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			result = multierror.Append(result, fmt.Errorf("unable to remove '%s': %w", p, err))
		}
	}
	if err := os.RemoveAll(d.root); err != nil {
		result = multierror.Append(result, fmt.Errorf("unable to remove '%s': %w", d.root, err))
	}
	return result.ErrorOrNil()
}
