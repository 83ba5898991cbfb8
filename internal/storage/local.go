package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/windcast/windcast/internal/stamp"
)

// Local stores artifacts as plain files under a directory.
type Local struct {
	Dir string
}

// NewLocal creates a Local store rooted at dir, creating it if necessary.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "creating storage dir %q", dir)
	}
	return &Local{Dir: dir}, nil
}

func (l *Local) path(name string) string {
	return filepath.Join(l.Dir, name)
}

func (l *Local) Save(_ context.Context, sourcePath, name string) error {
	src, err := os.Open(sourcePath)
	if err != nil {
		return errors.Wrapf(err, "opening %q", sourcePath)
	}
	defer src.Close()

	dst, err := os.Create(l.path(name))
	if err != nil {
		return errors.Wrapf(err, "creating %q", name)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return errors.Wrapf(err, "copying %q into storage", name)
	}
	return nil
}

func (l *Local) Remove(_ context.Context, name string) error {
	if err := os.Remove(l.path(name)); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing %q", name)
	}
	return nil
}

func (l *Local) Exists(_ context.Context, name string) (bool, error) {
	return l.ExistsBlocking(name)
}

func (l *Local) ExistsBlocking(name string) (bool, error) {
	_, err := os.Stat(l.path(name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (l *Local) List(_ context.Context) ([]stamp.Stamp, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing %q", l.Dir)
	}

	var stamps []stamp.Stamp
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		st, err := stamp.ParseFileName(e.Name())
		if err != nil {
			continue
		}
		stamps = append(stamps, st)
	}
	return stamps, nil
}

func (l *Local) Get(_ context.Context, name string, v any) error {
	f, err := os.Open(l.path(name))
	if err != nil {
		return errors.Wrapf(err, "opening %q", name)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return errors.Wrapf(err, "decoding %q", name)
	}
	return nil
}

func (l *Local) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(l.path(name))
	if err != nil {
		return nil, errors.Wrapf(err, "opening %q", name)
	}
	return f, nil
}

func (l *Local) String() string {
	return fmt.Sprintf("Local (%s)", l.Dir)
}
