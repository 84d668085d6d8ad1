package vfs

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Local is the Filesystem implementation backed by the OS filesystem.
type Local struct{}

var _ Filesystem = Local{}

func entryFromFileInfo(fi os.FileInfo) Entry {
	e := Entry{
		Name:  fi.Name(),
		IsDir: fi.IsDir(),
		Size:  fi.Size(),
		Mtime: fi.ModTime(),
		Perm:  uint32(fi.Mode().Perm()),
	}
	switch {
	case fi.Mode()&os.ModeSymlink != 0:
		e.Type = TypeSymlink
	case fi.IsDir():
		e.Type = TypeDir
	case fi.Mode().IsRegular():
		e.Type = TypeFile
	default:
		e.Type = TypeOther
	}
	return e
}

func (Local) List(path string) ([]Entry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list directory %s", path)
	}
	out := make([]Entry, 0, len(entries))
	for _, de := range entries {
		fi, err := de.Info()
		if err != nil {
			// A single unreadable entry (e.g. a broken symlink) should
			// not fail the whole listing.
			continue
		}
		out = append(out, entryFromFileInfo(fi))
	}
	return out, nil
}

func (Local) Stat(path string) (Entry, error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return Entry{}, errors.Wrapf(err, "failed to stat %s", path)
	}
	return entryFromFileInfo(fi), nil
}

func (Local) OpenRead(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", path)
	}
	return f, nil
}

func (Local) OpenWrite(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", path)
	}
	return f, nil
}

func (Local) Mkdir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", path)
	}
	return nil
}

func (Local) Rm(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return errors.Wrapf(err, "failed to remove %s", path)
	}
	return nil
}

func (Local) Rename(oldPath, newPath string) error {
	if err := os.Rename(oldPath, newPath); err != nil {
		return errors.Wrapf(err, "failed to rename %s to %s", oldPath, newPath)
	}
	return nil
}

func (Local) Walk(path string, fn WalkFunc) error {
	return filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if ferr := fn(p, Entry{}, err); ferr != nil {
				return ferr
			}
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		cbErr := fn(p, entryFromFileInfo(info), nil)
		if cbErr == SkipDir {
			return filepath.SkipDir
		}
		return cbErr
	})
}

func (Local) Join(elem ...string) string {
	return filepath.Join(elem...)
}
