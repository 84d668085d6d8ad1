// Package vfs defines the Filesystem Abstraction: one interface for both
// local filesystem and remote (SSH/SFTP) paths, used by the Panel Engine
// without branching on locality.
package vfs

import (
	"io"
	"time"
)

// EntryType classifies a directory entry beyond the plain is-directory
// flag (regular file, directory, symlink, other).
type EntryType string

const (
	TypeFile    EntryType = "file"
	TypeDir     EntryType = "dir"
	TypeSymlink EntryType = "symlink"
	TypeOther   EntryType = "other"
)

// Entry is one filesystem object as listed by a Filesystem (§3).
type Entry struct {
	Name  string
	IsDir bool
	Size  int64
	Mtime time.Time
	Perm  uint32
	Type  EntryType
}

// ProgressFunc reports bytes transferred so far during Copy/Move.
type ProgressFunc func(written, total int64)

// Filesystem is the one trait-like interface the Panel Engine dispatches
// through (§4.10); implementations exist for the local filesystem and for
// SSH/SFTP sessions. This component owns only path-aware dispatch — the
// SSH/SFTP transport itself is an external collaborator.
type Filesystem interface {
	List(path string) ([]Entry, error)
	Stat(path string) (Entry, error)
	OpenRead(path string) (io.ReadCloser, error)
	OpenWrite(path string) (io.WriteCloser, error)
	Mkdir(path string) error
	Rm(path string) error
	Rename(oldPath, newPath string) error
	Walk(path string, fn WalkFunc) error

	// Join joins path elements using this filesystem's separator
	// conventions.
	Join(elem ...string) string
}

// WalkFunc is called for each entry visited by Walk, with its full path.
type WalkFunc func(path string, entry Entry, err error) error

// SkipDir is returned from a WalkFunc to skip a directory's contents,
// mirroring filepath.SkipDir's role for local Walk.
var SkipDir = errSkipDir{}

type errSkipDir struct{}

func (errSkipDir) Error() string { return "skip this directory" }

// Copy streams src to dst through the respective Filesystems, reporting
// progress via fn (which may be nil). It supports cross-filesystem copies
// (e.g. local to remote) since both ends are driven through the same
// interface.
func Copy(srcFS Filesystem, srcPath string, dstFS Filesystem, dstPath string, fn ProgressFunc) error {
	info, err := srcFS.Stat(srcPath)
	if err != nil {
		return err
	}

	r, err := srcFS.OpenRead(srcPath)
	if err != nil {
		return err
	}
	defer r.Close()

	w, err := dstFS.OpenWrite(dstPath)
	if err != nil {
		return err
	}
	defer w.Close()

	var written int64
	buf := make([]byte, 32*1024)
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			written += int64(n)
			if fn != nil {
				fn(written, info.Size)
			}
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}

// Move copies then removes the source; same-filesystem moves should
// prefer Filesystem.Rename directly when both paths share one Filesystem.
func Move(srcFS Filesystem, srcPath string, dstFS Filesystem, dstPath string, fn ProgressFunc) error {
	if err := Copy(srcFS, srcPath, dstFS, dstPath, fn); err != nil {
		return err
	}
	return srcFS.Rm(srcPath)
}
