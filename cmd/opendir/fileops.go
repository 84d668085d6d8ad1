package main

import (
	"context"
	"time"

	"github.com/mongsil1012/opendir/hub"
	"github.com/mongsil1012/opendir/internal/panel"
	"github.com/mongsil1012/opendir/internal/vfs"
)

// selectedNames returns the panel's current Selection, or the cursor
// entry alone if nothing is explicitly selected — the usual file-manager
// convention that an unselected cursor entry still counts as "the thing
// to act on" for F5/F6/F8.
func selectedNames(p *panel.Panel) []string {
	if names := p.Selection.Names(); len(names) > 0 {
		return names
	}
	if e, ok := p.CurrentEntry(); ok {
		return []string{e.Name}
	}
	return nil
}

// copyEntry copies src (file or directory, recursively) from srcFS to
// dst on dstFS.
func copyEntry(srcFS vfs.Filesystem, src string, dstFS vfs.Filesystem, dst string) error {
	info, err := srcFS.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir {
		return vfs.Copy(srcFS, src, dstFS, dst, nil)
	}
	if err := dstFS.Mkdir(dst); err != nil {
		return err
	}
	entries, err := srcFS.List(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := copyEntry(srcFS, srcFS.Join(src, e.Name), dstFS, dstFS.Join(dst, e.Name)); err != nil {
			return err
		}
	}
	return nil
}

// removeEntry removes src (file or directory, recursively) from fs.
func removeEntry(fs vfs.Filesystem, src string) error {
	info, err := fs.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir {
		return fs.Rm(src)
	}
	entries, err := fs.List(src)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := removeEntry(fs, fs.Join(src, e.Name)); err != nil {
			return err
		}
	}
	return fs.Rm(src)
}

// startCopyOrMove copies (or moves, if move is set) every name in
// selectedNames(src) from src's panel into dst's directory, running the
// transfer on a worker goroutine and reporting completion through the
// hub so large trees don't block the Input Loop.
func (a *application) startCopyOrMove(src, dst *panel.Panel, move bool) {
	names := selectedNames(src)
	if len(names) == 0 {
		return
	}
	srcFS, srcPath := src.FS, src.Path
	dstFS, dstPath := dst.FS, dst.Path
	jobID := "copy"
	if move {
		jobID = "move"
	}

	go func() {
		ctx := context.Background()
		a.hub.SendWorkerEvent(ctx, hub.WorkerEvent{JobID: jobID, Kind: hub.WorkerStarted})
		for _, name := range names {
			from := srcFS.Join(srcPath, name)
			to := dstFS.Join(dstPath, name)
			if err := copyEntry(srcFS, from, dstFS, to); err != nil {
				a.hub.SendWorkerEvent(ctx, hub.WorkerEvent{JobID: jobID, Kind: hub.WorkerFailed, Err: err})
				return
			}
			if move {
				if err := removeEntry(srcFS, from); err != nil {
					a.hub.SendWorkerEvent(ctx, hub.WorkerEvent{JobID: jobID, Kind: hub.WorkerFailed, Err: err})
					return
				}
			}
		}
		a.hub.SendWorkerEvent(ctx, hub.WorkerEvent{JobID: jobID, Kind: hub.WorkerDone, Message: "done"})
	}()
}

// startMkdir prompts for a name and creates it as a subdirectory of p.
func (a *application) startMkdir(p *panel.Panel) {
	form := newFormScreen("New directory", []string{"Name"}, nil, func(values []string) {
		if values[0] == "" {
			return
		}
		if err := p.FS.Mkdir(p.FS.Join(p.Path, values[0])); err != nil {
			a.hub.SendStatusMsg(context.Background(), "mkdir failed: "+err.Error(), 5*time.Second)
			return
		}
		_ = p.Refresh()
	})
	a.loop.Stack().Push(form)
}

// startDelete confirms and removes every selected entry in p.
func (a *application) startDelete(p *panel.Panel) {
	names := selectedNames(p)
	if len(names) == 0 {
		return
	}
	confirm := &confirmScreen{
		prompt: "Delete the selected entries?",
		onYes: func() {
			for _, name := range names {
				if err := removeEntry(p.FS, p.FS.Join(p.Path, name)); err != nil {
					a.hub.SendStatusMsg(context.Background(), "delete failed: "+err.Error(), 5*time.Second)
					return
				}
			}
			p.Selection.Reset()
			_ = p.Refresh()
		},
	}
	a.loop.Stack().Push(confirm)
}
