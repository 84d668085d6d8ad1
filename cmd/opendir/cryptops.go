package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mongsil1012/opendir/hub"
	"github.com/mongsil1012/opendir/internal/crypt"
	"github.com/mongsil1012/opendir/internal/panel"
)

// startPack prompts for a destination directory and password, then
// splits the entry under p's cursor into encrypted .cokacenc chunks on
// a worker goroutine. Pack operates on local paths only (cokacenc
// shells out to os.Stat/os.Open directly rather than through
// vfs.Filesystem), so this action is only meaningful on a local panel.
func (a *application) startPack(p *panel.Panel) {
	e, ok := p.CurrentEntry()
	if !ok || e.IsDir {
		return
	}
	srcPath := p.FS.Join(p.Path, e.Name)

	form := newFormScreen("Pack "+e.Name, []string{"Destination dir", "Password"}, []bool{false, true}, func(values []string) {
		destDir, password := values[0], values[1]
		if destDir == "" {
			destDir = p.Path
		}
		go func() {
			ctx := context.Background()
			a.hub.SendWorkerEvent(ctx, hub.WorkerEvent{JobID: "pack", Kind: hub.WorkerStarted})
			chunks, err := crypt.Pack(srcPath, destDir, []byte(password), crypt.PackOptions{})
			if err != nil {
				a.hub.SendWorkerEvent(ctx, hub.WorkerEvent{JobID: "pack", Kind: hub.WorkerFailed, Err: err})
				return
			}
			a.hub.SendWorkerEvent(ctx, hub.WorkerEvent{JobID: "pack", Kind: hub.WorkerDone, Message: formatChunkCount(len(chunks))})
		}()
	})
	a.loop.Stack().Push(form)
}

func formatChunkCount(n int) string {
	if n == 1 {
		return "wrote 1 chunk"
	}
	return fmt.Sprintf("wrote %d chunks", n)
}

// startUnpack groups every .cokacenc chunk in p's current directory by
// group id, takes the group the cursor entry belongs to (or the sole
// group if there's exactly one), prompts for a password, and reassembles
// it on a worker goroutine.
func (a *application) startUnpack(p *panel.Panel) {
	e, ok := p.CurrentEntry()
	if !ok {
		return
	}

	groups, err := crypt.GroupChunks(p.Path)
	if err != nil || len(groups) == 0 {
		a.hub.SendStatusMsg(context.Background(), "no .cokacenc chunks found in this directory", 4*time.Second)
		return
	}

	group, _, err := crypt.ParseChunkFilename(e.Name)
	var chunkPaths []string
	if err == nil {
		chunkPaths = groups[group]
	}
	if len(chunkPaths) == 0 {
		for _, paths := range groups {
			chunkPaths = paths
			break
		}
	}
	if len(chunkPaths) == 0 {
		return
	}

	form := newFormScreen("Unpack "+filepath.Base(chunkPaths[0]), []string{"Destination dir", "Password"}, []bool{false, true}, func(values []string) {
		destDir, password := values[0], values[1]
		if destDir == "" {
			destDir = p.Path
		}
		go func() {
			ctx := context.Background()
			a.hub.SendWorkerEvent(ctx, hub.WorkerEvent{JobID: "unpack", Kind: hub.WorkerStarted})
			out, err := crypt.Unpack(chunkPaths, destDir, []byte(password), crypt.UnpackOptions{})
			if err != nil {
				a.hub.SendWorkerEvent(ctx, hub.WorkerEvent{JobID: "unpack", Kind: hub.WorkerFailed, Err: err})
				return
			}
			a.hub.SendWorkerEvent(ctx, hub.WorkerEvent{JobID: "unpack", Kind: hub.WorkerDone, Message: "wrote " + out})
		}()
	})
	a.loop.Stack().Push(form)
}
