// Package gitstatus is a thin porcelain-shelling-out wrapper around the
// git binary, the external collaborator named in §1/§6. It owns no git
// implementation of its own — only a narrow interface over exec.Command.
package gitstatus

import (
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FileStatus is one line of `git status --porcelain` output.
type FileStatus struct {
	// Code is the two-character porcelain status code (e.g. " M", "??", "A ").
	Code string
	Path string
}

// Status runs `git status --porcelain` in dir and parses the result.
func Status(ctx context.Context, dir string) ([]FileStatus, error) {
	out, err := run(ctx, dir, "status", "--porcelain")
	if err != nil {
		return nil, err
	}

	var statuses []FileStatus
	for line := range strings.Lines(out) {
		line = strings.TrimRight(line, "\n")
		if len(line) < 3 {
			continue
		}
		statuses = append(statuses, FileStatus{Code: line[:2], Path: line[3:]})
	}
	return statuses, nil
}

// LogEntry is one commit as reported by `git log`.
type LogEntry struct {
	Hash    string
	Author  string
	Date    string
	Subject string
}

const logFormat = "%H\x1f%an\x1f%ad\x1f%s"

// Log runs `git log` in dir, returning at most limit entries (0 means no
// limit).
func Log(ctx context.Context, dir string, limit int) ([]LogEntry, error) {
	args := []string{"log", "--date=short", "--pretty=format:" + logFormat}
	if limit > 0 {
		args = append(args, "-n", strconv.Itoa(limit))
	}
	out, err := run(ctx, dir, args...)
	if err != nil {
		return nil, err
	}

	var entries []LogEntry
	for line := range strings.Lines(out) {
		line = strings.TrimRight(line, "\n")
		if line == "" {
			continue
		}
		fields := strings.SplitN(line, "\x1f", 4)
		if len(fields) != 4 {
			continue
		}
		entries = append(entries, LogEntry{Hash: fields[0], Author: fields[1], Date: fields[2], Subject: fields[3]})
	}
	return entries, nil
}

// Diff runs `git diff` for path (empty path diffs the whole tree).
func Diff(ctx context.Context, dir, path string) (string, error) {
	args := []string{"diff"}
	if path != "" {
		args = append(args, "--", path)
	}
	return run(ctx, dir, args...)
}

// IsRepo reports whether dir is inside a git working tree.
func IsRepo(ctx context.Context, dir string) bool {
	_, err := run(ctx, dir, "rev-parse", "--is-inside-work-tree")
	return err == nil
}

func run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", errors.Wrapf(err, "git %s failed: %s", strings.Join(args, " "), stderr.String())
	}
	return stdout.String(), nil
}
