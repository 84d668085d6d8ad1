// Package handler implements the Extension Handler Router: maps a file
// extension to an ordered list of shell command templates, trying each
// in turn until one succeeds (§4.5).
package handler

import (
	"os"
	"os/exec"
	"strings"

	"github.com/lestrrat-go/pdebug"
	"github.com/pkg/errors"
)

// Template is one command template for a handler entry. Foreground
// templates suspend the terminal UI and exec to completion; background
// templates (the "@" prefix) spawn detached and report success once
// started.
type Template struct {
	Command    string
	Background bool
}

// ParseTemplate parses a configured command string, stripping the "@"
// background-launch prefix if present.
func ParseTemplate(raw string) Template {
	if strings.HasPrefix(raw, "@") {
		return Template{Command: strings.TrimPrefix(raw, "@"), Background: true}
	}
	return Template{Command: raw}
}

// Router maps a pipe-delimited, case-insensitive extension pattern to an
// ordered list of Templates.
type Router struct {
	entries map[string][]Template // lowercased single extension -> templates
}

// NewRouter builds a Router from the Settings Store's extension_handler
// schema: pattern (pipe-delimited, case-insensitive) -> command list.
func NewRouter(config map[string][]string) *Router {
	r := &Router{entries: make(map[string][]Template)}
	for pattern, commands := range config {
		templates := make([]Template, 0, len(commands))
		for _, c := range commands {
			templates = append(templates, ParseTemplate(c))
		}
		for _, ext := range strings.Split(pattern, "|") {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext == "" {
				continue
			}
			r.entries[ext] = templates
		}
	}
	return r
}

// Lookup returns the ordered templates configured for ext (without the
// leading dot), case-insensitive, and whether a handler was found.
func (r *Router) Lookup(ext string) ([]Template, bool) {
	templates, ok := r.entries[strings.ToLower(ext)]
	return templates, ok
}

// Suspender suspends/restores the terminal UI around a foreground
// command, satisfied by the Input Loop / Renderer Bridge.
type Suspender interface {
	Suspend() error
	Resume() error
}

// substitute replaces {{FILEPATH}} with the shell-escaped absolute path.
func substitute(template, path string) string {
	return strings.ReplaceAll(template, "{{FILEPATH}}", shellQuote(path))
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// Open tries each template for path in order: background templates are
// spawned detached and counted as success once started; foreground
// templates suspend the UI via sus, run to completion, and succeed iff
// the exit code is 0. It returns the error from the last template tried
// if all fail.
func Open(path string, templates []Template, sus Suspender) error {
	var lastErr error
	for _, tpl := range templates {
		cmdline := substitute(tpl.Command, path)
		if pdebug.Enabled {
			pdebug.Printf("handler: trying %q for %s (background=%v)", cmdline, path, tpl.Background)
		}

		if tpl.Background {
			cmd := exec.Command("sh", "-c", cmdline)
			cmd.Stdout = nil
			cmd.Stderr = nil
			if err := cmd.Start(); err != nil {
				lastErr = errors.Wrapf(err, "failed to launch %q", cmdline)
				continue
			}
			go cmd.Wait()
			return nil
		}

		if err := runForeground(cmdline, sus); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	if lastErr == nil {
		lastErr = errors.New("no handler templates configured")
	}
	return lastErr
}

func runForeground(cmdline string, sus Suspender) error {
	if sus != nil {
		if err := sus.Suspend(); err != nil {
			return errors.Wrap(err, "failed to suspend terminal UI")
		}
		defer sus.Resume()
	}

	cmd := exec.Command("sh", "-c", cmdline)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return errors.Wrapf(err, "command %q exited non-zero", cmdline)
	}
	return nil
}
