// Package ai implements the named interface to the AI assistant command
// invocation (§1's explicit out-of-scope external collaborator): a thin
// exec.Command wrapper that hands the active panel's path and a prompt
// to a user-configured command and captures its stdout, in the same
// shelling-out style as internal/gitstatus.
package ai

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
)

// DefaultCommand is used when the Settings Store has no ai_command
// configured; it deliberately fails unless the user has actually
// installed something named "ai" on their PATH.
const DefaultCommand = "ai"

// Ask invokes command (empty means DefaultCommand) with prompt as its
// final argument and cwd as its working directory, returning its
// trimmed stdout.
func Ask(ctx context.Context, command, cwd, prompt string) (string, error) {
	if command == "" {
		command = DefaultCommand
	}

	cmd := exec.CommandContext(ctx, command, prompt)
	cmd.Dir = cwd

	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", errors.Wrapf(err, "ai command %q failed", command)
	}
	return strings.TrimSpace(out.String()), nil
}
