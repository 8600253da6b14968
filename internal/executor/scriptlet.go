package executor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/canonical/craft-parts-go/internal/console"
)

// tailLimit bounds how much of a scriptlet's captured output is retained
// for error reporting (spec §7: "structured error... carrying... stdout/
// stderr excerpts").
const tailLimit = 4096

// runResult carries captured output from one scriptlet or command
// invocation.
type runResult struct {
	StdoutTail string
	StderrTail string
	ExitCode   int
}

// runShell executes script under the system shell with environ as its
// environment, streaming stdout/stderr to the executor's sinks while also
// retaining a bounded tail of each for error reporting — the same
// buffer-plus-MultiWriter capture shape pkg/docker/run.go uses for
// subprocess I/O.
func runShell(ctx context.Context, script string, dir string, environ []string, stdout, stderr io.Writer) (runResult, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", script)
	cmd.Dir = dir
	cmd.Env = environ

	var stdoutTail, stderrTail bytes.Buffer
	cmd.Stdout = io.MultiWriter(stdout, &stdoutTail)
	cmd.Stderr = io.MultiWriter(stderr, &stderrTail)

	console.Debugf("$ %s", script)

	err := cmd.Run()
	res := runResult{
		StdoutTail: tail(stdoutTail.String(), tailLimit),
		StderrTail: tail(stderrTail.String(), tailLimit),
	}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
		}
		return res, fmt.Errorf("command failed: %w", err)
	}
	return res, nil
}

// runCommands joins a list of plugin-emitted shell command strings into one
// script, newline separated, and runs it like an override scriptlet (spec
// §4.3: "a plugin never touches the filesystem directly — it only emits
// shell commands").
func runCommands(ctx context.Context, commands []string, dir string, environ []string, stdout, stderr io.Writer) (runResult, error) {
	if len(commands) == 0 {
		return runResult{}, nil
	}
	return runShell(ctx, strings.Join(commands, "\n"), dir, environ, stdout, stderr)
}

func tail(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[len(s)-limit:]
}
