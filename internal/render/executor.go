package render

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
)

// Binary is the ffmpeg executable looked up on PATH.
var Binary = "ffmpeg"

// ExecResult holds the outcome of a single ffmpeg invocation.
type ExecResult struct {
	Stderr string
	Err    error
}

// Execute runs ffmpeg with args. When verbose, stderr is tee'd to
// os.Stderr in real time; otherwise it is captured silently for retry
// classification.
func Execute(ctx context.Context, args []string, verbose bool) ExecResult {
	cmd := exec.CommandContext(ctx, Binary, args...)

	var stderrBuf bytes.Buffer
	if verbose {
		cmd.Stderr = io.MultiWriter(&stderrBuf, os.Stderr)
	} else {
		cmd.Stderr = &stderrBuf
	}

	err := cmd.Run()
	return ExecResult{
		Stderr: stderrBuf.String(),
		Err:    err,
	}
}
