package emit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Format pipes src through the formatter command and returns its
// output. The caller keeps src when Format fails.
func Format(ctx context.Context, src []byte, command []string) ([]byte, error) {
	if len(command) == 0 {
		return nil, errors.New("no formatter configured")
	}
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Stdin = bytes.NewReader(src)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", command[0], err, msg)
		}
		return nil, fmt.Errorf("%s: %w", command[0], err)
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%s produced no output", command[0])
	}
	return stdout.Bytes(), nil
}
