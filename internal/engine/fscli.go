package engine

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// CLIRunner executes a single engine control command and returns its output.
// The production implementation shells out to fs_cli; tests substitute a fake.
type CLIRunner interface {
	Run(ctx context.Context, command string) (string, error)
}

// FsCLI runs commands through the fs_cli binary against the engine's event
// socket.
type FsCLI struct {
	Host     string
	Port     int
	Password string
	Timeout  time.Duration
}

// Run executes one command via `fs_cli -H host -P port -p password -x cmd`
// bounded by the configured timeout.
func (c *FsCLI) Run(ctx context.Context, command string) (string, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "fs_cli",
		"-H", c.Host,
		"-P", strconv.Itoa(c.Port),
		"-p", c.Password,
		"-x", command,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("fs_cli %q: %w (output: %s)", command, err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}

// parseGatewayStatus interprets `sofia status gateway <name>` output. The
// engine prints a free-form table, so matching is by substring: RUNNING in
// the state line, REGED in the register line.
func parseGatewayStatus(name, out string) GatewayStatus {
	return GatewayStatus{
		Name:       name,
		Running:    strings.Contains(out, "RUNNING"),
		Registered: strings.Contains(out, "REGED"),
		Raw:        strings.TrimSpace(out),
	}
}
