// Package volta wraps the volta CLI for listing and installing global
// Node.js packages.
package volta

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ProjectVersion is the sentinel volta reports for a package whose version is
// pinned by a local project manifest rather than the global toolchain.
const ProjectVersion = "project"

// Package is one globally-installed package as reported by volta.
type Package struct {
	Name    string
	Version string
}

// Spec returns the name@version form volta accepts on install.
func (p Package) Spec() string {
	if p.Version == "" {
		return p.Name
	}
	return p.Name + "@" + p.Version
}

// Runner executes the volta binary. Tests substitute a fake to avoid
// spawning real subprocesses.
type Runner func(ctx context.Context, args ...string) ([]byte, error)

func runVolta(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "volta", args...)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("volta %s failed: %w (stderr: %s)",
				strings.Join(args, " "), err, string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("volta %s failed: %w", strings.Join(args, " "), err)
	}
	return output, nil
}

// Client runs volta subcommands.
type Client struct {
	runner Runner
}

// NewClient returns a Client backed by the real volta binary.
func NewClient() *Client {
	return &Client{runner: runVolta}
}

// NewClientWithRunner returns a Client using a custom runner, for tests.
func NewClientWithRunner(runner Runner) *Client {
	return &Client{runner: runner}
}

// ListInstalled returns the volta-managed global packages. Output lines of
// `volta list --format=plain` look like:
//
//	package typescript@5.3.3
//	package @vue/cli@5.0.8 (default)
//	package eslint@project
func (c *Client) ListInstalled(ctx context.Context) ([]Package, error) {
	output, err := c.runner(ctx, "list", "--format=plain")
	if err != nil {
		return nil, fmt.Errorf("failed to list installed packages: %w", err)
	}

	var packages []Package
	for _, line := range strings.Split(string(output), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "package" {
			continue
		}

		name, version := ParsePackage(fields[1])
		if name == "" {
			continue
		}
		packages = append(packages, Package{Name: name, Version: version})
	}

	return packages, nil
}

// Install runs `volta install` for the given name@version specs.
func (c *Client) Install(ctx context.Context, specs []string) error {
	if len(specs) == 0 {
		return nil
	}

	args := append([]string{"install"}, specs...)
	if _, err := c.runner(ctx, args...); err != nil {
		return fmt.Errorf("failed to install packages: %w", err)
	}
	return nil
}

// ParsePackage splits a name@version spec into its parts. Scoped names keep
// their leading @scope/ segment: "@vue/cli@5.0.8" parses to ("@vue/cli",
// "5.0.8") while "@vue/cli" alone has no version.
func ParsePackage(spec string) (name, version string) {
	if !strings.Contains(spec, "@") {
		return spec, ""
	}

	if strings.HasPrefix(spec, "@") {
		// Scoped package: the version is only present after a second @.
		if strings.Count(spec, "@") < 2 {
			return spec, ""
		}
		idx := strings.LastIndex(spec, "@")
		return spec[:idx], spec[idx+1:]
	}

	parts := strings.SplitN(spec, "@", 2)
	return parts[0], parts[1]
}

// CheckTools verifies that both volta and npm are on PATH. npm is needed to
// query the registry even though volta performs the installs.
func CheckTools() error {
	if _, err := exec.LookPath("volta"); err != nil {
		return fmt.Errorf("volta not found in PATH (install from https://volta.sh): %w", err)
	}
	if _, err := exec.LookPath("npm"); err != nil {
		return fmt.Errorf("npm not found in PATH (needed to query the registry): %w", err)
	}
	return nil
}
