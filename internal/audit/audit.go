// Package audit checks packages for known vulnerabilities via npm audit.
//
// The audit runs in a throwaway directory: a synthetic package.json listing
// the packages as dependencies, `npm install --package-lock-only` to build a
// lock file, then `npm audit --json`.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const (
	installTimeout = 30 * time.Second
	auditTimeout   = 20 * time.Second
)

// Vulnerability is one advisory affecting a package.
type Vulnerability struct {
	Package  string
	Severity string
	Title    string
	URL      string
	Range    string
}

// Report summarizes an npm audit run.
type Report struct {
	Total           int
	Critical        int
	High            int
	Moderate        int
	Low             int
	Vulnerabilities []Vulnerability
}

// HasBlocking reports whether the audit found critical vulnerabilities.
func (r *Report) HasBlocking() bool {
	return r.Critical > 0
}

// Runner executes npm in a working directory. Tests substitute a fake.
type Runner func(ctx context.Context, dir string, args ...string) ([]byte, error)

func runNPM(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "npm", args...)
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		// npm audit exits non-zero when vulnerabilities exist; the JSON on
		// stdout is still the answer.
		if _, ok := err.(*exec.ExitError); ok && len(output) > 0 {
			return output, nil
		}
		return nil, err
	}
	return output, nil
}

// Auditor runs npm audit against a package list.
type Auditor struct {
	runner Runner
}

// New returns an Auditor backed by the real npm binary.
func New() *Auditor {
	return &Auditor{runner: runNPM}
}

// NewWithRunner returns an Auditor using a custom runner, for tests.
func NewWithRunner(runner Runner) *Auditor {
	return &Auditor{runner: runner}
}

// Run audits the given packages at their latest versions and returns the
// parsed report.
func (a *Auditor) Run(ctx context.Context, packages []string) (*Report, error) {
	if len(packages) == 0 {
		return &Report{}, nil
	}

	dir, err := os.MkdirTemp("", "voltup-audit-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := writeManifest(dir, packages); err != nil {
		return nil, err
	}

	installCtx, cancel := context.WithTimeout(ctx, installTimeout)
	defer cancel()
	if _, err := a.runner(installCtx, dir, "install", "--package-lock-only"); err != nil {
		return nil, fmt.Errorf("failed to build lock file: %w", err)
	}

	auditCtx, cancel := context.WithTimeout(ctx, auditTimeout)
	defer cancel()
	output, err := a.runner(auditCtx, dir, "audit", "--json")
	if err != nil {
		return nil, fmt.Errorf("npm audit failed: %w", err)
	}

	return parseReport(output)
}

func writeManifest(dir string, packages []string) error {
	deps := make(map[string]string, len(packages))
	for _, pkg := range packages {
		deps[pkg] = "latest"
	}

	manifest := map[string]any{
		"name":         "voltup-audit",
		"version":      "1.0.0",
		"dependencies": deps,
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal audit manifest: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "package.json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write audit manifest: %w", err)
	}
	return nil
}

// auditResponse matches the npm audit v7+ JSON layout; only the fields we
// report on are declared.
type auditResponse struct {
	Metadata struct {
		Vulnerabilities struct {
			Total    int `json:"total"`
			Critical int `json:"critical"`
			High     int `json:"high"`
			Moderate int `json:"moderate"`
			Low      int `json:"low"`
		} `json:"vulnerabilities"`
	} `json:"metadata"`
	Vulnerabilities map[string]struct {
		Severity string            `json:"severity"`
		Range    string            `json:"range"`
		Via      []json.RawMessage `json:"via"`
	} `json:"vulnerabilities"`
}

func parseReport(output []byte) (*Report, error) {
	var resp auditResponse
	if err := json.Unmarshal(output, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse audit output: %w", err)
	}

	report := &Report{
		Total:    resp.Metadata.Vulnerabilities.Total,
		Critical: resp.Metadata.Vulnerabilities.Critical,
		High:     resp.Metadata.Vulnerabilities.High,
		Moderate: resp.Metadata.Vulnerabilities.Moderate,
		Low:      resp.Metadata.Vulnerabilities.Low,
	}

	for name, vuln := range resp.Vulnerabilities {
		entry := Vulnerability{
			Package:  name,
			Severity: vuln.Severity,
			Range:    vuln.Range,
		}

		// The first structured via entry carries the advisory details;
		// string entries are just package names along the chain.
		for _, raw := range vuln.Via {
			var via struct {
				Title string `json:"title"`
				URL   string `json:"url"`
			}
			if err := json.Unmarshal(raw, &via); err == nil && via.Title != "" {
				entry.Title = via.Title
				entry.URL = via.URL
				break
			}
		}

		report.Vulnerabilities = append(report.Vulnerabilities, entry)
	}

	return report, nil
}
