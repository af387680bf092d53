package app

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/voltup/voltup/internal/cache"
	"github.com/voltup/voltup/internal/config"
	"github.com/voltup/voltup/internal/history"
	"github.com/voltup/voltup/internal/logging"
	"github.com/voltup/voltup/internal/output"
	"github.com/voltup/voltup/internal/planner"
	"github.com/voltup/voltup/internal/registry"
	"github.com/voltup/voltup/internal/volta"
)

// configPath returns the config file location, honoring --config.
func configPath() (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", "voltup", "config.toml"), nil
}

// cacheDir returns (and creates) the version cache directory.
func cacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	dir := filepath.Join(home, ".cache", "voltup")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	return dir, nil
}

// dataDir returns (and creates) the state directory holding the snapshot,
// log file, and history database.
func dataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	dir := filepath.Join(home, ".voltup")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dir, nil
}

func snapshotPath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "last_snapshot.json"), nil
}

func logPath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "voltup.log"), nil
}

func historyPath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// loadConfig reads the config file, or defaults when it does not exist.
func loadConfig() (*config.Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

// openLogger opens the file logger; --verbose mirrors records to stderr.
// Falls back to a no-op logger when the log file cannot be opened, so a
// read-only home directory never blocks a check.
func openLogger() (*slog.Logger, func() error) {
	path, err := logPath()
	if err != nil {
		return logging.Discard(), func() error { return nil }
	}
	logger, closer, err := logging.Open(path, flagVerbose)
	if err != nil {
		return logging.Discard(), func() error { return nil }
	}
	return logger, closer
}

// newRegistryClient builds the registry client from config. useCache=false
// bypasses the on-disk cache entirely (for --no-cache).
func newRegistryClient(cfg *config.Config, useCache bool) (*registry.Client, error) {
	var versionCache *cache.Cache
	if useCache {
		dir, err := cacheDir()
		if err != nil {
			return nil, err
		}
		versionCache, err = cache.New(dir)
		if err != nil {
			return nil, err
		}
	}

	return registry.New(versionCache, registry.Options{
		TTL:      cfg.CacheTTL(),
		Workers:  cfg.ParallelChecks,
		BatchMax: cfg.BatchMax,
	})
}

// checkPipeline runs the shared enumerate-resolve-classify sequence used by
// check and update. showProgress gates the terminal progress bar (JSON
// output must stay clean).
func checkPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger, useCache, showProgress bool) ([]planner.Package, []volta.Package, error) {
	client := volta.NewClient()
	installed, err := client.ListInstalled(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list volta packages: %w", err)
	}

	reg, err := newRegistryClient(cfg, useCache)
	if err != nil {
		return nil, nil, err
	}

	opts := planner.Options{Exclude: cfg.Exclude, IncludeProject: cfg.IncludeProject}
	names := planner.QueryNames(installed, opts)

	var onProgress func(done, total int)
	var bar *output.ProgressBar
	if showProgress && len(names) > 0 {
		bar = output.NewProgress(len(names), "Checking versions")
		onProgress = func(done, total int) { bar.SetCurrent(done) }
	}

	latest := reg.Resolve(ctx, names, onProgress)
	if bar != nil {
		bar.Finish()
	}

	classified := planner.Plan(installed, latest, opts)
	logger.Info("check complete",
		"op", "check",
		"total", len(classified),
		"queried", len(names),
		"outdated", planner.CountByStatus(classified)[planner.StatusOutdated])

	return classified, installed, nil
}

// recordHistory appends one row to the operations database. Callers treat
// failures as warnings; history must never block a command.
func recordHistory(kind string, count int, detail string) error {
	path, err := historyPath()
	if err != nil {
		return err
	}
	st, err := history.New(path)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.Record(kind, count, detail)
}

// warnProjectPin prints a notice when the working directory carries a local
// volta pin, which shadows global tools.
func warnProjectPin() {
	cwd, err := os.Getwd()
	if err != nil {
		return
	}
	if pin, ok := volta.DetectProjectPin(cwd); ok {
		fmt.Fprintf(os.Stderr, "Note: this directory pins volta tools (node %s); global updates do not affect it here.\n", pin.Node)
	}
}

// confirm prompts for a yes/no answer on stdin.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)

	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
