package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voltup/voltup/internal/history"
	"github.com/voltup/voltup/internal/logging"
	"github.com/voltup/voltup/internal/output"
)

var (
	logsFlagFollow bool
	logsFlagTail   int
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show operation history and log activity",
	Long: `Summarize recorded operations from the history database and the log
file, or stream the log as it grows.`,
	Example: `  voltup logs              # recent operations + log summary
  voltup logs --tail 50    # last 50 log lines
  voltup logs --follow     # stream new log lines (Ctrl-C to stop)`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFlagFollow, "follow", "f", false, "Stream new log lines")
	logsCmd.Flags().IntVar(&logsFlagTail, "tail", 0, "Show the last N log lines")

	RootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	path, err := logPath()
	if err != nil {
		return err
	}

	if logsFlagFollow {
		fmt.Fprintf(os.Stderr, "Following %s (Ctrl-C to stop)\n", path)
		return logging.Follow(cmd.Context(), path, os.Stdout)
	}

	if logsFlagTail > 0 {
		lines, err := logging.Tail(path, logsFlagTail)
		if err != nil {
			return fmt.Errorf("failed to read log file: %w", err)
		}
		for _, line := range lines {
			fmt.Println(line)
		}
		return nil
	}

	histPath, err := historyPath()
	if err != nil {
		return err
	}
	st, err := history.New(histPath)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer st.Close()

	ops, err := st.Recent(10)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	fmt.Print(output.RenderOperations(ops))

	stats, err := st.Stats()
	if err != nil {
		return fmt.Errorf("failed to read history stats: %w", err)
	}
	fmt.Printf("\nOperations recorded: %d (updates: %d)\n", stats.Total, stats.Updates)

	fileStats, err := logging.FileStats(path)
	if err != nil {
		return fmt.Errorf("failed to read log file: %w", err)
	}
	fmt.Printf("Log file: %d lines, %d errors (%s)\n", fileStats.TotalLines, fileStats.Errors, path)

	return nil
}
