package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/genterm/genterm/internal/config"
	"github.com/genterm/genterm/internal/debuglog"
	"github.com/genterm/genterm/internal/exitcode"
)

var (
	flagURL   string
	flagHost  string
	flagPort  int
	flagMode  string
	flagDebug bool
)

var rootCmd = &cobra.Command{
	Use:   "genterm",
	Short: "Stream LLM responses into your terminal",
	Long: `genterm streams text generation from an Ollama or OpenAI-compatible
server, renders it live, and can substitute the result back into a file range.

Examples:
  genterm run "why is the sky blue"
  genterm run grammar -f notes.md --lines 3:10 --replace
  git diff --staged | genterm run summarize
  genterm chat
  genterm models --pick`,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagURL, "url", "", "Full server URL (overrides host/port)")
	rootCmd.PersistentFlags().StringVar(&flagHost, "host", "", "Server host")
	rootCmd.PersistentFlags().IntVar(&flagPort, "port", 0, "Server port")
	rootCmd.PersistentFlags().StringVar(&flagMode, "mode", "", "Endpoint mode: chat, generate or openai")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Write a debug log for this invocation")
}

// loadOptions loads the config file and merges the persistent flags, plus
// a per-command model override, into one immutable snapshot.
func loadOptions(model string) (config.Options, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Options{}, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg.Snapshot(config.Overrides{
		Model: model,
		Host:  flagHost,
		Port:  flagPort,
		URL:   flagURL,
		Mode:  flagMode,
		Debug: flagDebug,
	})
}

// openLog returns the debug logger for this invocation, or a nil logger
// (every method a no-op) when debugging is off or the log file cannot be
// created.
func openLog(opts config.Options) *debuglog.Logger {
	if !opts.Debug {
		return nil
	}
	dir, err := config.Dir()
	if err != nil {
		return nil
	}
	log, err := debuglog.Open(filepath.Join(dir, "logs"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: debug log unavailable: %v\n", err)
		return nil
	}
	fmt.Fprintf(os.Stderr, "Debug log: %s\n", log.Path())
	return log
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if exitErr, ok := err.(exitcode.ExitError); ok {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
