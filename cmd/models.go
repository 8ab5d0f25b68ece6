package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/genterm/genterm/internal/api"
	"github.com/genterm/genterm/internal/exitcode"
	"github.com/genterm/genterm/internal/proc"
	"github.com/genterm/genterm/internal/ui"
)

var (
	modelsPick bool
	modelsJSON bool
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models available on the server",
	Long: `List models available on the server.

A server that cannot be reached, or that answers with something other
than a models listing, produces an empty list and a diagnostic on
stderr rather than an error.

Examples:
  genterm models                     # list models
  genterm models --pick              # choose one interactively
  genterm models --json              # output as JSON
  genterm models --host 10.0.0.5     # query another server`,
	RunE: runModels,
}

func init() {
	modelsCmd.Flags().BoolVar(&modelsPick, "pick", false, "Pick a model interactively and print its name")
	modelsCmd.Flags().BoolVar(&modelsJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions("")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	models, err := api.ListModels(ctx, proc.Shell{}, opts.Endpoint(), api.DefaultListCommand)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		models = nil
	}

	if modelsPick {
		if len(models) == 0 {
			return fmt.Errorf("no models to pick from")
		}
		name, err := ui.PickModel(models, opts.Model)
		if err != nil {
			return exitcode.Cancel()
		}
		fmt.Println(name)
		return nil
	}

	if modelsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(models)
	}

	if len(models) == 0 {
		fmt.Println("No models found.")
		return nil
	}

	fmt.Printf("Available models on %s:\n\n", opts.Endpoint().BaseURL())
	for _, m := range models {
		line := fmt.Sprintf("  %-30s %8s", m.Name, ui.FormatSize(m.Size))
		if !m.ModifiedAt.IsZero() {
			line += "   " + m.ModifiedAt.Format("2006-01-02")
		}
		fmt.Println(line)
	}
	return nil
}
