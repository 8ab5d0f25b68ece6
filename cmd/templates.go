package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/genterm/genterm/internal/config"
	"github.com/genterm/genterm/internal/prompt"
	"github.com/genterm/genterm/internal/ui"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List prompt templates",
	Long: `List the built-in and user prompt templates.

User templates live in the templates.yaml file next to the config and
shadow built-ins with the same name.`,
	RunE: runTemplates,
}

func init() {
	rootCmd.AddCommand(templatesCmd)
}

func runTemplates(cmd *cobra.Command, args []string) error {
	registry := prompt.NewRegistry()
	userPath, err := config.TemplatesPath()
	if err == nil {
		if err := registry.LoadUser(userPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	fmt.Println("Available templates:")
	fmt.Println()
	for _, name := range registry.Names() {
		tmpl, _ := registry.Get(name)
		var marks []string
		if registry.IsUser(name) {
			marks = append(marks, "user")
		}
		if tmpl.Replace {
			marks = append(marks, "replace")
		}
		if tmpl.Model != "" {
			marks = append(marks, "model="+tmpl.Model)
		}
		mark := ""
		if len(marks) > 0 {
			mark = " [" + strings.Join(marks, ",") + "]"
		}
		fmt.Printf("  %-14s%s  %s\n", name, mark, promptExcerpt(tmpl.Prompt))
	}
	if userPath != "" {
		fmt.Printf("\nUser templates: %s\n", userPath)
	}
	return nil
}

func promptExcerpt(p string) string {
	return ui.Truncate(strings.ReplaceAll(p, "\n", " "), 60)
}
