package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/taxocrawl/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/taxocrawl.yaml
var configTemplate embed.FS

// templatePath is the path of the config template inside configTemplate.
const templatePath = "templates/taxocrawl.yaml"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new taxocrawl configuration file",
		Long: `Initialize creates a new .taxocrawl configuration file in the current directory.

The generated file includes:
- The taxonomy endpoint and credentials, read from the environment
- The output directory, file name and backup retention
- Commented examples for every fetch and history option

Examples:
  # Create .taxocrawl in current directory
  taxocrawl init

  # Create config file at a specific path
  taxocrawl init -o ~/.config/taxocrawl/config.yaml

  # Force overwrite existing file
  taxocrawl init --force`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().Bool("force", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// The file may hold a password.
	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to set:")
	fmt.Fprintln(out, "  - The taxonomy endpoint and dimension name")
	fmt.Fprintln(out, "  - The output directory and dimension file name")
	fmt.Fprintf(out, "  - Credentials, or export %s and %s\n", config.EnvUser, config.EnvPassword)

	return nil
}
