// init.go implements the "qudud init" command with optional --force flag.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/qudud-dev/qudud/internal/config"
	qlog "github.com/qudud-dev/qudud/internal/log"
)

func newInitCmd(global *globalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration for the current directory",
		Long: `Create .qudud/config.yaml with default settings. The service URL can be
set with --api-url. Local runtime files are added to .gitignore.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting working directory: %w", err)
			}
			return runInit(dir, global, force, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration")
	return cmd
}

func runInit(dir string, global *globalOptions, force bool, out io.Writer) error {
	path := config.Path(dir)
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists; rerun with --force to overwrite", path)
	}

	cfg := config.DefaultConfig()
	if global.apiURL != "" {
		cfg.Backend.APIURL = global.apiURL
	}
	if global.debug {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := config.WriteConfig(dir, cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	if err := ensureGitignore(dir); err != nil {
		fmt.Fprintf(out, "Warning: failed to set up .gitignore: %v\n", err)
	}

	fmt.Fprintf(out, "Configuration written to %s\n", path)
	fmt.Fprintf(out, "  Service: %s\n", cfg.Backend.APIURL)
	fmt.Fprintf(out, "  Timeout: %s\n", cfg.Backend.Timeout())
	fmt.Fprintln(out, "Run 'qudud' to start.")
	return nil
}

// ensureGitignore appends the runtime entries missing from .gitignore.
// The config file itself is meant to be committed.
func ensureGitignore(dir string) error {
	gitignorePath := filepath.Join(dir, ".gitignore")

	requiredEntries := []string{
		".env",
		filepath.ToSlash(filepath.Join(".qudud", qlog.FileName)),
	}

	existing := ""
	if data, err := os.ReadFile(gitignorePath); err == nil {
		existing = string(data)
	}

	var missing []string
	for _, entry := range requiredEntries {
		if !hasLine(existing, entry) {
			missing = append(missing, entry)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	var toAppend strings.Builder
	if existing != "" && !strings.HasSuffix(existing, "\n") {
		toAppend.WriteString("\n")
	}
	if existing != "" {
		toAppend.WriteString("\n# Added by qudud init\n")
	}
	for _, entry := range missing {
		toAppend.WriteString(entry + "\n")
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening .gitignore: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(toAppend.String()); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}
	return nil
}

func hasLine(content, entry string) bool {
	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == entry {
			return true
		}
	}
	return false
}
