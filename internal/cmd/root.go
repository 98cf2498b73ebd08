package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppkgd/ppkgd/internal/pkglog"
)

var (
	cfgFile    string
	verbose    bool
	realStdout *os.File // Real stdout saved before redirection
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ppkgd",
	Short: "A source-building package manager core",
	Long: `ppkgd resolves formulas, fetches and verifies upstream archives, and
builds and installs packages from source according to per-package formula
files kept in git-backed formula repositories.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Save the real stdout before redirecting
		realStdout = os.Stdout

		// Redirect os.Stdout to discard to suppress unwanted library output
		os.Stdout, _ = os.Open(os.DevNull)

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		handler := pkglog.NewHandler(realStdout, level)
		slog.SetDefault(slog.New(handler))

		cmd.SetOut(realStdout)
		cmd.SetErr(realStdout)
	},
}

// ExecuteContext runs the root command with context
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/ppkgd/config.yaml or /etc/ppkgd/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	// Add subcommands
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(dependsCmd)
	rootCmd.AddCommand(formulaRepoCmd)
	rootCmd.AddCommand(configCmd)
}
