package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppkgd/ppkgd/internal/app"
	"github.com/ppkgd/ppkgd/internal/config"
	"github.com/ppkgd/ppkgd/internal/ppkgerr"
)

var force bool

// installCmd represents the install command
var installCmd = &cobra.Command{
	Use:   "install <pkg>...",
	Short: "Install one or more packages",
	Long: `Resolve each named package's formula, recursively install its
dependencies left-to-right, then build and install the package itself.

Examples:
  ppkgd install curl                  # Install curl and its dependencies
  ppkgd install curl zlib             # Install multiple packages
  ppkgd install --force curl          # Reinstall even if already present`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInstall,
}

func init() {
	installCmd.Flags().BoolVar(&force, "force", false, "reinstall even if already present")
}

func runInstall(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Shutdown()

	application.Installer.Force = force

	for _, pkg := range args {
		if err := application.Installer.Install(ctx, pkg); err != nil {
			return fmt.Errorf("installing %q: %w (exit %d)", pkg, err, ppkgerr.ExitCode(err))
		}
	}

	return nil
}
