package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppkgd/ppkgd/internal/app"
	"github.com/ppkgd/ppkgd/internal/config"
)

// fetchAllCmd represents the fetch-all command
var fetchAllCmd = &cobra.Command{
	Use:   "fetch-all <pkg>...",
	Short: "Install a list of independent packages concurrently",
	Long: `Install each named package using a bounded worker pool, sized by
workers.main in config. Unlike "ppkgd install", the packages given on the
command line are assumed independent of one another: each runs through its
own InstallEngine.Install call (recursing into its own dependency tree as
usual), but distinct top-level packages may build concurrently. Two
top-level packages that share a dependency share one download of its
artifact, by Cache's own in-flight dedup; the remaining install steps of
that dependency are not serialized between them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetchAll,
}

var fetchAllForce bool

func init() {
	fetchAllCmd.Flags().BoolVar(&fetchAllForce, "force", false, "reinstall even if already present")
	rootCmd.AddCommand(fetchAllCmd)
}

func runFetchAll(cmd *cobra.Command, args []string) error {
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

	application.Installer.Force = fetchAllForce

	group := application.MainPool.NewGroup()
	for _, pkg := range args {
		pkg := pkg
		group.SubmitErr(func() error {
			if err := application.Installer.Install(ctx, pkg); err != nil {
				return fmt.Errorf("installing %q: %w", pkg, err)
			}
			return nil
		})
	}

	return group.Wait()
}
