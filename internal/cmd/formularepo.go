package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppkgd/ppkgd/internal/app"
	"github.com/ppkgd/ppkgd/internal/config"
)

var (
	repoBranch   string
	repoPinned   bool
	repoDisabled bool
	repoAll      bool
)

// formulaRepoCmd represents the formula-repo command group
var formulaRepoCmd = &cobra.Command{
	Use:   "formula-repo",
	Short: "Manage formula repositories",
	Long:  `Commands for adding, syncing, and listing git-backed formula repositories.`,
}

var formulaRepoAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Clone and register a formula repository",
	Args:  cobra.ExactArgs(2),
	RunE:  runFormulaRepoAdd,
}

var formulaRepoSyncCmd = &cobra.Command{
	Use:   "sync [name...]",
	Short: "Pull the latest commits for one or more registered repositories",
	RunE:  runFormulaRepoSync,
}

var formulaRepoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered formula repositories",
	Args:  cobra.NoArgs,
	RunE:  runFormulaRepoList,
}

func init() {
	formulaRepoAddCmd.Flags().StringVar(&repoBranch, "branch", "", "branch to track (default: master)")
	formulaRepoAddCmd.Flags().BoolVar(&repoPinned, "pinned", false, "pin this repository (exempt it from bulk sync)")
	formulaRepoAddCmd.Flags().BoolVar(&repoDisabled, "disabled", false, "register the repository but leave it disabled")

	formulaRepoSyncCmd.Flags().BoolVar(&repoAll, "all", false, "sync every registered repository that is not pinned")

	formulaRepoCmd.AddCommand(formulaRepoAddCmd)
	formulaRepoCmd.AddCommand(formulaRepoSyncCmd)
	formulaRepoCmd.AddCommand(formulaRepoListCmd)
}

func runFormulaRepoAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	name, url := args[0], args[1]

	if err := config.ValidateRepoURL(url); err != nil {
		return err
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Shutdown()

	return application.Registry.Add(name, url, repoBranch, repoPinned, !repoDisabled)
}

func runFormulaRepoSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if !repoAll && len(args) == 0 {
		return fmt.Errorf("specify repository names or use --all")
	}
	if repoAll && len(args) > 0 {
		return fmt.Errorf("cannot specify repository names when using --all")
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Shutdown()

	names := args
	if repoAll {
		all, err := application.Registry.List()
		if err != nil {
			return err
		}
		names = names[:0]
		for _, repo := range all {
			if repo.Config.Pinned {
				continue
			}
			names = append(names, repo.Name)
		}
	}

	for _, name := range names {
		if err := application.Registry.Sync(name); err != nil {
			return fmt.Errorf("syncing %q: %w", name, err)
		}
	}
	return nil
}

func runFormulaRepoList(cmd *cobra.Command, args []string) error {
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

	repos, err := application.Registry.List()
	if err != nil {
		return err
	}

	for _, repo := range repos {
		status := "enabled"
		if !repo.Config.Enabled {
			status = "disabled"
		}
		fmt.Fprintf(realStdout, "%s\t%s\t%s\t%s\n", repo.Name, repo.Config.URL, repo.Config.Branch, status)
	}
	return nil
}
