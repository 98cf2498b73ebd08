package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppkgd/ppkgd/formula"
	"github.com/ppkgd/ppkgd/internal/app"
	"github.com/ppkgd/ppkgd/internal/config"
	"github.com/ppkgd/ppkgd/internal/depgraph"
	"github.com/ppkgd/ppkgd/internal/proc"
)

var (
	dependsTargetPlatform string
	dependsOutputType     string
	dependsOutputPath     string
)

// dependsCmd represents the depends command
var dependsCmd = &cobra.Command{
	Use:   "depends <pkg>",
	Short: "Print a package's transitive dependency graph",
	Long: `Resolve a package's transitive dependency closure and render it, by
default as a DOT adjacency-list fragment. --output-type box renders the
same graph as ASCII art via a remote rendering service; svg/png shell out
to the local "dot" binary.`,
	Args: cobra.ExactArgs(1),
	RunE: runDepends,
}

func init() {
	dependsCmd.Flags().StringVar(&dependsTargetPlatform, "target-platform", "", "target platform (defaults to the host platform)")
	dependsCmd.Flags().StringVar(&dependsOutputType, "output-type", "dot", "one of: dot, box, svg, png")
	dependsCmd.Flags().StringVarP(&dependsOutputPath, "output", "o", "", "write to this file instead of stdout")
}

func runDepends(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	pkg := args[0]

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Shutdown()

	targetPlatform := dependsTargetPlatform
	if targetPlatform == "" {
		targetPlatform = application.Installer.TargetPlatform
	}

	graph, err := depgraph.BuildClosure(pkg, func(packageName string) (*formula.Formula, error) {
		return application.Resolver.Lookup(packageName, targetPlatform)
	})
	if err != nil {
		return err
	}

	dot := graph.DOT()

	switch dependsOutputType {
	case "dot":
		return writeOutput([]byte(dot), dependsOutputPath)
	case "box":
		data, err := renderBox(ctx, application.HTTPClient, dot)
		if err != nil {
			return err
		}
		return writeOutput(data, dependsOutputPath)
	case "svg", "png":
		data, err := renderViaDot(ctx, dot, dependsOutputType)
		if err != nil {
			return err
		}
		return writeOutput(data, dependsOutputPath)
	default:
		return fmt.Errorf("unknown --output-type %q", dependsOutputType)
	}
}

// renderBox sends the DOT fragment, URL-encoded in the query string of a
// GET request, to a public ASCII-art rendering service and returns the
// rendered box art.
func renderBox(ctx context.Context, client *http.Client, dot string) ([]byte, error) {
	endpoint := "https://dot-to-ascii.ggerganov.com/dot-to-ascii.php?boxart=1&src=" + url.QueryEscape(dot)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rendering dependency graph as box art: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// renderViaDot writes dot to a temp file and shells out to the local "dot"
// binary with -T<format>.
func renderViaDot(ctx context.Context, dot, format string) ([]byte, error) {
	tmp, err := os.CreateTemp("", "ppkgd-depends-*.dot")
	if err != nil {
		return nil, err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(dot); err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}

	out, err := os.CreateTemp("", "ppkgd-depends-out-*."+format)
	if err != nil {
		return nil, err
	}
	outPath := out.Name()
	out.Close()
	defer os.Remove(outPath)

	var stderr bytes.Buffer
	status, err := proc.Run(ctx, proc.Request{
		Argv:   []string{"dot", "-T" + format, "-o", outPath, tmp.Name()},
		Stderr: &stderr,
	})
	if err != nil {
		return nil, fmt.Errorf("running dot: %w", err)
	}
	if !status.Success() {
		return nil, fmt.Errorf("dot -T%s exited %s: %s", format, status.String(), stderr.String())
	}

	return os.ReadFile(outPath)
}

func writeOutput(data []byte, path string) error {
	if path == "" {
		fmt.Fprintln(realStdout, string(data))
		return nil
	}
	return os.WriteFile(path, data, 0644)
}
