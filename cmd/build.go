package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/MorrisonWill/willmorrison.com/internal/build"
	"github.com/MorrisonWill/willmorrison.com/internal/render"
)

// buildCmd represents the build command
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Builds the static site into the output directory",
	Long: `The build command clears the output directory (default './dist/'), renders
every Markdown file under './content/pages/' and './content/posts/' through
its template, and copies './public/' to './dist/assets/'.

Files that fail to render are logged and skipped. The command only fails
when the output directory cannot be prepared.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := runBuildProcess(cmd.Context(), &application)
		return err
	},
}

// runBuildProcess runs one full build. Templates are parsed fresh for every
// run so rebuilds pick up template edits.
func runBuildProcess(ctx context.Context, a *app) (*build.Report, error) {
	r := render.New(a.fs, render.TemplateConfig{Dir: a.layout.TemplatesDir}, a.site)
	report, err := build.New(a.fs, a.layout, r, a.log).Build(ctx)
	if err != nil {
		a.log.Error("build failed", "error", err)
		return nil, err
	}
	if report.Failures != nil {
		a.log.Warn("build finished with errors", "failures", report.FailureCount())
	}
	return report, nil
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
