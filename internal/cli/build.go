package cli

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/yaito3014/cabin/internal/builddriver"
	"github.com/yaito3014/cabin/internal/diag"
	"github.com/yaito3014/cabin/internal/proc"
)

var (
	buildProfile string
	buildJobs    int
	buildVerbose bool
	buildColor   string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the current package and its dependencies",
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringVar(&buildProfile, "profile", "dev", "build profile (dev or release)")
	buildCmd.Flags().IntVar(&buildJobs, "jobs", runtime.GOMAXPROCS(0), "parallel job count")
	buildCmd.Flags().BoolVarP(&buildVerbose, "verbose", "v", false, "enable verbose logging")
	buildCmd.Flags().StringVar(&buildColor, "color", "auto", "when to color output (auto, always, never)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	color, err := parseColor(buildColor)
	if err != nil {
		return err
	}
	d := diag.New(diag.WithJobs(buildJobs), diag.WithVerbose(buildVerbose), diag.WithColor(color))

	p, err := plan(cmd.Context(), d, buildProfile, false)
	if err != nil {
		return err
	}

	driver := builddriver.New(proc.New())
	if err := driver.Build(cmd.Context(), p.Project, p.Graph.DefaultTargets(), ""); err != nil {
		return err
	}
	d.Status("Finished", "`"+buildProfile+"` profile")
	return nil
}
