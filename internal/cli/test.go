package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/yaito3014/cabin/internal/builddriver"
	"github.com/yaito3014/cabin/internal/cabinerr"
	"github.com/yaito3014/cabin/internal/diag"
	"github.com/yaito3014/cabin/internal/proc"
)

var (
	testProfile  string
	testName     string
	testCoverage bool
	testJobs     int
)

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Build and run the current package's tests",
	RunE:  runTest,
}

func init() {
	testCmd.Flags().StringVar(&testProfile, "profile", "test", "build profile to test under")
	testCmd.Flags().StringVar(&testName, "name", "", "only run tests whose Ninja target contains this substring")
	testCmd.Flags().BoolVar(&testCoverage, "coverage", false, "instrument tests with --coverage and emit gcno/gcda alongside the test binaries")
	testCmd.Flags().IntVar(&testJobs, "jobs", runtime.GOMAXPROCS(0), "parallel job count")
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	d := diag.New(diag.WithJobs(testJobs))

	p, err := plan(cmd.Context(), d, testProfile, testCoverage)
	if err != nil {
		return err
	}

	driver := builddriver.New(proc.New())
	rep, err := driver.Test(cmd.Context(), p.Project, p.Graph, testName)
	if err != nil {
		return err
	}

	d.Status("Finished", "`"+testProfile+"` profile")
	fmt.Println(rep.String())
	if rep.Failed > 0 {
		return cabinerr.Newf(cabinerr.Process, "%d test(s) failed", rep.Failed)
	}
	return nil
}
