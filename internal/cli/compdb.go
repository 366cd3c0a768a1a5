package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/yaito3014/cabin/internal/builddriver"
	"github.com/yaito3014/cabin/internal/diag"
	"github.com/yaito3014/cabin/internal/proc"
	"github.com/yaito3014/cabin/internal/project"
)

var compdbCmd = &cobra.Command{
	Use:   "compdb",
	Short: "Aggregate compile_commands.json across every profile without building",
	RunE:  runCompdb,
}

// compdbProfiles lists the profiles aggregated across, in a fixed order so
// compile_commands.json's (directory, file) de-duplication is deterministic
// between runs.
var compdbProfiles = []string{"dev", "release", "test"}

func init() {
	rootCmd.AddCommand(compdbCmd)
}

func runCompdb(cmd *cobra.Command, args []string) error {
	d := diag.New()

	var projects []*project.Project
	for _, name := range compdbProfiles {
		p, err := plan(cmd.Context(), d, name, false)
		if err != nil {
			return err
		}
		projects = append(projects, p.Project)
	}

	driver := builddriver.New(proc.New())
	return driver.Compdb(cmd.Context(), filepath.Join(projects[0].Root, "cabin-out"), projects)
}
