package builddriver

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/yaito3014/cabin/internal/cabinerr"
	"github.com/yaito3014/cabin/internal/project"
)

// CompDBEntry is one entry of a clang compilation database.
type CompDBEntry struct {
	Directory string `json:"directory"`
	Command   string `json:"command,omitempty"`
	Arguments []string `json:"arguments,omitempty"`
	File      string `json:"file"`
	Output    string `json:"output,omitempty"`
}

func (e CompDBEntry) key() string { return e.Directory + "\x00" + e.File }

// Compdb aggregates "ninja -t compdb cxx_compile" across the given profile
// projects, in order, merging entries uniquely by (directory, file) with a
// later project's entry replacing an earlier one, and writes the
// pretty-printed result to
// "<cabinOutRoot>/compile_commands.json".
func (d *Driver) Compdb(ctx context.Context, cabinOutRoot string, profiles []*project.Project) error {
	merged := make(map[string]CompDBEntry)

	for _, proj := range profiles {
		res, err := d.run(ctx, proj, []string{"-t", "compdb", "cxx_compile"}, nil)
		if err != nil {
			return cabinerr.Wrapf(err, cabinerr.Process, "ninja -t compdb failed for %s", proj.OutBase)
		}

		var entries []CompDBEntry
		if err := json.Unmarshal([]byte(res.Stdout), &entries); err != nil {
			return cabinerr.Wrapf(err, cabinerr.Parse, "ninja -t compdb output for %s is not a JSON array", proj.OutBase)
		}
		for _, e := range entries {
			merged[e.key()] = e
		}
	}

	out := make([]CompDBEntry, 0, len(merged))
	for _, e := range merged {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Directory != out[j].Directory {
			return out[i].Directory < out[j].Directory
		}
		return out[i].File < out[j].File
	})

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return cabinerr.Wrap(err, cabinerr.Parse, "marshaling compile_commands.json")
	}

	path := filepath.Join(cabinOutRoot, "compile_commands.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return cabinerr.Wrapf(err, cabinerr.Config, "writing %s", path)
	}
	return nil
}
